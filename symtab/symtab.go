// Package symtab is the scoped symbol table spec.md §4.5 describes: a
// forest of scopes rooted at a global scope, each owning a unique-name set
// and an ordered symbol list. Every symbol is either a Type (carrying a
// closed-sum TypeEntrails tag and a member scope) or an Instance
// (referencing a Type plus a used flag, attribute, and description).
//
// Symbol identity follows vartan's grammar/symbol.go idiom of a small,
// stable integer-like id standing in for a pointer; here the "stable
// global id" the spec calls for is a google/uuid.UUID, assigned once at
// creation and never reused.
package symtab

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/google/uuid"

	"github.com/parsegen/parsegen/cfg"
)

// SymbolKind distinguishes a Type symbol from an Instance symbol.
type SymbolKind int

const (
	KindType SymbolKind = iota
	KindInstance
)

// TypeEntrailsKind is the closed, 14-variant sum spec.md §3/§4.5 requires:
// exhaustively matched at every phase, never extended with an open
// inheritance hierarchy.
type TypeEntrailsKind int

const (
	EntrailsNone TypeEntrailsKind = iota
	EntrailsToken
	EntrailsBox
	EntrailsRef
	EntrailsSurrogate
	EntrailsStruct
	EntrailsEnum
	EntrailsEnumVariant
	EntrailsVec
	EntrailsTrait
	EntrailsFunction
	EntrailsOption
	EntrailsClipped
	EntrailsUserDefinedType
)

func (k TypeEntrailsKind) String() string {
	switch k {
	case EntrailsNone:
		return "None"
	case EntrailsToken:
		return "Token"
	case EntrailsBox:
		return "Box"
	case EntrailsRef:
		return "Ref"
	case EntrailsSurrogate:
		return "Surrogate"
	case EntrailsStruct:
		return "Struct"
	case EntrailsEnum:
		return "Enum"
	case EntrailsEnumVariant:
		return "EnumVariant"
	case EntrailsVec:
		return "Vec"
	case EntrailsTrait:
		return "Trait"
	case EntrailsFunction:
		return "Function"
	case EntrailsOption:
		return "Option"
	case EntrailsClipped:
		return "Clipped"
	case EntrailsUserDefinedType:
		return "UserDefinedType"
	default:
		return "Unknown"
	}
}

// SymbolID is the stable global id a symbol is never reassigned.
type SymbolID = uuid.UUID

var nilSymbolID SymbolID

// TypeEntrails carries the payload for whichever TypeEntrailsKind a Type
// symbol holds. Only the fields relevant to Kind are populated:
//   - Box, Ref, Surrogate, EnumVariant, Vec, Option, Clipped: Inner.
//   - Function: Params.
//   - UserDefinedType: UserDefinedKind, UserDefinedPath, and Inner when
//     the user type annotates a terminal or non-terminal occurrence.
type TypeEntrails struct {
	Kind TypeEntrailsKind

	Inner  SymbolID
	Params []SymbolID

	UserDefinedKind string
	UserDefinedPath string
}

func (e TypeEntrails) equal(o TypeEntrails) bool {
	if e.Kind != o.Kind || e.Inner != o.Inner || e.UserDefinedKind != o.UserDefinedKind || e.UserDefinedPath != o.UserDefinedPath {
		return false
	}
	if len(e.Params) != len(o.Params) {
		return false
	}
	for i := range e.Params {
		if e.Params[i] != o.Params[i] {
			return false
		}
	}
	return true
}

// ScopeID indexes Table.scopes.
type ScopeID int

// NoScope is the "no enclosing/member scope" sentinel.
const NoScope ScopeID = -1

// Scope is one node of the scope forest: a unique-name set plus an ordered
// symbol list, in insertion order. The list is backed by gods' arraylist
// (grounded on gorgo's lr/tables.go use of gods ordered collections) so
// this mirrors KTuples' deterministic-iteration rationale rather than
// relying on a plain slice for no particular reason.
type Scope struct {
	id     ScopeID
	parent ScopeID
	names  map[string]bool
	order  *arraylist.List
}

// ID returns the scope's own id.
func (s *Scope) ID() ScopeID { return s.id }

func (s *Scope) append(id SymbolID) {
	s.order.Add(id)
}

// Symbols returns the scope's member symbol ids in insertion order.
func (s *Scope) Symbols() []SymbolID {
	vals := s.order.Values()
	out := make([]SymbolID, len(vals))
	for i, v := range vals {
		out[i] = v.(SymbolID)
	}
	return out
}

// Symbol is a Type or an Instance.
type Symbol struct {
	ID     SymbolID
	Kind   SymbolKind
	Name   string
	Scope  ScopeID // the scope this symbol is a member of
	HasLifetime bool

	// Type fields, valid when Kind == KindType.
	Entrails TypeEntrails
	Members  ScopeID // this type's own member scope (fields/arguments/variants)

	// Recursive marks a type that participates in a cycle of plain
	// (Box-wrapped) non-terminal references — the cycle Box(T) exists to
	// break at the value level (spec.md §9's "cyclic grammars and type
	// graphs" note). Set by asttype.Infer, not by symtab itself.
	Recursive bool

	// Instance fields, valid when Kind == KindInstance.
	TypeID      SymbolID
	Used        bool
	Attr        cfg.SymbolAttr
	Description string
}

// Table is the symbol table: the scope forest plus the flat symbol map.
// Per spec.md §5, symbol-table mutation is single-threaded — unlike
// analysis's FirstCache/FollowCache, Table carries no lock.
type Table struct {
	scopes  []*Scope
	symbols map[SymbolID]*Symbol
	root    ScopeID
}

// New returns an empty table with a single global (root) scope.
func New() *Table {
	t := &Table{symbols: map[SymbolID]*Symbol{}}
	t.root = t.newScope(NoScope)
	return t
}

// Root returns the global scope's id.
func (t *Table) Root() ScopeID { return t.root }

func (t *Table) newScope(parent ScopeID) ScopeID {
	id := ScopeID(len(t.scopes))
	t.scopes = append(t.scopes, &Scope{id: id, parent: parent, names: map[string]bool{}, order: arraylist.New()})
	return id
}

// Scope returns the scope for id.
func (t *Table) Scope(id ScopeID) (*Scope, bool) {
	if id < 0 || int(id) >= len(t.scopes) {
		return nil, false
	}
	return t.scopes[id], true
}

// Symbol returns the symbol for id.
func (t *Table) Symbol(id SymbolID) (*Symbol, bool) {
	s, ok := t.symbols[id]
	return s, ok
}

// uniqueName registers name (after applying casing) in scope's name set,
// synthesizing a numeric-suffixed alternative on collision. The empty
// ("unnamed") name is exempt from uniqueness entirely.
func uniqueName(scope *Scope, name string) string {
	if name == "" {
		return ""
	}
	if !scope.names[name] {
		scope.names[name] = true
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s%d", name, n)
		if !scope.names[candidate] {
			scope.names[candidate] = true
			return candidate
		}
	}
}

// InsertTypeInScope creates a new Type symbol named name (upper-camel-
// cased, uniqueness-synthesized within scope) with the given entrails,
// owning a fresh, empty member scope. It does not check for an existing
// equivalent type — callers that want reuse call GetOrCreateType.
func (t *Table) InsertTypeInScope(scope ScopeID, name string, entrails TypeEntrails) SymbolID {
	s := t.scopes[scope]
	cased := upperCamel(name)
	final := uniqueName(s, cased)

	id := uuid.New()
	members := t.newScope(scope)
	t.symbols[id] = &Symbol{
		ID:       id,
		Kind:     KindType,
		Name:     final,
		Scope:    scope,
		Entrails: entrails,
		Members:  members,
		HasLifetime: entrails.Kind == EntrailsToken,
	}
	s.append(id)
	return id
}

// InsertInstance creates a new Instance symbol named name (lower-snake-
// cased, uniqueness-synthesized within parentType's member scope),
// referencing typeID, with the given symbol attribute and description.
func (t *Table) InsertInstance(parentType SymbolID, name string, typeID SymbolID, attr cfg.SymbolAttr, description string) (SymbolID, error) {
	parent, ok := t.symbols[parentType]
	if !ok || parent.Kind != KindType {
		return nilSymbolID, fmt.Errorf("symtab: InsertInstance: %v is not a type symbol", parentType)
	}
	scope := t.scopes[parent.Members]
	cased := lowerSnake(name)
	final := uniqueName(scope, cased)

	id := uuid.New()
	t.symbols[id] = &Symbol{
		ID:          id,
		Kind:        KindInstance,
		Name:        final,
		Scope:       parent.Members,
		TypeID:      typeID,
		Attr:        attr,
		Description: description,
	}
	scope.append(id)
	return id, nil
}

// GetOrCreateType returns the id of an existing type in scope equivalent to
// (name, entrails) — per spec.md §4.5, equal entrails and equal current
// (post-casing) name, except that every Token entrails collapses to one
// canonical token type per scope regardless of name — creating one via
// InsertTypeInScope only if none exists.
func (t *Table) GetOrCreateType(name string, scope ScopeID, entrails TypeEntrails) SymbolID {
	s := t.scopes[scope]
	cased := upperCamel(name)

	for _, id := range s.Symbols() {
		sym := t.symbols[id]
		if sym.Kind != KindType {
			continue
		}
		if entrails.Kind == EntrailsToken && sym.Entrails.Kind == EntrailsToken {
			return id
		}
		if sym.Entrails.equal(entrails) && sym.Name == cased {
			return id
		}
	}
	return t.InsertTypeInScope(scope, name, entrails)
}

// GetOrCreateScopedUserDefinedType materializes a "::"-separated dotted
// path as a chain of UserDefinedType(Module, …) symbols, each nested in the
// previous one's member scope, with the terminal component carrying kind.
func (t *Table) GetOrCreateScopedUserDefinedType(kind string, path string) SymbolID {
	segments := strings.Split(path, "::")
	scope := t.root
	var built string
	var last SymbolID
	for i, seg := range segments {
		if built == "" {
			built = seg
		} else {
			built = built + "::" + seg
		}
		segKind := "Module"
		if i == len(segments)-1 {
			segKind = kind
		}
		entrails := TypeEntrails{Kind: EntrailsUserDefinedType, UserDefinedKind: segKind, UserDefinedPath: built}
		last = t.GetOrCreateType(seg, scope, entrails)
		scope = t.symbols[last].Members
	}
	return last
}

// Members returns the ordered symbol ids owned by typeID's member scope.
func (t *Table) Members(typeID SymbolID) []SymbolID {
	sym, ok := t.symbols[typeID]
	if !ok {
		return nil
	}
	scope, ok := t.Scope(sym.Members)
	if !ok {
		return nil
	}
	return scope.Symbols()
}

// SetInstanceUsed marks an Instance symbol's used flag.
func (t *Table) SetInstanceUsed(id SymbolID, used bool) {
	if sym, ok := t.symbols[id]; ok && sym.Kind == KindInstance {
		sym.Used = used
	}
}

// PropagateLifetimes runs the lifetime-bearing fixpoint spec.md §3
// describes: Token types start lifetime-bearing; a type becomes
// lifetime-bearing if its member scope contains a lifetime-bearing
// instance or its wrapped Inner type is lifetime-bearing, except that
// Clipped instances and Clipped-wrapped inner types never propagate.
// Iterates to a fixpoint since a change in one type can enable a change in
// another (spec.md §4.5).
func (t *Table) PropagateLifetimes() {
	for {
		changed := false
		for _, sym := range t.symbols {
			if sym.Kind != KindType || sym.HasLifetime {
				continue
			}
			if t.typeDerivesLifetime(sym) {
				sym.HasLifetime = true
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

func (t *Table) typeDerivesLifetime(sym *Symbol) bool {
	if sym.Entrails.Kind == EntrailsClipped {
		return false
	}
	if sym.Entrails.Inner != nilSymbolID {
		if inner, ok := t.symbols[sym.Entrails.Inner]; ok && inner.HasLifetime {
			return true
		}
	}
	scope, ok := t.Scope(sym.Members)
	if !ok {
		return false
	}
	for _, mid := range scope.Symbols() {
		m, ok := t.symbols[mid]
		if !ok || m.Kind != KindInstance {
			continue
		}
		if m.Attr == cfg.AttrClipped {
			continue
		}
		mt, ok := t.symbols[m.TypeID]
		if ok && mt.Entrails.Kind == EntrailsClipped {
			continue
		}
		if ok && mt.HasLifetime {
			return true
		}
	}
	return false
}

// upperCamel and lowerSnake implement spec.md §4.5's casing rules,
// splitting on underscores/hyphens/spaces and camelCase humps.
func upperCamel(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	for _, w := range splitWords(s) {
		if w == "" {
			continue
		}
		r := []rune(w)
		b.WriteRune(unicode.ToUpper(r[0]))
		b.WriteString(strings.ToLower(string(r[1:])))
	}
	return b.String()
}

func lowerSnake(s string) string {
	if s == "" {
		return s
	}
	words := splitWords(s)
	parts := make([]string, 0, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		parts = append(parts, strings.ToLower(w))
	}
	return strings.Join(parts, "_")
}

func splitWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = nil
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ' || r == ':':
			flush()
		case unicode.IsUpper(r) && len(cur) > 0 && !unicode.IsUpper(runes[i-1]):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return words
}
