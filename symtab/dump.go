package symtab

import (
	"fmt"
	"io"
)

// Dump writes a human-readable scope tree rooted at scope to w, one symbol
// per line, indented by nesting depth. It is a debugging aid (SPEC_FULL.md
// §5's supplemented feature) with no effect on analysis results.
func (t *Table) Dump(w io.Writer, scope ScopeID) {
	t.dump(w, scope, 0)
}

func (t *Table) dump(w io.Writer, id ScopeID, depth int) {
	s, ok := t.Scope(id)
	if !ok {
		return
	}
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	for _, sid := range s.Symbols() {
		sym, ok := t.symbols[sid]
		if !ok {
			continue
		}
		switch sym.Kind {
		case KindType:
			lt := ""
			if sym.HasLifetime {
				lt = " has_lifetime"
			}
			fmt.Fprintf(w, "%stype %s %s%s\n", indent, sym.Name, sym.Entrails.Kind, lt)
			t.dump(w, sym.Members, depth+1)
		case KindInstance:
			used := ""
			if !sym.Used {
				used = " unused"
			}
			fmt.Fprintf(w, "%sinstance %s: %s%s\n", indent, sym.Name, sym.TypeID, used)
		}
	}
}
