package cfgspec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parsegen/parsegen/cfg"
	"github.com/parsegen/parsegen/ktuple"
)

func listDocument() *Document {
	return &Document{
		Start:     "List",
		Terminals: []string{"item", "comma"},
		Productions: []Production{
			{LHS: "List", Attr: "add-to-collection", RHS: []Symbol{
				{Kind: "non-terminal", NonTerminal: "List"},
				{Kind: "terminal", Terminal: "comma"},
				{Kind: "terminal", Terminal: "item"},
			}},
			{LHS: "List", Attr: "collection-start", RHS: []Symbol{
				{Kind: "terminal", Terminal: "item"},
			}},
		},
	}
}

func TestCompileAssignsTerminalIndicesInDeclarationOrder(t *testing.T) {
	doc := listDocument()
	g, names, err := doc.Compile()
	require.NoError(t, err)
	require.Equal(t, "List", g.Start)
	require.Len(t, g.Productions, 2)

	itemIdx := ktuple.FirstUserTerminal
	commaIdx := ktuple.FirstUserTerminal + 1
	require.Equal(t, "item", names[itemIdx])
	require.Equal(t, "comma", names[commaIdx])

	addTo := g.Productions[0]
	require.Equal(t, cfg.ProdAddToCollection, addTo.Attr)
	require.True(t, addTo.RHS[0].IsNonTerminal())
	require.Equal(t, "List", addTo.RHS[0].NonTerminal)
	require.True(t, addTo.RHS[1].IsTerminal())
	require.Equal(t, commaIdx, addTo.RHS[1].Terminal)
	require.Equal(t, itemIdx, addTo.RHS[2].Terminal)
}

func TestCompileRejectsMissingStart(t *testing.T) {
	doc := &Document{Terminals: []string{"a"}}
	_, _, err := doc.Compile()
	require.Error(t, err)
}

func TestCompileRejectsDuplicateTerminal(t *testing.T) {
	doc := &Document{
		Start:     "S",
		Terminals: []string{"a", "a"},
	}
	_, _, err := doc.Compile()
	require.Error(t, err)
}

func TestCompileRejectsUndeclaredTerminal(t *testing.T) {
	doc := &Document{
		Start:     "S",
		Terminals: []string{"a"},
		Productions: []Production{
			{LHS: "S", RHS: []Symbol{{Kind: "terminal", Terminal: "b"}}},
		},
	}
	_, _, err := doc.Compile()
	require.Error(t, err)
}

func TestCompileRejectsUnknownAttr(t *testing.T) {
	doc := &Document{
		Start:     "S",
		Terminals: []string{"a"},
		Productions: []Production{
			{LHS: "S", Attr: "bogus", RHS: []Symbol{{Kind: "terminal", Terminal: "a"}}},
		},
	}
	_, _, err := doc.Compile()
	require.Error(t, err)
}

func TestCompilePushdownAndUserType(t *testing.T) {
	doc := &Document{
		Start:     "S",
		Terminals: []string{"a"},
		Productions: []Production{
			{LHS: "S", RHS: []Symbol{
				{Kind: "pushdown", Pushdown: "push"},
				{Kind: "terminal", Terminal: "a", UserType: "Token"},
				{Kind: "pushdown", Pushdown: "pop"},
			}},
		},
	}
	g, _, err := doc.Compile()
	require.NoError(t, err)

	rhs := g.Productions[0].RHS
	require.True(t, rhs[0].IsPushdown())
	require.Equal(t, cfg.PushdownPush, rhs[0].Pushdown)
	require.Equal(t, "Token", rhs[1].UserType)
	require.Equal(t, cfg.PushdownPop, rhs[2].Pushdown)
}
