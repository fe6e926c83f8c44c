package gateway

import "github.com/tidwall/btree"

// symbolEntry is a directory record for one tradable symbol, ordered
// lexically so listing/subscription requests can be served with an Ascend
// scan instead of a map iteration (whose order is undefined in Go).
type symbolEntry struct {
	symbol string
}

// symbolDirectory is an ordered set of the engine's configured symbols,
// used to validate inbound orders before they reach the engine and to
// serve lexically ordered symbol listings.
type symbolDirectory struct {
	tree *btree.BTreeG[*symbolEntry]
}

func newSymbolDirectory(symbols []string) *symbolDirectory {
	tree := btree.NewBTreeG(func(a, b *symbolEntry) bool {
		return a.symbol < b.symbol
	})
	for _, s := range symbols {
		tree.Set(&symbolEntry{symbol: s})
	}
	return &symbolDirectory{tree: tree}
}

func (d *symbolDirectory) Has(symbol string) bool {
	_, ok := d.tree.Get(&symbolEntry{symbol: symbol})
	return ok
}

// Symbols returns every registered symbol in lexical order.
func (d *symbolDirectory) Symbols() []string {
	out := make([]string, 0, d.tree.Len())
	d.tree.Ascend(nil, func(e *symbolEntry) bool {
		out = append(out, e.symbol)
		return true
	})
	return out
}
