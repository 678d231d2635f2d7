package grammar

import (
	"sync/atomic"

	"github.com/osch/luced-sub001/style"
)

// A Change tells what Holder.Load did.
type Change int

const (
	// Unchanged means the active grammar was kept as it was.
	Unchanged Change = iota
	// Restyled means the active grammar was kept with new styles.
	Restyled
	// Replaced means a new grammar was made active.
	// Highlighting computed with the old one is stale.
	Replaced
)

func (c Change) String() string {
	switch c {
	case Unchanged:
		return "unchanged"
	case Restyled:
		return "restyled"
	case Replaced:
		return "replaced"
	}
	return "Change(?)"
}

// A Holder holds the active grammar.
// Grammars are compiled fully before they are published,
// so readers never see a partial grammar.
// A Holder is safe for concurrent use.
type Holder struct {
	g atomic.Pointer[Grammar]
}

// Get returns the active grammar, or nil if none was loaded.
func (h *Holder) Get() *Grammar { return h.g.Load() }

// Load compiles a source and makes it active.
// If the active grammar has the same structure,
// it is kept and only its styles are updated.
// On error, the active grammar is left as it was.
func (h *Holder) Load(src Source, styles style.Table) (Change, error) {
	g, err := Compile(src, styles)
	if err != nil {
		return Unchanged, err
	}
	cur := h.g.Load()
	if cur.SameStructure(g) {
		changed, err := cur.UpdateStyles(styles)
		switch {
		case err != nil:
			return Unchanged, err
		case changed:
			return Restyled, nil
		default:
			return Unchanged, nil
		}
	}
	if !h.g.CompareAndSwap(cur, g) {
		// Another Load published first; retry against it.
		return h.Load(src, styles)
	}
	return Replaced, nil
}
