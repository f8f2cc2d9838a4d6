package pool

import "github.com/joshuapare/buflib/internal/format"

// opsRegistry maps callback sets to the small integers stored in block
// headers. Entries are reference counted by the blocks using them.
type opsRegistry struct {
	entries []opsEntry // entries[0] is format.NoOps
	index   map[*Ops]int
	free    []int
}

type opsEntry struct {
	ops  *Ops
	refs int
}

func newOpsRegistry() opsRegistry {
	return opsRegistry{
		entries: make([]opsEntry, 1, 8),
		index:   make(map[*Ops]int),
	}
}

// acquire returns the header index for o, registering it on first use.
func (r *opsRegistry) acquire(o *Ops) int {
	if !o.movable() && !o.shrinkable() {
		return format.NoOps
	}
	if i, ok := r.index[o]; ok {
		r.entries[i].refs++
		return i
	}
	var i int
	if n := len(r.free); n > 0 {
		i = r.free[n-1]
		r.free = r.free[:n-1]
		r.entries[i] = opsEntry{ops: o, refs: 1}
	} else {
		i = len(r.entries)
		r.entries = append(r.entries, opsEntry{ops: o, refs: 1})
	}
	r.index[o] = i
	return i
}

func (r *opsRegistry) release(i int) {
	if i == format.NoOps || i >= len(r.entries) {
		return
	}
	e := &r.entries[i]
	e.refs--
	if e.refs > 0 {
		return
	}
	delete(r.index, e.ops)
	*e = opsEntry{}
	r.free = append(r.free, i)
}

func (r *opsRegistry) get(i int) *Ops {
	if i <= format.NoOps || i >= len(r.entries) {
		return nil
	}
	return r.entries[i].ops
}

// valid reports whether i names a live entry.
func (r *opsRegistry) valid(i int) bool {
	return i == format.NoOps || (i > 0 && i < len(r.entries) && r.entries[i].refs > 0)
}
