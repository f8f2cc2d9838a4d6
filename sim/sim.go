package sim

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/bytedance/gopkg/lang/mcache"
	"github.com/bytedance/gopkg/util/xxhash3"

	"github.com/joshuapare/buflib/pool"
	"github.com/joshuapare/buflib/verify"
)

// Report summarizes a run.
type Report struct {
	Seed  int64 `json:"seed"`
	Steps int   `json:"steps"`

	Allocs        int `json:"allocs"`
	AllocFailures int `json:"alloc_failures"`
	Frees         int `json:"frees"`
	Pins          int `json:"pins"`
	Unpins        int `json:"unpins"`
	Shrinks       int `json:"shrinks"`
	Compactions   int `json:"compactions"`
	Maximums      int `json:"maximums"`

	Moves    int `json:"moves"`    // Move callbacks seen by owners
	Trims    int `json:"trims"`    // Shrink callbacks that gave up space
	Releases int `json:"releases"` // Shrink callbacks that gave up everything

	Live     int `json:"live"`
	PeakLive int `json:"peak_live"`

	Pool pool.Stats `json:"pool"`

	// Violation is the first broken guarantee, empty when the run was clean.
	Violation string `json:"violation,omitempty"`
}

type ownerKind int

const (
	kindFixed ownerKind = iota
	kindMovable
	kindTrimming
	kindReleasing
	numKinds
)

type owner struct {
	kind   ownerKind
	n      int    // leading payload bytes covered by digest
	digest uint64 // xxhash3 of the first n bytes
	pins   int
	loc    *byte // first payload byte while pinned
}

type simulator struct {
	p      *pool.Context
	cfg    Config
	rng    *rand.Rand
	owners map[pool.Handle]*owner
	ops    [numKinds]*pool.Ops
	rep    Report
}

// Run executes cfg.Steps random steps against p. p should be fresh; live
// allocations made before Run are ignored by the checks but still take
// part in compaction. Run returns early when ctx is done.
func Run(ctx context.Context, p *pool.Context, cfg Config) (Report, error) {
	cfg = cfg.withDefaults()
	s := &simulator{
		p:      p,
		cfg:    cfg,
		rng:    newRand(cfg.Seed),
		owners: make(map[pool.Handle]*owner),
	}
	s.rep.Seed = cfg.Seed
	s.ops = [numKinds]*pool.Ops{
		kindFixed:     nil,
		kindMovable:   {Move: s.onMove},
		kindTrimming:  {Move: s.onMove, Shrink: s.onShrink},
		kindReleasing: {Shrink: s.onShrink},
	}

	err := s.run(ctx)
	s.rep.Live = len(s.owners)
	s.rep.Pool = p.Stats()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		s.rep.Violation = err.Error()
		cfg.Logger.Error("simulation violation", "seed", cfg.Seed, "step", s.rep.Steps, "error", err)
	}
	return s.rep, err
}

func (s *simulator) run(ctx context.Context) error {
	for step := 0; step < s.cfg.Steps; step++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("step %d: %w", step, err)
		}
		if err := s.step(); err != nil {
			return fmt.Errorf("step %d: %w", step, err)
		}
		s.rep.Steps++
		s.rep.PeakLive = max(s.rep.PeakLive, len(s.owners))
		if err := s.check(); err != nil {
			return fmt.Errorf("step %d: %w", step, err)
		}
		if s.cfg.ProgressEvery > 0 && s.rep.Steps%s.cfg.ProgressEvery == 0 {
			s.cfg.Logger.Debug("simulation progress",
				"step", s.rep.Steps,
				"live", len(s.owners),
				"available", s.p.Available(),
				"moves", s.rep.Moves,
			)
		}
	}
	return nil
}

func (s *simulator) step() error {
	switch r := s.rng.Intn(100); {
	case r < 40:
		return s.alloc()
	case r < 65:
		return s.free()
	case r < 73:
		return s.pin()
	case r < 81:
		return s.unpin()
	case r < 89:
		return s.shrink()
	case r < 95:
		return s.shrinkFront()
	case r < 99:
		s.rep.Compactions++
		_, err := s.p.Compact()
		return unexpected("compact", err)
	default:
		return s.maximum()
	}
}

func (s *simulator) alloc() error {
	size := s.rng.Intn(s.cfg.MaxAlloc + 1)
	kind := ownerKind(s.rng.Intn(int(numKinds)))
	h, err := s.p.Alloc(size, s.ops[kind])
	if errors.Is(err, pool.ErrOutOfMemory) {
		s.rep.AllocFailures++
		return nil
	}
	if err != nil {
		return unexpected("alloc", err)
	}
	return s.adopt(h, kind, size)
}

// maximum grabs the largest block the pool can produce and frees it right
// away, which shrinks every unpinned shrinkable owner.
func (s *simulator) maximum() error {
	s.rep.Maximums++
	h, _, err := s.p.AllocMaximum(nil)
	if errors.Is(err, pool.ErrOutOfMemory) {
		s.rep.AllocFailures++
		return nil
	}
	if err != nil {
		return unexpected("alloc maximum", err)
	}
	return unexpected("free maximum", s.p.Free(h))
}

func (s *simulator) adopt(h pool.Handle, kind ownerKind, size int) error {
	if _, ok := s.owners[h]; ok {
		return fmt.Errorf("handle %d: %w", h, ErrDuplicateHandle)
	}
	s.rep.Allocs++
	data, err := s.p.Get(h)
	if err != nil {
		return unexpected("get new handle", err)
	}

	// Content is generated off-pool so the random stream does not depend on
	// the payload's rounded size.
	if size > 0 {
		scratch := mcache.Malloc(size)
		s.rng.Read(scratch)
		copy(data, scratch)
		mcache.Free(scratch)
	}

	s.owners[h] = &owner{kind: kind, n: size, digest: xxhash3.Hash(data[:size])}
	return nil
}

func (s *simulator) free() error {
	h, o := s.pick()
	if o == nil {
		return nil
	}
	s.rep.Frees++
	delete(s.owners, h)
	return unexpected("free", s.p.Free(h))
}

func (s *simulator) pin() error {
	h, o := s.pick()
	if o == nil {
		return nil
	}
	if err := s.p.Pin(h); err != nil {
		return unexpected("pin", err)
	}
	s.rep.Pins++
	o.pins++
	o.loc = s.firstByte(h)
	return nil
}

func (s *simulator) unpin() error {
	h, o := s.pick()
	if o == nil {
		return nil
	}
	err := s.p.Unpin(h)
	if o.pins == 0 {
		if !errors.Is(err, pool.ErrNotPinned) {
			return fmt.Errorf("unpin of unpinned handle %d returned %v: %w", h, err, ErrUnexpected)
		}
		return nil
	}
	if err != nil {
		return unexpected("unpin", err)
	}
	s.rep.Unpins++
	o.pins--
	if o.pins == 0 {
		o.loc = nil
	}
	return nil
}

func (s *simulator) shrink() error {
	h, o := s.pick()
	if o == nil {
		return nil
	}
	size, err := s.p.Size(h)
	if err != nil {
		return unexpected("size", err)
	}
	newSize := s.rng.Intn(size + 1)
	if err := s.p.Shrink(h, newSize); err != nil {
		return unexpected("shrink", err)
	}
	s.rep.Shrinks++
	if newSize < o.n {
		data, _ := s.p.Get(h)
		o.n = newSize
		o.digest = xxhash3.Hash(data[:o.n])
	}
	return nil
}

// shrinkFront drops a cell-aligned prefix. The surviving window is
// snapshotted first and compared afterwards.
func (s *simulator) shrinkFront() error {
	h, o := s.pick()
	if o == nil {
		return nil
	}
	data, err := s.p.Get(h)
	if err != nil {
		return unexpected("get", err)
	}
	skip := 8 * s.rng.Intn(len(data)/8+1)
	newSize := s.rng.Intn(len(data) - skip + 1)
	keep := max(min(o.n, skip+newSize)-skip, 0)

	var snap []byte
	if keep > 0 {
		snap = mcache.Malloc(keep)
		defer mcache.Free(snap)
		copy(snap, data[skip:skip+keep])
	}

	if err := s.p.ShrinkFront(h, skip, newSize); err != nil {
		return unexpected("shrink front", err)
	}
	s.rep.Shrinks++

	data, err = s.p.Get(h)
	if err != nil {
		return unexpected("get", err)
	}
	if !bytes.Equal(data[:keep], snap) {
		return fmt.Errorf("handle %d after dropping %d leading bytes: %w", h, skip, ErrPayloadChanged)
	}
	o.n = keep
	o.digest = xxhash3.Hash(data[:keep])
	if o.pins > 0 {
		o.loc = s.firstByte(h)
	}
	return nil
}

func (s *simulator) onMove(h pool.Handle, _ []byte) {
	if _, ok := s.owners[h]; ok {
		s.rep.Moves++
	}
}

// onShrink is shared by trimming and releasing owners. Trimming owners give
// up what is asked for; releasing owners give up everything.
func (s *simulator) onShrink(h pool.Handle, payload []byte, need int) int {
	o, ok := s.owners[h]
	if !ok {
		return len(payload)
	}
	keep := 0
	if o.kind == kindTrimming {
		keep = max(len(payload)-need, 0)
	}
	if keep == 0 {
		s.rep.Releases++
		delete(s.owners, h)
		return 0
	}
	s.rep.Trims++
	if keep < o.n {
		o.n = keep
		o.digest = xxhash3.Hash(payload[:keep])
	}
	return keep
}

// check re-resolves every live handle and runs the verifier.
func (s *simulator) check() error {
	for h, o := range s.owners {
		data, err := s.p.Get(h)
		if err != nil {
			return fmt.Errorf("live handle %d: %w", h, err)
		}
		if len(data) < o.n || xxhash3.Hash(data[:o.n]) != o.digest {
			return fmt.Errorf("handle %d: %w", h, ErrPayloadChanged)
		}
		if o.pins > 0 && o.loc != nil && (len(data) == 0 || &data[0] != o.loc) {
			return fmt.Errorf("handle %d: %w", h, ErrPinnedMoved)
		}
	}
	if err := verify.AllInvariants(s.p.Bytes(), s.p.Geometry()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvariant, err)
	}
	return nil
}

// pick returns a random live owner, or nil when there is none. It draws
// handle numbers instead of ranging over the map so a seed replays exactly.
func (s *simulator) pick() (pool.Handle, *owner) {
	if len(s.owners) == 0 {
		return pool.Invalid, nil
	}
	n := s.p.TableCells()
	for range 4 * n {
		h := pool.Handle(1 + s.rng.Intn(n))
		if o, ok := s.owners[h]; ok {
			return h, o
		}
	}
	for h := pool.Handle(1); int(h) <= n; h++ {
		if o, ok := s.owners[h]; ok {
			return h, o
		}
	}
	return pool.Invalid, nil
}

func (s *simulator) firstByte(h pool.Handle) *byte {
	data, err := s.p.Get(h)
	if err != nil || len(data) == 0 {
		return nil
	}
	return &data[0]
}

func unexpected(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnexpected, err)
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
