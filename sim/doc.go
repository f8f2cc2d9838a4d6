// Package sim drives a pool.Context with a seeded random workload and checks
// after every step that the allocator kept its promises.
//
// Each simulated owner holds one handle and a digest of the bytes it wrote.
// Owners come in four kinds: fixed (no callbacks), movable, trimming
// (movable and gives up space when asked) and releasing (immovable, gives up
// the whole allocation when asked). After every step the simulator resolves
// every live handle again and checks:
//   - the payload still hashes to the owner's digest
//   - pinned payloads did not move
//   - verify.AllInvariants accepts the buffer
//
// The first violation stops the run and is returned both as an error and in
// Report.Violation.
//
// Usage:
//
//	buf, _ := arena.New(arena.KindMapped, 64<<10)
//	defer buf.Close()
//	p, _ := pool.New(buf.Bytes(), nil)
//	rep, err := sim.Run(ctx, p, sim.DefaultConfig)
package sim
