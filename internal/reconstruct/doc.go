// Package reconstruct regrows particle tracks from a pool of hits using
// only the detector layer geometry.
//
// The algorithm is greedy and single pass. Every labeled hit seeds a track;
// each track is then extended layer by layer by extrapolating a ray through
// its last two hits (or from the origin through its seed) and claiming the
// nearest unclaimed hit on the next layer. Choices are never revisited.
//
// Two claim modes exist. ClaimStrict removes a claimed hit from the pool so
// no hit belongs to two tracks. ClaimShared leaves claimed hits in the pool,
// so a later track may take a hit already given to an earlier one; each such
// re-claim is logged and counted in Result.Reclaimed.
package reconstruct
