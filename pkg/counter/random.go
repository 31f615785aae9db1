package counter

import (
	"github.com/segmentio/ksuid"
	"github.com/zhangyunhao116/fastrand"
)

// IDLength is the width of a shard identifier in bytes.
const IDLength = 20

// RandomSource supplies the randomness the counter consumes: fresh
// shard identifiers and coin flips for coalesce triggering. A source
// must be safe for concurrent use; it is exposed as a strategy so
// callers can substitute their own generator.
type RandomSource interface {
	// ID returns a fresh shard identifier of IDLength bytes.
	ID() []byte

	// Uint32 returns a uniformly distributed 32-bit value.
	Uint32() uint32
}

// fastrandSource is the default source. fastrand keeps per-P generator
// state, so Add takes no lock on its hot path.
type fastrandSource struct{}

func (fastrandSource) ID() []byte {
	id := make([]byte, IDLength)
	for i := 0; i < IDLength; i += 8 {
		u := fastrand.Uint64()
		for j := i; j < i+8 && j < IDLength; j++ {
			id[j] = byte(u)
			u >>= 8
		}
	}
	return id
}

func (fastrandSource) Uint32() uint32 {
	return fastrand.Uint32()
}

// DefaultRandomSource returns the lock-free default source.
func DefaultRandomSource() RandomSource {
	return fastrandSource{}
}

// KSUIDSource issues 20-byte KSUIDs as shard identifiers. The ids carry
// a coarse time prefix, which keeps shards from two different epochs
// from ever colliding at the cost of clustering concurrent writes
// closer together in the keyspace.
type KSUIDSource struct{}

func (KSUIDSource) ID() []byte {
	k := ksuid.New()
	return k.Bytes()
}

func (KSUIDSource) Uint32() uint32 {
	return fastrand.Uint32()
}
