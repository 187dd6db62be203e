// Package blockrand provides the deterministic, per-block random source
// used by target selection, prize rolls, and resource picks (spec.md §9's
// "a randomness source derived from unpredictable block data, seeded once
// per block and never reseeded mid-block").
//
// The original GSP draws this from xaya::Random, itself keyed from the
// block's on-chain randomness commitment. There is no xaya-chain
// dependency in this module, so the same keystream-from-seed idea is
// rebuilt on golang.org/x/crypto/chacha20: the per-block seed is stretched
// into a chacha20 keystream, and every call to the Source pulls the next
// bytes of that stream. Same seed, same sequence of draws, every time.
package blockrand

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/chacha20"
)

// Source is a deterministic random source for a single block. It must be
// created fresh for each block and discarded afterwards; reusing one
// across blocks or feeding it a different seed mid-block would break
// consensus determinism.
type Source struct {
	cipher *chacha20.Cipher
}

// New derives a Source from the block's seed bytes (the engine passes a
// SHA-256 digest of the block height and timestamp). The seed is
// hashed down to a chacha20 key; the nonce is always the zero nonce since
// the key itself already uniquely identifies the block.
func New(seed []byte) (*Source, error) {
	key := sha256.Sum256(seed)
	var nonce [chacha20.NonceSize]byte

	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		return nil, fmt.Errorf("blockrand: creating cipher: %w", err)
	}
	return &Source{cipher: c}, nil
}

// nextBytes returns the next n bytes of keystream.
func (s *Source) nextBytes(n int) []byte {
	out := make([]byte, n)
	s.cipher.XORKeyStream(out, out)
	return out
}

// Uint64 returns the next uniformly-distributed uint64 from the stream.
func (s *Source) Uint64() uint64 {
	return binary.LittleEndian.Uint64(s.nextBytes(8))
}

// Intn returns a uniformly-distributed integer in [0, n), using Lemire's
// multiply-and-shift reduction and redrawing the rare values that fall
// below the rejection threshold, so the result stays unbiased regardless
// of n.
func (s *Source) Intn(n int) int {
	if n <= 0 {
		panic("blockrand: Intn called with non-positive n")
	}
	return int(s.boundedUint64(uint64(n)))
}

func (s *Source) boundedUint64(n uint64) uint64 {
	// 64x64 -> 128 bit multiply-high, the standard Lemire bounded-random
	// trick: draw, multiply by n, take the high word as the result, and
	// only resample on the rare boundary case for exactness.
	hi, lo := mulHi64(s.Uint64(), n)
	if lo < n {
		threshold := -n % n
		for lo < threshold {
			hi, lo = mulHi64(s.Uint64(), n)
		}
	}
	return hi
}

func mulHi64(a, b uint64) (hi, lo uint64) {
	const mask32 = 1<<32 - 1
	aLo, aHi := a&mask32, a>>32
	bLo, bHi := b&mask32, b>>32

	t := aLo * bLo
	w0 := t & mask32
	k := t >> 32

	t = aHi*bLo + k
	w1 := t & mask32
	w2 := t >> 32

	t = aLo*bHi + w1
	k = t >> 32

	hi = aHi*bHi + w2 + k
	lo = t<<32 + w0
	return hi, lo
}

// ProbabilityRoll reports true with probability numerator/denominator,
// the "1 in N"-style roll used for prospecting prizes and building-loot
// drops.
func (s *Source) ProbabilityRoll(numerator, denominator int) bool {
	return s.Intn(denominator) < numerator
}

// SelectByWeight picks an index into weights with probability
// proportional to its weight, the deterministic analogue of
// xaya::Random::SelectByWeight used by prospecting's resource pick
// (spec.md §4.6.1). Panics if weights is empty or all-zero, since both
// are caller bugs (an empty candidate set should never reach here).
func (s *Source) SelectByWeight(weights []uint64) int {
	var total uint64
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		panic("blockrand: SelectByWeight called with no positive weight")
	}
	draw := s.boundedUint64(total)
	var running uint64
	for i, w := range weights {
		running += w
		if draw < running {
			return i
		}
	}
	return len(weights) - 1
}

// Shuffle permutes the first n elements of a slice in place using
// Fisher-Yates, via swap(i, j).
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := s.Intn(i + 1)
		swap(i, j)
	}
}
