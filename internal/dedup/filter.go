// Package dedup implements a time-decaying approximate membership filter
// for task fingerprints: a ring of hourly bloom filters. A fingerprint
// inserted in one hour is forgotten 24 hours later when that level's slot
// is reused, bounding memory while still catching duplicates the checker
// re-discovers across restarts.
//
// Generalizes a plain seen-set map into capacity-bounded, expiring levels,
// since this agent runs indefinitely and cannot keep every fingerprint it
// has ever seen.
package dedup

import (
	"errors"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"github.com/kavanlabs/primewatch/internal/types"
)

// ErrFilterFull is returned by Query when a level it consults is saturated
// past the point a reliable answer can be given; callers should treat it
// as "not present" and log. Insert never reports it.
var ErrFilterFull = errors.New("dedup filter saturated")

const maxLevels = 24

// Filter is a ring of maxLevels bloom filters, one per hour, each sized
// for capacity items at the target false-positive rate.
type Filter struct {
	mu            sync.Mutex
	levels        [maxLevels]*bloom
	levelDuration time.Duration
	currentLevel  int
	levelStarted  time.Time
	capacity      int
	fpRate        float64
}

// New builds a Filter for the given per-level capacity and target false
// positive rate, with levelDuration between level rotations.
func New(capacity int, fpRate float64, levelDuration time.Duration) *Filter {
	f := &Filter{
		levelDuration: levelDuration,
		levelStarted:  time.Now(),
		capacity:      capacity,
		fpRate:        fpRate,
	}
	for i := range f.levels {
		f.levels[i] = newBloom(capacity, fpRate)
	}
	return f
}

// advanceLocked rotates to a fresh level for every levelDuration elapsed
// since the last rotation, clearing the level being reused. Must be
// called with mu held.
func (f *Filter) advanceLocked() {
	now := time.Now()
	for now.Sub(f.levelStarted) >= f.levelDuration {
		f.currentLevel = (f.currentLevel + 1) % maxLevels
		f.levels[f.currentLevel] = newBloom(f.capacity, f.fpRate)
		f.levelStarted = f.levelStarted.Add(f.levelDuration)
	}
}

// Insert records fp as seen in the current level.
func (f *Filter) Insert(fp types.Fingerprint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advanceLocked()
	f.levels[f.currentLevel].add(fp[:])
}

// Query reports whether fp may have been seen in any live level. Returns
// ErrFilterFull if a level is too saturated to answer reliably; callers
// (see internal/checker) treat that as "not present" and log.
func (f *Filter) Query(fp types.Fingerprint) (present bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advanceLocked()

	for _, level := range f.levels {
		if level == nil {
			continue
		}
		if level.saturated() {
			return false, ErrFilterFull
		}
		if level.mayContain(fp[:]) {
			return true, nil
		}
	}
	return false, nil
}

// bloom is a fixed-size bit array with k hash functions derived by double
// hashing two independent fnv hashes (Kirsch-Mitzenmacher), the standard
// space-efficient construction for a target capacity and false-positive rate.
type bloom struct {
	bits     []uint64
	m        uint64 // number of bits
	k        uint64 // number of hash functions
	inserted int
	capacity int
}

func newBloom(capacity int, fpRate float64) *bloom {
	m := optimalM(capacity, fpRate)
	k := optimalK(m, capacity)
	words := (m + 63) / 64
	return &bloom{
		bits:     make([]uint64, words),
		m:        uint64(m),
		k:        uint64(k),
		capacity: capacity,
	}
}

func optimalM(n int, p float64) int {
	if n <= 0 {
		n = 1
	}
	m := -float64(n) * math.Log(p) / (math.Ln2 * math.Ln2)
	return int(math.Ceil(m))
}

func optimalK(m, n int) int {
	if n <= 0 {
		n = 1
	}
	k := (float64(m) / float64(n)) * math.Ln2
	if k < 1 {
		return 1
	}
	return int(math.Round(k))
}

func (b *bloom) add(data []byte) {
	h1, h2 := fnvPair(data)
	for i := uint64(0); i < b.k; i++ {
		idx := (h1 + i*h2) % b.m
		b.bits[idx/64] |= 1 << (idx % 64)
	}
	b.inserted++
}

func (b *bloom) mayContain(data []byte) bool {
	h1, h2 := fnvPair(data)
	for i := uint64(0); i < b.k; i++ {
		idx := (h1 + i*h2) % b.m
		if b.bits[idx/64]&(1<<(idx%64)) == 0 {
			return false
		}
	}
	return true
}

// saturated reports whether this level holds enough items that its
// actual false-positive rate has likely drifted well past the design
// target, at which point a query answer is not trustworthy.
func (b *bloom) saturated() bool {
	return b.inserted > b.capacity*3
}

func fnvPair(data []byte) (uint64, uint64) {
	h1 := fnv.New64a()
	h1.Write(data)
	sum1 := h1.Sum64()

	h2 := fnv.New64()
	h2.Write(data)
	sum2 := h2.Sum64()
	if sum2 == 0 {
		sum2 = 1 // avoid a degenerate all-zero step
	}
	return sum1, sum2
}
