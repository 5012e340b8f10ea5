package reverb

import (
	"math"
	"math/rand/v2"
	"sync"
)

const (
	// EarlyReflectionSamples is the span at the head of the impulse that
	// receives size-scaled reflections.
	EarlyReflectionSamples = 5000

	earlyReflectionChance = 0.05
	impulseChannels       = 2
)

// ImpulseLength returns max(1, round(sampleRate*decay)).
func ImpulseLength(sampleRate, decay float64) int {
	n := math.Round(sampleRate * decay)
	if math.IsNaN(n) || n < 1 {
		return 1
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// Synthesize generates a stereo impulse response of ImpulseLength samples.
// Each channel is independent uniform noise in [-1, 1] shaped by (1-n)^4,
// n = i/length. Within the first EarlyReflectionSamples every sample has a
// 5% chance to be scaled by (1+size). size is clamped to [0, 1].
func Synthesize(sampleRate, decay, size float64, rng *rand.Rand) [][]float64 {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	size = clampUnit(size)
	length := ImpulseLength(sampleRate, decay)

	ir := make([][]float64, impulseChannels)
	for c := range ir {
		ir[c] = make([]float64, length)
	}

	for i := range length {
		n := float64(i) / float64(length)
		env := math.Pow(1-n, 4)

		for c := range ir {
			v := (rng.Float64()*2 - 1) * env
			if i < EarlyReflectionSamples && rng.Float64() < earlyReflectionChance {
				v *= 1 + size
			}
			ir[c][i] = v
		}
	}

	return ir
}

type impulseKey struct {
	decay float64
	size  float64
}

// Option configures an ImpulseCache.
type Option func(*ImpulseCache)

// WithSeed fixes the noise source so repeated syntheses are identical.
func WithSeed(seed uint64) Option {
	return func(c *ImpulseCache) {
		c.seed = seed
		c.seeded = true
	}
}

// ImpulseCache holds the impulse for the most recent (decay, size) key and
// regenerates only when the key changes. It is safe for concurrent use.
type ImpulseCache struct {
	mu         sync.Mutex
	sampleRate float64
	seed       uint64
	seeded     bool

	key         impulseKey
	ir          [][]float64
	generations int
}

// NewImpulseCache creates an empty cache for the given sample rate.
func NewImpulseCache(sampleRate float64, opts ...Option) *ImpulseCache {
	c := &ImpulseCache{sampleRate: sampleRate}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns the impulse for (decay, size) and whether it was freshly
// synthesized. Callers must not modify the returned buffers.
func (c *ImpulseCache) Get(decay, size float64) ([][]float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := impulseKey{decay: decay, size: size}
	if c.ir != nil && key == c.key {
		return c.ir, false
	}

	var rng *rand.Rand
	if c.seeded {
		rng = rand.New(rand.NewPCG(c.seed, c.seed^0x9e3779b97f4a7c15))
	}

	c.ir = Synthesize(c.sampleRate, decay, size, rng)
	c.key = key
	c.generations++

	return c.ir, true
}

// Generations reports how many impulses the cache has synthesized.
func (c *ImpulseCache) Generations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(v, 1)
}
