package outcome

import (
	"math/rand"
	"sync"
	"time"

	"github.com/mcdev12/wheelround/go/internal/models"
)

// Generator produces the seed values shown when a round begins.
type Generator interface {
	Generate() models.OutcomeSet
}

// RandomGenerator draws each category uniformly from the legal value range.
type RandomGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomGenerator constructs a RandomGenerator with its own seed.
func NewRandomGenerator() *RandomGenerator {
	return NewSeededGenerator(time.Now().UnixNano())
}

// NewSeededGenerator is NewRandomGenerator with a fixed seed, for reproducible runs.
func NewSeededGenerator(seed int64) *RandomGenerator {
	return &RandomGenerator{rng: rand.New(rand.NewSource(seed))}
}

// Generate implements Generator.
func (g *RandomGenerator) Generate() models.OutcomeSet {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := models.NewOutcomeSet()
	span := models.MaxOutcomeValue - models.MinOutcomeValue + 1
	for _, c := range models.Categories {
		v := models.MinOutcomeValue + g.rng.Intn(span)
		out[c] = &v
	}
	return out
}

// FixedGenerator always returns the same values.
type FixedGenerator struct {
	Values models.OutcomeSet
}

// Generate implements Generator.
func (g FixedGenerator) Generate() models.OutcomeSet {
	return g.Values.Clone()
}
