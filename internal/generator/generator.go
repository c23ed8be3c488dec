// Package generator orders practice questions.
package generator

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/parlo/internal/deck"
)

// Generator produces randomized question orders.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewWithSource returns a Generator drawing from src.
func NewWithSource(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// Rand exposes the underlying source for session shuffling.
func (g *Generator) Rand() *rand.Rand {
	return g.rnd
}

// PickWeighted draws count questions without replacement, giving questions in
// weakSet a weight of 1+factor so they tend to come first. A count of zero or
// more than available returns every question.
func (g *Generator) PickWeighted(questions []deck.Question, count int, weakSet map[string]struct{}, factor float64) []deck.Question {
	if count <= 0 || count > len(questions) {
		count = len(questions)
	}
	pool := append([]deck.Question(nil), questions...)
	weights := make([]float64, len(pool))
	total := 0.0
	for i, q := range pool {
		w := 1.0
		if _, ok := weakSet[q.ID]; ok {
			w += factor
		}
		weights[i] = w
		total += w
	}

	result := make([]deck.Question, 0, count)
	for len(result) < count {
		r := g.rnd.Float64() * total
		idx := len(pool) - 1
		acc := 0.0
		for j, w := range weights {
			acc += w
			if r < acc {
				idx = j
				break
			}
		}
		result = append(result, pool[idx])
		total -= weights[idx]
		pool = append(pool[:idx], pool[idx+1:]...)
		weights = append(weights[:idx], weights[idx+1:]...)
	}
	return result
}
