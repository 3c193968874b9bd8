// Package question builds quiz questions from content facts.
//
// Every variant is generated with bounded iterative retries: a variant
// draws a new base fact when its numeric constraints cannot be met, and
// gives up with ErrInsufficientContent after maxBaseFacts draws.
package question

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/playperu/wattquiz/internal/wattquiz"
)

// ErrInsufficientContent means the content store could not satisfy a
// question's constraints within the retry budget.
var ErrInsufficientContent = errors.New("insufficient content")

const (
	maxBaseFacts   = 25
	maxSamples     = 50
	maxDuplicates  = 10
	minFeasibility = 0.1

	// proximityBand is the minimum relative distance between the values
	// shown in a GENERAL question.
	proximityBand = 0.1

	// EstimationCeiling bounds ESTIMATION sliders so the UI stays usable.
	EstimationCeiling = 999_999
)

// Source returns a random fact matching a filter, or an error wrapping
// wattquiz.ErrNotFound when nothing matches.
type Source interface {
	RandomFact(ctx context.Context, f wattquiz.Filter) (wattquiz.Fact, error)
}

type Generator struct {
	src    Source
	logger *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewGenerator(src Source, rng *rand.Rand, logger *slog.Logger) *Generator {
	return &Generator{src: src, rng: rng, logger: logger}
}

// Session generates a full question program: minPerType questions of each
// kind, the rest of random kinds, no two value-equal, in shuffled order.
func (g *Generator) Session(ctx context.Context, minPerType int) ([]wattquiz.Question, error) {
	total := wattquiz.QuestionsPerSession
	if minPerType < 0 || minPerType*len(wattquiz.Kinds) > total {
		return nil, fmt.Errorf("min per type %d does not fit %d questions", minPerType, total)
	}

	kinds := make([]wattquiz.QuestionKind, 0, total)
	for _, k := range wattquiz.Kinds {
		for range minPerType {
			kinds = append(kinds, k)
		}
	}
	for len(kinds) < total {
		kinds = append(kinds, wattquiz.Kinds[g.intN(len(wattquiz.Kinds))])
	}

	questions := make([]wattquiz.Question, 0, total)
	for _, k := range kinds {
		q, err := g.unique(ctx, k, questions)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}

	g.shuffle(len(questions), func(i, j int) { questions[i], questions[j] = questions[j], questions[i] })
	return questions, nil
}

func (g *Generator) unique(ctx context.Context, kind wattquiz.QuestionKind, have []wattquiz.Question) (wattquiz.Question, error) {
	for range maxDuplicates {
		q, err := g.Generate(ctx, kind)
		if err != nil {
			return wattquiz.Question{}, err
		}
		if !slices.ContainsFunc(have, q.Equal) {
			return q, nil
		}
		g.logger.Debug("regenerating duplicate question", "kind", kind)
	}
	return wattquiz.Question{}, fmt.Errorf("%s question: too many duplicates: %w", kind, ErrInsufficientContent)
}

// Generate builds one question of the given kind.
func (g *Generator) Generate(ctx context.Context, kind wattquiz.QuestionKind) (wattquiz.Question, error) {
	var (
		q   wattquiz.Question
		err error
	)
	switch kind {
	case wattquiz.KindGeneral:
		q, err = g.General(ctx)
	case wattquiz.KindComparison:
		q, err = g.Comparison(ctx)
	case wattquiz.KindEstimation:
		q, err = g.Estimation(ctx)
	case wattquiz.KindWhichIsMore:
		q, err = g.WhichIsMore(ctx)
	default:
		return wattquiz.Question{}, fmt.Errorf("unknown question kind %q", kind)
	}
	if err != nil {
		return wattquiz.Question{}, fmt.Errorf("%s question: %w", kind, err)
	}
	return q, nil
}

// find returns the matching fact, or ok=false if the store has none.
func (g *Generator) find(ctx context.Context, f wattquiz.Filter) (wattquiz.Fact, bool, error) {
	if err := ctx.Err(); err != nil {
		return wattquiz.Fact{}, false, err
	}
	fact, err := g.src.RandomFact(ctx, f)
	if errors.Is(err, wattquiz.ErrNotFound) {
		return wattquiz.Fact{}, false, nil
	}
	if err != nil {
		return wattquiz.Fact{}, false, fmt.Errorf("looking up fact: %w", err)
	}
	return fact, true, nil
}

// base draws a fact for a new attempt; a store with no facts at all is
// reported as insufficient content.
func (g *Generator) base(ctx context.Context, f wattquiz.Filter) (wattquiz.Fact, error) {
	fact, ok, err := g.find(ctx, f)
	if err != nil {
		return wattquiz.Fact{}, err
	}
	if !ok {
		return wattquiz.Fact{}, ErrInsufficientContent
	}
	return fact, nil
}

func (g *Generator) intN(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.IntN(n)
}

func (g *Generator) uint64N(n uint64) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Uint64N(n)
}

func (g *Generator) randFloat() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}

func (g *Generator) shuffle(n int, swap func(i, j int)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rng.Shuffle(n, swap)
}

func magnitude(v uint64) int {
	if v == 0 {
		return 0
	}
	return int(math.Floor(math.Log10(float64(v))))
}

// rangeFilter converts a real-valued [lo, hi] window into an integer filter.
// ok is false when the window holds no integer.
func rangeFilter(lo, hi float64, ids []string, values []uint64) (wattquiz.Filter, bool) {
	minV := uint64(math.Max(1, math.Ceil(lo)))
	maxV := uint64(math.Floor(hi))
	if maxV == 0 || maxV < minV {
		return wattquiz.Filter{}, false
	}
	return wattquiz.Filter{
		Min:           minV,
		Max:           maxV,
		ExcludeIDs:    slices.Clone(ids),
		ExcludeValues: slices.Clone(values),
	}, true
}
