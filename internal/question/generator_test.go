package question

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"

	"github.com/playperu/wattquiz/internal/wattquiz"
)

type memSource struct {
	facts   []wattquiz.Fact
	byTitle map[string]wattquiz.Fact
	rng     *rand.Rand
}

func newMemSource(facts []wattquiz.Fact) *memSource {
	s := &memSource{facts: facts, byTitle: make(map[string]wattquiz.Fact), rng: rand.New(rand.NewPCG(7, 11))}
	for _, f := range facts {
		s.byTitle[f.Title] = f
	}
	return s
}

func (s *memSource) RandomFact(_ context.Context, flt wattquiz.Filter) (wattquiz.Fact, error) {
	var matches []wattquiz.Fact
	for _, f := range s.facts {
		if flt.Matches(f) {
			matches = append(matches, f)
		}
	}
	if len(matches) == 0 {
		return wattquiz.Fact{}, fmt.Errorf("random fact: %w", wattquiz.ErrNotFound)
	}
	return matches[s.rng.IntN(len(matches))], nil
}

// denseFacts spaces values 4% apart from 10 Wh to several GWh.
func denseFacts() []wattquiz.Fact {
	var facts []wattquiz.Fact
	var prev uint64
	for i := 0; i < 520; i++ {
		v := uint64(math.Round(10 * math.Pow(1.04, float64(i))))
		if v == prev {
			continue
		}
		prev = v
		facts = append(facts, wattquiz.Fact{
			ID:          fmt.Sprintf("fact-%d", i),
			Title:       fmt.Sprintf("Activity %d", i),
			Consumption: v,
			ImagePath:   fmt.Sprintf("img/%d.png", i),
		})
	}
	return facts
}

func newTestGenerator(src Source) *Generator {
	return NewGenerator(src, rand.New(rand.NewPCG(1, 2)), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestConsumptionString(t *testing.T) {
	tests := []struct {
		wh   uint64
		want string
	}{
		{0, "0.00 Wh"},
		{12, "12.00 Wh"},
		{999, "999.00 Wh"},
		{1000, "1.00 kWh"},
		{1895, "1.90 kWh"},
		{2500000, "2.50 MWh"},
		{7_123_000_000, "7.12 GWh"},
		{6910838019923, "6.91 TWh"},
	}
	for _, tt := range tests {
		if got := ConsumptionString(tt.wh); got != tt.want {
			t.Errorf("ConsumptionString(%d) = %q, want %q", tt.wh, got, tt.want)
		}
	}
}

func TestSessionQuestions(t *testing.T) {
	src := newMemSource(denseFacts())
	g := newTestGenerator(src)

	questions, err := g.Session(context.Background(), 3)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if len(questions) != wattquiz.QuestionsPerSession {
		t.Fatalf("got %d questions, want %d", len(questions), wattquiz.QuestionsPerSession)
	}

	perKind := make(map[wattquiz.QuestionKind]int)
	for i, q := range questions {
		perKind[q.Kind]++
		for j := i + 1; j < len(questions); j++ {
			if q.Equal(questions[j]) {
				t.Errorf("questions %d and %d are equal", i, j)
			}
		}
	}
	for _, k := range wattquiz.Kinds {
		if perKind[k] < 3 {
			t.Errorf("kind %s appears %d times, want at least 3", k, perKind[k])
		}
	}
}

func TestSessionRejectsOversizedMinimum(t *testing.T) {
	g := newTestGenerator(newMemSource(denseFacts()))
	if _, err := g.Session(context.Background(), 6); err == nil {
		t.Fatal("expected error for 6 per type")
	}
}

func TestGeneralAnswerIsTrueValue(t *testing.T) {
	src := newMemSource(denseFacts())
	g := newTestGenerator(src)

	for range 200 {
		q, err := g.General(context.Background())
		if err != nil {
			t.Fatalf("general: %v", err)
		}
		title := strings.TrimSuffix(strings.TrimPrefix(q.Title, "How much energy does this take: "), "?")
		f, ok := src.byTitle[title]
		if !ok {
			t.Fatalf("unknown fact in title %q", q.Title)
		}
		if len(q.Options) != 3 {
			t.Fatalf("got %d options", len(q.Options))
		}
		if got := q.Options[q.Answer]; got != ConsumptionString(f.Consumption) {
			t.Errorf("answer option %q, want %q", got, ConsumptionString(f.Consumption))
		}
		seen := make(map[string]bool)
		for _, o := range q.Options {
			if seen[o] {
				t.Errorf("duplicate option %q in %v", o, q.Options)
			}
			seen[o] = true
		}
		if q.ImageRef != f.ImagePath {
			t.Errorf("image = %q, want %q", q.ImageRef, f.ImagePath)
		}
	}
}

func TestWhichIsMoreAnswerIsMaximum(t *testing.T) {
	src := newMemSource(denseFacts())
	g := newTestGenerator(src)

	for range 200 {
		q, err := g.WhichIsMore(context.Background())
		if err != nil {
			t.Fatalf("which is more: %v", err)
		}
		answer := src.byTitle[q.Options[q.Answer]].Consumption
		for _, o := range q.Options {
			if c := src.byTitle[o].Consumption; c > answer {
				t.Errorf("option %q (%d) exceeds answer (%d)", o, c, answer)
			}
		}
	}
}

func TestComparisonAnswerIsClose(t *testing.T) {
	src := newMemSource(denseFacts())
	g := newTestGenerator(src)

	for range 200 {
		q, err := g.Comparison(context.Background())
		if err != nil {
			t.Fatalf("comparison: %v", err)
		}
		quoted := strings.TrimSuffix(strings.TrimPrefix(q.Title, "Instead of "), ", you could use the same energy for...")
		title, err := strconv.Unquote(quoted)
		if err != nil {
			t.Fatalf("unquote %q: %v", quoted, err)
		}
		anchor := src.byTitle[title].Consumption
		answer := src.byTitle[q.Options[q.Answer]].Consumption

		if rel := math.Abs(float64(answer)-float64(anchor)) / float64(anchor); rel > 0.10 {
			t.Errorf("answer %d is %.2f away from anchor %d", answer, rel, anchor)
		}
		for i, o := range q.Options {
			if int64(i) == q.Answer {
				continue
			}
			c := float64(src.byTitle[o].Consumption)
			ratio := c / float64(answer)
			if ratio < 0.6 || ratio > 1.4 || (ratio > 0.8 && ratio < 1.2) {
				t.Errorf("distractor %q ratio %.2f outside 20-40%% bands", o, ratio)
			}
		}
	}
}

func TestEstimationBounds(t *testing.T) {
	src := newMemSource(denseFacts())
	g := newTestGenerator(src)

	for range 500 {
		q, err := g.Estimation(context.Background())
		if err != nil {
			t.Fatalf("estimation: %v", err)
		}
		lo, _ := strconv.ParseInt(q.Options[0], 10, 64)
		hi, _ := strconv.ParseInt(q.Options[1], 10, 64)
		if !(0 <= lo && lo < q.Answer && q.Answer < hi && hi <= EstimationCeiling) {
			t.Errorf("bounds [%d, %d] do not enclose %d", lo, hi, q.Answer)
		}
		if (hi-lo)%10 != 0 {
			t.Errorf("width %d is not a multiple of 10", hi-lo)
		}
	}
}

func TestSliderBoundsAcrossMagnitudes(t *testing.T) {
	g := newTestGenerator(newMemSource(nil))
	for _, v := range []int64{1, 9, 10, 55, 199, 1000, 12345, 99999, 500000, 999990, 999998} {
		for range 50 {
			lo, hi := g.sliderBounds(v)
			if !(0 <= lo && lo < v && v < hi && hi <= EstimationCeiling) || (hi-lo)%10 != 0 {
				t.Fatalf("v=%d: bounds [%d, %d]", v, lo, hi)
			}
		}
	}

	if w1, w2 := sliderWidth(1000), sliderWidth(100000); w2 <= w1 || float64(w2)/100000 >= float64(w1)/1000 {
		t.Errorf("width should grow absolutely and shrink relatively: %d, %d", w1, w2)
	}
}

func TestEmptySourceIsInsufficient(t *testing.T) {
	g := newTestGenerator(newMemSource(nil))

	for _, k := range wattquiz.Kinds {
		if _, err := g.Generate(context.Background(), k); !errors.Is(err, ErrInsufficientContent) {
			t.Errorf("%s: err = %v, want ErrInsufficientContent", k, err)
		}
	}
	if qs, err := g.Session(context.Background(), 2); qs != nil || !errors.Is(err, ErrInsufficientContent) {
		t.Errorf("session = %d questions, err %v", len(qs), err)
	}
}

func TestSparseSourceStopsRetrying(t *testing.T) {
	// Values three orders of magnitude apart: nothing is ever close.
	facts := []wattquiz.Fact{
		{ID: "a", Title: "A", Consumption: 10},
		{ID: "b", Title: "B", Consumption: 10_000},
		{ID: "c", Title: "C", Consumption: 10_000_000},
	}
	g := newTestGenerator(newMemSource(facts))

	if _, err := g.Comparison(context.Background()); !errors.Is(err, ErrInsufficientContent) {
		t.Errorf("comparison err = %v, want ErrInsufficientContent", err)
	}
	if _, err := g.WhichIsMore(context.Background()); !errors.Is(err, ErrInsufficientContent) {
		t.Errorf("which is more err = %v, want ErrInsufficientContent", err)
	}
}

func TestGeneralSkipsInfeasibleFacts(t *testing.T) {
	// A 1 Wh fact leaves no room for distractors; the generator must move on
	// to the other fact rather than loop.
	facts := []wattquiz.Fact{
		{ID: "tiny", Title: "Tiny", Consumption: 1},
		{ID: "big", Title: "Big", Consumption: 50_000},
	}
	g := newTestGenerator(newMemSource(facts))

	q, err := g.General(context.Background())
	if err != nil {
		t.Fatalf("general: %v", err)
	}
	if !strings.Contains(q.Title, "Big") {
		t.Errorf("title = %q, want the feasible fact", q.Title)
	}

	if feasibility(1, 1, []float64{1}, 1) != 0 {
		t.Error("empty range should be infeasible")
	}
}
