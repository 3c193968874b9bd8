package question

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/google/uuid"

	"github.com/playperu/wattquiz/internal/wattquiz"
)

// General asks for the consumption of one fact among three values.
func (g *Generator) General(ctx context.Context) (wattquiz.Question, error) {
	for range maxBaseFacts {
		f, err := g.base(ctx, wattquiz.Filter{Min: 1})
		if err != nil {
			return wattquiz.Question{}, err
		}

		wrong, ok := g.wrongValues(f.Consumption)
		if !ok {
			continue
		}

		values := []uint64{f.Consumption, wrong[0], wrong[1]}
		g.shuffle(len(values), func(i, j int) { values[i], values[j] = values[j], values[i] })

		options := make([]string, len(values))
		for i, v := range values {
			options[i] = ConsumptionString(v)
		}
		return wattquiz.Question{
			ID:       uuid.New(),
			Kind:     wattquiz.KindGeneral,
			Title:    fmt.Sprintf("How much energy does this take: %s?", f.Title),
			ImageRef: f.ImagePath,
			Options:  options,
			Answer:   int64(slices.Index(values, f.Consumption)),
		}, nil
	}
	return wattquiz.Question{}, ErrInsufficientContent
}

// wrongValues synthesizes two distractors for v. The sampling range widens
// relative to v as v's order of magnitude grows. Before each draw the share
// of the range that is still valid is estimated; below minFeasibility the
// caller moves on to another fact instead of sampling.
func (g *Generator) wrongValues(v uint64) ([2]uint64, bool) {
	spread := 0.5 + 0.15*float64(magnitude(v))
	lo := math.Max(1, math.Floor(float64(v)/(1+spread)))
	hi := math.Ceil(float64(v) * (1 + spread))
	band := math.Max(1, proximityBand*float64(v))

	taken := []float64{float64(v)}
	var out [2]uint64
	for i := range out {
		if feasibility(lo, hi, taken, band) < minFeasibility {
			return out, false
		}

		var found bool
		for range maxSamples {
			c := uint64(lo) + g.uint64N(uint64(hi-lo)+1)
			if !collides(float64(c), taken, band) {
				out[i] = c
				taken = append(taken, float64(c))
				found = true
				break
			}
		}
		if !found {
			return out, false
		}
	}
	return out, true
}

func collides(c float64, taken []float64, band float64) bool {
	return slices.ContainsFunc(taken, func(x float64) bool { return math.Abs(c-x) < band })
}

// feasibility estimates the probability that a uniform draw from [lo, hi]
// lands outside every (x-band, x+band) exclusion zone.
func feasibility(lo, hi float64, taken []float64, band float64) float64 {
	if hi <= lo {
		return 0
	}

	zones := make([][2]float64, 0, len(taken))
	for _, x := range taken {
		zones = append(zones, [2]float64{math.Max(lo, x-band), math.Min(hi, x+band)})
	}
	slices.SortFunc(zones, func(a, b [2]float64) int {
		switch {
		case a[0] < b[0]:
			return -1
		case a[0] > b[0]:
			return 1
		}
		return 0
	})

	var covered, end float64
	end = lo
	for _, z := range zones {
		if z[1] <= end {
			continue
		}
		covered += z[1] - math.Max(z[0], end)
		end = z[1]
	}
	return 1 - covered/(hi-lo)
}

// WhichIsMore asks which of three facts of similar magnitude consumes most.
func (g *Generator) WhichIsMore(ctx context.Context) (wattquiz.Question, error) {
	for range maxBaseFacts {
		first, err := g.base(ctx, wattquiz.Filter{Min: 1})
		if err != nil {
			return wattquiz.Question{}, err
		}

		v := float64(first.Consumption)
		k := 1.5 + 0.25*float64(magnitude(first.Consumption))
		facts := []wattquiz.Fact{first}
		ids := []string{first.ID}
		values := []uint64{first.Consumption}

		for len(facts) < 3 {
			flt, ok := rangeFilter(v/k, v*k, ids, values)
			if !ok {
				break
			}
			f, ok, err := g.find(ctx, flt)
			if err != nil {
				return wattquiz.Question{}, err
			}
			if !ok {
				break
			}
			facts = append(facts, f)
			ids = append(ids, f.ID)
			values = append(values, f.Consumption)
		}
		if len(facts) < 3 {
			continue
		}

		g.shuffle(len(facts), func(i, j int) { facts[i], facts[j] = facts[j], facts[i] })
		best := 0
		options := make([]string, len(facts))
		for i, f := range facts {
			options[i] = f.Title
			if f.Consumption > facts[best].Consumption {
				best = i
			}
		}
		return wattquiz.Question{
			ID:      uuid.New(),
			Kind:    wattquiz.KindWhichIsMore,
			Title:   "Which of these activities uses the most energy?",
			Options: options,
			Answer:  int64(best),
		}, nil
	}
	return wattquiz.Question{}, ErrInsufficientContent
}

// Comparison asks which activity uses about as much energy as an anchor one.
// The right option lies within 5% (falling back to 10%) of the anchor fact;
// the distractors lie 20-40% below or above the right option.
func (g *Generator) Comparison(ctx context.Context) (wattquiz.Question, error) {
	for range maxBaseFacts {
		anchor, err := g.base(ctx, wattquiz.Filter{Min: 1})
		if err != nil {
			return wattquiz.Question{}, err
		}

		v := float64(anchor.Consumption)
		ids := []string{anchor.ID}
		values := []uint64{anchor.Consumption}

		var (
			closest wattquiz.Fact
			found   bool
		)
		for _, tol := range []float64{0.05, 0.10} {
			flt, ok := rangeFilter(v*(1-tol), v*(1+tol), ids, values)
			if !ok {
				continue
			}
			if closest, found, err = g.find(ctx, flt); err != nil {
				return wattquiz.Question{}, err
			}
			if found {
				break
			}
		}
		if !found {
			continue
		}

		c := float64(closest.Consumption)
		ids = append(ids, closest.ID)
		values = append(values, closest.Consumption)

		var below, above []wattquiz.Fact
		for _, side := range []struct {
			lo, hi float64
			dst    *[]wattquiz.Fact
		}{
			{c * 0.6, c * 0.8, &below},
			{c * 1.2, c * 1.4, &above},
		} {
			for range 2 {
				flt, ok := rangeFilter(side.lo, side.hi, ids, values)
				if !ok {
					break
				}
				f, ok, err := g.find(ctx, flt)
				if err != nil {
					return wattquiz.Question{}, err
				}
				if !ok {
					break
				}
				*side.dst = append(*side.dst, f)
				ids = append(ids, f.ID)
				values = append(values, f.Consumption)
			}
		}
		if len(below)+len(above) < 2 {
			continue
		}

		facts := []wattquiz.Fact{closest}
		switch {
		case len(below) > 0 && len(above) > 0:
			facts = append(facts, below[g.intN(len(below))], above[g.intN(len(above))])
		case len(below) > 0:
			facts = append(facts, below[0], below[1])
		default:
			facts = append(facts, above[0], above[1])
		}
		g.shuffle(len(facts), func(i, j int) { facts[i], facts[j] = facts[j], facts[i] })

		options := make([]string, len(facts))
		answer := 0
		for i, f := range facts {
			options[i] = f.Title
			if f.ID == closest.ID {
				answer = i
			}
		}
		return wattquiz.Question{
			ID:       uuid.New(),
			Kind:     wattquiz.KindComparison,
			Title:    fmt.Sprintf("Instead of %q, you could use the same energy for...", anchor.Title),
			ImageRef: anchor.ImagePath,
			Options:  options,
			Answer:   int64(answer),
		}, nil
	}
	return wattquiz.Question{}, ErrInsufficientContent
}

// Estimation asks for a value on a slider whose bounds enclose the answer.
func (g *Generator) Estimation(ctx context.Context) (wattquiz.Question, error) {
	f, err := g.base(ctx, wattquiz.Filter{Min: 1, Max: EstimationCeiling - 1})
	if err != nil {
		return wattquiz.Question{}, err
	}

	lo, hi := g.sliderBounds(int64(f.Consumption))
	return wattquiz.Question{
		ID:       uuid.New(),
		Kind:     wattquiz.KindEstimation,
		Title:    fmt.Sprintf("How many Wh does this take: %s?", f.Title),
		ImageRef: f.ImagePath,
		Options:  []string{strconv.FormatInt(lo, 10), strconv.FormatInt(hi, 10)},
		Answer:   int64(f.Consumption),
	}, nil
}

// sliderWidth grows with v, but more slowly than v itself, so larger values
// get a wider absolute and narrower relative range.
func sliderWidth(v int64) int64 {
	w := float64(v) * 3 / math.Log10(float64(v)+10)
	w = math.Min(math.Max(w, 200), 500_000)
	return int64(math.Round(w/10)) * 10
}

// sliderBounds places v strictly inside a slider of sliderWidth(v), with
// max-min a multiple of 10, 0 <= min and max <= EstimationCeiling.
func (g *Generator) sliderBounds(v int64) (int64, int64) {
	width := sliderWidth(v)
	offset := int64((0.1 + 0.8*g.randFloat()) * float64(width))

	lo := v - offset
	if lo < 0 {
		return 0, width
	}
	lo -= lo % 10
	hi := lo + width
	if hi > EstimationCeiling {
		lo -= hi - EstimationCeiling
		hi = EstimationCeiling
	}
	return lo, hi
}
