// Package scoring maps answer correctness, timing and proximity to points.
package scoring

import (
	"math"
	"time"
)

const (
	// MaxPoints is awarded for a correct answer inside the grace period.
	MaxPoints = 100

	// graceFraction is the share of the answer window that still earns
	// MaxPoints; it doubles as the estimation proximity cutoff.
	graceFraction = 0.21

	kernelSigma = 0.1
)

// Fraction returns elapsed/window clamped to [0, 1].
func Fraction(elapsed, window time.Duration) float64 {
	if window <= 0 || elapsed >= window {
		return 1
	}
	if elapsed <= 0 {
		return 0
	}
	return float64(elapsed) / float64(window)
}

// MultipleChoice scores a multiple-choice answer given at frac of the window.
func MultipleChoice(correct bool, frac float64) int {
	if !correct {
		return 0
	}
	frac = clamp(frac)
	if frac < graceFraction {
		return MaxPoints
	}
	return int(math.Round((math.Exp(-3*frac) + 0.46) * 100))
}

// Estimation scores a numeric guess against the true value.
func Estimation(answer, truth int64, frac float64) int {
	if answer == truth {
		return MaxPoints
	}
	if truth == 0 {
		return 0
	}

	prox := math.Abs(float64(answer-truth)) / math.Abs(float64(truth))
	if prox >= graceFraction {
		return 0
	}

	kernel := math.Exp(-(prox * prox) / (2 * kernelSigma * kernelSigma))
	return int(math.Round((kernel*MaxPoints + float64(MultipleChoice(true, frac))) / 2))
}

func clamp(frac float64) float64 {
	switch {
	case math.IsNaN(frac), frac < 0:
		return 0
	case frac > 1:
		return 1
	}
	return frac
}
