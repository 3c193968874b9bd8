package wattquiz

import (
	"slices"

	"github.com/google/uuid"
)

type QuestionKind string

const (
	KindGeneral     QuestionKind = "GENERAL"
	KindComparison  QuestionKind = "COMPARISON"
	KindEstimation  QuestionKind = "ESTIMATION"
	KindWhichIsMore QuestionKind = "WHICH_IS_MORE"
)

// Kinds lists every question kind in a stable order.
var Kinds = []QuestionKind{KindGeneral, KindComparison, KindEstimation, KindWhichIsMore}

// Question is immutable once generated.
//
// For ESTIMATION, Options holds the slider bounds [min, max] and Answer is
// the true consumption. For every other kind Answer is an index into
// Options.
type Question struct {
	ID       uuid.UUID    `json:"id"`
	Kind     QuestionKind `json:"type"`
	Title    string       `json:"title"`
	ImageRef string       `json:"imageRef"`
	Options  []string     `json:"answerOptions"`
	Answer   int64        `json:"answer"`
}

// MultipleChoice reports whether Answer is an option index.
func (q Question) MultipleChoice() bool {
	return q.Kind != KindEstimation
}

// Equal compares two questions field by field, ignoring their IDs.
func (q Question) Equal(o Question) bool {
	return q.Kind == o.Kind &&
		q.Title == o.Title &&
		q.ImageRef == o.ImageRef &&
		q.Answer == o.Answer &&
		slices.Equal(q.Options, o.Options)
}

// Correct reports whether a submitted value is the right answer. Estimation
// answers are only correct when exact; proximity is handled by scoring.
func (q Question) Correct(value int64) bool {
	return value == q.Answer
}
