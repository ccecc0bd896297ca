package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidQuestion indicates a question failed structural validation.
var ErrInvalidQuestion = errors.New("invalid question")

// QuestionKind enumerates the supported question variants.
const (
	QuestionKindDescriptive = "descriptive"
	QuestionKindSingle      = "single"
	QuestionKindMulti       = "multi"
)

// Option count bounds for choice questions.
const (
	MinChoiceOptions = 2
	MaxChoiceOptions = 6
)

// Question is one entry of an assessment. Descriptive questions carry only
// text and marks; single/multi questions additionally carry options and the
// set of correct option indices.
type Question struct {
	Kind          string   `json:"kind"`
	Text          string   `json:"text"`
	Marks         int      `json:"marks"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer []int    `json:"correct_answer,omitempty"`
}

// IsChoice reports whether the question is auto-scorable.
func (q Question) IsChoice() bool {
	return q.Kind == QuestionKindSingle || q.Kind == QuestionKindMulti
}

// Normalized returns a copy with trimmed text and blank options dropped.
// Correct-answer indices are remapped onto the surviving options; an index
// that referenced a dropped option becomes invalid rather than pointing at
// a neighbour.
func (q Question) Normalized() Question {
	out := q
	out.Text = strings.TrimSpace(q.Text)

	if !q.IsChoice() {
		out.Options = nil
		out.CorrectAnswer = nil
		return out
	}

	options := make([]string, 0, len(q.Options))
	remap := make(map[int]int, len(q.Options))
	for i, opt := range q.Options {
		trimmed := strings.TrimSpace(opt)
		if trimmed == "" {
			// A correct-answer reference to a dropped option must not
			// silently shift onto a surviving one; map it out of range so
			// validation rejects it.
			remap[i] = -1
			continue
		}
		remap[i] = len(options)
		options = append(options, trimmed)
	}

	correct := make([]int, 0, len(q.CorrectAnswer))
	seen := make(map[int]struct{}, len(q.CorrectAnswer))
	for _, idx := range q.CorrectAnswer {
		mapped, ok := remap[idx]
		if !ok {
			// Outside the original option list; keep it raw so validation
			// reports the problem instead of losing it.
			mapped = idx
		}
		if _, dup := seen[mapped]; dup {
			continue
		}
		seen[mapped] = struct{}{}
		correct = append(correct, mapped)
	}

	out.Options = options
	out.CorrectAnswer = correct
	return out
}

// Validate checks the structural rules for the question variant. The
// receiver is expected to be normalized.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: text must not be empty", ErrInvalidQuestion)
	}
	if q.Marks <= 0 {
		return fmt.Errorf("%w: marks must be positive", ErrInvalidQuestion)
	}

	switch q.Kind {
	case QuestionKindDescriptive:
		return nil
	case QuestionKindSingle, QuestionKindMulti:
		return q.validateChoice()
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidQuestion, q.Kind)
	}
}

func (q Question) validateChoice() error {
	if len(q.Options) < MinChoiceOptions {
		return fmt.Errorf("%w: at least %d options required", ErrInvalidQuestion, MinChoiceOptions)
	}
	if len(q.Options) > MaxChoiceOptions {
		return fmt.Errorf("%w: at most %d options allowed", ErrInvalidQuestion, MaxChoiceOptions)
	}
	if len(q.CorrectAnswer) == 0 {
		return fmt.Errorf("%w: correct answer must be selected", ErrInvalidQuestion)
	}
	if q.Kind == QuestionKindSingle && len(q.CorrectAnswer) != 1 {
		return fmt.Errorf("%w: single-answer question must have exactly one correct option", ErrInvalidQuestion)
	}
	for _, idx := range q.CorrectAnswer {
		if idx < 0 || idx >= len(q.Options) {
			return fmt.Errorf("%w: correct answer index %d out of range", ErrInvalidQuestion, idx)
		}
	}
	return nil
}
