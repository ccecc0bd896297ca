// Package builder implements the two-phase construction of an assessment:
// metadata entry first, then question accumulation, finishing with an
// immutable finalized definition.
package builder

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/nexlearn/assess-go-api/internal/models"
)

var (
	// ErrIncompleteMetadata indicates required metadata is missing or invalid.
	ErrIncompleteMetadata = errors.New("incomplete metadata")
	// ErrNoQuestions indicates finalize was called on a draft without questions.
	ErrNoQuestions = errors.New("draft has no questions")
	// ErrIndexOutOfRange indicates a question index outside the accumulated list.
	ErrIndexOutOfRange = errors.New("question index out of range")
	// ErrWrongPhase indicates the operation is not valid in the draft's current phase.
	ErrWrongPhase = errors.New("operation not valid in current draft phase")
)

// Draft phases.
const (
	PhaseMetadata  = "metadata"
	PhaseQuestions = "questions"
)

// Metadata holds the phase-one fields of a draft. Schedule fields depend on
// the kind: assignments carry DueDate, tests carry Date and DurationMinutes.
type Metadata struct {
	Kind            string
	Title           string
	Description     string
	CourseID        uint
	DueDate         time.Time
	Date            time.Time
	DurationMinutes int
	TotalMarks      int
}

// Draft is an assessment under construction. It is not safe for concurrent
// use; each draft is owned by a single workflow instance.
type Draft struct {
	id         string
	phase      string
	meta       Metadata
	questions  []models.Question
	existingID *uint
	sanitizer  *bluemonday.Policy
}

// New starts an empty draft of the given kind in the metadata phase.
func New(kind string) *Draft {
	return &Draft{
		id:        uuid.NewString(),
		phase:     PhaseMetadata,
		meta:      Metadata{Kind: kind},
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// EditOf starts a draft seeded from a finalized assessment. Only metadata is
// carried over; the question list starts empty, matching the product's edit
// flow, so finalizing replaces the stored questions entirely.
func EditOf(existing models.Assessment) *Draft {
	draft := New(existing.Kind)
	id := existing.ID
	draft.existingID = &id
	draft.meta = Metadata{
		Kind:            existing.Kind,
		Title:           existing.Title,
		Description:     existing.Description,
		CourseID:        existing.CourseID,
		DurationMinutes: existing.DurationMinutes,
		TotalMarks:      existing.TotalMarks,
	}
	if existing.DueDate != nil {
		draft.meta.DueDate = *existing.DueDate
	}
	if existing.Date != nil {
		draft.meta.Date = *existing.Date
	}
	return draft
}

// ID returns the draft's opaque identifier.
func (d *Draft) ID() string { return d.id }

// Phase returns the draft's current phase.
func (d *Draft) Phase() string { return d.phase }

// Metadata returns the currently held metadata.
func (d *Draft) Metadata() Metadata { return d.meta }

// Questions returns a copy of the accumulated question list.
func (d *Draft) Questions() []models.Question {
	out := make([]models.Question, len(d.questions))
	copy(out, d.questions)
	return out
}

// ExistingID returns the id of the assessment this draft replaces, if the
// draft was started via EditOf.
func (d *Draft) ExistingID() *uint { return d.existingID }

// ConfirmMetadata validates and stores the metadata, then advances the
// draft into the question phase. On failure the draft stays in the
// metadata phase with its previous metadata intact.
func (d *Draft) ConfirmMetadata(meta Metadata) error {
	if d.phase != PhaseMetadata {
		return ErrWrongPhase
	}

	meta.Kind = d.meta.Kind
	meta.Title = d.sanitizer.Sanitize(strings.TrimSpace(meta.Title))
	meta.Description = d.sanitizer.Sanitize(strings.TrimSpace(meta.Description))

	if err := validateMetadata(meta); err != nil {
		return err
	}

	d.meta = meta
	d.phase = PhaseQuestions
	return nil
}

// AddQuestion validates the candidate and appends it to the draft. A failed
// validation leaves the accumulated list unchanged.
func (d *Draft) AddQuestion(q models.Question) error {
	if d.phase != PhaseQuestions {
		return ErrWrongPhase
	}

	question, err := d.prepareQuestion(q)
	if err != nil {
		return err
	}

	d.questions = append(d.questions, question)
	return nil
}

// EditQuestion validates the replacement and swaps it in at the index.
func (d *Draft) EditQuestion(index int, q models.Question) error {
	if d.phase != PhaseQuestions {
		return ErrWrongPhase
	}
	if index < 0 || index >= len(d.questions) {
		return ErrIndexOutOfRange
	}

	question, err := d.prepareQuestion(q)
	if err != nil {
		return err
	}

	d.questions[index] = question
	return nil
}

// RemoveQuestion drops the question at the index.
func (d *Draft) RemoveQuestion(index int) error {
	if d.phase != PhaseQuestions {
		return ErrWrongPhase
	}
	if index < 0 || index >= len(d.questions) {
		return ErrIndexOutOfRange
	}

	d.questions = append(d.questions[:index], d.questions[index+1:]...)
	return nil
}

// Back returns the draft to the metadata phase. Accumulated questions are
// retained and become editable again after the metadata is re-confirmed.
func (d *Draft) Back() error {
	if d.phase != PhaseQuestions {
		return ErrWrongPhase
	}
	d.phase = PhaseMetadata
	return nil
}

// Finalize produces the immutable assessment definition. It fails with
// ErrNoQuestions when nothing has been added. The draft itself is left
// untouched; the owning workflow discards it once the result is published,
// so a failed publication can be retried.
func (d *Draft) Finalize() (models.Assessment, error) {
	if d.phase != PhaseQuestions {
		return models.Assessment{}, ErrWrongPhase
	}
	if len(d.questions) == 0 {
		return models.Assessment{}, ErrNoQuestions
	}

	assessment := models.Assessment{
		Kind:        d.meta.Kind,
		Title:       d.meta.Title,
		Description: d.meta.Description,
		CourseID:    d.meta.CourseID,
		TotalMarks:  d.meta.TotalMarks,
	}

	switch d.meta.Kind {
	case models.AssessmentKindAssignment:
		due := d.meta.DueDate
		assessment.DueDate = &due
	case models.AssessmentKindTest:
		date := d.meta.Date
		assessment.Date = &date
		assessment.DurationMinutes = d.meta.DurationMinutes
	}

	assessment.SetQuestions(d.questions)
	return assessment, nil
}

func (d *Draft) prepareQuestion(q models.Question) (models.Question, error) {
	q.Text = d.sanitizer.Sanitize(q.Text)
	for i, opt := range q.Options {
		q.Options[i] = d.sanitizer.Sanitize(opt)
	}

	question := q.Normalized()
	if err := question.Validate(); err != nil {
		return models.Question{}, err
	}
	return question, nil
}

func validateMetadata(meta Metadata) error {
	if meta.Title == "" {
		return fmt.Errorf("%w: title is required", ErrIncompleteMetadata)
	}
	if meta.CourseID == 0 {
		return fmt.Errorf("%w: course is required", ErrIncompleteMetadata)
	}
	if meta.TotalMarks <= 0 {
		return fmt.Errorf("%w: total marks must be positive", ErrIncompleteMetadata)
	}

	switch meta.Kind {
	case models.AssessmentKindAssignment:
		if meta.DueDate.IsZero() {
			return fmt.Errorf("%w: due date is required", ErrIncompleteMetadata)
		}
	case models.AssessmentKindTest:
		if meta.Date.IsZero() {
			return fmt.Errorf("%w: date is required", ErrIncompleteMetadata)
		}
		if meta.DurationMinutes <= 0 {
			return fmt.Errorf("%w: duration must be positive", ErrIncompleteMetadata)
		}
	default:
		return fmt.Errorf("%w: unknown assessment kind %q", ErrIncompleteMetadata, meta.Kind)
	}

	return nil
}
