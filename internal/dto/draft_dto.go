package dto

import (
	"time"

	"github.com/nexlearn/assess-go-api/internal/builder"
	"github.com/nexlearn/assess-go-api/internal/models"
)

// DraftStartRequest begins a new authoring draft. FromAssessmentID seeds
// the draft's metadata from an existing assessment for the edit flow.
type DraftStartRequest struct {
	Kind             string `json:"kind" validate:"required,oneof=assignment test"`
	FromAssessmentID *uint  `json:"from_assessment_id" validate:"omitempty,gt=0"`
}

// DraftMetadataRequest carries the phase-one fields of a draft. Dates are
// RFC3339 strings; due_date applies to assignments, date and
// duration_minutes to tests.
type DraftMetadataRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	CourseID        uint   `json:"course_id"`
	DueDate         string `json:"due_date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Date            string `json:"date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	DurationMinutes int    `json:"duration_minutes"`
	TotalMarks      int    `json:"total_marks"`
}

// QuestionRequest is one candidate question for a draft.
type QuestionRequest struct {
	Kind          string   `json:"kind" validate:"required,oneof=descriptive single multi"`
	Text          string   `json:"text"`
	Marks         int      `json:"marks"`
	Options       []string `json:"options"`
	CorrectAnswer []int    `json:"correct_answer"`
}

// ToModel converts the request into the domain question shape.
func (r QuestionRequest) ToModel() models.Question {
	return models.Question{
		Kind:          r.Kind,
		Text:          r.Text,
		Marks:         r.Marks,
		Options:       r.Options,
		CorrectAnswer: r.CorrectAnswer,
	}
}

// DraftMetadataResponse echoes the metadata currently held by a draft.
type DraftMetadataResponse struct {
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	CourseID        uint       `json:"course_id"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	Date            *time.Time `json:"date,omitempty"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`
	TotalMarks      int        `json:"total_marks"`
}

// DraftResponse describes an in-progress draft.
type DraftResponse struct {
	ID               string                `json:"id"`
	Kind             string                `json:"kind"`
	Phase            string                `json:"phase"`
	FromAssessmentID *uint                 `json:"from_assessment_id,omitempty"`
	Metadata         DraftMetadataResponse `json:"metadata"`
	Questions        []QuestionResponse    `json:"questions"`
	QuestionCount    int                   `json:"question_count"`
}

// NewDraftResponse converts a builder draft into a DTO.
func NewDraftResponse(draft *builder.Draft) DraftResponse {
	meta := draft.Metadata()
	questions := draft.Questions()

	response := DraftResponse{
		ID:               draft.ID(),
		Kind:             meta.Kind,
		Phase:            draft.Phase(),
		FromAssessmentID: draft.ExistingID(),
		Metadata: DraftMetadataResponse{
			Title:           meta.Title,
			Description:     meta.Description,
			CourseID:        meta.CourseID,
			DurationMinutes: meta.DurationMinutes,
			TotalMarks:      meta.TotalMarks,
		},
		Questions:     NewQuestionResponseSlice(questions),
		QuestionCount: len(questions),
	}

	if !meta.DueDate.IsZero() {
		due := meta.DueDate
		response.Metadata.DueDate = &due
	}
	if !meta.Date.IsZero() {
		date := meta.Date
		response.Metadata.Date = &date
	}

	return response
}
