package dto

import (
	"time"

	"github.com/nexlearn/assess-go-api/internal/models"
)

// AnswerRequest is one response in a submission payload, aligned by index
// with the assessment's questions.
type AnswerRequest struct {
	Text     string `json:"text"`
	Selected []int  `json:"selected"`
}

// SubmissionCreateRequest is the student intake payload. Artifact files are
// attached through the multipart form and routed to answers by the handler.
type SubmissionCreateRequest struct {
	AssessmentID uint            `json:"assessment_id" validate:"required,gt=0"`
	StudentID    uint            `json:"student_id" validate:"required,gt=0"`
	Answers      []AnswerRequest `json:"answers" validate:"required,min=1"`
}

// SubmissionFilter narrows submission listings.
type SubmissionFilter struct {
	AssessmentID *uint   `query:"assessment_id" validate:"omitempty,gt=0"`
	StudentID    *uint   `query:"student_id" validate:"omitempty,gt=0"`
	Status       *string `query:"status" validate:"omitempty,oneof=submitted partially_graded graded"`
}

// ArtifactResponse describes one uploaded answer artifact.
type ArtifactResponse struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type,omitempty"`
}

// AnswerResponse is the serialized form of one stored answer.
type AnswerResponse struct {
	Text      string             `json:"text,omitempty"`
	Selected  []int              `json:"selected,omitempty"`
	Artifacts []ArtifactResponse `json:"artifacts,omitempty"`
}

// SubmissionAssessmentSummary carries the parts of the parent assessment
// graders need alongside a submission.
type SubmissionAssessmentSummary struct {
	ID         uint   `json:"id"`
	Kind       string `json:"kind"`
	Title      string `json:"title"`
	TotalMarks int    `json:"total_marks"`
}

// SubmissionResponse is the serialized representation of a submission.
type SubmissionResponse struct {
	ID               uint                        `json:"id"`
	AssessmentID     uint                        `json:"assessment_id"`
	StudentID        uint                        `json:"student_id"`
	SubmittedAt      time.Time                   `json:"submitted_at"`
	Answers          []AnswerResponse            `json:"answers"`
	PerQuestionMarks map[int]int                 `json:"per_question_marks"`
	TotalGrade       *int                        `json:"total_grade"`
	Status           string                      `json:"status"`
	GradedAt         *time.Time                  `json:"graded_at,omitempty"`
	GradedBy         *uint                       `json:"graded_by,omitempty"`
	Assessment       SubmissionAssessmentSummary `json:"assessment"`
}

// NewSubmissionResponse converts a model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	answers := model.AnswerList()
	answerResponses := make([]AnswerResponse, 0, len(answers))
	for _, answer := range answers {
		artifacts := make([]ArtifactResponse, 0, len(answer.Artifacts))
		for _, artifact := range answer.Artifacts {
			artifacts = append(artifacts, ArtifactResponse{
				Name:     artifact.Name,
				URL:      artifact.URL,
				MimeType: artifact.MimeType,
			})
		}
		answerResponses = append(answerResponses, AnswerResponse{
			Text:      answer.Text,
			Selected:  answer.Selected,
			Artifacts: artifacts,
		})
	}

	return SubmissionResponse{
		ID:               model.ID,
		AssessmentID:     model.AssessmentID,
		StudentID:        model.StudentID,
		SubmittedAt:      model.SubmittedAt,
		Answers:          answerResponses,
		PerQuestionMarks: model.MarksMap(),
		TotalGrade:       model.TotalGrade,
		Status:           model.Status,
		GradedAt:         model.GradedAt,
		GradedBy:         model.GradedBy,
		Assessment: SubmissionAssessmentSummary{
			ID:         model.Assessment.ID,
			Kind:       model.Assessment.Kind,
			Title:      model.Assessment.Title,
			TotalMarks: model.Assessment.TotalMarks,
		},
	}
}

// NewSubmissionResponseSlice converts a slice of models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}
	return responses
}
