package dto

import (
	"time"

	"github.com/nexlearn/assess-go-api/internal/models"
)

// QuestionResponse is the serialized form of one assessment question.
type QuestionResponse struct {
	Kind          string   `json:"kind"`
	Text          string   `json:"text"`
	Marks         int      `json:"marks"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer []int    `json:"correct_answer,omitempty"`
}

// AssessmentResponse is the serialized representation returned to API clients.
type AssessmentResponse struct {
	ID              uint               `json:"id"`
	Kind            string             `json:"kind"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	CourseID        uint               `json:"course_id"`
	DueDate         *time.Time         `json:"due_date,omitempty"`
	Date            *time.Time         `json:"date,omitempty"`
	DurationMinutes int                `json:"duration_minutes,omitempty"`
	TotalMarks      int                `json:"total_marks"`
	QuestionCount   int                `json:"question_count"`
	Questions       []QuestionResponse `json:"questions"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// NewQuestionResponse converts a question model into a DTO.
func NewQuestionResponse(q models.Question) QuestionResponse {
	return QuestionResponse{
		Kind:          q.Kind,
		Text:          q.Text,
		Marks:         q.Marks,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
	}
}

// NewQuestionResponseSlice converts a question list into DTOs.
func NewQuestionResponseSlice(questions []models.Question) []QuestionResponse {
	responses := make([]QuestionResponse, 0, len(questions))
	for _, q := range questions {
		responses = append(responses, NewQuestionResponse(q))
	}
	return responses
}

// NewAssessmentResponse converts a model into a DTO.
func NewAssessmentResponse(model models.Assessment) AssessmentResponse {
	questions := model.QuestionList()
	return AssessmentResponse{
		ID:              model.ID,
		Kind:            model.Kind,
		Title:           model.Title,
		Description:     model.Description,
		CourseID:        model.CourseID,
		DueDate:         model.DueDate,
		Date:            model.Date,
		DurationMinutes: model.DurationMinutes,
		TotalMarks:      model.TotalMarks,
		QuestionCount:   len(questions),
		Questions:       NewQuestionResponseSlice(questions),
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// NewAssessmentResponseSlice converts a slice of models into DTOs.
func NewAssessmentResponseSlice(assessments []models.Assessment) []AssessmentResponse {
	responses := make([]AssessmentResponse, 0, len(assessments))
	for _, assessment := range assessments {
		responses = append(responses, NewAssessmentResponse(assessment))
	}
	return responses
}
