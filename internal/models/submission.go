package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Submission statuses. A submission starts as submitted, becomes
// partially_graded while marks are incomplete and graded once every
// question is scored or a total override was issued.
const (
	SubmissionStatusSubmitted       = "submitted"
	SubmissionStatusPartiallyGraded = "partially_graded"
	SubmissionStatusGraded          = "graded"
)

// Artifact is a named file handed in as part of an answer.
type Artifact struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type,omitempty"`
}

// Answer holds one response, positionally aligned with the parent
// assessment's question at the same index. Text is used for descriptive
// questions, Selected for choice questions and Artifacts for file-based
// work.
type Answer struct {
	Text      string     `json:"text,omitempty"`
	Selected  []int      `json:"selected,omitempty"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// Submission is one student's set of answers against one assessment.
type Submission struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	AssessmentID     uint           `gorm:"not null;uniqueIndex:idx_submission_identity" json:"assessment_id"`
	StudentID        uint           `gorm:"not null;uniqueIndex:idx_submission_identity" json:"student_id"`
	SubmittedAt      time.Time      `gorm:"not null" json:"submitted_at"`
	Answers          datatypes.JSON `gorm:"type:json" json:"-"`
	PerQuestionMarks datatypes.JSON `gorm:"type:json" json:"-"`
	TotalGrade       *int           `json:"total_grade"`
	Status           string         `gorm:"size:32;not null" json:"status"`
	GradedAt         *time.Time     `json:"graded_at,omitempty"`
	GradedBy         *uint          `json:"graded_by,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	Assessment       Assessment     `gorm:"foreignKey:AssessmentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assessment"`
}

// IsGraded reports whether the submission has reached its terminal status.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}

// SetAnswers serializes the answer list into the JSON storage column.
func (s *Submission) SetAnswers(answers []Answer) {
	data, err := json.Marshal(answers)
	if err != nil {
		s.Answers = datatypes.JSON([]byte("[]"))
		return
	}
	s.Answers = datatypes.JSON(data)
}

// AnswerList deserializes the stored answers in question order.
func (s Submission) AnswerList() []Answer {
	if len(s.Answers) == 0 {
		return nil
	}

	var answers []Answer
	if err := json.Unmarshal(s.Answers, &answers); err != nil {
		return nil
	}

	return answers
}

// SetMarks serializes the sparse question-index to awarded-marks mapping.
func (s *Submission) SetMarks(marks map[int]int) {
	data, err := json.Marshal(marks)
	if err != nil {
		s.PerQuestionMarks = datatypes.JSON([]byte("{}"))
		return
	}
	s.PerQuestionMarks = datatypes.JSON(data)
}

// MarksMap deserializes the per-question marks. Returns an empty map when
// nothing has been graded yet.
func (s Submission) MarksMap() map[int]int {
	marks := make(map[int]int)
	if len(s.PerQuestionMarks) == 0 {
		return marks
	}
	if err := json.Unmarshal(s.PerQuestionMarks, &marks); err != nil {
		return make(map[int]int)
	}
	return marks
}
