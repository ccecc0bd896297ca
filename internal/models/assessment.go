package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// AssessmentKind distinguishes manually graded assignments from
// auto-gradable tests.
const (
	AssessmentKindAssignment = "assignment"
	AssessmentKindTest       = "test"
)

// Assessment is the finalized definition of an assignment or test. The
// question list is immutable once stored; edits replace the whole record.
type Assessment struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Kind            string         `gorm:"size:32;not null;index" json:"kind"`
	Title           string         `gorm:"size:255;not null" json:"title"`
	Description     string         `gorm:"type:text" json:"description"`
	CourseID        uint           `gorm:"not null;index" json:"course_id"`
	DueDate         *time.Time     `json:"due_date,omitempty"`
	Date            *time.Time     `json:"date,omitempty"`
	DurationMinutes int            `gorm:"default:0" json:"duration_minutes,omitempty"`
	TotalMarks      int            `gorm:"not null" json:"total_marks"`
	Questions       datatypes.JSON `gorm:"type:json" json:"-"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Submissions     []Submission   `gorm:"foreignKey:AssessmentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// IsTest reports whether the assessment supports auto-grading.
func (a Assessment) IsTest() bool {
	return a.Kind == AssessmentKindTest
}

// SetQuestions serializes the question list into the JSON storage column.
func (a *Assessment) SetQuestions(questions []Question) {
	data, err := json.Marshal(questions)
	if err != nil {
		a.Questions = datatypes.JSON([]byte("[]"))
		return
	}
	a.Questions = datatypes.JSON(data)
}

// QuestionList deserializes the stored questions in definition order.
func (a Assessment) QuestionList() []Question {
	if len(a.Questions) == 0 {
		return nil
	}

	var questions []Question
	if err := json.Unmarshal(a.Questions, &questions); err != nil {
		return nil
	}

	return questions
}

// Course is a read-only reference to the catalog entity owned by the
// surrounding application; assessments only point at it.
type Course struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
