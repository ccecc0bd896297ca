package dto

// RecordMarkRequest awards marks for one question of a submission.
// Pointers keep zero a valid value.
type RecordMarkRequest struct {
	QuestionIndex *int `json:"question_index" validate:"required,gte=0"`
	Marks         *int `json:"marks" validate:"required,gte=0"`
}

// GradeOverrideRequest sets the submission's total grade directly,
// bypassing per-question marks.
type GradeOverrideRequest struct {
	TotalGrade *int `json:"total_grade" validate:"required,gte=0"`
}
