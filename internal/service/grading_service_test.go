package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nexlearn/assess-go-api/internal/dto"
	"github.com/nexlearn/assess-go-api/internal/models"
	"github.com/nexlearn/assess-go-api/internal/repository"
)

type fakeSubmissionRepo struct {
	submissions map[uint]models.Submission
	updateCalls int
}

func newFakeSubmissionRepo(submissions ...models.Submission) *fakeSubmissionRepo {
	repo := &fakeSubmissionRepo{submissions: make(map[uint]models.Submission)}
	for _, submission := range submissions {
		repo.submissions[submission.ID] = submission
	}
	return repo
}

func (f *fakeSubmissionRepo) List(ctx context.Context, filter repository.SubmissionFilter) ([]models.Submission, error) {
	out := make([]models.Submission, 0, len(f.submissions))
	for _, submission := range f.submissions {
		out = append(out, submission)
	}
	return out, nil
}

func (f *fakeSubmissionRepo) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	submission, ok := f.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (f *fakeSubmissionRepo) GetByAssessmentAndStudent(ctx context.Context, assessmentID, studentID uint) (models.Submission, error) {
	for _, submission := range f.submissions {
		if submission.AssessmentID == assessmentID && submission.StudentID == studentID {
			return submission, nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	if submission.ID == 0 {
		submission.ID = uint(len(f.submissions) + 1)
	}
	f.submissions[submission.ID] = *submission
	return nil
}

func (f *fakeSubmissionRepo) Update(ctx context.Context, submission *models.Submission) error {
	f.updateCalls++
	f.submissions[submission.ID] = *submission
	return nil
}

func gradedTestAssessment() models.Assessment {
	date := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	assessment := models.Assessment{
		ID:              1,
		Kind:            models.AssessmentKindTest,
		Title:           "Quiz",
		CourseID:        1,
		Date:            &date,
		DurationMinutes: 30,
		TotalMarks:      20,
	}
	assessment.SetQuestions([]models.Question{
		{Kind: models.QuestionKindSingle, Text: "Q1", Marks: 10, Options: []string{"a", "b"}, CorrectAnswer: []int{0}},
		{Kind: models.QuestionKindSingle, Text: "Q2", Marks: 10, Options: []string{"a", "b"}, CorrectAnswer: []int{1}},
	})
	return assessment
}

func gradedAssignment() models.Assessment {
	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	assessment := models.Assessment{
		ID:         2,
		Kind:       models.AssessmentKindAssignment,
		Title:      "Essay",
		CourseID:   1,
		DueDate:    &due,
		TotalMarks: 25,
	}
	assessment.SetQuestions([]models.Question{
		{Kind: models.QuestionKindDescriptive, Text: "Part one", Marks: 15},
		{Kind: models.QuestionKindDescriptive, Text: "Part two", Marks: 10},
	})
	return assessment
}

func submittedFor(assessment models.Assessment, answers []models.Answer) models.Submission {
	submission := models.Submission{
		ID:           1,
		AssessmentID: assessment.ID,
		StudentID:    3,
		SubmittedAt:  time.Now(),
		Status:       models.SubmissionStatusSubmitted,
		Assessment:   assessment,
	}
	submission.SetAnswers(answers)
	submission.SetMarks(map[int]int{})
	return submission
}

func newGradingService(repo *fakeSubmissionRepo) GradingService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewGradingService(repo, validate, testLogger())
}

func TestAutoGradeAllCorrect(t *testing.T) {
	assessment := gradedTestAssessment()
	repo := newFakeSubmissionRepo(submittedFor(assessment, []models.Answer{
		{Selected: []int{0}},
		{Selected: []int{1}},
	}))
	svc := newGradingService(repo)

	result, err := svc.AutoGrade(context.Background(), 1, Grader{ID: 42})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusGraded, result.Status)
	require.NotNil(t, result.TotalGrade)
	require.Equal(t, 20, *result.TotalGrade)
	require.Equal(t, map[int]int{0: 10, 1: 10}, result.PerQuestionMarks)
	require.NotNil(t, result.GradedBy)
	require.Equal(t, uint(42), *result.GradedBy)
	require.Equal(t, 1, repo.updateCalls)
}

func TestAutoGradePartiallyCorrect(t *testing.T) {
	assessment := gradedTestAssessment()
	repo := newFakeSubmissionRepo(submittedFor(assessment, []models.Answer{
		{Selected: []int{0}},
		{Selected: []int{0}},
	}))
	svc := newGradingService(repo)

	result, err := svc.AutoGrade(context.Background(), 1, Grader{ID: 42})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusGraded, result.Status)
	require.NotNil(t, result.TotalGrade)
	require.Equal(t, 10, *result.TotalGrade)
	require.Equal(t, map[int]int{0: 10, 1: 0}, result.PerQuestionMarks)
}

func TestAutoGradeLeavesDescriptiveQuestionsPending(t *testing.T) {
	date := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	assessment := models.Assessment{
		ID:              5,
		Kind:            models.AssessmentKindTest,
		Title:           "Mixed",
		CourseID:        1,
		Date:            &date,
		DurationMinutes: 45,
		TotalMarks:      30,
	}
	assessment.SetQuestions([]models.Question{
		{Kind: models.QuestionKindSingle, Text: "Choice", Marks: 10, Options: []string{"a", "b"}, CorrectAnswer: []int{0}},
		{Kind: models.QuestionKindDescriptive, Text: "Essay", Marks: 20},
	})
	repo := newFakeSubmissionRepo(submittedFor(assessment, []models.Answer{
		{Selected: []int{0}},
		{Text: "long answer"},
	}))
	svc := newGradingService(repo)

	result, err := svc.AutoGrade(context.Background(), 1, Grader{})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusPartiallyGraded, result.Status)
	require.Nil(t, result.TotalGrade)
	require.Equal(t, map[int]int{0: 10}, result.PerQuestionMarks)
}

func TestAutoGradeRejectsAssignments(t *testing.T) {
	assessment := gradedAssignment()
	repo := newFakeSubmissionRepo(submittedFor(assessment, []models.Answer{
		{Text: "part one"},
		{Text: "part two"},
	}))
	svc := newGradingService(repo)

	_, err := svc.AutoGrade(context.Background(), 1, Grader{})
	require.ErrorIs(t, err, ErrNotAutoGradable)
	require.Equal(t, 0, repo.updateCalls)
}

func TestRecordMarkProgressesToGraded(t *testing.T) {
	assessment := gradedAssignment()
	repo := newFakeSubmissionRepo(submittedFor(assessment, []models.Answer{
		{Text: "part one"},
		{Text: "part two"},
	}))
	svc := newGradingService(repo)
	ctx := context.Background()

	index, marks := 0, 12
	result, err := svc.RecordMark(ctx, 1, dto.RecordMarkRequest{QuestionIndex: &index, Marks: &marks}, Grader{ID: 7})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusPartiallyGraded, result.Status)
	require.Nil(t, result.TotalGrade)

	index, marks = 1, 5
	result, err = svc.RecordMark(ctx, 1, dto.RecordMarkRequest{QuestionIndex: &index, Marks: &marks}, Grader{ID: 7})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusGraded, result.Status)
	require.NotNil(t, result.TotalGrade)
	require.Equal(t, 17, *result.TotalGrade)
	require.NotNil(t, result.GradedBy)
	require.Equal(t, uint(7), *result.GradedBy)
}

func TestRecordMarkOutOfRange(t *testing.T) {
	assessment := gradedAssignment()
	repo := newFakeSubmissionRepo(submittedFor(assessment, []models.Answer{
		{Text: "part one"},
		{Text: "part two"},
	}))
	svc := newGradingService(repo)
	ctx := context.Background()

	index, marks := 0, 20
	_, err := svc.RecordMark(ctx, 1, dto.RecordMarkRequest{QuestionIndex: &index, Marks: &marks}, Grader{})
	require.ErrorIs(t, err, ErrMarkOutOfRange)

	index, marks = 5, 5
	_, err = svc.RecordMark(ctx, 1, dto.RecordMarkRequest{QuestionIndex: &index, Marks: &marks}, Grader{})
	require.ErrorIs(t, err, ErrQuestionIndexOutOfRange)

	require.Equal(t, 0, repo.updateCalls)
}

func TestRecordMarkRevisionKeepsGradedStatus(t *testing.T) {
	assessment := gradedAssignment()
	submission := submittedFor(assessment, []models.Answer{
		{Text: "part one"},
		{Text: "part two"},
	})
	total := 17
	submission.Status = models.SubmissionStatusGraded
	submission.TotalGrade = &total
	submission.SetMarks(map[int]int{0: 12, 1: 5})
	repo := newFakeSubmissionRepo(submission)
	svc := newGradingService(repo)

	index, marks := 1, 8
	result, err := svc.RecordMark(context.Background(), 1, dto.RecordMarkRequest{QuestionIndex: &index, Marks: &marks}, Grader{})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusGraded, result.Status)
	require.NotNil(t, result.TotalGrade)
	require.Equal(t, 20, *result.TotalGrade)
}

func TestOverrideBounds(t *testing.T) {
	assessment := gradedAssignment()
	repo := newFakeSubmissionRepo(submittedFor(assessment, []models.Answer{
		{Text: "part one"},
		{Text: "part two"},
	}))
	svc := newGradingService(repo)
	ctx := context.Background()

	over := 30
	_, err := svc.Override(ctx, 1, dto.GradeOverrideRequest{TotalGrade: &over}, Grader{})
	require.ErrorIs(t, err, ErrMarkOutOfRange)

	ok := 25
	result, err := svc.Override(ctx, 1, dto.GradeOverrideRequest{TotalGrade: &ok}, Grader{ID: 9})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusGraded, result.Status)
	require.NotNil(t, result.TotalGrade)
	require.Equal(t, 25, *result.TotalGrade)
}

func TestGradingSubmissionNotFound(t *testing.T) {
	repo := newFakeSubmissionRepo()
	svc := newGradingService(repo)
	ctx := context.Background()

	index, marks := 0, 1
	_, err := svc.RecordMark(ctx, 99, dto.RecordMarkRequest{QuestionIndex: &index, Marks: &marks}, Grader{})
	require.ErrorIs(t, err, ErrSubmissionNotFound)

	_, err = svc.AutoGrade(ctx, 99, Grader{})
	require.ErrorIs(t, err, ErrSubmissionNotFound)

	total := 1
	_, err = svc.Override(ctx, 99, dto.GradeOverrideRequest{TotalGrade: &total}, Grader{})
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}
