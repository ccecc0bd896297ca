package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nexlearn/assess-go-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Assessment{}, &models.Submission{}))
	return db
}

func newTestAssessment(kind, title string, courseID uint) models.Assessment {
	assessment := models.Assessment{
		Kind:       kind,
		Title:      title,
		CourseID:   courseID,
		TotalMarks: 20,
	}
	if kind == models.AssessmentKindAssignment {
		due := time.Date(2026, 9, 15, 23, 59, 0, 0, time.UTC)
		assessment.DueDate = &due
	} else {
		date := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
		assessment.Date = &date
		assessment.DurationMinutes = 60
	}
	assessment.SetQuestions([]models.Question{
		{Kind: models.QuestionKindDescriptive, Text: "Explain", Marks: 20},
	})
	return assessment
}

func TestAssessmentRepositoryListInsertionOrderAndFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssessmentRepository(db)
	ctx := context.Background()

	first := newTestAssessment(models.AssessmentKindTest, "First Test", 1)
	second := newTestAssessment(models.AssessmentKindAssignment, "First Assignment", 1)
	third := newTestAssessment(models.AssessmentKindTest, "Second Test", 2)

	require.NoError(t, repo.Create(ctx, &first))
	require.NoError(t, repo.Create(ctx, &second))
	require.NoError(t, repo.Create(ctx, &third))

	all, err := repo.List(ctx, AssessmentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "First Test", all[0].Title)
	require.Equal(t, "First Assignment", all[1].Title)
	require.Equal(t, "Second Test", all[2].Title)

	tests, err := repo.List(ctx, AssessmentFilter{Kind: models.AssessmentKindTest})
	require.NoError(t, err)
	require.Len(t, tests, 2)

	courseID := uint(1)
	courseOne, err := repo.List(ctx, AssessmentFilter{CourseID: &courseID})
	require.NoError(t, err)
	require.Len(t, courseOne, 2)

	both, err := repo.List(ctx, AssessmentFilter{Kind: models.AssessmentKindTest, CourseID: &courseID})
	require.NoError(t, err)
	require.Len(t, both, 1)
	require.Equal(t, "First Test", both[0].Title)
}

func TestAssessmentRepositoryGetByIDNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssessmentRepository(db)

	_, err := repo.GetByID(context.Background(), 999)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAssessmentRepositoryUpdatePersistsQuestions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssessmentRepository(db)
	ctx := context.Background()

	assessment := newTestAssessment(models.AssessmentKindAssignment, "Original", 1)
	require.NoError(t, repo.Create(ctx, &assessment))

	assessment.Title = "Renamed"
	assessment.SetQuestions([]models.Question{
		{Kind: models.QuestionKindDescriptive, Text: "New question", Marks: 20},
	})
	require.NoError(t, repo.Update(ctx, &assessment))

	stored, err := repo.GetByID(ctx, assessment.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", stored.Title)
	questions := stored.QuestionList()
	require.Len(t, questions, 1)
	require.Equal(t, "New question", questions[0].Text)
}

func TestAssessmentRepositoryDeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssessmentRepository(db)
	subRepo := NewSubmissionRepository(db)
	ctx := context.Background()

	assessment := newTestAssessment(models.AssessmentKindTest, "Doomed", 1)
	survivor := newTestAssessment(models.AssessmentKindTest, "Survivor", 1)
	require.NoError(t, repo.Create(ctx, &assessment))
	require.NoError(t, repo.Create(ctx, &survivor))

	doomedSub := models.Submission{
		AssessmentID: assessment.ID,
		StudentID:    7,
		SubmittedAt:  time.Now(),
		Status:       models.SubmissionStatusSubmitted,
	}
	keptSub := models.Submission{
		AssessmentID: survivor.ID,
		StudentID:    7,
		SubmittedAt:  time.Now(),
		Status:       models.SubmissionStatusSubmitted,
	}
	require.NoError(t, subRepo.Create(ctx, &doomedSub))
	require.NoError(t, subRepo.Create(ctx, &keptSub))

	require.NoError(t, repo.Delete(ctx, assessment.ID))

	_, err := repo.GetByID(ctx, assessment.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = subRepo.GetByID(ctx, doomedSub.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	kept, err := subRepo.GetByID(ctx, keptSub.ID)
	require.NoError(t, err)
	require.Equal(t, survivor.ID, kept.AssessmentID)

	require.ErrorIs(t, repo.Delete(ctx, assessment.ID), gorm.ErrRecordNotFound)
}
