package repository

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/nexlearn/assess-go-api/internal/models"
)

// MemoryStore is an in-memory implementation of the assessment and
// submission repositories. It backs the offline fallback catalog and keeps
// the same error contract as the GORM repositories (gorm.ErrRecordNotFound
// for missing rows). A single RWMutex serializes writers against readers so
// a cascade delete is never observed half-applied.
type MemoryStore struct {
	mu               sync.RWMutex
	assessments      map[uint]models.Assessment
	order            []uint
	submissions      map[uint]models.Submission
	byAssessment     map[uint][]uint
	nextAssessmentID uint
	nextSubmissionID uint
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		assessments:      make(map[uint]models.Assessment),
		submissions:      make(map[uint]models.Submission),
		byAssessment:     make(map[uint][]uint),
		nextAssessmentID: 1,
		nextSubmissionID: 1,
	}
}

// Assessments exposes the store through the AssessmentRepository interface.
func (s *MemoryStore) Assessments() AssessmentRepository {
	return (*memoryAssessmentRepo)(s)
}

// Submissions exposes the store through the SubmissionRepository interface.
func (s *MemoryStore) Submissions() SubmissionRepository {
	return (*memorySubmissionRepo)(s)
}

type memoryAssessmentRepo MemoryStore

func (r *memoryAssessmentRepo) List(_ context.Context, filter AssessmentFilter) ([]models.Assessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Assessment, 0, len(r.order))
	for _, id := range r.order {
		assessment := r.assessments[id]
		if filter.Kind != "" && assessment.Kind != filter.Kind {
			continue
		}
		if filter.CourseID != nil && assessment.CourseID != *filter.CourseID {
			continue
		}
		out = append(out, assessment)
	}

	return out, nil
}

func (r *memoryAssessmentRepo) GetByID(_ context.Context, id uint) (models.Assessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	assessment, ok := r.assessments[id]
	if !ok {
		return models.Assessment{}, gorm.ErrRecordNotFound
	}
	return assessment, nil
}

func (r *memoryAssessmentRepo) Create(_ context.Context, assessment *models.Assessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if assessment.ID == 0 {
		assessment.ID = r.nextAssessmentID
	}
	if assessment.ID >= r.nextAssessmentID {
		r.nextAssessmentID = assessment.ID + 1
	}

	now := time.Now()
	assessment.CreatedAt = now
	assessment.UpdatedAt = now

	r.assessments[assessment.ID] = *assessment
	r.order = append(r.order, assessment.ID)
	return nil
}

func (r *memoryAssessmentRepo) Update(_ context.Context, assessment *models.Assessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.assessments[assessment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}

	assessment.UpdatedAt = time.Now()
	r.assessments[assessment.ID] = *assessment
	return nil
}

func (r *memoryAssessmentRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.assessments[id]; !ok {
		return gorm.ErrRecordNotFound
	}

	delete(r.assessments, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	for _, submissionID := range r.byAssessment[id] {
		delete(r.submissions, submissionID)
	}
	delete(r.byAssessment, id)
	return nil
}

type memorySubmissionRepo MemoryStore

func (r *memorySubmissionRepo) List(_ context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Submission, 0, len(r.submissions))
	for _, submission := range r.submissions {
		if filter.AssessmentID != nil && submission.AssessmentID != *filter.AssessmentID {
			continue
		}
		if filter.StudentID != nil && submission.StudentID != *filter.StudentID {
			continue
		}
		if filter.Status != nil && submission.Status != *filter.Status {
			continue
		}
		out = append(out, r.withAssessment(submission))
	}

	return out, nil
}

func (r *memorySubmissionRepo) GetByID(_ context.Context, id uint) (models.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	submission, ok := r.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return r.withAssessment(submission), nil
}

func (r *memorySubmissionRepo) GetByAssessmentAndStudent(_ context.Context, assessmentID, studentID uint) (models.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.byAssessment[assessmentID] {
		submission := r.submissions[id]
		if submission.StudentID == studentID {
			return r.withAssessment(submission), nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (r *memorySubmissionRepo) Create(_ context.Context, submission *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.assessments[submission.AssessmentID]; !ok {
		return gorm.ErrRecordNotFound
	}

	if submission.ID == 0 {
		submission.ID = r.nextSubmissionID
	}
	if submission.ID >= r.nextSubmissionID {
		r.nextSubmissionID = submission.ID + 1
	}

	now := time.Now()
	submission.CreatedAt = now
	submission.UpdatedAt = now

	stored := *submission
	stored.Assessment = models.Assessment{}
	r.submissions[submission.ID] = stored
	r.byAssessment[submission.AssessmentID] = append(r.byAssessment[submission.AssessmentID], submission.ID)
	return nil
}

func (r *memorySubmissionRepo) Update(_ context.Context, submission *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.submissions[submission.ID]; !ok {
		return gorm.ErrRecordNotFound
	}

	submission.UpdatedAt = time.Now()
	stored := *submission
	stored.Assessment = models.Assessment{}
	r.submissions[submission.ID] = stored
	return nil
}

// withAssessment mirrors the GORM repositories' Preload("Assessment").
// Callers hold at least a read lock.
func (r *memorySubmissionRepo) withAssessment(submission models.Submission) models.Submission {
	if assessment, ok := r.assessments[submission.AssessmentID]; ok {
		submission.Assessment = assessment
	}
	return submission
}
