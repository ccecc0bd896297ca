package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/nexlearn/assess-go-api/internal/models"
)

// AssessmentFilter narrows assessment queries.
type AssessmentFilter struct {
	Kind     string
	CourseID *uint
}

// AssessmentRepository defines persistence operations for assessments.
type AssessmentRepository interface {
	List(ctx context.Context, filter AssessmentFilter) ([]models.Assessment, error)
	GetByID(ctx context.Context, id uint) (models.Assessment, error)
	Create(ctx context.Context, assessment *models.Assessment) error
	Update(ctx context.Context, assessment *models.Assessment) error
	Delete(ctx context.Context, id uint) error
}

type assessmentRepository struct {
	db *gorm.DB
}

// NewAssessmentRepository instantiates a GORM-backed repository.
func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

func (r *assessmentRepository) List(ctx context.Context, filter AssessmentFilter) ([]models.Assessment, error) {
	query := r.db.WithContext(ctx).Model(&models.Assessment{})

	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.CourseID != nil {
		query = query.Where("course_id = ?", *filter.CourseID)
	}

	var assessments []models.Assessment
	if err := query.Order("id ASC").Find(&assessments).Error; err != nil {
		return nil, err
	}

	return assessments, nil
}

func (r *assessmentRepository) GetByID(ctx context.Context, id uint) (models.Assessment, error) {
	var assessment models.Assessment
	if err := r.db.WithContext(ctx).First(&assessment, id).Error; err != nil {
		return models.Assessment{}, err
	}

	return assessment, nil
}

func (r *assessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	return r.db.WithContext(ctx).Create(assessment).Error
}

func (r *assessmentRepository) Update(ctx context.Context, assessment *models.Assessment) error {
	return r.db.WithContext(ctx).Save(assessment).Error
}

// Delete removes the assessment and all of its submissions in one
// transaction, so readers never observe an orphaned submission.
func (r *assessmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("assessment_id = ?", id).Delete(&models.Submission{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Assessment{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
