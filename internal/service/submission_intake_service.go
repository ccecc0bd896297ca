package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nexlearn/assess-go-api/internal/dto"
	"github.com/nexlearn/assess-go-api/internal/models"
	"github.com/nexlearn/assess-go-api/internal/repository"
)

var (
	// ErrDuplicateSubmission indicates the student already submitted for
	// the assessment.
	ErrDuplicateSubmission = errors.New("student already submitted for this assessment")
	// ErrAnswerShapeMismatch indicates the answers do not line up with the
	// assessment's questions.
	ErrAnswerShapeMismatch = errors.New("answers do not match assessment questions")
)

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// ArtifactUpload pairs an uploaded file with the answer index it belongs to.
type ArtifactUpload struct {
	QuestionIndex int
	File          *multipart.FileHeader
}

// SubmissionService handles student submission intake and retrieval.
// Mutation of stored submissions is the grading service's job.
type SubmissionService interface {
	List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	Get(ctx context.Context, id uint) (dto.SubmissionResponse, error)
	Create(ctx context.Context, payload dto.SubmissionCreateRequest, artifacts []ArtifactUpload) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assessments repository.AssessmentRepository
	validator   *validator.Validate
	uploader    FileUploader
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(subRepo repository.SubmissionRepository, assessmentRepo repository.AssessmentRepository, validate *validator.Validate, uploader FileUploader, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: subRepo,
		assessments: assessmentRepo,
		validator:   validate,
		uploader:    uploader,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	repoFilter := repository.SubmissionFilter{
		AssessmentID: filter.AssessmentID,
		StudentID:    filter.StudentID,
		Status:       filter.Status,
	}

	submissions, err := s.submissions.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) Get(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Create(ctx context.Context, payload dto.SubmissionCreateRequest, artifacts []ArtifactUpload) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	assessment, err := s.assessments.GetByID(ctx, payload.AssessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssessmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	questions := assessment.QuestionList()
	if len(payload.Answers) != len(questions) {
		return dto.SubmissionResponse{}, fmt.Errorf("%w: expected %d answers, got %d", ErrAnswerShapeMismatch, len(questions), len(payload.Answers))
	}

	if _, err := s.submissions.GetByAssessmentAndStudent(ctx, payload.AssessmentID, payload.StudentID); err == nil {
		return dto.SubmissionResponse{}, ErrDuplicateSubmission
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubmissionResponse{}, err
	}

	answers := make([]models.Answer, len(payload.Answers))
	for i, answer := range payload.Answers {
		answers[i] = models.Answer{Text: answer.Text, Selected: answer.Selected}
	}

	for _, artifact := range artifacts {
		if artifact.QuestionIndex < 0 || artifact.QuestionIndex >= len(answers) {
			return dto.SubmissionResponse{}, fmt.Errorf("%w: artifact %q targets unknown question index %d", ErrAnswerShapeMismatch, artifact.File.Filename, artifact.QuestionIndex)
		}

		uploaded, err := s.uploadArtifact(ctx, artifact.File)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}
		answers[artifact.QuestionIndex].Artifacts = append(answers[artifact.QuestionIndex].Artifacts, uploaded)
	}

	submission := models.Submission{
		AssessmentID: payload.AssessmentID,
		StudentID:    payload.StudentID,
		SubmittedAt:  s.now(),
		Status:       models.SubmissionStatusSubmitted,
	}
	submission.SetAnswers(answers)
	submission.SetMarks(map[int]int{})

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	created, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", created.ID).
		Uint("assessment_id", payload.AssessmentID).
		Uint("student_id", payload.StudentID).
		Msg("submission created")

	return dto.NewSubmissionResponse(created), nil
}

func (s *submissionService) uploadArtifact(ctx context.Context, file *multipart.FileHeader) (models.Artifact, error) {
	mime, err := detectFileType(file)
	if err != nil {
		return models.Artifact{}, err
	}

	reader, err := file.Open()
	if err != nil {
		return models.Artifact{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	url, err := s.uploader.Upload(ctx, file.Filename, reader)
	if err != nil {
		return models.Artifact{}, fmt.Errorf("failed to upload artifact: %w", err)
	}

	return models.Artifact{Name: file.Filename, URL: url, MimeType: mime}, nil
}

func detectFileType(file *multipart.FileHeader) (string, error) {
	reader, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return "", fmt.Errorf("failed to detect file type: %w", err)
	}

	allowed := []string{"text/plain", "application/pdf", "application/zip", "application/x-zip-compressed", "text/html", "application/json"}
	for _, a := range allowed {
		if mime.Is(a) {
			return mime.String(), nil
		}
	}

	return "", fmt.Errorf("unsupported file type: %s", mime.String())
}
