package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/nexlearn/assess-go-api/internal/dto"
	"github.com/nexlearn/assess-go-api/internal/models"
	"github.com/nexlearn/assess-go-api/internal/observability"
	"github.com/nexlearn/assess-go-api/internal/repository"
	"github.com/nexlearn/assess-go-api/internal/scoring"
)

var (
	// ErrSubmissionNotFound indicates the submission was not located.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrMarkOutOfRange indicates a mark outside [0, question marks] or an
	// override outside [0, assessment total marks].
	ErrMarkOutOfRange = errors.New("mark out of range")
	// ErrQuestionIndexOutOfRange indicates the question index does not exist.
	ErrQuestionIndexOutOfRange = errors.New("question index out of range")
	// ErrNotAutoGradable indicates auto-grading was requested for an
	// assignment-kind assessment.
	ErrNotAutoGradable = errors.New("assessment is not auto-gradable")
)

const gradingTracerName = "github.com/nexlearn/assess-go-api/internal/service/grading"

// Grader identifies the acting user for audit fields.
type Grader struct {
	ID uint
}

// GradingService drives a submission from submitted through
// partially_graded to graded.
type GradingService interface {
	RecordMark(ctx context.Context, submissionID uint, payload dto.RecordMarkRequest, grader Grader) (dto.SubmissionResponse, error)
	AutoGrade(ctx context.Context, submissionID uint, grader Grader) (dto.SubmissionResponse, error)
	Override(ctx context.Context, submissionID uint, payload dto.GradeOverrideRequest, grader Grader) (dto.SubmissionResponse, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradingService constructs the grading service.
func NewGradingService(submissions repository.SubmissionRepository, validate *validator.Validate, logger zerolog.Logger) GradingService {
	return &gradingService{
		submissions: submissions,
		validator:   validate,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

func (s *gradingService) RecordMark(ctx context.Context, submissionID uint, payload dto.RecordMarkRequest, grader Grader) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer(gradingTracerName)
	ctx, span := tracer.Start(ctx, "grading.record_mark")
	span.SetAttributes(attribute.Int64("grading.submission_id", int64(submissionID)))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	submission, questions, err := s.load(ctx, submissionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.SubmissionResponse{}, err
	}

	index := *payload.QuestionIndex
	marks := *payload.Marks

	if err := applyMark(&submission, questions, index, marks); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mark_rejected")
		return dto.SubmissionResponse{}, err
	}
	s.stampGrader(&submission, grader)

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_update_failed")
		return dto.SubmissionResponse{}, err
	}

	observability.SubmissionsGraded().WithLabelValues("manual").Inc()
	span.SetAttributes(
		attribute.Int("grading.question_index", index),
		attribute.Int("grading.marks", marks),
		attribute.String("grading.status", submission.Status),
	)
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Int("question_index", index).
		Int("marks", marks).
		Str("status", submission.Status).
		Msg("manual mark recorded")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *gradingService) AutoGrade(ctx context.Context, submissionID uint, grader Grader) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer(gradingTracerName)
	ctx, span := tracer.Start(ctx, "grading.auto_grade")
	span.SetAttributes(attribute.Int64("grading.submission_id", int64(submissionID)))
	defer span.End()

	submission, questions, err := s.load(ctx, submissionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.SubmissionResponse{}, err
	}

	if !submission.Assessment.IsTest() {
		span.SetStatus(codes.Error, "not_auto_gradable")
		return dto.SubmissionResponse{}, ErrNotAutoGradable
	}

	answers := submission.AnswerList()
	scored := 0
	for i, question := range questions {
		if !question.IsChoice() {
			continue
		}

		var selected []int
		if i < len(answers) {
			selected = answers[i].Selected
		}

		awarded := scoring.Score(question, selected)
		if err := applyMark(&submission, questions, i, awarded); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "mark_rejected")
			return dto.SubmissionResponse{}, err
		}
		scored++
	}
	s.stampGrader(&submission, grader)

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_update_failed")
		return dto.SubmissionResponse{}, err
	}

	observability.SubmissionsGraded().WithLabelValues("auto").Inc()
	span.SetAttributes(
		attribute.Int("grading.questions_scored", scored),
		attribute.String("grading.status", submission.Status),
	)
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Int("questions_scored", scored).
		Str("status", submission.Status).
		Msg("choice questions auto-graded")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *gradingService) Override(ctx context.Context, submissionID uint, payload dto.GradeOverrideRequest, grader Grader) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer(gradingTracerName)
	ctx, span := tracer.Start(ctx, "grading.override")
	span.SetAttributes(attribute.Int64("grading.submission_id", int64(submissionID)))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	submission, _, err := s.load(ctx, submissionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.SubmissionResponse{}, err
	}

	total := *payload.TotalGrade
	if total < 0 || total > submission.Assessment.TotalMarks {
		span.SetStatus(codes.Error, "override_out_of_range")
		return dto.SubmissionResponse{}, ErrMarkOutOfRange
	}

	submission.TotalGrade = &total
	submission.Status = models.SubmissionStatusGraded
	s.stampGrader(&submission, grader)

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_update_failed")
		return dto.SubmissionResponse{}, err
	}

	observability.SubmissionsGraded().WithLabelValues("override").Inc()
	span.SetAttributes(attribute.Int("grading.total_grade", total))
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Int("total_grade", total).
		Msg("total grade overridden")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *gradingService) load(ctx context.Context, submissionID uint) (models.Submission, []models.Question, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, nil, ErrSubmissionNotFound
		}
		return models.Submission{}, nil, err
	}
	return submission, submission.Assessment.QuestionList(), nil
}

func (s *gradingService) stampGrader(submission *models.Submission, grader Grader) {
	gradedAt := s.now()
	submission.GradedAt = &gradedAt
	if grader.ID != 0 {
		gradedBy := grader.ID
		submission.GradedBy = &gradedBy
	}
}

// applyMark validates and records one per-question mark, then recomputes
// the submission's status: graded once every question index is scored,
// partially_graded otherwise. An override-set total grade is recomputed
// from per-question marks only when coverage is complete.
func applyMark(submission *models.Submission, questions []models.Question, index, marks int) error {
	if index < 0 || index >= len(questions) {
		return ErrQuestionIndexOutOfRange
	}
	if marks < 0 || marks > questions[index].Marks {
		return ErrMarkOutOfRange
	}

	perQuestion := submission.MarksMap()
	perQuestion[index] = marks
	submission.SetMarks(perQuestion)

	if len(perQuestion) == len(questions) {
		total := 0
		for _, awarded := range perQuestion {
			total += awarded
		}
		submission.TotalGrade = &total
		submission.Status = models.SubmissionStatusGraded
	} else if !submission.IsGraded() {
		submission.Status = models.SubmissionStatusPartiallyGraded
	}

	return nil
}
