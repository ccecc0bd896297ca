package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/nexlearn/assess-go-api/internal/builder"
	"github.com/nexlearn/assess-go-api/internal/dto"
)

// ErrDraftNotFound indicates the draft id is unknown or already finalized.
var ErrDraftNotFound = errors.New("draft not found")

// DraftService manages in-progress assessment drafts. Drafts live in
// memory only; nothing is persisted until Finalize publishes the result
// through the catalog.
type DraftService interface {
	Start(ctx context.Context, payload dto.DraftStartRequest) (dto.DraftResponse, error)
	ConfirmMetadata(ctx context.Context, draftID string, payload dto.DraftMetadataRequest) (dto.DraftResponse, error)
	AddQuestion(ctx context.Context, draftID string, payload dto.QuestionRequest) (dto.DraftResponse, error)
	EditQuestion(ctx context.Context, draftID string, index int, payload dto.QuestionRequest) (dto.DraftResponse, error)
	RemoveQuestion(ctx context.Context, draftID string, index int) (dto.DraftResponse, error)
	Back(ctx context.Context, draftID string) (dto.DraftResponse, error)
	Finalize(ctx context.Context, draftID string) (dto.AssessmentResponse, error)
	Discard(ctx context.Context, draftID string) error
}

// draftEntry pairs a draft with the mutex that serializes operations on
// it. The builder itself is not safe for concurrent use, so every
// mutation runs to completion under the entry lock before the next one
// is admitted.
type draftEntry struct {
	mu      sync.Mutex
	draft   *builder.Draft
	removed bool
}

type draftService struct {
	catalog   CatalogService
	validator *validator.Validate
	logger    zerolog.Logger

	mu     sync.Mutex
	drafts map[string]*draftEntry
}

// NewDraftService constructs the draft service.
func NewDraftService(catalog CatalogService, validate *validator.Validate, logger zerolog.Logger) DraftService {
	return &draftService{
		catalog:   catalog,
		validator: validate,
		logger:    logger.With().Str("component", "draft_service").Logger(),
		drafts:    make(map[string]*draftEntry),
	}
}

func (s *draftService) Start(ctx context.Context, payload dto.DraftStartRequest) (dto.DraftResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DraftResponse{}, err
	}

	var draft *builder.Draft
	if payload.FromAssessmentID != nil {
		existing, err := s.catalog.GetModel(ctx, *payload.FromAssessmentID)
		if err != nil {
			return dto.DraftResponse{}, err
		}
		draft = builder.EditOf(existing)
	} else {
		draft = builder.New(payload.Kind)
	}

	s.mu.Lock()
	s.drafts[draft.ID()] = &draftEntry{draft: draft}
	s.mu.Unlock()

	s.logger.Info().Str("draft_id", draft.ID()).Str("kind", payload.Kind).Msg("draft started")

	return dto.NewDraftResponse(draft), nil
}

func (s *draftService) ConfirmMetadata(_ context.Context, draftID string, payload dto.DraftMetadataRequest) (dto.DraftResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DraftResponse{}, err
	}

	meta := builder.Metadata{
		Title:           payload.Title,
		Description:     payload.Description,
		CourseID:        payload.CourseID,
		DurationMinutes: payload.DurationMinutes,
		TotalMarks:      payload.TotalMarks,
	}

	if payload.DueDate != "" {
		due, err := time.Parse(time.RFC3339, payload.DueDate)
		if err != nil {
			return dto.DraftResponse{}, fmt.Errorf("invalid due date: %w", err)
		}
		meta.DueDate = due
	}
	if payload.Date != "" {
		date, err := time.Parse(time.RFC3339, payload.Date)
		if err != nil {
			return dto.DraftResponse{}, fmt.Errorf("invalid date: %w", err)
		}
		meta.Date = date
	}

	return s.withDraft(draftID, func(draft *builder.Draft) error {
		return draft.ConfirmMetadata(meta)
	})
}

func (s *draftService) AddQuestion(_ context.Context, draftID string, payload dto.QuestionRequest) (dto.DraftResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DraftResponse{}, err
	}

	return s.withDraft(draftID, func(draft *builder.Draft) error {
		return draft.AddQuestion(payload.ToModel())
	})
}

func (s *draftService) EditQuestion(_ context.Context, draftID string, index int, payload dto.QuestionRequest) (dto.DraftResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DraftResponse{}, err
	}

	return s.withDraft(draftID, func(draft *builder.Draft) error {
		return draft.EditQuestion(index, payload.ToModel())
	})
}

func (s *draftService) RemoveQuestion(_ context.Context, draftID string, index int) (dto.DraftResponse, error) {
	return s.withDraft(draftID, func(draft *builder.Draft) error {
		return draft.RemoveQuestion(index)
	})
}

func (s *draftService) Back(_ context.Context, draftID string) (dto.DraftResponse, error) {
	return s.withDraft(draftID, func(draft *builder.Draft) error {
		return draft.Back()
	})
}

func (s *draftService) Finalize(ctx context.Context, draftID string) (dto.AssessmentResponse, error) {
	entry, err := s.get(draftID)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.removed {
		return dto.AssessmentResponse{}, ErrDraftNotFound
	}

	assessment, err := entry.draft.Finalize()
	if err != nil {
		return dto.AssessmentResponse{}, err
	}

	var response dto.AssessmentResponse
	if existingID := entry.draft.ExistingID(); existingID != nil {
		response, err = s.catalog.Replace(ctx, *existingID, assessment)
	} else {
		response, err = s.catalog.Create(ctx, assessment)
	}
	if err != nil {
		// Publication failed; the draft stays usable so the caller can retry.
		return dto.AssessmentResponse{}, err
	}

	entry.removed = true
	s.mu.Lock()
	delete(s.drafts, draftID)
	s.mu.Unlock()

	s.logger.Info().Str("draft_id", draftID).Uint("assessment_id", response.ID).Msg("draft finalized")

	return response, nil
}

func (s *draftService) Discard(_ context.Context, draftID string) error {
	entry, err := s.get(draftID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.removed {
		return ErrDraftNotFound
	}
	entry.removed = true

	s.mu.Lock()
	delete(s.drafts, draftID)
	s.mu.Unlock()
	return nil
}

// withDraft runs fn on the draft while holding its entry lock, so draft
// state never changes underneath an in-flight operation.
func (s *draftService) withDraft(draftID string, fn func(*builder.Draft) error) (dto.DraftResponse, error) {
	entry, err := s.get(draftID)
	if err != nil {
		return dto.DraftResponse{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.removed {
		return dto.DraftResponse{}, ErrDraftNotFound
	}

	if err := fn(entry.draft); err != nil {
		return dto.DraftResponse{}, err
	}
	return dto.NewDraftResponse(entry.draft), nil
}

// get looks up the registry entry. The map lock is released before the
// caller takes the entry lock, so lookups never block behind a slow
// operation on an unrelated draft.
func (s *draftService) get(draftID string) (*draftEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.drafts[draftID]
	if !ok {
		return nil, ErrDraftNotFound
	}
	return entry, nil
}
