package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/nexlearn/assess-go-api/internal/models"
	"github.com/nexlearn/assess-go-api/internal/repository"
)

type fakeAssessmentRepo struct {
	store     *repository.MemoryStore
	listCalls int
	failAll   bool
}

func newFakeAssessmentRepo() *fakeAssessmentRepo {
	return &fakeAssessmentRepo{store: repository.NewMemoryStore()}
}

func (f *fakeAssessmentRepo) List(ctx context.Context, filter repository.AssessmentFilter) ([]models.Assessment, error) {
	f.listCalls++
	if f.failAll {
		return nil, errors.New("connection refused")
	}
	return f.store.Assessments().List(ctx, filter)
}

func (f *fakeAssessmentRepo) GetByID(ctx context.Context, id uint) (models.Assessment, error) {
	if f.failAll {
		return models.Assessment{}, errors.New("connection refused")
	}
	return f.store.Assessments().GetByID(ctx, id)
}

func (f *fakeAssessmentRepo) Create(ctx context.Context, assessment *models.Assessment) error {
	if f.failAll {
		return errors.New("connection refused")
	}
	return f.store.Assessments().Create(ctx, assessment)
}

func (f *fakeAssessmentRepo) Update(ctx context.Context, assessment *models.Assessment) error {
	if f.failAll {
		return errors.New("connection refused")
	}
	return f.store.Assessments().Update(ctx, assessment)
}

func (f *fakeAssessmentRepo) Delete(ctx context.Context, id uint) error {
	if f.failAll {
		return errors.New("connection refused")
	}
	return f.store.Assessments().Delete(ctx, id)
}

func catalogAssessment(title string) models.Assessment {
	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	assessment := models.Assessment{
		Kind:       models.AssessmentKindAssignment,
		Title:      title,
		CourseID:   1,
		DueDate:    &due,
		TotalMarks: 50,
	}
	assessment.SetQuestions([]models.Question{
		{Kind: models.QuestionKindDescriptive, Text: "Explain", Marks: 50},
	})
	return assessment
}

func testCache(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCatalogListUsesCache(t *testing.T) {
	repo := newFakeAssessmentRepo()
	cache := testCache(t)
	svc := NewCatalogService(repo, nil, cache, time.Minute, testLogger())
	ctx := context.Background()

	_, err := svc.Create(ctx, catalogAssessment("Cached"))
	require.NoError(t, err)

	first, err := svc.List(ctx, CatalogFilter{})
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 1, repo.listCalls)

	// Compare identifying fields rather than the whole struct: timestamps
	// lose their monotonic reading and location on the cache round-trip.
	second, err := svc.List(ctx, CatalogFilter{})
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Equal(t, first[0].ID, second[0].ID)
	require.Equal(t, first[0].Title, second[0].Title)
	require.Equal(t, 1, repo.listCalls, "second read should come from cache")
}

func TestCatalogWritesInvalidateCache(t *testing.T) {
	repo := newFakeAssessmentRepo()
	cache := testCache(t)
	svc := NewCatalogService(repo, nil, cache, time.Minute, testLogger())
	ctx := context.Background()

	created, err := svc.Create(ctx, catalogAssessment("One"))
	require.NoError(t, err)

	_, err = svc.List(ctx, CatalogFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, repo.listCalls)

	_, err = svc.Create(ctx, catalogAssessment("Two"))
	require.NoError(t, err)

	listed, err := svc.List(ctx, CatalogFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	require.Equal(t, 2, repo.listCalls, "create should drop the cached list")

	require.NoError(t, svc.Delete(ctx, created.ID))
	listed, err = svc.List(ctx, CatalogFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "Two", listed[0].Title)
}

func TestCatalogReplaceKeepsID(t *testing.T) {
	repo := newFakeAssessmentRepo()
	svc := NewCatalogService(repo, nil, nil, time.Minute, testLogger())
	ctx := context.Background()

	created, err := svc.Create(ctx, catalogAssessment("Original"))
	require.NoError(t, err)

	replacement := catalogAssessment("Replaced")
	updated, err := svc.Replace(ctx, created.ID, replacement)
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, "Replaced", updated.Title)

	_, err = svc.Replace(ctx, 999, replacement)
	require.ErrorIs(t, err, ErrAssessmentNotFound)
}

func TestCatalogFallbackServesSeedWhileOffline(t *testing.T) {
	repo := newFakeAssessmentRepo()
	repo.failAll = true
	fallback := repository.SeedStore().Assessments()
	svc := NewCatalogService(repo, fallback, nil, time.Minute, testLogger())
	ctx := context.Background()

	listed, err := svc.List(ctx, CatalogFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 4)
	require.Equal(t, "React Fundamentals Test", listed[0].Title)

	seeded, err := svc.Get(ctx, listed[0].ID)
	require.NoError(t, err)
	require.Equal(t, listed[0].Title, seeded.Title)
}

func TestCatalogFallbackRetiredAfterLiveRead(t *testing.T) {
	repo := newFakeAssessmentRepo()
	fallback := repository.SeedStore().Assessments()
	svc := NewCatalogService(repo, fallback, nil, time.Minute, testLogger())
	ctx := context.Background()

	_, err := svc.Create(ctx, catalogAssessment("Live"))
	require.NoError(t, err)

	listed, err := svc.List(ctx, CatalogFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "Live", listed[0].Title)

	// Once the primary store has answered, an outage surfaces as an error
	// rather than silently reverting to seed data.
	repo.failAll = true
	_, err = svc.List(ctx, CatalogFilter{})
	require.Error(t, err)
}

func TestCatalogFallbackRetiredAfterLiveNotFound(t *testing.T) {
	repo := newFakeAssessmentRepo()
	fallback := repository.SeedStore().Assessments()
	svc := NewCatalogService(repo, fallback, nil, time.Minute, testLogger())
	ctx := context.Background()

	// The empty primary store answering "not found" counts as a live
	// response and retires the seed fallback.
	_, err := svc.Get(ctx, 1)
	require.ErrorIs(t, err, ErrAssessmentNotFound)

	repo.failAll = true
	_, err = svc.List(ctx, CatalogFilter{})
	require.Error(t, err)
}

func TestCatalogDeleteNotFound(t *testing.T) {
	repo := newFakeAssessmentRepo()
	svc := NewCatalogService(repo, nil, nil, time.Minute, testLogger())

	err := svc.Delete(context.Background(), 42)
	require.ErrorIs(t, err, ErrAssessmentNotFound)
}

func TestCatalogGetNotFound(t *testing.T) {
	repo := newFakeAssessmentRepo()
	svc := NewCatalogService(repo, nil, nil, time.Minute, testLogger())

	_, err := svc.Get(context.Background(), 42)
	require.ErrorIs(t, err, ErrAssessmentNotFound)
}
