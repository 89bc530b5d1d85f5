package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadhub.backend/internal/domain/entities"
	"leadhub.backend/pkg/redis"
)

// countingLeadRepo serves canned aggregates and counts how often the
// dashboard queries actually ran.
type countingLeadRepo struct {
	MockCalls int
}

func (r *countingLeadRepo) Create(ctx context.Context, lead *entities.Lead) error { return nil }
func (r *countingLeadRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Lead, error) {
	return nil, nil
}
func (r *countingLeadRepo) List(ctx context.Context, params entities.LeadListParams) (*entities.LeadPage, error) {
	return nil, nil
}
func (r *countingLeadRepo) ListAll(ctx context.Context, filter entities.LeadFilter) ([]*entities.Lead, error) {
	return nil, nil
}
func (r *countingLeadRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (r *countingLeadRepo) Transition(ctx context.Context, id uuid.UUID, from, to entities.LeadStatus, history *entities.StatusHistoryItem) error {
	return nil
}
func (r *countingLeadRepo) AddComment(ctx context.Context, comment *entities.Comment) error {
	return nil
}
func (r *countingLeadRepo) GetHistory(ctx context.Context, leadID uuid.UUID) ([]*entities.StatusHistoryItem, error) {
	return nil, nil
}
func (r *countingLeadRepo) GetComments(ctx context.Context, leadID uuid.UUID) ([]*entities.Comment, error) {
	return nil, nil
}

func (r *countingLeadRepo) CountByStatus(ctx context.Context, since, until *time.Time) ([]entities.StatusCount, error) {
	r.MockCalls++
	return []entities.StatusCount{
		{Status: entities.LeadStatusNew, Count: 3},
		{Status: entities.LeadStatusInReview, Count: 1},
		{Status: entities.LeadStatusApproved, Count: 2},
		{Status: entities.LeadStatusRejected, Count: 0},
	}, nil
}

func (r *countingLeadRepo) CountCreatedBetween(ctx context.Context, since, until time.Time) (int, error) {
	if until.After(time.Now().Add(-time.Hour)) {
		return 4, nil // current window
	}
	return 2, nil // previous window
}

func (r *countingLeadRepo) CountPerDay(ctx context.Context, since, until time.Time) ([]entities.TrendPoint, error) {
	return []entities.TrendPoint{{Date: "2026-08-01", Count: 1}}, nil
}

func withMiniredis(t *testing.T) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	redis.SetClient(client)
	t.Cleanup(func() { redis.SetClient(nil) })
}

func TestMetricsUsecase_Dashboard_CachesResult(t *testing.T) {
	withMiniredis(t)

	repo := &countingLeadRepo{}
	uc := NewMetricsUsecase(repo)

	first, err := uc.Dashboard(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 6, first.TotalLeads)
	assert.Len(t, first.LeadsByStatus, 4)
	assert.Equal(t, 1, repo.MockCalls)

	second, err := uc.Dashboard(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, first.TotalLeads, second.TotalLeads)
	assert.Equal(t, 1, repo.MockCalls, "second read should come from cache")
}

func TestMetricsUsecase_Dashboard_InvalidateForcesRecompute(t *testing.T) {
	withMiniredis(t)

	repo := &countingLeadRepo{}
	uc := NewMetricsUsecase(repo)

	_, err := uc.Dashboard(context.Background(), 30)
	require.NoError(t, err)
	uc.Invalidate(context.Background())

	_, err = uc.Dashboard(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.MockCalls)
}

func TestMetricsUsecase_Dashboard_NoCacheStillWorks(t *testing.T) {
	redis.SetClient(nil)

	repo := &countingLeadRepo{}
	uc := NewMetricsUsecase(repo)

	metrics, err := uc.Dashboard(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 6, metrics.TotalLeads)
	assert.Equal(t, 100.0, metrics.LeadsTrend)
}

func TestMetricsUsecase_Dashboard_NormalizesRange(t *testing.T) {
	redis.SetClient(nil)

	repo := &countingLeadRepo{}
	uc := NewMetricsUsecase(repo)

	_, err := uc.Dashboard(context.Background(), -5)
	require.NoError(t, err)
	_, err = uc.Dashboard(context.Background(), 100000)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.MockCalls)
}

func TestTrendPercent(t *testing.T) {
	assert.Equal(t, 0.0, trendPercent(0, 0))
	assert.Equal(t, 100.0, trendPercent(4, 0))
	assert.Equal(t, 100.0, trendPercent(4, 2))
	assert.Equal(t, -50.0, trendPercent(1, 2))
}
