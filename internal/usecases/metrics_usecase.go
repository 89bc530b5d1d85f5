package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"leadhub.backend/internal/domain/entities"
	"leadhub.backend/internal/domain/repositories"
	"leadhub.backend/pkg/logger"
	"leadhub.backend/pkg/redis"
)

const (
	metricsCacheKeyPrefix = "dashboard:metrics:"
	metricsCacheTTL       = 60 * time.Second

	// DefaultTrendDays is the dashboard range when none is requested
	DefaultTrendDays = 30
	MaxTrendDays     = 365
)

// MetricsUsecase computes the dashboard aggregates. Results are cached in
// redis for a short window; cache failures degrade to a direct query.
type MetricsUsecase struct {
	leadRepo repositories.LeadRepository
	now      func() time.Time
}

// NewMetricsUsecase creates a new metrics usecase
func NewMetricsUsecase(leadRepo repositories.LeadRepository) *MetricsUsecase {
	return &MetricsUsecase{
		leadRepo: leadRepo,
		now:      time.Now,
	}
}

// Dashboard returns the lead aggregates over the trailing days-long window
func (u *MetricsUsecase) Dashboard(ctx context.Context, days int) (*entities.DashboardMetrics, error) {
	if days < 1 || days > MaxTrendDays {
		days = DefaultTrendDays
	}

	cacheKey := fmt.Sprintf("%s%d", metricsCacheKeyPrefix, days)
	if client := redis.GetClient(); client != nil {
		if cached, err := client.Get(ctx, cacheKey).Result(); err == nil {
			var metrics entities.DashboardMetrics
			if err := json.Unmarshal([]byte(cached), &metrics); err == nil {
				return &metrics, nil
			}
		}
	}

	metrics, err := u.compute(ctx, days)
	if err != nil {
		return nil, err
	}

	if client := redis.GetClient(); client != nil {
		if payload, err := json.Marshal(metrics); err == nil {
			if err := client.Set(ctx, cacheKey, payload, metricsCacheTTL).Err(); err != nil {
				logger.Warn(ctx, "failed to cache dashboard metrics", zap.Error(err))
			}
		}
	}

	return metrics, nil
}

func (u *MetricsUsecase) compute(ctx context.Context, days int) (*entities.DashboardMetrics, error) {
	now := u.now()
	since := now.AddDate(0, 0, -days)

	byStatus, err := u.leadRepo.CountByStatus(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, sc := range byStatus {
		total += sc.Count
	}

	trends, err := u.leadRepo.CountPerDay(ctx, since, now)
	if err != nil {
		return nil, err
	}

	current, err := u.leadRepo.CountCreatedBetween(ctx, since, now)
	if err != nil {
		return nil, err
	}
	previous, err := u.leadRepo.CountCreatedBetween(ctx, since.AddDate(0, 0, -days), since)
	if err != nil {
		return nil, err
	}

	return &entities.DashboardMetrics{
		TotalLeads:    total,
		LeadsByStatus: byStatus,
		LeadTrends:    trends,
		LeadsTrend:    trendPercent(current, previous),
	}, nil
}

// trendPercent is the percent change of the current window over the previous
// one. A previous window of zero reads as +100% when anything arrived.
func trendPercent(current, previous int) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return float64(current-previous) / float64(previous) * 100
}

// Invalidate drops every cached dashboard window after a lead write
func (u *MetricsUsecase) Invalidate(ctx context.Context) {
	client := redis.GetClient()
	if client == nil {
		return
	}
	keys, err := client.Keys(ctx, metricsCacheKeyPrefix+"*").Result()
	if err != nil || len(keys) == 0 {
		return
	}
	if err := client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn(ctx, "failed to invalidate dashboard metrics cache", zap.Error(err))
	}
}
