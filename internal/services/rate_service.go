package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/plopa1535/BF-Interestrate-DART/internal/database"
	"github.com/plopa1535/BF-Interestrate-DART/internal/models"
	"github.com/plopa1535/BF-Interestrate-DART/internal/rates"
	"github.com/sirupsen/logrus"
)

const rateCachePrefix = "rates:"

// LatestRates is the most recent observation with its derived spread.
type LatestRates struct {
	Date   string  `json:"date"`
	USRate float64 `json:"us_rate"`
	KRRate float64 `json:"kr_rate"`
	Spread float64 `json:"spread"`
}

// RateService wraps the external rate provider with a read-through
// Redis cache. Concurrent identical requests may both miss and both
// refetch; the provider call dominates the cost and the results are
// identical, so no coalescing is done.
type RateService struct {
	provider rates.Provider
	redis    *database.RedisClient
	ttl      time.Duration
}

func NewRateService(provider rates.Provider, redis *database.RedisClient, ttl time.Duration) *RateService {
	return &RateService{
		provider: provider,
		redis:    redis,
		ttl:      ttl,
	}
}

// GetCombinedRates returns the most recent `days` daily observations.
// An empty series is a valid result.
func (s *RateService) GetCombinedRates(ctx context.Context, days int) ([]models.RateObservation, error) {
	cacheKey := fmt.Sprintf("%scombined:days:%d", rateCachePrefix, days)
	if series, found := s.getCachedSeries(ctx, cacheKey); found {
		return series, nil
	}

	series, err := s.provider.GetCombinedRates(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch combined rates: %w", err)
	}

	s.cacheSeries(ctx, cacheKey, series)
	return series, nil
}

// GetCombinedRatesRange returns observations inside [start, end].
func (s *RateService) GetCombinedRatesRange(ctx context.Context, start, end time.Time) ([]models.RateObservation, error) {
	cacheKey := fmt.Sprintf("%scombined:range:%s:%s",
		rateCachePrefix, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if series, found := s.getCachedSeries(ctx, cacheKey); found {
		return series, nil
	}

	series, err := s.provider.GetCombinedRatesRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch combined rates range: %w", err)
	}

	s.cacheSeries(ctx, cacheKey, series)
	return series, nil
}

// GetLatest returns the newest observation.
func (s *RateService) GetLatest(ctx context.Context) (*LatestRates, error) {
	series, err := s.GetCombinedRates(ctx, 10)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: no recent rate observations", ErrInsufficientData)
	}

	last := series[len(series)-1]
	return &LatestRates{
		Date:   last.Date.Format("2006-01-02"),
		USRate: roundTo(last.USRate, 3),
		KRRate: roundTo(last.KRRate, 3),
		Spread: roundTo(last.Spread(), 1),
	}, nil
}

// QuarterEndRates returns the US and KR rates closest to (and not
// after) the given quarter-end, looking back up to ten days. The
// boolean is false when no observation exists in that span.
func (s *RateService) QuarterEndRates(ctx context.Context, quarterEnd time.Time) (usRate, krRate float64, ok bool) {
	series, err := s.GetCombinedRatesRange(ctx, quarterEnd.AddDate(0, 0, -10), quarterEnd)
	if err != nil {
		logrus.WithField("quarter", quarterEnd.Format("2006-01-02")).
			WithError(err).Warn("Failed to fetch quarter-end rates")
		return 0, 0, false
	}
	if len(series) == 0 {
		return 0, 0, false
	}
	last := series[len(series)-1]
	return last.USRate, last.KRRate, true
}

// ClearCache wipes the rate keyspace.
func (s *RateService) ClearCache(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	deleted, err := s.redis.ClearNamespace(ctx, rateCachePrefix)
	if err != nil {
		return err
	}
	logrus.WithField("deleted", deleted).Info("Rate cache cleared")
	return nil
}

func (s *RateService) getCachedSeries(ctx context.Context, cacheKey string) ([]models.RateObservation, bool) {
	if s.redis == nil {
		return nil, false
	}

	cached, err := s.redis.Get(ctx, cacheKey)
	if err != nil {
		return nil, false
	}

	var series []models.RateObservation
	if err := json.Unmarshal([]byte(cached), &series); err != nil {
		logrus.WithError(err).Warn("Failed to unmarshal cached rate series")
		return nil, false
	}
	return series, true
}

func (s *RateService) cacheSeries(ctx context.Context, cacheKey string, series []models.RateObservation) {
	if s.redis == nil {
		return
	}

	data, err := json.Marshal(series)
	if err != nil {
		logrus.WithError(err).Warn("Failed to marshal rate series for caching")
		return
	}
	if err := s.redis.Set(ctx, cacheKey, string(data), s.ttl); err != nil {
		logrus.WithError(err).Warn("Failed to cache rate series")
	}
}
