package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/plopa1535/BF-Interestrate-DART/internal/dart"
	"github.com/plopa1535/BF-Interestrate-DART/internal/database"
	"github.com/plopa1535/BF-Interestrate-DART/internal/models"
	"github.com/sirupsen/logrus"
)

const dartCachePrefix = "dart:"

// CompanyInfo binds an insurer id to its display name and DART corp
// code.
type CompanyInfo struct {
	Name     string
	CorpCode string
}

// companyOrder fixes the listing order of the supported insurers.
var companyOrder = []string{"samsung", "hanwha", "kyobo", "shinhan"}

// CompanyMap holds the four analyzable life insurers.
var CompanyMap = map[string]CompanyInfo{
	"samsung": {Name: "삼성생명", CorpCode: "00126256"},
	"hanwha":  {Name: "한화생명", CorpCode: "00113058"},
	"kyobo":   {Name: "교보생명", CorpCode: "00112882"},
	"shinhan": {Name: "신한생명", CorpCode: "00137517"},
}

// EquityData is the normalized quarterly series for one company plus
// the number of attempted quarters that produced no usable filing.
type EquityData struct {
	Filings         []models.QuarterlyFiling `json:"filings"`
	DroppedQuarters int                      `json:"dropped_quarters"`
}

// DartService assembles normalized quarterly equity series from the
// DART filings source, with a 6-hour read-through cache keyed by
// (company, year count).
type DartService struct {
	source     dart.Source
	redis      *database.RedisClient
	filingsTTL time.Duration
	now        func() time.Time
}

func NewDartService(source dart.Source, redis *database.RedisClient, filingsTTL time.Duration) *DartService {
	return &DartService{
		source:     source,
		redis:      redis,
		filingsTTL: filingsTTL,
		now:        time.Now,
	}
}

// CompanyList returns the supported insurers in fixed order.
func (s *DartService) CompanyList() []models.Company {
	companies := make([]models.Company, 0, len(companyOrder))
	for _, id := range companyOrder {
		companies = append(companies, models.Company{ID: id, Name: CompanyMap[id].Name})
	}
	return companies
}

// GetEquityData fetches and normalizes up to yearCount years of
// quarterly filings for the company. Per-quarter fetch failures are
// logged and counted as dropped, never fatal; only an entirely empty
// result escalates, as ErrNoFilings.
func (s *DartService) GetEquityData(ctx context.Context, companyID string, yearCount int) (*EquityData, error) {
	info, ok := CompanyMap[companyID]
	if !ok {
		return nil, fmt.Errorf("unknown company: %s", companyID)
	}

	cacheKey := fmt.Sprintf("%sequity:%s:%d", dartCachePrefix, companyID, yearCount)
	if cached, found := s.getCachedEquity(ctx, cacheKey); found {
		return cached, nil
	}

	now := s.now()
	currentYear := now.Year()

	var filings []models.QuarterlyFiling
	dropped := 0

	// One sequential upstream call per (year, report code); the fetch
	// latency dominates everything else in this request.
	for year := currentYear - yearCount; year <= currentYear; year++ {
		for _, period := range dart.ReportPeriods(year) {
			if period.QuarterEnd.After(now) {
				continue
			}

			report, err := s.source.FetchQuarterlyReport(ctx, info.CorpCode, year, period.Code)
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"company": companyID,
					"year":    year,
					"quarter": period.Label,
				}).WithError(err).Warn("DART fetch failed, skipping quarter")
				dropped++
				continue
			}
			if report == nil {
				dropped++
				continue
			}

			filing, ok := dart.ExtractFiling(report, period.QuarterEnd)
			if !ok {
				// No equity total matched; the quarter is dropped
				// rather than kept with nulls.
				dropped++
				continue
			}
			filings = append(filings, filing)
		}
	}

	filings = dart.Normalize(filings, yearCount*4)
	if len(filings) == 0 {
		return nil, fmt.Errorf("%w: company %s", ErrNoFilings, companyID)
	}

	result := &EquityData{Filings: filings, DroppedQuarters: dropped}
	s.cacheEquity(ctx, cacheKey, result)

	logrus.WithFields(logrus.Fields{
		"company":  companyID,
		"quarters": len(filings),
		"dropped":  dropped,
	}).Info("DART equity data assembled")
	return result, nil
}

// ClearCache wipes the DART keyspace.
func (s *DartService) ClearCache(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	deleted, err := s.redis.ClearNamespace(ctx, dartCachePrefix)
	if err != nil {
		return err
	}
	logrus.WithField("deleted", deleted).Info("DART cache cleared")
	return nil
}

func (s *DartService) getCachedEquity(ctx context.Context, cacheKey string) (*EquityData, bool) {
	if s.redis == nil {
		return nil, false
	}

	cached, err := s.redis.Get(ctx, cacheKey)
	if err != nil {
		return nil, false
	}

	var data EquityData
	if err := json.Unmarshal([]byte(cached), &data); err != nil {
		logrus.WithError(err).Warn("Failed to unmarshal cached equity data")
		return nil, false
	}
	logrus.WithField("key", cacheKey).Info("DART cache hit")
	return &data, true
}

func (s *DartService) cacheEquity(ctx context.Context, cacheKey string, data *EquityData) {
	if s.redis == nil {
		return
	}

	payload, err := json.Marshal(data)
	if err != nil {
		logrus.WithError(err).Warn("Failed to marshal equity data for caching")
		return
	}
	if err := s.redis.Set(ctx, cacheKey, string(payload), s.filingsTTL); err != nil {
		logrus.WithError(err).Warn("Failed to cache equity data")
	}
}
