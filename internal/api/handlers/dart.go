package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plopa1535/BF-Interestrate-DART/internal/models"
	"github.com/plopa1535/BF-Interestrate-DART/internal/services"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DartHandler serves the insurer list and the equity-duration
// analysis built from DART filings and matched quarter-end rates.
type DartHandler struct {
	dartService *services.DartService
	rateService *services.RateService
}

func NewDartHandler(dartService *services.DartService, rateService *services.RateService) *DartHandler {
	return &DartHandler{
		dartService: dartService,
		rateService: rateService,
	}
}

// GetCompanies returns the fixed list of analyzable insurers.
func (h *DartHandler) GetCompanies(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{
		"companies": h.dartService.CompanyList(),
	})
}

type analyzeRequest struct {
	CompanyID string `json:"company_id"`
	YearCount *int   `json:"year_count"`
}

type durationBlock struct {
	Series    []*float64 `json:"series"`
	SeriesRaw []*float64 `json:"series_raw"`
	Summary   *float64   `json:"summary"`
}

// AnalyzeDuration runs the full duration analysis: fetch and
// normalize filings, match quarter-end rates for both legs, estimate
// per-quarter durations against each.
func (h *DartHandler) AnalyzeDuration(c *gin.Context) {
	// A missing or malformed body falls back to the defaults rather
	// than failing the request.
	var req analyzeRequest
	_ = c.ShouldBindJSON(&req)

	companyID := req.CompanyID
	if companyID == "" {
		companyID = "samsung"
	}
	yearCount := 3
	if req.YearCount != nil {
		yearCount = clampInt(*req.YearCount, 1, 5)
	}

	companies := h.dartService.CompanyList()
	company, ok := findCompany(companies, companyID)
	if !ok {
		ids := make([]string, len(companies))
		for i, comp := range companies {
			ids[i] = comp.ID
		}
		respondError(c, http.StatusBadRequest,
			fmt.Sprintf("Invalid company_id. Must be one of: %s", strings.Join(ids, ", ")))
		return
	}

	logrus.WithFields(logrus.Fields{
		"company":    companyID,
		"year_count": yearCount,
	}).Info("Starting duration analysis")

	equityData, err := h.dartService.GetEquityData(c.Request.Context(), companyID, yearCount)
	if err != nil {
		if errors.Is(err, services.ErrNoFilings) {
			respondError(c, http.StatusBadRequest,
				fmt.Sprintf("No equity data found for %s", companyID))
			return
		}
		logrus.WithError(err).Error("DART analysis failed")
		respondError(c, http.StatusInternalServerError, "Failed to perform DART analysis")
		return
	}

	filings := equityData.Filings
	if len(filings) < 2 {
		respondError(c, http.StatusBadRequest,
			fmt.Sprintf("Insufficient equity data for %s (minimum 2 quarters required, got %d)",
				companyID, len(filings)))
		return
	}

	// Quarter-end rate lookups; a missing quarter leaves a nil level
	// and the duration at that quarter undefined.
	us10yRates := make(map[time.Time]float64, len(filings))
	kr10yRates := make(map[time.Time]float64, len(filings))
	for _, filing := range filings {
		us, kr, ok := h.rateService.QuarterEndRates(c.Request.Context(), filing.Quarter)
		if !ok {
			continue
		}
		us10yRates[filing.Quarter] = us
		kr10yRates[filing.Quarter] = kr
	}

	usSeries, usSummary := services.EstimateDuration(filings, us10yRates)
	krSeries, krSummary := services.EstimateDuration(filings, kr10yRates)

	quarters := make([]string, len(filings))
	equityLevels := make([]*float64, len(filings))
	assetLevels := make([]*float64, len(filings))
	liabilityLevels := make([]*float64, len(filings))
	usLevels := make([]*float64, len(filings))
	krLevels := make([]*float64, len(filings))
	for i, filing := range filings {
		quarters[i] = filing.Quarter.Format("2006-01-02")
		equityLevels[i] = toHundredMillions(&filing.Equity)
		assetLevels[i] = toHundredMillions(filing.Asset)
		liabilityLevels[i] = toHundredMillions(filing.Liability)
		if us, ok := us10yRates[filing.Quarter]; ok {
			v := us
			usLevels[i] = &v
		}
		if kr, ok := kr10yRates[filing.Quarter]; ok {
			v := kr
			krLevels[i] = &v
		}
	}

	analysisCount := 0
	for _, est := range usSeries {
		if est.Duration != nil {
			analysisCount++
		}
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"company":          company.Name,
		"quarters":         quarters,
		"equity_level":     equityLevels,
		"asset_level":      assetLevels,
		"liability_level":  liabilityLevels,
		"us10y_level":      usLevels,
		"kr10y_level":      krLevels,
		"equity_qoq":       equityQoQ(filings),
		"us10y_change":     rateChanges(filings, us10yRates),
		"kr10y_change":     rateChanges(filings, kr10yRates),
		"duration": gin.H{
			"us10y": toDurationBlock(usSeries, usSummary),
			"kr10y": toDurationBlock(krSeries, krSummary),
		},
		"analysis_count":   analysisCount,
		"dropped_quarters": equityData.DroppedQuarters,
	})
}

func findCompany(companies []models.Company, id string) (models.Company, bool) {
	for _, comp := range companies {
		if comp.ID == id {
			return comp, true
		}
	}
	return models.Company{}, false
}

// toHundredMillions converts a KRW amount to 억원 (1e8 KRW) with one
// decimal place, via decimal to keep the scaling exact.
func toHundredMillions(amount *int64) *float64 {
	if amount == nil || *amount == 0 {
		return nil
	}
	v, _ := decimal.NewFromInt(*amount).
		DivRound(decimal.NewFromInt(100_000_000), 1).
		Float64()
	return &v
}

func equityQoQ(filings []models.QuarterlyFiling) []*float64 {
	out := make([]*float64, len(filings))
	for i := 1; i < len(filings); i++ {
		prev := filings[i-1].Equity
		if prev == 0 {
			continue
		}
		change, _ := decimal.NewFromInt(filings[i].Equity).
			DivRound(decimal.NewFromInt(prev), 8).
			Sub(decimal.NewFromInt(1)).
			Round(6).Float64()
		out[i] = &change
	}
	return out
}

func rateChanges(filings []models.QuarterlyFiling, rates map[time.Time]float64) []*float64 {
	out := make([]*float64, len(filings))
	for i := 1; i < len(filings); i++ {
		cur, okCur := rates[filings[i].Quarter]
		prev, okPrev := rates[filings[i-1].Quarter]
		if !okCur || !okPrev {
			continue
		}
		change, _ := decimal.NewFromFloat(cur / 100).
			Sub(decimal.NewFromFloat(prev / 100)).
			Round(6).Float64()
		out[i] = &change
	}
	return out
}

func toDurationBlock(series []models.DurationEstimate, summary *float64) durationBlock {
	values := make([]*float64, len(series))
	raw := make([]*float64, len(series))
	for i, est := range series {
		values[i] = est.Duration
		raw[i] = est.Raw
	}
	return durationBlock{Series: values, SeriesRaw: raw, Summary: summary}
}
