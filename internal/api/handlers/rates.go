package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/plopa1535/BF-Interestrate-DART/internal/models"
	"github.com/plopa1535/BF-Interestrate-DART/internal/services"
	"github.com/sirupsen/logrus"
)

// RatesHandler serves the raw rate series and the three coupling
// analytics over it.
type RatesHandler struct {
	rateService *services.RateService
}

func NewRatesHandler(rateService *services.RateService) *RatesHandler {
	return &RatesHandler{rateService: rateService}
}

type rateRecordResponse struct {
	Date   string  `json:"date"`
	USRate float64 `json:"us_rate"`
	KRRate float64 `json:"kr_rate"`
	Spread float64 `json:"spread"`
}

// GetRates returns the daily US/KR/spread series.
func (h *RatesHandler) GetRates(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "90"))
	days = clampInt(days, 1, 365)

	series, err := h.rateService.GetCombinedRates(c.Request.Context(), days)
	if err != nil {
		logrus.WithError(err).Error("Failed to fetch rates")
		respondError(c, http.StatusInternalServerError, "Failed to fetch rate data")
		return
	}
	if len(series) == 0 {
		respondError(c, http.StatusNotFound, "No rate data available")
		return
	}

	records := make([]rateRecordResponse, len(series))
	for i, obs := range series {
		records[i] = rateRecordResponse{
			Date:   obs.Date.Format("2006-01-02"),
			USRate: round3(obs.USRate),
			KRRate: round3(obs.KRRate),
			Spread: round1(obs.Spread()),
		}
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"rates":       records,
		"count":       len(records),
		"period_days": days,
	})
}

// GetLatestRates returns the most recent observation.
func (h *RatesHandler) GetLatestRates(c *gin.Context) {
	latest, err := h.rateService.GetLatest(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrInsufficientData) {
			respondError(c, http.StatusNotFound, "No rate data available")
			return
		}
		logrus.WithError(err).Error("Failed to fetch latest rates")
		respondError(c, http.StatusInternalServerError, "Failed to fetch latest rate data")
		return
	}

	respondSuccess(c, http.StatusOK, latest)
}

type couplingPointResponse struct {
	Date      string                   `json:"date"`
	Beta      float64                  `json:"beta"`
	BetaRaw   float64                  `json:"beta_raw"`
	Direction models.CouplingDirection `json:"direction"`
}

// GetCoupling returns the rolling beta of KR rate changes against US
// rate changes.
func (h *RatesHandler) GetCoupling(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "180"))
	days = clampInt(days, 30, 365)
	window, _ := strconv.Atoi(c.DefaultQuery("window", "14"))
	window = clampInt(window, 7, 30)

	// The leading `window` observations only warm up the first betas
	// and the pad absorbs non-trading days, so the reporting horizon
	// stays fully covered.
	fetchDays := days + 2*window + 10
	series, err := h.rateService.GetCombinedRates(c.Request.Context(), fetchDays)
	if err != nil {
		logrus.WithError(err).Error("Failed to fetch rates for coupling")
		respondError(c, http.StatusInternalServerError, "Failed to fetch rate data")
		return
	}

	result, err := services.ComputeCoupling(series, window, days)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientData) {
			respondError(c, http.StatusNotFound, "Insufficient rate data for coupling analysis")
			return
		}
		logrus.WithError(err).Error("Coupling computation failed")
		respondError(c, http.StatusInternalServerError, "Failed to compute coupling")
		return
	}

	points := make([]couplingPointResponse, len(result.Points))
	for i, p := range result.Points {
		points[i] = couplingPointResponse{
			Date:      p.Date.Format("2006-01-02"),
			Beta:      p.Beta,
			BetaRaw:   p.BetaRaw,
			Direction: p.Direction,
		}
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"points":       points,
		"overall_beta": result.OverallBeta,
		"direction":    result.Direction,
		"window":       result.Window,
		"period_days":  result.PeriodDays,
		"count":        len(points),
	})
}

type correlationPeriodResponse struct {
	PeriodStart string  `json:"period_start"`
	PeriodEnd   string  `json:"period_end"`
	PeriodLabel string  `json:"period_label"`
	Correlation float64 `json:"correlation"`
	DataPoints  int     `json:"data_points"`
}

// GetCorrelation returns block-wise Pearson correlations of the two
// level series.
func (h *RatesHandler) GetCorrelation(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "180"))
	days = clampInt(days, 30, 1095)
	window, _ := strconv.Atoi(c.DefaultQuery("window", "30"))
	window = clampInt(window, 7, 60)

	series, err := h.rateService.GetCombinedRates(c.Request.Context(), days)
	if err != nil {
		logrus.WithError(err).Error("Failed to fetch rates for correlation")
		respondError(c, http.StatusInternalServerError, "Failed to fetch rate data")
		return
	}

	result, err := services.ComputeBlockCorrelations(series, window, days)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientData) {
			respondError(c, http.StatusNotFound, "Insufficient rate data for correlation analysis")
			return
		}
		logrus.WithError(err).Error("Correlation computation failed")
		respondError(c, http.StatusInternalServerError, "Failed to compute correlation")
		return
	}

	periods := make([]correlationPeriodResponse, len(result.Periods))
	for i, p := range result.Periods {
		periods[i] = correlationPeriodResponse{
			PeriodStart: p.PeriodStart.Format("2006-01-02"),
			PeriodEnd:   p.PeriodEnd.Format("2006-01-02"),
			PeriodLabel: p.PeriodLabel,
			Correlation: p.Correlation,
			DataPoints:  p.DataPoints,
		}
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"periods":             periods,
		"overall_correlation": result.Overall,
		"window":              result.Window,
		"period_days":         result.PeriodDays,
	})
}

type cointegrationPeriodResponse struct {
	PeriodStart    string  `json:"period_start"`
	PeriodEnd      string  `json:"period_end"`
	PeriodLabel    string  `json:"period_label"`
	PValue         float64 `json:"pvalue"`
	Strength       float64 `json:"strength"`
	TestStatistic  float64 `json:"test_statistic"`
	IsCointegrated bool    `json:"is_cointegrated"`
	DataPoints     int     `json:"data_points"`
}

// GetCointegration returns windowed Engle-Granger test results over
// the level series.
func (h *RatesHandler) GetCointegration(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "1095"))
	days = clampInt(days, 90, 1095)
	window, _ := strconv.Atoi(c.DefaultQuery("window", "90"))
	window = clampInt(window, 30, 180)

	series, err := h.rateService.GetCombinedRates(c.Request.Context(), days)
	if err != nil {
		logrus.WithError(err).Error("Failed to fetch rates for cointegration")
		respondError(c, http.StatusInternalServerError, "Failed to fetch rate data")
		return
	}

	result, err := services.ComputeCointegration(series, window, days)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientData) {
			respondError(c, http.StatusNotFound, "Insufficient rate data for cointegration analysis")
			return
		}
		logrus.WithError(err).Error("Cointegration computation failed")
		respondError(c, http.StatusInternalServerError, "Failed to compute cointegration")
		return
	}

	periods := make([]cointegrationPeriodResponse, len(result.Periods))
	for i, p := range result.Periods {
		periods[i] = toCointegrationResponse(p)
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"periods":     periods,
		"overall":     toCointegrationResponse(result.Overall),
		"window":      result.Window,
		"period_days": result.PeriodDays,
		"step_days":   result.StepDays,
	})
}

func toCointegrationResponse(p models.CointegrationPeriod) cointegrationPeriodResponse {
	return cointegrationPeriodResponse{
		PeriodStart:    p.PeriodStart.Format("2006-01-02"),
		PeriodEnd:      p.PeriodEnd.Format("2006-01-02"),
		PeriodLabel:    p.PeriodLabel,
		PValue:         p.PValue,
		Strength:       p.Strength,
		TestStatistic:  p.TestStatistic,
		IsCointegrated: p.IsCointegrated,
		DataPoints:     p.DataPoints,
	}
}
