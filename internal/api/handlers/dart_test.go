package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plopa1535/BF-Interestrate-DART/internal/dart"
	"github.com/plopa1535/BF-Interestrate-DART/internal/models"
	"github.com/plopa1535/BF-Interestrate-DART/internal/services"
)

// fakeFilingsSource returns one equity filing per requested quarter,
// with the amount derived from the slot so consecutive quarters always
// differ. maxReports bounds how many quarters answer before the source
// goes quiet.
type fakeFilingsSource struct {
	maxReports int
	served     int
}

func (s *fakeFilingsSource) FetchQuarterlyReport(_ context.Context, _ string, year int, reportCode string) (*dart.QuarterlyReport, error) {
	if s.maxReports >= 0 && s.served >= s.maxReports {
		return nil, nil
	}
	s.served++

	quarter := map[string]int{"11013": 1, "11012": 2, "11014": 3, "11011": 4}[reportCode]
	equity := int64(1_000_000_000 + (year*4+quarter)*10_000_000)
	return &dart.QuarterlyReport{
		Status: "000",
		List: []dart.AccountRecord{
			{AccountName: "자본총계", FsDiv: "OFS", CurrentAmount: fmt.Sprintf("%d", equity)},
			{AccountName: "자산총계", FsDiv: "OFS", CurrentAmount: fmt.Sprintf("%d", equity*10)},
			{AccountName: "부채총계", FsDiv: "OFS", CurrentAmount: fmt.Sprintf("%d", equity*9)},
		},
	}, nil
}

// quarterRateProvider answers every range query with one observation
// at the range end, with the rate keyed off the end month so each
// quarter-end gets a distinct level.
type quarterRateProvider struct{}

func (p *quarterRateProvider) GetCombinedRates(_ context.Context, _ int) ([]models.RateObservation, error) {
	return nil, nil
}

func (p *quarterRateProvider) GetCombinedRatesRange(_ context.Context, _, end time.Time) ([]models.RateObservation, error) {
	return []models.RateObservation{{
		Date:   end,
		USRate: 4.00 + float64(end.Month())*0.10,
		KRRate: 3.00 + float64(end.Month())*0.05,
	}}, nil
}

func dartRouter(source dart.Source) *gin.Engine {
	gin.SetMode(gin.TestMode)
	dartService := services.NewDartService(source, nil, time.Hour)
	rateService := services.NewRateService(&quarterRateProvider{}, nil, time.Minute)
	handler := NewDartHandler(dartService, rateService)

	router := gin.New()
	router.GET("/dart/companies", handler.GetCompanies)
	router.POST("/dart/analyze", handler.AnalyzeDuration)
	return router
}

func doAnalyze(t *testing.T, router *gin.Engine, body string) (int, apiResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequest("POST", "/dart/analyze", reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestGetCompanies(t *testing.T) {
	router := dartRouter(&fakeFilingsSource{maxReports: -1})

	req, _ := http.NewRequest("GET", "/dart/companies", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	companies, ok := resp.Data["companies"].([]interface{})
	require.True(t, ok)
	require.Len(t, companies, 4)
	first := companies[0].(map[string]interface{})
	assert.Equal(t, "samsung", first["id"])
	assert.Equal(t, "삼성생명", first["name"])
}

func TestAnalyzeDuration(t *testing.T) {
	router := dartRouter(&fakeFilingsSource{maxReports: -1})

	code, resp := doAnalyze(t, router, `{"company_id": "hanwha", "year_count": 1}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "한화생명", resp.Data["company"])

	quarters, ok := resp.Data["quarters"].([]interface{})
	require.True(t, ok)
	require.Len(t, quarters, 4, "one year of filings is four quarters")

	for _, key := range []string{
		"equity_level", "asset_level", "liability_level",
		"us10y_level", "kr10y_level",
		"equity_qoq", "us10y_change", "kr10y_change",
	} {
		arr, ok := resp.Data[key].([]interface{})
		require.True(t, ok, key)
		assert.Len(t, arr, 4, key)
	}

	// Index 0 of every change series is null.
	assert.Nil(t, resp.Data["equity_qoq"].([]interface{})[0])
	assert.Nil(t, resp.Data["us10y_change"].([]interface{})[0])

	duration, ok := resp.Data["duration"].(map[string]interface{})
	require.True(t, ok)
	for _, leg := range []string{"us10y", "kr10y"} {
		block, ok := duration[leg].(map[string]interface{})
		require.True(t, ok, leg)
		series := block["series"].([]interface{})
		require.Len(t, series, 4, leg)
		assert.Nil(t, series[0], "first quarter has no prior to diff against")
		assert.NotNil(t, series[1])
		assert.NotNil(t, block["summary"])
		assert.Len(t, block["series_raw"].([]interface{}), 4)
	}

	assert.EqualValues(t, 3, resp.Data["analysis_count"])
	assert.EqualValues(t, 0, resp.Data["dropped_quarters"])
}

func TestAnalyzeDuration_DefaultsOnEmptyBody(t *testing.T) {
	router := dartRouter(&fakeFilingsSource{maxReports: -1})

	code, resp := doAnalyze(t, router, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "삼성생명", resp.Data["company"], "defaults to samsung")
}

func TestAnalyzeDuration_MalformedBodyFallsBackToDefaults(t *testing.T) {
	router := dartRouter(&fakeFilingsSource{maxReports: -1})

	code, resp := doAnalyze(t, router, `{"company_id": 42`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "삼성생명", resp.Data["company"])
}

func TestAnalyzeDuration_UnknownCompany(t *testing.T) {
	router := dartRouter(&fakeFilingsSource{maxReports: -1})

	code, resp := doAnalyze(t, router, `{"company_id": "acme"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "Invalid company_id. Must be one of: samsung, hanwha, kyobo, shinhan", resp.Error)
}

func TestAnalyzeDuration_NoFilings(t *testing.T) {
	router := dartRouter(&fakeFilingsSource{maxReports: 0})

	code, resp := doAnalyze(t, router, `{"company_id": "kyobo", "year_count": 1}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "No equity data found for kyobo", resp.Error)
}

func TestAnalyzeDuration_SingleQuarterIsInsufficient(t *testing.T) {
	router := dartRouter(&fakeFilingsSource{maxReports: 1})

	code, resp := doAnalyze(t, router, `{"company_id": "samsung", "year_count": 1}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Insufficient equity data for samsung (minimum 2 quarters required, got 1)", resp.Error)
}

func TestAnalyzeDuration_YearCountIsClamped(t *testing.T) {
	source := &fakeFilingsSource{maxReports: -1}
	router := dartRouter(source)

	code, resp := doAnalyze(t, router, `{"company_id": "samsung", "year_count": 99}`)
	assert.Equal(t, http.StatusOK, code)

	// Clamped to 5 years: exactly 20 quarters survive normalization.
	quarters := resp.Data["quarters"].([]interface{})
	assert.Len(t, quarters, 20)
}
