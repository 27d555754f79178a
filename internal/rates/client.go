package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/plopa1535/BF-Interestrate-DART/internal/config"
	"github.com/plopa1535/BF-Interestrate-DART/internal/models"
	"github.com/sirupsen/logrus"
)

// Provider supplies daily-aligned US/KR 10Y yield observations. An
// empty series is a valid answer, never an error.
type Provider interface {
	GetCombinedRates(ctx context.Context, days int) ([]models.RateObservation, error)
	GetCombinedRatesRange(ctx context.Context, start, end time.Time) ([]models.RateObservation, error)
}

// Client is the HTTP client for the external rate-series provider.
type Client struct {
	HTTPClient *http.Client
	baseURL    string
}

func NewClient(cfg config.RatesConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.ServiceURL, "/"),
	}
}

type combinedRatesResponse struct {
	Rates []rateRecord `json:"rates"`
}

type rateRecord struct {
	Date   string   `json:"date"`
	USRate *float64 `json:"us_rate"`
	KRRate *float64 `json:"kr_rate"`
}

// GetCombinedRates fetches the most recent `days` observations.
func (c *Client) GetCombinedRates(ctx context.Context, days int) ([]models.RateObservation, error) {
	path := fmt.Sprintf("/api/rates/combined?days=%d", days)
	return c.fetchSeries(ctx, path)
}

// GetCombinedRatesRange fetches observations for [start, end] inclusive.
func (c *Client) GetCombinedRatesRange(ctx context.Context, start, end time.Time) ([]models.RateObservation, error) {
	path := fmt.Sprintf("/api/rates/combined?start_date=%s&end_date=%s",
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	return c.fetchSeries(ctx, path)
}

func (c *Client) fetchSeries(ctx context.Context, path string) ([]models.RateObservation, error) {
	var response combinedRatesResponse
	if err := c.makeRequest(ctx, http.MethodGet, path, &response); err != nil {
		return nil, err
	}
	return normalizeSeries(response.Rates), nil
}

// normalizeSeries enforces the series invariants: rows with either
// side missing or an unparseable date are dropped, duplicate dates
// collapse to the first occurrence, and the result is sorted
// ascending by date.
func normalizeSeries(records []rateRecord) []models.RateObservation {
	seen := make(map[string]bool, len(records))
	series := make([]models.RateObservation, 0, len(records))
	for _, rec := range records {
		if rec.USRate == nil || rec.KRRate == nil {
			continue
		}
		date, err := time.Parse("2006-01-02", rec.Date)
		if err != nil {
			logrus.WithField("date", rec.Date).Warn("Skipping rate record with malformed date")
			continue
		}
		if seen[rec.Date] {
			continue
		}
		seen[rec.Date] = true
		series = append(series, models.RateObservation{
			Date:   date,
			USRate: *rec.USRate,
			KRRate: *rec.KRRate,
		})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	return series
}

func (c *Client) makeRequest(ctx context.Context, method, path string, result interface{}) error {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logrus.WithError(err).Warn("Error closing response body")
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("rate provider error (%d): %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
