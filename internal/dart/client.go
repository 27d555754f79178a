package dart

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/plopa1535/BF-Interestrate-DART/internal/config"
	"github.com/sirupsen/logrus"
)

// Source fetches raw quarterly report records from the DART open API.
// A (nil, nil) return means the quarter has no report yet.
type Source interface {
	FetchQuarterlyReport(ctx context.Context, corpCode string, year int, reportCode string) (*QuarterlyReport, error)
}

// QuarterlyReport is the raw DART response for one (company, year,
// report code) query against the single-company key-accounts API.
type QuarterlyReport struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	List    []AccountRecord `json:"list"`
}

// AccountRecord is one account line from a DART financial statement.
// FsDiv distinguishes the separate ("OFS") and consolidated ("CFS")
// statement variants.
type AccountRecord struct {
	AccountName   string `json:"account_nm"`
	FsDiv         string `json:"fs_div"`
	CurrentAmount string `json:"thstrm_amount"`
}

const (
	statusOK     = "000"
	statusNoData = "013"
)

// Client is the HTTP client for opendart.fss.or.kr.
type Client struct {
	HTTPClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(cfg config.DARTConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
	}
}

// FetchQuarterlyReport queries the single-company key-accounts
// endpoint (fnlttSinglAcnt) for one report period.
func (c *Client) FetchQuarterlyReport(ctx context.Context, corpCode string, year int, reportCode string) (*QuarterlyReport, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("DART API key is not configured")
	}

	params := url.Values{}
	params.Set("crtfc_key", c.apiKey)
	params.Set("corp_code", corpCode)
	params.Set("bsns_year", fmt.Sprintf("%d", year))
	params.Set("reprt_code", reportCode)

	reqURL := fmt.Sprintf("%s/fnlttSinglAcnt.json?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logrus.WithError(err).Warn("Error closing response body")
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("DART API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var report QuarterlyReport
	if err := json.Unmarshal(respBody, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	switch report.Status {
	case statusOK:
		return &report, nil
	case statusNoData:
		// Report not filed for this period.
		return nil, nil
	default:
		return nil, fmt.Errorf("DART API status %s: %s", report.Status, report.Message)
	}
}
