package dart_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plopa1535/BF-Interestrate-DART/internal/config"
	"github.com/plopa1535/BF-Interestrate-DART/internal/dart"
)

func newTestClient(serverURL string) *dart.Client {
	return dart.NewClient(config.DARTConfig{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Timeout: 5,
	})
}

func TestFetchQuarterlyReport(t *testing.T) {
	tests := []struct {
		name         string
		responseCode int
		responseBody interface{}
		expectError  bool
		expectNil    bool
		expectRows   int
	}{
		{
			name:         "successful report",
			responseCode: http.StatusOK,
			responseBody: dart.QuarterlyReport{
				Status: "000",
				List: []dart.AccountRecord{
					{AccountName: "자본총계", FsDiv: "OFS", CurrentAmount: "15,000,000"},
					{AccountName: "자산총계", FsDiv: "OFS", CurrentAmount: "300,000,000"},
				},
			},
			expectRows: 2,
		},
		{
			name:         "no report filed yet",
			responseCode: http.StatusOK,
			responseBody: dart.QuarterlyReport{Status: "013", Message: "조회된 데이타가 없습니다."},
			expectNil:    true,
		},
		{
			name:         "API-level error status",
			responseCode: http.StatusOK,
			responseBody: dart.QuarterlyReport{Status: "020", Message: "요청 제한을 초과하였습니다."},
			expectError:  true,
		},
		{
			name:         "HTTP error",
			responseCode: http.StatusInternalServerError,
			responseBody: map[string]string{"error": "internal"},
			expectError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/fnlttSinglAcnt.json", r.URL.Path)
				assert.Equal(t, "GET", r.Method)
				assert.Equal(t, "test-key", r.URL.Query().Get("crtfc_key"))
				assert.Equal(t, "00126256", r.URL.Query().Get("corp_code"))
				assert.Equal(t, "2024", r.URL.Query().Get("bsns_year"))
				assert.Equal(t, "11013", r.URL.Query().Get("reprt_code"))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.responseCode)
				if err := json.NewEncoder(w).Encode(tt.responseBody); err != nil {
					t.Errorf("Failed to encode response: %v", err)
				}
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			report, err := client.FetchQuarterlyReport(context.Background(), "00126256", 2024, "11013")

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, report)
				return
			}
			require.NoError(t, err)
			if tt.expectNil {
				assert.Nil(t, report)
				return
			}
			require.NotNil(t, report)
			assert.Len(t, report.List, tt.expectRows)
		})
	}
}

func TestFetchQuarterlyReport_MissingAPIKey(t *testing.T) {
	client := dart.NewClient(config.DARTConfig{BaseURL: "http://localhost:9"})

	_, err := client.FetchQuarterlyReport(context.Background(), "00126256", 2024, "11013")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}
