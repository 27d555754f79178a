package dart

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/plopa1535/BF-Interestrate-DART/internal/models"
)

// fsDivSeparate marks the separate/standalone statement variant.
// Consolidated ("CFS") rows are discarded.
const fsDivSeparate = "OFS"

// accountField identifies which filing field an account label feeds.
type accountField int

const (
	fieldEquity accountField = iota
	fieldAsset
	fieldLiability
)

// accountLabels maps known Korean account-label variants to filing
// fields. Filings vary in spacing ("자본총계" vs "자본 총계"), so
// matching is by substring over every listed variant.
var accountLabels = []struct {
	field    accountField
	variants []string
}{
	{fieldEquity, []string{"자본총계", "자본 총계"}},
	{fieldAsset, []string{"자산총계", "자산 총계"}},
	{fieldLiability, []string{"부채총계", "부채 총계"}},
}

// matchAccountField resolves an account label against the variant
// table. Returns false when the label maps to no known field.
func matchAccountField(accountName string) (accountField, bool) {
	for _, entry := range accountLabels {
		for _, variant := range entry.variants {
			if strings.Contains(accountName, variant) {
				return entry.field, true
			}
		}
	}
	return 0, false
}

// parseAmount parses a DART amount string ("12,345,678"). Empty and
// "-" placeholders mean the value is not reported.
func parseAmount(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-" {
		return 0, false
	}
	amount, err := strconv.ParseInt(strings.ReplaceAll(raw, ",", ""), 10, 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}

// ReportPeriod is one fiscal-quarter report slot within a business
// year: the DART report code, the quarter-end date, and a short label
// for logging.
type ReportPeriod struct {
	Code       string
	QuarterEnd time.Time
	Label      string
}

// ReportPeriods returns the four report slots of a business year.
func ReportPeriods(year int) []ReportPeriod {
	return []ReportPeriod{
		{"11013", time.Date(year, 3, 31, 0, 0, 0, 0, time.UTC), "1Q"},
		{"11012", time.Date(year, 6, 30, 0, 0, 0, 0, time.UTC), "2Q"},
		{"11014", time.Date(year, 9, 30, 0, 0, 0, 0, time.UTC), "3Q"},
		{"11011", time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC), "4Q"},
	}
}

// ExtractFiling reduces one raw report to a normalized quarterly
// filing. Only separate-statement rows participate. The second return
// is false when no equity total could be matched, in which case the
// quarter is dropped entirely.
func ExtractFiling(report *QuarterlyReport, quarterEnd time.Time) (models.QuarterlyFiling, bool) {
	filing := models.QuarterlyFiling{Quarter: quarterEnd}
	haveEquity := false

	if report == nil {
		return filing, false
	}

	for _, record := range report.List {
		if record.FsDiv != fsDivSeparate {
			continue
		}
		field, ok := matchAccountField(record.AccountName)
		if !ok {
			continue
		}
		amount, ok := parseAmount(record.CurrentAmount)
		if !ok {
			continue
		}

		switch field {
		case fieldEquity:
			filing.Equity = amount
			haveEquity = true
		case fieldAsset:
			a := amount
			filing.Asset = &a
		case fieldLiability:
			l := amount
			filing.Liability = &l
		}
	}

	return filing, haveEquity
}

// Normalize deduplicates filings by quarter-end (first occurrence
// wins, matching the fetch order's preference for the earliest report
// code), sorts ascending, and truncates to the most recent
// maxQuarters entries.
func Normalize(filings []models.QuarterlyFiling, maxQuarters int) []models.QuarterlyFiling {
	seen := make(map[time.Time]bool, len(filings))
	out := make([]models.QuarterlyFiling, 0, len(filings))
	for _, f := range filings {
		if seen[f.Quarter] {
			continue
		}
		seen[f.Quarter] = true
		out = append(out, f)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Quarter.Before(out[j].Quarter) })

	if maxQuarters > 0 && len(out) > maxQuarters {
		out = out[len(out)-maxQuarters:]
	}
	return out
}
