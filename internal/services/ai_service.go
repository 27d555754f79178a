package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/plopa1535/BF-Interestrate-DART/internal/config"
	"github.com/plopa1535/BF-Interestrate-DART/internal/database"
	"github.com/plopa1535/BF-Interestrate-DART/internal/models"
	"github.com/sirupsen/logrus"
)

const analysisCachePrefix = "analysis:"

// AIService generates market commentary and chat replies through an
// OpenAI-compatible completion endpoint. Analysis text is cached per
// data date; chat replies are never cached.
type AIService struct {
	cli   oa.Client
	model string
	redis *database.RedisClient
	ttl   time.Duration
}

func NewAIService(cfg config.AIConfig, redis *database.RedisClient) *AIService {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AIService{
		cli:   oa.NewClient(opts...),
		model: cfg.Model,
		redis: redis,
		ttl:   config.CacheTTLOrDefault(cfg.AnalysisTTL, time.Hour),
	}
}

// GenerateRateAnalysis produces commentary over the recent rate
// series with news headlines as context.
func (s *AIService) GenerateRateAnalysis(ctx context.Context, series []models.RateObservation, usNews, krNews []NewsItem) (string, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("%w: no rate observations for analysis", ErrInsufficientData)
	}

	dataDate := series[len(series)-1].Date.Format("2006-01-02")
	cacheKey := analysisCachePrefix + dataDate
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey); err == nil {
			return cached, nil
		}
	}

	prompt := buildAnalysisPrompt(series, usNews, krNews)
	resp, err := s.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: s.model,
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage("You are a fixed-income market analyst covering US and Korean government bond yields. Write a concise analysis in 3-4 short paragraphs: current levels, recent direction, the US-KR spread, and what the news context suggests. No investment advice."),
			oa.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("analysis generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("analysis generation returned no choices")
	}

	analysis := strings.TrimSpace(resp.Choices[0].Message.Content)
	if s.redis != nil {
		if err := s.redis.Set(ctx, cacheKey, analysis, s.ttl); err != nil {
			logrus.WithError(err).Warn("Failed to cache analysis")
		}
	}
	return analysis, nil
}

// Chat answers a user question with current rate and news context
// when available. Both context blocks are optional.
func (s *AIService) Chat(ctx context.Context, message string, latest *LatestRates, usNews, krNews []NewsItem) (string, error) {
	var sb strings.Builder
	if latest != nil {
		fmt.Fprintf(&sb, "Current rates (%s): US 10Y %.3f%%, KR 10Y %.3f%%, spread %.1fbp.\n",
			latest.Date, latest.USRate, latest.KRRate, latest.Spread)
	}
	writeHeadlines(&sb, "US headlines", usNews)
	writeHeadlines(&sb, "KR headlines", krNews)
	sb.WriteString("\nQuestion: ")
	sb.WriteString(message)

	resp, err := s.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: s.model,
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage("You are a helpful assistant answering questions about US and Korean interest rates. Answer briefly using the supplied context when relevant. No investment advice."),
			oa.UserMessage(sb.String()),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ClearCache wipes the analysis keyspace.
func (s *AIService) ClearCache(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	deleted, err := s.redis.ClearNamespace(ctx, analysisCachePrefix)
	if err != nil {
		return err
	}
	logrus.WithField("deleted", deleted).Info("Analysis cache cleared")
	return nil
}

func buildAnalysisPrompt(series []models.RateObservation, usNews, krNews []NewsItem) string {
	first := series[0]
	last := series[len(series)-1]

	var sb strings.Builder
	fmt.Fprintf(&sb, "Period %s to %s (%d observations).\n",
		first.Date.Format("2006-01-02"), last.Date.Format("2006-01-02"), len(series))
	fmt.Fprintf(&sb, "US 10Y: %.3f%% -> %.3f%%. KR 10Y: %.3f%% -> %.3f%%. Current spread: %.1fbp.\n",
		first.USRate, last.USRate, first.KRRate, last.KRRate, last.Spread())

	writeHeadlines(&sb, "US headlines", usNews)
	writeHeadlines(&sb, "KR headlines", krNews)
	return sb.String()
}

func writeHeadlines(sb *strings.Builder, title string, items []NewsItem) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(title + ":\n")
	for _, item := range items {
		sb.WriteString("- " + item.Title + "\n")
	}
}
