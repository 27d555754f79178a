package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/plopa1535/BF-Interestrate-DART/internal/services"
	"github.com/sirupsen/logrus"
)

const maxChatMessageLen = 500

// AnalysisHandler serves the AI commentary, news, chat, and forecast
// surfaces. These are thin glue over the collaborator services.
type AnalysisHandler struct {
	rateService  *services.RateService
	newsService  *services.NewsService
	aiService    *services.AIService
	forecastPath string
}

func NewAnalysisHandler(rateService *services.RateService, newsService *services.NewsService, aiService *services.AIService, forecastPath string) *AnalysisHandler {
	return &AnalysisHandler{
		rateService:  rateService,
		newsService:  newsService,
		aiService:    aiService,
		forecastPath: forecastPath,
	}
}

// GetAnalysis returns AI-generated commentary over the last 30 days.
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	ctx := c.Request.Context()

	series, err := h.rateService.GetCombinedRates(ctx, 30)
	if err != nil {
		logrus.WithError(err).Error("Failed to fetch rates for analysis")
		respondError(c, http.StatusInternalServerError, "Failed to generate analysis")
		return
	}
	if len(series) == 0 {
		respondError(c, http.StatusNotFound, "Insufficient rate data for analysis")
		return
	}

	usNews, krNews := h.newsContext(ctx, 5)

	analysis, err := h.aiService.GenerateRateAnalysis(ctx, series, usNews, krNews)
	if err != nil {
		logrus.WithError(err).Error("Analysis generation failed")
		respondError(c, http.StatusInternalServerError, "Failed to generate analysis")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"analysis":     analysis,
		"generated_at": time.Now().Format(time.RFC3339),
		"data_date":    series[len(series)-1].Date.Format("2006-01-02"),
	})
}

// GetNews returns rate headlines for one or both countries.
func (h *AnalysisHandler) GetNews(c *gin.Context) {
	country := strings.ToLower(c.DefaultQuery("country", "all"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	limit = clampInt(limit, 1, 10)

	ctx := c.Request.Context()
	var newsData map[string][]services.NewsItem

	switch country {
	case "us":
		items, err := h.newsService.GetUSNews(ctx, limit)
		if err != nil {
			logrus.WithError(err).Error("Failed to fetch US news")
			respondError(c, http.StatusInternalServerError, "Failed to fetch news")
			return
		}
		newsData = map[string][]services.NewsItem{"us": items}
	case "kr":
		items, err := h.newsService.GetKRNews(ctx, limit)
		if err != nil {
			logrus.WithError(err).Error("Failed to fetch KR news")
			respondError(c, http.StatusInternalServerError, "Failed to fetch news")
			return
		}
		newsData = map[string][]services.NewsItem{"kr": items}
	default:
		newsData = h.newsService.GetAllNews(ctx, limit)
	}

	respondSuccess(c, http.StatusOK, newsData)
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat answers a user question with current rate and news context.
func (h *AnalysisHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		respondError(c, http.StatusBadRequest, "Message is required")
		return
	}

	message := strings.TrimSpace(req.Message)
	if utf8.RuneCountInString(message) > maxChatMessageLen {
		respondError(c, http.StatusBadRequest, "Message too long (max 500 characters)")
		return
	}

	ctx := c.Request.Context()

	// Context blocks are best-effort; the chat still works without
	// them.
	latest, err := h.rateService.GetLatest(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Chat proceeding without rate context")
		latest = nil
	}
	usNews, krNews := h.newsContext(ctx, 7)

	response, err := h.aiService.Chat(ctx, message, latest, usNews, krNews)
	if err != nil {
		logrus.WithError(err).Error("Chat failed")
		respondError(c, http.StatusInternalServerError, "Failed to process chat message")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"response":  response,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// GetForecast serves the analyst forecast file.
func (h *AnalysisHandler) GetForecast(c *gin.Context) {
	raw, err := os.ReadFile(h.forecastPath)
	if err != nil {
		if os.IsNotExist(err) {
			respondError(c, http.StatusNotFound, "Forecast data not found")
			return
		}
		logrus.WithError(err).Error("Failed to read forecast file")
		respondError(c, http.StatusInternalServerError, "Failed to fetch forecast data")
		return
	}

	var forecast interface{}
	if err := json.Unmarshal(raw, &forecast); err != nil {
		logrus.WithError(err).Error("Forecast file is not valid JSON")
		respondError(c, http.StatusInternalServerError, "Failed to fetch forecast data")
		return
	}

	respondSuccess(c, http.StatusOK, forecast)
}

func (h *AnalysisHandler) newsContext(ctx context.Context, limit int) (usNews, krNews []services.NewsItem) {
	usNews, err := h.newsService.GetUSNews(ctx, limit)
	if err != nil {
		logrus.WithError(err).Warn("Proceeding without US news context")
		usNews = nil
	}
	krNews, err = h.newsService.GetKRNews(ctx, limit)
	if err != nil {
		logrus.WithError(err).Warn("Proceeding without KR news context")
		krNews = nil
	}
	return usNews, krNews
}
