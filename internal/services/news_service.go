package services

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/plopa1535/BF-Interestrate-DART/internal/config"
	"github.com/plopa1535/BF-Interestrate-DART/internal/database"
	"github.com/sirupsen/logrus"
)

const (
	newsCachePrefix = "news:"
	newsFetchLimit  = 10
)

// NewsItem is one rate-related headline.
type NewsItem struct {
	Title        string `json:"title"`
	Link         string `json:"link"`
	PublishedAt  string `json:"published_at"`
	RelativeTime string `json:"relative_time"`
}

// NewsService fetches US and Korean rate headlines from RSS feeds
// with a short read-through cache. The RSS envelope is small and
// fixed, so it is decoded with encoding/xml directly.
type NewsService struct {
	httpClient *http.Client
	usFeedURL  string
	krFeedURL  string
	redis      *database.RedisClient
	ttl        time.Duration
	now        func() time.Time
}

func NewNewsService(cfg config.NewsConfig, redis *database.RedisClient) *NewsService {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &NewsService{
		httpClient: &http.Client{Timeout: timeout},
		usFeedURL:  cfg.USFeedURL,
		krFeedURL:  cfg.KRFeedURL,
		redis:      redis,
		ttl:        config.CacheTTLOrDefault(cfg.CacheTTL, 30*time.Minute),
		now:        time.Now,
	}
}

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
}

// GetUSNews returns up to `limit` US rate headlines.
func (s *NewsService) GetUSNews(ctx context.Context, limit int) ([]NewsItem, error) {
	return s.getNews(ctx, "us", s.usFeedURL, limit)
}

// GetKRNews returns up to `limit` Korean rate headlines.
func (s *NewsService) GetKRNews(ctx context.Context, limit int) ([]NewsItem, error) {
	return s.getNews(ctx, "kr", s.krFeedURL, limit)
}

// GetAllNews returns both countries keyed "us" and "kr". A failed
// side is logged and returned empty rather than failing the request.
func (s *NewsService) GetAllNews(ctx context.Context, limit int) map[string][]NewsItem {
	all := make(map[string][]NewsItem, 2)
	for country, feedURL := range map[string]string{"us": s.usFeedURL, "kr": s.krFeedURL} {
		items, err := s.getNews(ctx, country, feedURL, limit)
		if err != nil {
			logrus.WithField("country", country).WithError(err).Warn("News fetch failed")
			items = []NewsItem{}
		}
		all[country] = items
	}
	return all
}

// ClearCache wipes the news keyspace.
func (s *NewsService) ClearCache(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	deleted, err := s.redis.ClearNamespace(ctx, newsCachePrefix)
	if err != nil {
		return err
	}
	logrus.WithField("deleted", deleted).Info("News cache cleared")
	return nil
}

func (s *NewsService) getNews(ctx context.Context, country, feedURL string, limit int) ([]NewsItem, error) {
	items, found := s.getCachedNews(ctx, country)
	if !found {
		fetched, err := s.fetchFeed(ctx, feedURL)
		if err != nil {
			return nil, err
		}
		items = fetched
		s.cacheNews(ctx, country, items)
	}

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	// Relative times are recomputed on every read so cached items do
	// not age stale strings.
	out := make([]NewsItem, len(items))
	for i, item := range items {
		item.RelativeTime = s.relativeTime(item.PublishedAt)
		out[i] = item
	}
	return out, nil
}

func (s *NewsService) fetchFeed(ctx context.Context, feedURL string) ([]NewsItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logrus.WithError(err).Warn("Error closing response body")
		}
	}()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("feed error (%d)", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]NewsItem, 0, newsFetchLimit)
	for _, item := range feed.Channel.Items {
		items = append(items, NewsItem{
			Title:       item.Title,
			Link:        item.Link,
			PublishedAt: item.PubDate,
		})
		if len(items) == newsFetchLimit {
			break
		}
	}
	return items, nil
}

// relativeTime renders an RSS pubDate as a coarse "N hours ago"
// string. Unparseable dates come back empty.
func (s *NewsService) relativeTime(pubDate string) string {
	published, err := time.Parse(time.RFC1123Z, pubDate)
	if err != nil {
		published, err = time.Parse(time.RFC1123, pubDate)
		if err != nil {
			return ""
		}
	}

	elapsed := s.now().Sub(published)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(elapsed.Hours()))
	default:
		return fmt.Sprintf("%d days ago", int(elapsed.Hours()/24))
	}
}

func (s *NewsService) getCachedNews(ctx context.Context, country string) ([]NewsItem, bool) {
	if s.redis == nil {
		return nil, false
	}

	cached, err := s.redis.Get(ctx, newsCachePrefix+country)
	if err != nil {
		return nil, false
	}

	var items []NewsItem
	if err := json.Unmarshal([]byte(cached), &items); err != nil {
		logrus.WithError(err).Warn("Failed to unmarshal cached news")
		return nil, false
	}
	return items, true
}

func (s *NewsService) cacheNews(ctx context.Context, country string, items []NewsItem) {
	if s.redis == nil {
		return
	}

	data, err := json.Marshal(items)
	if err != nil {
		logrus.WithError(err).Warn("Failed to marshal news for caching")
		return
	}
	if err := s.redis.Set(ctx, newsCachePrefix+country, string(data), s.ttl); err != nil {
		logrus.WithError(err).Warn("Failed to cache news")
	}
}
