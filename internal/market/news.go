package market

import (
	"context"
	"errors"
	"strings"

	"github.com/seenimoa/stockbrief/internal/alphavantage"
	"github.com/seenimoa/stockbrief/internal/metrics"
	"github.com/seenimoa/stockbrief/pkg/models"
	"github.com/seenimoa/stockbrief/pkg/utils"
)

const (
	maxArticles       = 3
	maxSummaryRunes   = 200
	defaultTitle      = "No title"
	defaultSummary    = "No summary available"
	defaultURL        = "#"
	defaultNewsSource = "Unknown"
)

// StockNews returns up to three recent articles for symbol. It never fails:
// a demo key yields demo headlines without touching the network, and any
// problem with the live request yields FallbackNews.
func (c *Client) StockNews(ctx context.Context, symbol string) []models.NewsArticle {
	if c.demo {
		c.logger.Debug().Str("symbol", symbol).Msg("demo API key, serving demo news")
		c.metrics.RecordNewsFetch(metrics.NewsDemo)
		return c.DemoNews(symbol)
	}

	feed, err := c.source.NewsSentiment(ctx, symbol, c.newsLimit)
	if err != nil {
		c.logNewsFailure(symbol, err)
		c.metrics.RecordNewsFetch(metrics.NewsFallback)
		return FallbackNews(symbol)
	}

	articles := articlesFromFeed(feed.Feed)
	if len(articles) == 0 {
		c.logger.Info().Str("symbol", symbol).Msg("news feed empty, serving fallback news")
		c.metrics.RecordNewsFetch(metrics.NewsFallback)
		return FallbackNews(symbol)
	}

	c.metrics.RecordNewsFetch(metrics.NewsLive)
	return articles
}

func (c *Client) logNewsFailure(symbol string, err error) {
	var httpErr *alphavantage.ErrHTTP
	switch {
	case errors.Is(err, alphavantage.ErrRateLimited):
		c.logger.Warn().Str("symbol", symbol).Err(err).Msg("news rate limited, serving fallback news")
	case errors.Is(err, alphavantage.ErrAPI):
		c.logger.Warn().Str("symbol", symbol).Err(err).Msg("news API error, serving fallback news")
	case errors.As(err, &httpErr):
		c.logger.Warn().Str("symbol", symbol).Int("status", httpErr.StatusCode).Msg("news request failed, serving fallback news")
	default:
		c.logger.Error().Str("symbol", symbol).Err(err).Msg("news request error, serving fallback news")
	}
}

func articlesFromFeed(feed []alphavantage.FeedItem) []models.NewsArticle {
	if len(feed) > maxArticles {
		feed = feed[:maxArticles]
	}
	if len(feed) == 0 {
		return nil
	}

	articles := make([]models.NewsArticle, 0, len(feed))
	for _, item := range feed {
		articles = append(articles, models.NewsArticle{
			Title:          orDefault(item.Title, defaultTitle),
			Summary:        utils.Truncate(orDefault(item.Summary, defaultSummary), maxSummaryRunes) + "...",
			URL:            orDefault(item.URL, defaultURL),
			TimePublished:  item.TimePublished,
			Source:         orDefault(item.Source, defaultNewsSource),
			SentimentScore: item.OverallSentimentScore,
		})
	}
	return articles
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
