package market

import (
	"fmt"
	"strings"
	"time"

	"github.com/seenimoa/stockbrief/pkg/models"
)

// DemoTimeLayout formats demo timestamps like Alpha Vantage's time_published.
const DemoTimeLayout = "20060102T150405"

type headline struct {
	title, summary string
	score          float64
}

// demoHeadlines hold a single %[1]s verb for the symbol.
var demoHeadlines = []headline{
	{
		title:   "%[1]s Reports Strong Quarterly Earnings",
		summary: "%[1]s exceeded analyst expectations with robust revenue growth and improved profit margins. The company's strategic initiatives show positive results.",
		score:   0.7,
	},
	{
		title:   "Analysts Upgrade %[1]s Price Target",
		summary: "Major investment firms raised their price targets for %[1]s following recent market developments and strong fundamentals.",
		score:   0.6,
	},
	{
		title:   "%[1]s Announces Strategic Partnership Deal",
		summary: "The company revealed a new partnership that could expand market reach and drive future growth opportunities in key sectors.",
		score:   0.5,
	},
	{
		title:   "Market Volatility Affects %[1]s Trading",
		summary: "Recent market conditions created some uncertainty for %[1]s, though long-term fundamentals remain solid according to experts.",
		score:   -0.2,
	},
}

var demoSources = []string{"Reuters", "Bloomberg", "MarketWatch"}

// DemoNews returns three of the four demo headlines for symbol, chosen at
// random without repetition. Item i is stamped 2*i hours before now.
func (c *Client) DemoNews(symbol string) []models.NewsArticle {
	now := c.now()
	picks := c.pick(len(demoHeadlines), 3)

	articles := make([]models.NewsArticle, 0, len(picks))
	for i, idx := range picks {
		h := demoHeadlines[idx]
		articles = append(articles, models.NewsArticle{
			Title:          expand(h.title, symbol),
			Summary:        expand(h.summary, symbol),
			URL:            "https://finance.yahoo.com/quote/" + symbol,
			TimePublished:  now.Add(-time.Duration(i) * 2 * time.Hour).Format(DemoTimeLayout),
			Source:         demoSources[i%len(demoSources)],
			SentimentScore: h.score,
		})
	}
	return articles
}

// FallbackNews returns the two static link cards served when live news is
// unavailable.
func FallbackNews(symbol string) []models.NewsArticle {
	return []models.NewsArticle{
		{
			Title:          fmt.Sprintf("📊 View %s Live Financial Data", symbol),
			Summary:        fmt.Sprintf("Get real-time stock price, charts, financial statements, and analyst ratings for %s. Comprehensive market data and trading information available.", symbol),
			URL:            "https://finance.yahoo.com/quote/" + symbol,
			TimePublished:  "Live Data",
			Source:         "Yahoo Finance",
			SentimentScore: 0.0,
		},
		{
			Title:          fmt.Sprintf("📈 %s Market Analysis & News", symbol),
			Summary:        fmt.Sprintf("Latest market analysis, financial news, and expert opinions about %s. Includes recent earnings reports, analyst recommendations, and market trends.", symbol),
			URL:            "https://www.marketwatch.com/investing/stock/" + strings.ToLower(symbol),
			TimePublished:  "Real-time",
			Source:         "MarketWatch",
			SentimentScore: 0.0,
		},
	}
}

// expand substitutes symbol into a headline template. Templates without a
// verb are returned unchanged.
func expand(tmpl, symbol string) string {
	if !strings.Contains(tmpl, "%[1]s") {
		return tmpl
	}
	return fmt.Sprintf(tmpl, symbol)
}
