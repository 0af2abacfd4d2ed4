package insight

import (
	"fmt"
	"strings"

	"github.com/seenimoa/stockbrief/pkg/models"
	"github.com/seenimoa/stockbrief/pkg/utils"
)

// ── Company summary ──

func companyPrompt(name, description string) string {
	return fmt.Sprintf("Describe in 3 words what this company does: %s. Description: %s", name, description)
}

func demoCompanySummary(name, description string) string {
	return fmt.Sprintf("Technology and Innovation Company - %s operates in the %s.",
		name, strings.ToLower(utils.FirstSentence(description)))
}

func companyQuotaMessage(name, description string) string {
	return fmt.Sprintf("🤖 AI quota exceeded. %s is in the %s... sector. Try again in a few minutes!",
		name, utils.Truncate(description, 50))
}

func companyUnavailableMessage(name, description string) string {
	return fmt.Sprintf("AI analysis temporarily unavailable. %s operates in: %s...",
		name, utils.Truncate(description, 100))
}

// ── News summary ──

const (
	NoNewsMessage = "No recent news available."

	demoPositiveInsight = "Recent news shows positive market sentiment with strong fundamentals supporting potential growth."
	demoNegativeInsight = "Market conditions show some uncertainty, though long-term outlook remains cautiously optimistic."
	demoMixedInsight    = "Mixed market signals suggest a balanced approach with moderate risk and opportunity."

	newsRateLimitedMessage = "🤖 AI Summary temporarily unavailable (quota exceeded). The news analysis shows recent market activity - check the links above for detailed financial information and real-time data."
	newsQuotaMessage       = "🤖 AI quota exceeded for this hour. Try again later, or check the news links above for real-time analysis."
	newsUnavailableMessage = "📊 AI analysis temporarily unavailable. For comprehensive market analysis, check the financial data links above which provide recent news, analyst ratings, and trading activity."
)

// Mean sentiment beyond these bounds picks the positive or cautious demo line.
const (
	positiveThreshold = 0.3
	negativeThreshold = -0.3
)

func demoNewsInsight(articles []models.NewsArticle) string {
	switch avg := models.MeanSentiment(articles); {
	case avg > positiveThreshold:
		return demoPositiveInsight
	case avg < negativeThreshold:
		return demoNegativeInsight
	default:
		return demoMixedInsight
	}
}

// newsContent lists up to three articles for the insight prompt.
func newsContent(articles []models.NewsArticle) string {
	if len(articles) > 3 {
		articles = articles[:3]
	}
	var b strings.Builder
	for i, a := range articles {
		fmt.Fprintf(&b, "\nNews %d:\n", i+1)
		fmt.Fprintf(&b, "Title: %s\n", a.Title)
		fmt.Fprintf(&b, "Summary: %s...\n", utils.Truncate(a.Summary, 150))
		if a.SentimentScore != 0 {
			fmt.Fprintf(&b, "Sentiment: %s\n", a.Label())
		}
	}
	return b.String()
}

func newsPrompt(articles []models.NewsArticle) string {
	return "Based on these recent financial news, provide a single sentence investment insight:\n        " +
		newsContent(articles) +
		"\n        \n        Respond in one clear sentence that summarizes the overall market sentiment and potential stock impact."
}
