package models

// Sentiment labels derived from a score's sign.
const (
	SentimentPositive = "Positive"
	SentimentNegative = "Negative"
	SentimentNeutral  = "Neutral"
)

// NewsArticle is a single news item for a stock. Articles are built fresh on
// every fetch and reference their stock by symbol only.
type NewsArticle struct {
	Title          string  `json:"title"`
	Summary        string  `json:"summary"`
	URL            string  `json:"url"`
	TimePublished  string  `json:"time_published"` // "20060102T150405" for live/demo items, free text for fallback cards
	Source         string  `json:"source"`
	SentimentScore float64 `json:"sentiment_score"` // roughly -1..1, 0 when absent
}

// SentimentLabel maps a sentiment score to Positive, Negative or Neutral.
func SentimentLabel(score float64) string {
	switch {
	case score > 0:
		return SentimentPositive
	case score < 0:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// Label returns the sentiment label of the article.
func (a NewsArticle) Label() string {
	return SentimentLabel(a.SentimentScore)
}

// MeanSentiment returns the arithmetic mean of the articles' sentiment
// scores, or 0 for an empty slice.
func MeanSentiment(articles []NewsArticle) float64 {
	if len(articles) == 0 {
		return 0
	}
	var sum float64
	for _, a := range articles {
		sum += a.SentimentScore
	}
	return sum / float64(len(articles))
}
