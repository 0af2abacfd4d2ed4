package alphavantage

import "fmt"

// Notice holds the top-level fields Alpha Vantage returns in place of data.
// All three come back with HTTP 200.
type Notice struct {
	ErrorMessage string `json:"Error Message,omitempty"`
	Note         string `json:"Note,omitempty"`
	Information  string `json:"Information,omitempty"`
}

// Err converts a populated notice into ErrAPI or ErrRateLimited.
func (n *Notice) Err() error {
	switch {
	case n.ErrorMessage != "":
		return fmt.Errorf("%w: %s", ErrAPI, n.ErrorMessage)
	case n.Note != "":
		return fmt.Errorf("%w: %s", ErrRateLimited, n.Note)
	case n.Information != "":
		return fmt.Errorf("%w: %s", ErrRateLimited, n.Information)
	}
	return nil
}

// Quote is the GLOBAL_QUOTE response. Numbers arrive as strings.
type Quote struct {
	Notice
	GlobalQuote GlobalQuote `json:"Global Quote"`
}

// GlobalQuote is the body of a GLOBAL_QUOTE response.
type GlobalQuote struct {
	Symbol           string `json:"01. symbol"`
	Open             string `json:"02. open"`
	High             string `json:"03. high"`
	Low              string `json:"04. low"`
	Price            string `json:"05. price"`
	Volume           string `json:"06. volume"`
	LatestTradingDay string `json:"07. latest trading day"`
	PreviousClose    string `json:"08. previous close"`
	Change           string `json:"09. change"`
	ChangePercent    string `json:"10. change percent"`
}

// Overview is the subset of the OVERVIEW response stockbrief reads.
type Overview struct {
	Notice
	Symbol               string `json:"Symbol"`
	Name                 string `json:"Name"`
	Description          string `json:"Description"`
	Exchange             string `json:"Exchange"`
	Currency             string `json:"Currency"`
	Sector               string `json:"Sector"`
	Industry             string `json:"Industry"`
	MarketCapitalization string `json:"MarketCapitalization"`
	PERatio              string `json:"PERatio"`
	EPS                  string `json:"EPS"`
	DividendYield        string `json:"DividendYield"`
}

// NewsFeed is the NEWS_SENTIMENT response.
type NewsFeed struct {
	Notice
	Items                    string     `json:"items"`
	SentimentScoreDefinition string     `json:"sentiment_score_definition"`
	RelevanceScoreDefinition string     `json:"relevance_score_definition"`
	Feed                     []FeedItem `json:"feed"`
}

// FeedItem is one article in a NEWS_SENTIMENT feed.
type FeedItem struct {
	Title                 string            `json:"title"`
	URL                   string            `json:"url"`
	TimePublished         string            `json:"time_published"`
	Authors               []string          `json:"authors"`
	Summary               string            `json:"summary"`
	BannerImage           string            `json:"banner_image"`
	Source                string            `json:"source"`
	SourceDomain          string            `json:"source_domain"`
	OverallSentimentScore float64           `json:"overall_sentiment_score"`
	OverallSentimentLabel string            `json:"overall_sentiment_label"`
	TickerSentiment       []TickerSentiment `json:"ticker_sentiment"`
}

// TickerSentiment is the per-ticker sentiment attached to a feed item.
type TickerSentiment struct {
	Ticker               string `json:"ticker"`
	RelevanceScore       string `json:"relevance_score"`
	TickerSentimentScore string `json:"ticker_sentiment_score"`
	TickerSentimentLabel string `json:"ticker_sentiment_label"`
}
