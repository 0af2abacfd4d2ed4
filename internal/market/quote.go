package market

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/seenimoa/stockbrief/internal/alphavantage"
	"github.com/seenimoa/stockbrief/pkg/models"
)

// FieldParseError reports a numeric field Alpha Vantage returned in a form
// that does not parse as a float.
type FieldParseError struct {
	Symbol string
	Field  string
	Value  string
	Err    error
}

func (e *FieldParseError) Error() string {
	return fmt.Sprintf("market: %s: parse %q value %q: %v", e.Symbol, e.Field, e.Value, e.Err)
}

func (e *FieldParseError) Unwrap() error { return e.Err }

// UpdateStockData refreshes CurrentPrice and MarketCap on stock and saves it.
//
// A field missing from the response leaves the stored value untouched, and
// API notices (rate limits, unknown symbols) count as missing. The record is
// saved once in every such case. Transport failures and unparsable numbers
// are returned without saving.
func (c *Client) UpdateStockData(ctx context.Context, stock *models.Stock) error {
	symbol := stock.Symbol

	quote, err := c.source.GlobalQuote(ctx, symbol)
	if err := c.absorbNotice(symbol, alphavantage.FunctionGlobalQuote, err); err != nil {
		return fmt.Errorf("market: quote %s: %w", symbol, err)
	}
	if quote != nil {
		if raw := strings.TrimSpace(quote.GlobalQuote.Price); raw != "" {
			v, err := parseField(symbol, "05. price", raw)
			if err != nil {
				return err
			}
			stock.CurrentPrice = v
		} else {
			c.logger.Debug().Str("symbol", symbol).Msg("quote has no price")
		}
	}

	overview, err := c.source.Overview(ctx, symbol)
	if err := c.absorbNotice(symbol, alphavantage.FunctionOverview, err); err != nil {
		return fmt.Errorf("market: overview %s: %w", symbol, err)
	}
	if overview != nil {
		if raw := strings.TrimSpace(overview.MarketCapitalization); raw != "" {
			v, err := parseField(symbol, "MarketCapitalization", raw)
			if err != nil {
				return err
			}
			stock.MarketCap = v
		} else {
			c.logger.Debug().Str("symbol", symbol).Msg("overview has no market capitalization")
		}
	}

	stock.UpdatedAt = c.now()
	if c.saver == nil {
		return nil
	}
	if err := c.saver.Save(ctx, stock); err != nil {
		return fmt.Errorf("market: save %s: %w", symbol, err)
	}
	c.logger.Info().Str("symbol", symbol).Float64("price", stock.CurrentPrice).Float64("market_cap", stock.MarketCap).Msg("stock data updated")
	return nil
}

// absorbNotice drops API notices, which carry no data, and returns every
// other error.
func (c *Client) absorbNotice(symbol, function string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, alphavantage.ErrRateLimited) || errors.Is(err, alphavantage.ErrAPI) {
		c.logger.Warn().Str("symbol", symbol).Str("function", function).Err(err).Msg("alpha vantage returned no data")
		return nil
	}
	return err
}

func parseField(symbol, field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &FieldParseError{Symbol: symbol, Field: field, Value: raw, Err: err}
	}
	return v, nil
}
