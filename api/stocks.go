package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seenimoa/stockbrief/internal/config"
	"github.com/seenimoa/stockbrief/internal/market"
	"github.com/seenimoa/stockbrief/internal/store"
	"github.com/seenimoa/stockbrief/pkg/models"
	"github.com/seenimoa/stockbrief/pkg/utils"
)

type ctxKey struct{}

// symbolCtx normalises the {symbol} path parameter and rejects anything that
// is not a plausible ticker.
func symbolCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "symbol")
		symbol := utils.NormalizeSymbol(raw)
		if !utils.ValidSymbol(symbol) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid symbol %q", raw))
			return
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, symbol)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func symbolFrom(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}

// ── Health ──

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: HealthResponse{
			Status:           "ok",
			Version:          Version,
			Time:             time.Now().UTC().Format(time.RFC3339),
			AlphaVantageDemo: config.IsDemoKey(s.cfg.AlphaVantage.APIKey),
			GeminiDemo:       config.IsDemoKey(s.cfg.Gemini.APIKey),
		},
	})
}

// ── Stocks ──

func (s *Server) handleListStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list stocks")
		writeError(w, http.StatusInternalServerError, "failed to list stocks")
		return
	}
	if stocks == nil {
		stocks = []*models.Stock{}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: stocks})
}

func (s *Server) handleGetStock(w http.ResponseWriter, r *http.Request) {
	stock, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: stock})
}

func (s *Server) handlePutStock(w http.ResponseWriter, r *http.Request) {
	var req StockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	symbol := symbolFrom(r.Context())
	stock, err := s.loadOrNew(r.Context(), symbol)
	if err != nil {
		s.logger.Error().Str("symbol", symbol).Err(err).Msg("load stock")
		writeError(w, http.StatusInternalServerError, "failed to load stock")
		return
	}
	stock.CompanyName = req.CompanyName
	stock.Description = req.Description

	if err := s.store.Save(r.Context(), stock); err != nil {
		s.logger.Error().Str("symbol", symbol).Err(err).Msg("save stock")
		writeError(w, http.StatusInternalServerError, "failed to save stock")
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: stock})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	symbol := symbolFrom(r.Context())
	stock, err := s.loadOrNew(r.Context(), symbol)
	if err != nil {
		s.logger.Error().Str("symbol", symbol).Err(err).Msg("load stock")
		writeError(w, http.StatusInternalServerError, "failed to load stock")
		return
	}

	if err := s.market.UpdateStockData(r.Context(), stock); err != nil {
		var perr *market.FieldParseError
		switch {
		case errors.As(err, &perr):
			writeError(w, http.StatusBadGateway, fmt.Sprintf("unparsable %s value %q from market data", perr.Field, perr.Value))
		case errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusGatewayTimeout, "market data request timed out")
		default:
			writeError(w, http.StatusBadGateway, "market data unavailable")
		}
		s.logger.Warn().Str("symbol", symbol).Err(err).Msg("refresh failed")
		return
	}

	s.wsHub.Broadcast(WSMessage{Type: EventStockUpdated, Symbol: symbol, Data: stock})
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: stock})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	stock, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: SummaryResponse{
			Symbol:  stock.Symbol,
			Summary: s.summarizer.CompanySummary(r.Context(), stock),
		},
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	brief := s.newsBrief(r.Context(), symbolFrom(r.Context()))
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: brief})
}

// newsBrief fetches articles and summarises them. It always succeeds: both
// collaborators substitute placeholder content on failure.
func (s *Server) newsBrief(ctx context.Context, symbol string) NewsResponse {
	articles := s.market.StockNews(ctx, symbol)
	return NewsResponse{
		Symbol:   symbol,
		Articles: articles,
		Summary:  s.summarizer.NewsSummary(ctx, articles),
	}
}

// ── Config ──

func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckAPIKeys(s.cfg),
	})
}

// ── Helpers ──

// lookup loads the stock named in the path, writing a 404 or 500 on failure.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*models.Stock, bool) {
	symbol := symbolFrom(r.Context())
	stock, err := s.store.Get(r.Context(), symbol)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("stock %s not found", symbol))
		return nil, false
	case err != nil:
		s.logger.Error().Str("symbol", symbol).Err(err).Msg("get stock")
		writeError(w, http.StatusInternalServerError, "failed to load stock")
		return nil, false
	}
	return stock, true
}

func (s *Server) loadOrNew(ctx context.Context, symbol string) (*models.Stock, error) {
	stock, err := s.store.Get(ctx, symbol)
	if errors.Is(err, store.ErrNotFound) {
		return &models.Stock{Symbol: symbol}, nil
	}
	return stock, err
}
