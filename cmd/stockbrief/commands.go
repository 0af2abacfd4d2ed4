package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/stockbrief/api"
	"github.com/seenimoa/stockbrief/internal/store"
	"github.com/seenimoa/stockbrief/pkg/models"
	"github.com/seenimoa/stockbrief/pkg/utils"
)

// refreshConcurrency bounds parallel refreshes; Alpha Vantage free keys
// allow only a few calls per minute.
const refreshConcurrency = 2

// --- Refresh Command ---

var refreshCmd = &cobra.Command{
	Use:   "refresh SYMBOL...",
	Short: "Refresh price and market cap for one or more stocks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbols, err := parseSymbols(args)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		stocks := make([]*models.Stock, len(symbols))
		errs := make([]error, len(symbols))

		var g errgroup.Group
		g.SetLimit(refreshConcurrency)
		for i, sym := range symbols {
			g.Go(func() error {
				stock, err := loadOrNew(cmd.Context(), a.store, sym)
				if err == nil {
					err = a.market.UpdateStockData(cmd.Context(), stock)
				}
				stocks[i], errs[i] = stock, err
				return nil
			})
		}
		_ = g.Wait()

		failed := 0
		for i, sym := range symbols {
			if errs[i] != nil {
				failed++
				fmt.Printf("❌ %-8s %v\n", sym, errs[i])
				continue
			}
			s := stocks[i]
			fmt.Printf("✅ %-8s price %-12s market cap %s\n", sym,
				strconv.FormatFloat(s.CurrentPrice, 'f', 2, 64), formatMarketCap(s.MarketCap))
		}
		if failed > 0 {
			return fmt.Errorf("refresh failed for %d of %d symbols", failed, len(symbols))
		}
		return nil
	},
}

// --- Summary Command ---

var summaryCmd = &cobra.Command{
	Use:   "summary SYMBOL",
	Short: "Describe what a company does in a few words",
	Long: `Ask Gemini for a three-word description of the company. Name and
description default to the stored record; --name and --description override.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbols, err := parseSymbols(args)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		stock, err := loadOrNew(cmd.Context(), a.store, symbols[0])
		if err != nil {
			return err
		}
		if name, _ := cmd.Flags().GetString("name"); name != "" {
			stock.CompanyName = name
		}
		if desc, _ := cmd.Flags().GetString("description"); desc != "" {
			stock.Description = desc
		}
		if stock.CompanyName == "" {
			stock.CompanyName = stock.Symbol
		}

		fmt.Printf("🏢 %s (%s)\n", stock.CompanyName, stock.Symbol)
		fmt.Println(a.summarizer.CompanySummary(cmd.Context(), stock))
		return nil
	},
}

func init() {
	summaryCmd.Flags().String("name", "", "company name")
	summaryCmd.Flags().String("description", "", "company description")
}

// --- News Command ---

var newsCmd = &cobra.Command{
	Use:   "news SYMBOL",
	Short: "Show recent news with an AI insight",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbols, err := parseSymbols(args)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		articles := a.market.StockNews(cmd.Context(), symbols[0])
		fmt.Printf("📰 %s news\n\n", symbols[0])
		for i, art := range articles {
			fmt.Printf("%d. %s\n", i+1, art.Title)
			fmt.Printf("   %s · %s · %s (%+.2f)\n", art.Source, art.TimePublished, art.Label(), art.SentimentScore)
			fmt.Printf("   %s\n\n", art.URL)
		}
		fmt.Println("💡 " + a.summarizer.NewsSummary(cmd.Context(), articles))
		return nil
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		srv := api.NewServer(api.Deps{
			Config:     cfg,
			Market:     a.market,
			Summarizer: a.summarizer,
			Store:      a.store,
			Gatherer:   a.registry,
			Logger:     logger,
		})

		addr := cfg.API.Addr()
		fmt.Printf("🌐 Starting stockbrief API server on %s\n", addr)
		return srv.ListenAndServe(ctx, addr)
	},
}

// ── Helpers ──

func parseSymbols(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		sym := utils.NormalizeSymbol(arg)
		if !utils.ValidSymbol(sym) {
			return nil, fmt.Errorf("invalid symbol %q", arg)
		}
		out = append(out, sym)
	}
	return out, nil
}

func loadOrNew(ctx context.Context, st store.Store, symbol string) (*models.Stock, error) {
	stock, err := st.Get(ctx, symbol)
	if errors.Is(err, store.ErrNotFound) {
		return &models.Stock{Symbol: symbol}, nil
	}
	return stock, err
}

// formatMarketCap renders v with a T/B/M suffix.
func formatMarketCap(v float64) string {
	switch {
	case v >= 1e12:
		return fmt.Sprintf("%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	default:
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
}
