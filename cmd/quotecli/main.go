// Command quotecli probes a market data backend from the terminal and
// prints the same JSON the HTTP endpoints serve.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stock-lookup/catalog"
	"stock-lookup/config"
	"stock-lookup/logging"
	"stock-lookup/marketdata"
	"stock-lookup/models"
	"stock-lookup/normalize"
	"stock-lookup/resolver"
)

type app struct {
	cfg    *config.Config
	logger *zap.Logger
	source marketdata.Source

	// newSource is swapped in tests.
	newSource func(cfg config.MarketData, logger *zap.Logger) (marketdata.Source, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	a := &app{cfg: cfg, newSource: marketdata.New}
	if err := a.rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	var (
		sourceName string
		logLevel   string
	)
	root := &cobra.Command{
		Use:          "quotecli",
		Short:        "Look up stock listings and quotes",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if sourceName != "" {
				a.cfg.MarketData.Source = sourceName
			}
			if logLevel != "" {
				a.cfg.LogLevel = logLevel
			}
			logger, err := logging.New(a.cfg.LogLevel)
			if err != nil {
				return err
			}
			a.logger = logger
			a.source, err = a.newSource(a.cfg.MarketData, logger)
			return err
		},
	}
	root.PersistentFlags().StringVar(&sourceName, "source", "", "market data backend: yahoo, exec or financego")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (default from LOG_LEVEL)")

	root.AddCommand(a.searchCmd(), a.quoteCmd(), a.historyCmd(), a.suggestCmd())
	return root
}

func (a *app) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find the first exchange listing for a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listings, err := catalog.Open(a.cfg.Catalog, a.logger)
			if err != nil {
				return err
			}
			defer listings.Close()

			r := resolver.New(a.source, a.logger,
				resolver.WithDelay(a.cfg.Resolver.Delay),
				resolver.WithConcurrency(a.cfg.Resolver.Concurrency),
			)
			query := catalog.SymbolFor(listings, strings.TrimSpace(args[0]))
			match, err := r.Resolve(cmd.Context(), query)
			if err != nil {
				return err
			}
			resp := models.SearchResponse{Results: []models.Summary{}}
			if match != nil {
				summary, err := normalize.Summary(match.Record)
				if err != nil {
					return err
				}
				catalog.FillISIN(listings, &summary)
				resp.Results = append(resp.Results, summary)
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func (a *app) quoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote <symbol>",
		Short: "Show the normalized quote for an exact symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := a.source.Info(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !normalize.HasSymbolKey(record) {
				return fmt.Errorf("%w: %s", marketdata.ErrNotFound, args[0])
			}
			detail, err := normalize.Detail(record)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), detail)
		},
	}
}

func (a *app) historyCmd() *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "history <symbol>",
		Short: "Print price bars for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := marketdata.ParsePeriod(period)
			if err != nil {
				return err
			}
			bars, err := a.source.History(cmd.Context(), args[0], p)
			if err != nil {
				return err
			}
			if bars == nil {
				bars = []models.Bar{}
			}
			return printJSON(cmd.OutOrStdout(), models.HistoryResponse{Symbol: args[0], Period: string(p), History: bars})
		},
	}
	cmd.Flags().StringVarP(&period, "period", "p", string(marketdata.DefaultPeriod), "1D, 1W, 1M, 6M, YTD, 1Y or 5Y")
	return cmd
}

func (a *app) suggestCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "suggest <query>",
		Short: "Suggest listings from the local catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.Open(a.cfg.Catalog, a.logger)
			if err != nil {
				return err
			}
			defer c.Close()
			return printJSON(cmd.OutOrStdout(), map[string][]models.Listing{"results": c.Suggest(args[0], limit)})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", catalog.DefaultLimit, "maximum number of suggestions")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
