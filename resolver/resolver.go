// Package resolver finds the first exchange listing that answers for a
// bare ticker by probing a fixed list of exchange suffixes.
package resolver

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"stock-lookup/logging"
	"stock-lookup/marketdata"
	"stock-lookup/models"
	"stock-lookup/normalize"
)

// Suffixes are tried in order; the bare ticker always comes first.
var Suffixes = []string{"", ".PA", ".F", ".L", ".MI", ".MC", ".AS", ".BR", ".ST", ".CO", ".HE", ".LS", ".SW"}

// Match is the first candidate whose record carries a usable symbol.
type Match struct {
	Symbol string
	Record models.RawRecord
}

type Resolver struct {
	source      marketdata.Source
	logger      *zap.Logger
	delay       time.Duration
	concurrency int
	sleep       func(context.Context, time.Duration) error
}

type Option func(*Resolver)

// WithDelay sets the pause between consecutive candidates.
func WithDelay(d time.Duration) Option {
	return func(r *Resolver) { r.delay = d }
}

// WithConcurrency allows up to n lookups in flight. n <= 1 is sequential.
func WithConcurrency(n int) Option {
	return func(r *Resolver) { r.concurrency = n }
}

func New(source marketdata.Source, logger *zap.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		source:      source,
		logger:      logger,
		delay:       500 * time.Millisecond,
		concurrency: 1,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the first matching listing for query, or nil when no
// candidate matches. Only an unusable source or a cancelled context is
// reported as an error.
func (r *Resolver) Resolve(ctx context.Context, query string) (*Match, error) {
	candidates := Candidates(query)
	if r.concurrency > 1 {
		return r.resolveParallel(ctx, candidates)
	}

	for i, candidate := range candidates {
		if i > 0 && r.delay > 0 {
			if err := r.sleep(ctx, r.delay); err != nil {
				return nil, err
			}
		}
		m, err := r.try(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if m != nil {
			return m, nil
		}
	}
	logging.FromCtx(ctx, r.logger).Info("no listing found", zap.String("query", query), zap.Int("candidates", len(candidates)))
	return nil, nil
}

// Candidates lists the tickers tried for query, in order.
func Candidates(query string) []string {
	out := make([]string, len(Suffixes))
	for i, suffix := range Suffixes {
		out[i] = query + suffix
	}
	return out
}

// resolveParallel keeps the sequential precedence: the lowest index wins
// regardless of completion order.
func (r *Resolver) resolveParallel(ctx context.Context, candidates []string) (*Match, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	matches := make([]*Match, len(candidates))
	for i, candidate := range candidates {
		g.Go(func() error {
			m, err := r.try(gctx, candidate)
			if err != nil {
				return err
			}
			matches[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, m := range matches {
		if m != nil {
			return m, nil
		}
	}
	return nil, nil
}

// try looks up one candidate. A nil match with a nil error means "keep going".
func (r *Resolver) try(ctx context.Context, candidate string) (*Match, error) {
	log := logging.FromCtx(ctx, r.logger).With(zap.String("candidate", candidate))
	log.Info("trying symbol")

	record, err := r.source.Info(ctx, candidate)
	switch {
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case errors.Is(err, marketdata.ErrUnavailable):
		return nil, err
	case err != nil:
		log.Debug("candidate failed", zap.Error(err))
		return nil, nil
	}

	symbol, ok := normalize.Symbol(record)
	if !ok {
		log.Debug("candidate has no symbol")
		return nil, nil
	}
	log.Info("found listing", zap.String("symbol", symbol))
	return &Match{Symbol: symbol, Record: record}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
