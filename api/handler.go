package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stock-lookup/catalog"
	"stock-lookup/logging"
	"stock-lookup/marketdata"
	"stock-lookup/models"
	"stock-lookup/normalize"
)

const (
	msgQueryRequired  = "Query parameter is required"
	msgSymbolRequired = "Symbol is required"
)

type errorResponse struct {
	Error string `json:"error"`
}

type suggestResponse struct {
	Results []models.Listing `json:"results"`
}

// --- Helpers ---

func (s *Server) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func (s *Server) notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

// internalError logs err and returns its text as the diagnostic.
func (s *Server) internalError(c *gin.Context, where string, err error) {
	logging.FromCtx(c.Request.Context(), s.Logger).Error("internal_error", zap.String("where", where), zap.Error(err))
	c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

// lookupError separates "nothing usable for this symbol" from failures of
// the source itself.
type lookupError struct {
	status int
	err    error
}

func (e *lookupError) Error() string { return e.err.Error() }
func (e *lookupError) Unwrap() error { return e.err }

func (s *Server) writeLookupError(c *gin.Context, where string, err error) {
	var le *lookupError
	if errors.As(err, &le) && le.status == http.StatusNotFound {
		s.notFound(c, le.Error())
		return
	}
	s.internalError(c, where, err)
}

// loadDetail fetches and normalizes one symbol without suffix search. Any
// record carrying a symbol key is accepted.
func (s *Server) loadDetail(ctx context.Context, symbol string) (models.Detail, error) {
	record, err := s.Source.Info(ctx, symbol)
	switch {
	case errors.Is(err, marketdata.ErrNotFound):
		return models.Detail{}, &lookupError{http.StatusNotFound, err}
	case err != nil:
		return models.Detail{}, &lookupError{http.StatusInternalServerError, err}
	case !normalize.HasSymbolKey(record):
		return models.Detail{}, &lookupError{http.StatusNotFound, fmt.Errorf("no data found for symbol %s", symbol)}
	}

	detail, err := normalize.Detail(record)
	if err != nil {
		return models.Detail{}, &lookupError{http.StatusNotFound, err}
	}
	return detail, nil
}

// --- Handlers ---

// Search resolves a bare ticker or an ISIN to at most one listing. ISINs
// known to the catalog are mapped to their symbol first.
func (s *Server) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		s.badRequest(c, msgQueryRequired)
		return
	}

	match, err := s.Resolver.Resolve(c.Request.Context(), catalog.SymbolFor(s.Catalog, query))
	if err != nil {
		s.internalError(c, "Resolve", err)
		return
	}
	if match == nil {
		c.JSON(http.StatusOK, models.SearchResponse{Results: []models.Summary{}})
		return
	}

	summary, err := normalize.Summary(match.Record)
	if err != nil {
		s.internalError(c, "Summary", err)
		return
	}
	catalog.FillISIN(s.Catalog, &summary)
	c.JSON(http.StatusOK, models.SearchResponse{Results: []models.Summary{summary}})
}

func (s *Server) GetStock(c *gin.Context) {
	symbol := strings.TrimSpace(c.Param("symbol"))
	if symbol == "" {
		s.badRequest(c, msgSymbolRequired)
		return
	}

	detail, err := s.loadDetail(c.Request.Context(), symbol)
	if err != nil {
		s.writeLookupError(c, "Info", err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) History(c *gin.Context) {
	symbol := strings.TrimSpace(c.Param("symbol"))
	if symbol == "" {
		s.badRequest(c, msgSymbolRequired)
		return
	}
	period, err := marketdata.ParsePeriod(c.Query("period"))
	if err != nil {
		s.badRequest(c, err.Error())
		return
	}

	bars, err := s.Source.History(c.Request.Context(), symbol, period)
	switch {
	case errors.Is(err, marketdata.ErrNotFound):
		s.notFound(c, err.Error())
		return
	case err != nil:
		s.internalError(c, "History", err)
		return
	}
	if bars == nil {
		bars = []models.Bar{}
	}
	c.JSON(http.StatusOK, models.HistoryResponse{Symbol: symbol, Period: string(period), History: bars})
}

// Suggest answers type-ahead lookups from the local listings catalog.
func (s *Server) Suggest(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		s.badRequest(c, msgQueryRequired)
		return
	}
	limit := parseLimit(c.Query("limit"), 10, 1, 50)
	c.JSON(http.StatusOK, suggestResponse{Results: s.Catalog.Suggest(q, limit)})
}

func parseLimit(v string, def, min, max int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min || n > max {
		return def
	}
	return n
}
