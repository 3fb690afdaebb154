// Package server exposes the quoting core over a small JSON API. The
// handlers stay thin: decode, call the core, encode.
package server

import (
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"fitquote/internal"
	"fitquote/internal/calc"
	"fitquote/internal/catalog"
	"fitquote/internal/logging"
	"fitquote/internal/pipeline"
	"fitquote/internal/quote"
	"fitquote/internal/rules"
	"fitquote/internal/storage"
	"fitquote/internal/validate"
)

type Server struct {
	db        *storage.DB
	catalogue *catalog.Service
	rules     *rules.Service
	session   *quote.Session
}

func New(db *storage.DB, catalogue *catalog.Service, rulesService *rules.Service) *Server {
	return &Server{
		db:        db,
		catalogue: catalogue,
		rules:     rulesService,
		session:   quote.NewSession(catalogue, rulesService),
	}
}

// ListenAndServe blocks serving the API.
func (s *Server) ListenAndServe(addr string) error {
	logging.Logger.Info("api listening", zap.String("addr", addr))
	return fasthttp.ListenAndServe(addr, s.Handler)
}

func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	method := string(ctx.Method())

	switch {
	case path == "/api/v1/resolve" && method == fasthttp.MethodPost:
		s.handleResolve(ctx)
	case path == "/api/v1/calculate" && method == fasthttp.MethodPost:
		s.handleCalculate(ctx)
	case path == "/api/v1/catalogue" && method == fasthttp.MethodGet:
		s.handleCatalogueList(ctx)
	case path == "/api/v1/catalogue/learn" && method == fasthttp.MethodPost:
		s.handleLearn(ctx)
	case path == "/api/v1/catalogue/alias" && method == fasthttp.MethodPost:
		s.handleAlias(ctx)
	case path == "/api/v1/rules" && method == fasthttp.MethodGet:
		writeJSON(ctx, fasthttp.StatusOK, s.rules.Current())
	case path == "/api/v1/rules" && method == fasthttp.MethodPut:
		s.handleRulesUpdate(ctx)
	case path == "/api/v1/rules/reload" && method == fasthttp.MethodPost:
		s.handleRulesReload(ctx)
	case path == "/api/v1/session/lines" && method == fasthttp.MethodPost:
		s.handleSessionLines(ctx)
	case path == "/api/v1/session/details" && method == fasthttp.MethodPost:
		s.handleSessionDetails(ctx)
	case path == "/api/v1/session/override" && method == fasthttp.MethodPost:
		s.handleSessionOverride(ctx)
	case path == "/api/v1/session/results" && method == fasthttp.MethodGet:
		s.handleSessionResults(ctx)
	case path == "/api/v1/quotes" && method == fasthttp.MethodPost:
		s.handleQuoteSave(ctx)
	case path == "/api/v1/quotes" && method == fasthttp.MethodGet:
		s.handleQuoteList(ctx)
	case strings.HasPrefix(path, "/api/v1/quotes/") && method == fasthttp.MethodGet:
		s.handleQuoteGet(ctx, strings.TrimPrefix(path, "/api/v1/quotes/"))
	default:
		writeError(ctx, fasthttp.StatusNotFound, "not found")
	}
}

func (s *Server) handleResolve(ctx *fasthttp.RequestCtx) {
	var req struct {
		Lines []internal.RawLineItem `json:"lines"`
	}
	if !decode(ctx, &req) {
		return
	}
	if len(req.Lines) == 0 {
		writeError(ctx, fasthttp.StatusBadRequest, "at least one line is required")
		return
	}

	resolver := pipeline.NewResolver(s.catalogue.Snapshot(), s.rules.Current())
	writeJSON(ctx, fasthttp.StatusOK, resolver.Resolve(req.Lines, nil, nil))
}

func (s *Server) handleCalculate(ctx *fasthttp.RequestCtx) {
	var req struct {
		Products []internal.ResolvedProduct `json:"products"`
		Details  internal.QuoteDetails      `json:"details"`
	}
	if !decode(ctx, &req) {
		return
	}

	resp := struct {
		Results       internal.CalculationResults `json:"results"`
		DetailErrors  []internal.ValidationError  `json:"detailErrors"`
		ProductErrors []internal.ValidationError  `json:"productErrors"`
	}{
		Results:       calc.CalculateAll(req.Products, req.Details, s.rules.Current()),
		DetailErrors:  validate.ValidateQuoteDetails(req.Details),
		ProductErrors: validate.ValidateProducts(req.Products),
	}
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (s *Server) handleCatalogueList(ctx *fasthttp.RequestCtx) {
	snapshot := s.catalogue.Snapshot()
	entries := make([]internal.CatalogueEntry, 0, len(snapshot))
	for _, entry := range snapshot {
		entries = append(entries, entry)
	}
	writeJSON(ctx, fasthttp.StatusOK, entries)
}

func (s *Server) handleLearn(ctx *fasthttp.RequestCtx) {
	var req struct {
		Code             string  `json:"code"`
		InstallTimeHours float64 `json:"installTimeHours"`
		WasteVolumeM3    float64 `json:"wasteVolumeM3"`
		IsHeavy          bool    `json:"isHeavy"`
		SessionOnly      bool    `json:"sessionOnly"`
	}
	if !decode(ctx, &req) {
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		writeError(ctx, fasthttp.StatusBadRequest, "code is required")
		return
	}

	result, err := s.session.ProvideTime(req.Code, req.InstallTimeHours, req.WasteVolumeM3, req.IsHeavy, !req.SessionOnly)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, result)
}

func (s *Server) handleAlias(ctx *fasthttp.RequestCtx) {
	var req struct {
		Code         string `json:"code"`
		CanonicalKey string `json:"canonicalKey"`
	}
	if !decode(ctx, &req) {
		return
	}

	result, err := s.session.AttachAlias(req.Code, req.CanonicalKey)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, result)
}

func (s *Server) handleRulesUpdate(ctx *fasthttp.RequestCtx) {
	var cfg rules.Config
	if !decode(ctx, &cfg) {
		return
	}
	if err := s.rules.Update(cfg); err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, cfg)
}

func (s *Server) handleRulesReload(ctx *fasthttp.RequestCtx) {
	if err := s.rules.Reload(); err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, s.rules.Current())
}

func (s *Server) handleSessionLines(ctx *fasthttp.RequestCtx) {
	var req struct {
		Lines []internal.RawLineItem `json:"lines"`
	}
	if !decode(ctx, &req) {
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, s.session.LoadLines(req.Lines))
}

func (s *Server) handleSessionDetails(ctx *fasthttp.RequestCtx) {
	var details internal.QuoteDetails
	if !decode(ctx, &details) {
		return
	}
	s.session.SetDetails(details)
	writeJSON(ctx, fasthttp.StatusOK, struct {
		Errors []internal.ValidationError `json:"errors"`
	}{Errors: validate.ValidateQuoteDetails(details)})
}

func (s *Server) handleSessionOverride(ctx *fasthttp.RequestCtx) {
	var req struct {
		LineNumber   int     `json:"lineNumber"`
		TimePerUnit  float64 `json:"timePerUnit"`
		WastePerUnit float64 `json:"wastePerUnit"`
	}
	if !decode(ctx, &req) {
		return
	}
	if err := s.session.OverrideProduct(req.LineNumber, req.TimePerUnit, req.WastePerUnit); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, s.session.Calculate())
}

func (s *Server) handleSessionResults(ctx *fasthttp.RequestCtx) {
	products := s.session.Products()
	details := s.session.Details()
	resp := struct {
		Products      []internal.ResolvedProduct   `json:"products"`
		Unresolved    []internal.UnresolvedProduct `json:"unresolved"`
		Results       internal.CalculationResults  `json:"results"`
		DetailErrors  []internal.ValidationError   `json:"detailErrors"`
		ProductErrors []internal.ValidationError   `json:"productErrors"`
	}{
		Products:      products,
		Unresolved:    s.session.Unresolved(),
		Results:       s.session.Calculate(),
		DetailErrors:  validate.ValidateQuoteDetails(details),
		ProductErrors: validate.ValidateProducts(products),
	}
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (s *Server) handleQuoteSave(ctx *fasthttp.RequestCtx) {
	details := s.session.Details()
	record := internal.QuoteRecord{
		ID:          uuid.New().String(),
		ClientName:  details.ClientName,
		ProjectName: details.ProjectName,
		Details:     details,
		Products:    s.session.Products(),
		Results:     s.session.Calculate(),
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.db.SaveQuote(record); err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(ctx, fasthttp.StatusCreated, record)
}

func (s *Server) handleQuoteList(ctx *fasthttp.RequestCtx) {
	records, err := s.db.ListQuotes(100)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, records)
}

func (s *Server) handleQuoteGet(ctx *fasthttp.RequestCtx, id string) {
	record, err := s.db.GetQuote(id)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	if record == nil {
		writeError(ctx, fasthttp.StatusNotFound, "quote not found: "+id)
		return
	}
	// Results are re-derivable state: recompute instead of trusting the
	// stored snapshot.
	record.Results = calc.CalculateAll(record.Products, record.Details, s.rules.Current())
	writeJSON(ctx, fasthttp.StatusOK, record)
}

func decode(ctx *fasthttp.RequestCtx, v any) bool {
	if err := json.Unmarshal(ctx.PostBody(), v); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	blob, err := json.Marshal(v)
	if err != nil {
		logging.Logger.Error("response encode failed", zap.Error(err))
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetBody(blob)
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	writeJSON(ctx, status, struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	}{Status: status, Message: message})
}
