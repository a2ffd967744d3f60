package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/tablediff/internal/compare"
	"github.com/sells-group/tablediff/internal/config"
	"github.com/sells-group/tablediff/internal/export"
	"github.com/sells-group/tablediff/internal/table"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the comparison HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		router := buildRouter(compare.NewService(), cfg)
		return startServer(ctx, router, resolvePort(servePort, cfg.Server.Port))
	},
}

// resolvePort prefers the flag over the configured port.
func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

// startServer serves h until ctx is done, then shuts down gracefully.
func startServer(ctx context.Context, h http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

// api serves comparisons through a single compare.Service, so a new
// request supersedes one still running.
type api struct {
	svc *compare.Service
	cfg *config.Config
}

func buildRouter(svc *compare.Service, c *config.Config) http.Handler {
	a := &api{svc: svc, cfg: c}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: c.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/compare", a.handleCompare)
	r.Route("/session", func(r chi.Router) {
		r.Get("/", a.handleSession)
		r.Delete("/", a.handleReset)
		r.Get("/pairs", a.handlePairs)
		r.Get("/export", a.handleExport)
	})
	return r
}

// requestLogger logs each request through the global zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

type compareRequest struct {
	A       *table.Table   `json:"a"`
	B       *table.Table   `json:"b"`
	Options requestOptions `json:"options"`
}

// requestOptions override the configured comparison defaults.
type requestOptions struct {
	Tolerance  *bool    `json:"tolerance"`
	Threshold  *float64 `json:"threshold"`
	KeyColumns []string `json:"key_columns"`
	Exclude    []string `json:"exclude"`
	Strategy   string   `json:"strategy"`
}

func (o requestOptions) apply(opts *compare.Options) {
	if o.Tolerance != nil {
		opts.Tolerance = *o.Tolerance
	}
	if o.Threshold != nil {
		opts.Threshold = *o.Threshold
	}
	if o.KeyColumns != nil {
		opts.KeyColumns = o.KeyColumns
	}
	if o.Exclude != nil {
		opts.Exclude = o.Exclude
	}
	if o.Strategy != "" {
		opts.Strategy = o.Strategy
	}
}

func (a *api) handleCompare(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(a.cfg.Server.MaxBodyMB)<<20)

	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", nil)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if req.A == nil || req.B == nil {
		writeError(w, http.StatusBadRequest, "tables a and b are required", nil)
		return
	}
	req.A.Prepare()
	req.B.Prepare()

	opts := compare.OptionsFromConfig(a.cfg)
	req.Options.apply(&opts)

	s, err := a.svc.Compare(r.Context(), req.A, req.B, opts)
	if err != nil {
		status, detail := compareStatus(err)
		if status == http.StatusInternalServerError {
			zap.L().Error("compare request failed", zap.Error(err))
		}
		writeError(w, status, err.Error(), detail)
		return
	}
	writeJSON(w, http.StatusOK, export.NewReport(s, nil))
}

// compareStatus maps a comparison error to an HTTP status and optional
// detail fields.
func compareStatus(err error) (int, map[string]any) {
	if ce, ok := compare.AsCapacity(err); ok {
		return http.StatusRequestEntityTooLarge, map[string]any{
			"side":      ce.Side,
			"dimension": ce.Dimension,
			"count":     ce.Count,
			"limit":     ce.Limit,
			"excess":    ce.Excess(),
		}
	}
	switch {
	case compare.IsConfig(err):
		return http.StatusUnprocessableEntity, nil
	case errors.Is(err, compare.ErrSuperseded):
		return http.StatusConflict, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, nil
	default:
		return http.StatusInternalServerError, nil
	}
}

type sessionInfo struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	FileA     string            `json:"file_a"`
	FileB     string            `json:"file_b"`
	Compared  bool              `json:"compared"`
	Headers   []string          `json:"headers,omitempty"`
	Keys      []string          `json:"key_columns,omitempty"`
	Summary   *compare.Summary  `json:"summary,omitempty"`
	Warnings  []compare.Warning `json:"warnings,omitempty"`
}

func (a *api) current(w http.ResponseWriter) *compare.Session {
	s := a.svc.Current()
	if s == nil || !s.Compared() {
		writeError(w, http.StatusNotFound, "no comparison yet", nil)
		return nil
	}
	return s
}

func (a *api) handleSession(w http.ResponseWriter, r *http.Request) {
	s := a.current(w)
	if s == nil {
		return
	}
	nameA, nameB := export.Names(s)
	summary := s.Summary
	writeJSON(w, http.StatusOK, sessionInfo{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		FileA:     nameA,
		FileB:     nameB,
		Compared:  true,
		Headers:   s.Schema.Headers,
		Keys:      s.KeyNames(),
		Summary:   &summary,
		Warnings:  s.Warnings,
	})
}

func (a *api) handleReset(w http.ResponseWriter, r *http.Request) {
	a.svc.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handlePairs(w http.ResponseWriter, r *http.Request) {
	s := a.current(w)
	if s == nil {
		return
	}
	view, err := viewFromQuery(r, s.Schema.Headers)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	pairs := compare.View(s.Pairs, view)
	writeJSON(w, http.StatusOK, map[string]any{
		"total": len(pairs),
		"pairs": pairs,
	})
}

func (a *api) handleExport(w http.ResponseWriter, r *http.Request) {
	s := a.current(w)
	if s == nil {
		return
	}
	view, err := viewFromQuery(r, s.Schema.Headers)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	pairs := compare.View(s.Pairs, view)

	format := r.URL.Query().Get("format")
	if format == "" {
		format = formatXLSX
	}
	contentType, ok := exportTypes[format]
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", format), nil)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="comparison.%s"`, format))
	var werr error
	switch format {
	case formatXLSX:
		werr = export.WriteXLSX(w, s, pairs)
	case formatCSV:
		werr = export.WriteCSV(w, s, pairs)
	case formatYAML:
		werr = export.WriteYAML(w, export.NewReport(s, pairs))
	default:
		werr = export.WriteJSON(w, export.NewReport(s, pairs))
	}
	if werr != nil {
		zap.L().Error("export failed", zap.String("format", format), zap.Error(werr))
	}
}

var exportTypes = map[string]string{
	formatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	formatCSV:  "text/csv; charset=utf-8",
	formatJSON: "application/json",
	formatYAML: "application/yaml",
}

// viewFromQuery reads hide_identical, hide_different, hide_only_a,
// hide_only_b, filter (COLUMN=TEXT, repeatable), sort, desc and lang.
func viewFromQuery(r *http.Request, headers []string) (compare.ViewOptions, error) {
	q := r.URL.Query()
	var p viewParams
	flags := []struct {
		name string
		dst  *bool
	}{
		{"hide_identical", &p.HideIdentical},
		{"hide_different", &p.HideDifferent},
		{"hide_only_a", &p.HideOnlyA},
		{"hide_only_b", &p.HideOnlyB},
		{"desc", &p.Desc},
	}
	for _, f := range flags {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return compare.ViewOptions{}, eris.Errorf("view: %s must be a boolean", f.name)
		}
		*f.dst = b
	}
	p.Filters = q["filter"]
	p.Sort = q.Get("sort")
	p.Lang = q.Get("lang")
	return p.options(headers)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string, detail map[string]any) {
	body := map[string]any{"error": msg}
	for k, v := range detail {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
