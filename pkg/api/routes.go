// Package api is the reference implementation of the gene API consumed by
// pkg/client: sequence and expression lookups backed by the gene store.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/yumyai/genepanel/pkg/middle"
	"github.com/yumyai/genepanel/pkg/model"
	"github.com/yumyai/genepanel/pkg/selection"
)

// GeneStore is the read side of the gene database. *db.GeneDB implements it.
type GeneStore interface {
	Samples(ctx context.Context) ([]string, error)
	Sequences(ctx context.Context, genes []string) (map[string]string, error)
	Expressions(ctx context.Context, genes []string) (map[string][]float64, error)
}

// RouterConfig contains router configuration.
type RouterConfig struct {
	Store       GeneStore
	CORSOrigins []string
	Logger      *zap.Logger
}

type server struct {
	store  GeneStore
	logger *zap.Logger
}

// NewRouter creates the API router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &server{store: cfg.Store, logger: logger}

	r := chi.NewRouter()

	// Middleware
	r.Use(middle.RequestIDMiddleware(logger))
	r.Use(middle.LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)

	// CORS
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler)

		r.Post("/sequences", s.sequencesHandler)
		r.Get("/sequences/download", s.sequencesDownloadHandler)

		r.Post("/expressions", s.expressionsHandler)
		r.Get("/expressions/download", s.expressionsDownloadHandler)
	})

	return r
}

// NormalizeGenes trims every gene, drops empty ones and duplicates, and
// keeps at most selection.MaxGenes.
func NormalizeGenes(genes []string) []string {
	out := make([]string, 0, len(genes))
	seen := make(map[string]bool, len(genes))
	for _, g := range genes {
		g = strings.TrimSpace(g)
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
		if len(out) == selection.MaxGenes {
			break
		}
	}
	return out
}

type genesRequest struct {
	Genes []string `json:"genes"`
}

type sequenceEntry struct {
	Gene     string `json:"gene"`
	Sequence string `json:"sequence"`
}

type sequencesResponse struct {
	Count     int             `json:"count"`
	NotFound  []string        `json:"not_found"`
	Sequences []sequenceEntry `json:"sequences"`
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) sequencesHandler(w http.ResponseWriter, r *http.Request) {
	genes, ok := decodeGenes(w, r)
	if !ok {
		return
	}

	found, err := s.store.Sequences(r.Context(), genes)
	if err != nil {
		s.internalError(w, r, "sequence lookup failed", err)
		return
	}

	resp := sequencesResponse{
		Count:     len(found),
		NotFound:  []string{},
		Sequences: []sequenceEntry{},
	}
	for _, g := range genes {
		if seq, ok := found[g]; ok {
			resp.Sequences = append(resp.Sequences, sequenceEntry{Gene: g, Sequence: seq})
		} else {
			resp.NotFound = append(resp.NotFound, g)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) sequencesDownloadHandler(w http.ResponseWriter, r *http.Request) {
	genes, ok := queryGenes(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	ext, err := model.ParseFileExtension(q.Get("ext"))
	if err != nil {
		ext = model.FileExtensionFASTA
	}
	wrap, err := strconv.Atoi(q.Get("wrap"))
	if err != nil || wrap < 0 {
		wrap = 0
	}

	found, err := s.store.Sequences(r.Context(), genes)
	if err != nil {
		s.internalError(w, r, "sequence lookup failed", err)
		return
	}

	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		writeFASTA(&b, name, found[name], wrap)
	}
	if b.Len() == 0 {
		b.WriteString("\n")
	}

	filename := model.DownloadOptions{Ext: ext}.SequenceFilename()
	writeAttachment(w, "text/plain; charset=utf-8", filename, b.String())
}

func (s *server) expressionsHandler(w http.ResponseWriter, r *http.Request) {
	genes, ok := decodeGenes(w, r)
	if !ok {
		return
	}

	result, err := s.lookupExpressions(r.Context(), genes)
	if err != nil {
		s.internalError(w, r, "expression lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *server) expressionsDownloadHandler(w http.ResponseWriter, r *http.Request) {
	genes, ok := queryGenes(w, r)
	if !ok {
		return
	}

	result, err := s.lookupExpressions(r.Context(), genes)
	if err != nil {
		s.internalError(w, r, "expression lookup failed", err)
		return
	}

	var b strings.Builder
	b.WriteString("Gene")
	for _, sample := range result.Samples {
		b.WriteString("\t" + sample)
	}
	b.WriteString("\n")
	for _, row := range result.Rows {
		b.WriteString(row.Gene)
		for _, v := range row.Values {
			b.WriteString("\t" + strconv.FormatFloat(v, 'f', -1, 64))
		}
		b.WriteString("\n")
	}

	writeAttachment(w, "text/tab-separated-values", model.ExpressionFilename, b.String())
}

// lookupExpressions returns rows in request order. Genes without stored
// values, or whose values do not match the sample layout, are not found.
func (s *server) lookupExpressions(ctx context.Context, genes []string) (*model.ExpressionQueryResult, error) {
	samples, err := s.store.Samples(ctx)
	if err != nil {
		return nil, err
	}
	values, err := s.store.Expressions(ctx, genes)
	if err != nil {
		return nil, err
	}

	result := &model.ExpressionQueryResult{
		Samples:  samples,
		Rows:     []model.ExpressionRow{},
		NotFound: []string{},
	}
	for _, g := range genes {
		v, ok := values[g]
		if !ok || len(v) != len(samples) {
			result.NotFound = append(result.NotFound, g)
			continue
		}
		result.Rows = append(result.Rows, model.ExpressionRow{Gene: g, Values: v})
	}
	return result, nil
}

// writeFASTA appends one record. Carriage returns and line breaks in the
// stored sequence are dropped before wrapping.
func writeFASTA(b *strings.Builder, name, seq string, wrap int) {
	seq = strings.NewReplacer("\r", "", "\n", "").Replace(seq)

	b.WriteString(">" + name + "\n")
	if wrap <= 0 {
		b.WriteString(seq + "\n")
		return
	}
	for i := 0; i < len(seq); i += wrap {
		end := min(i+wrap, len(seq))
		b.WriteString(seq[i:end] + "\n")
	}
}

func decodeGenes(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	var req genesRequest
	body, err := io.ReadAll(r.Body)
	if err == nil {
		err = json.Unmarshal(body, &req)
	}
	if err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return nil, false
	}

	genes := NormalizeGenes(req.Genes)
	if len(genes) == 0 {
		http.Error(w, "No genes provided", http.StatusBadRequest)
		return nil, false
	}
	return genes, true
}

func queryGenes(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	genes := NormalizeGenes(strings.Split(r.URL.Query().Get("genes"), ","))
	if len(genes) == 0 {
		http.Error(w, "Provide genes as comma-separated query param", http.StatusBadRequest)
		return nil, false
	}
	return genes, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeAttachment(w http.ResponseWriter, contentType, filename, content string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, content)
}

func (s *server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	middle.Logger(r.Context(), s.logger).Error(msg, zap.Error(err))
	http.Error(w, msg, http.StatusInternalServerError)
}
