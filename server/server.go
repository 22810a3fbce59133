// Package server exposes the engine as a read only JSON API.
//
//	GET /api/v1/names
//	GET /api/v1/series/{name}?from=&to=
//	GET /api/v1/compare?names=a,b&mode=inner&from=&to=
//	GET /metrics
//
// from and to accept dates or offsets relative to today, like "-6m".
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/etnz/finmon"
	"github.com/etnz/finmon/date"
	"github.com/etnz/finmon/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server serves the queries of an Engine.
type Server struct {
	Engine   *finmon.Engine
	Metrics  *metrics.Recorder   // records queries if not nil
	Gatherer prometheus.Gatherer // served on /metrics if not nil
	Log      zerolog.Logger

	today func() date.Date
}

var validate = validator.New()

type rangeParams struct {
	From string `default:"-1y"`
	To   string `default:"0d"`
}

type compareParams struct {
	rangeParams
	Names []string `validate:"min=2,max=10,dive,required"`
	Mode  string   `default:"inner" validate:"oneof=inner outer"`
}

// Handler returns the routes of the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/names", s.names)
		r.Get("/series/{name}", s.series)
		r.Get("/compare", s.compare)
	})
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// ListenAndServe serves the API on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.Log.Info().Str("addr", addr).Msg("listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) now() date.Date {
	if s.today != nil {
		return s.today()
	}
	return date.Today()
}

type entry struct {
	Name        string              `json:"name"`
	Kind        string              `json:"kind"`
	Description string              `json:"description"`
	Sources     []finmon.Descriptor `json:"sources"`
}

func (s *Server) names(w http.ResponseWriter, r *http.Request) {
	entries := s.Engine.Registry().Entries()
	list := make([]entry, len(entries))
	for i, e := range entries {
		list[i] = entry{Name: e.Name, Kind: e.Kind(), Description: e.Description, Sources: e.Plan.Sources()}
	}
	render.JSON(w, r, list)
}

func (s *Server) series(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var p rangeParams
	p.From, p.To = r.URL.Query().Get("from"), r.URL.Query().Get("to")
	rg, err := s.parseRange(p)
	if err != nil {
		render.Render(w, r, errBadRequest(err))
		return
	}
	start := time.Now()
	res, err := s.Engine.Query(r.Context(), name, rg.From, rg.To)
	if err != nil {
		render.Render(w, r, errQuery(err))
		return
	}
	s.respond(w, r, name, res, start)
}

func (s *Server) compare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var p compareParams
	p.From, p.To, p.Mode = q.Get("from"), q.Get("to"), q.Get("mode")
	for _, n := range strings.Split(q.Get("names"), ",") {
		if n = strings.TrimSpace(n); n != "" {
			p.Names = append(p.Names, n)
		}
	}
	if err := defaults.Set(&p); err != nil {
		render.Render(w, r, errBadRequest(err))
		return
	}
	if err := validate.Struct(p); err != nil {
		render.Render(w, r, errBadRequest(err))
		return
	}
	rg, err := s.parseRange(p.rangeParams)
	if err != nil {
		render.Render(w, r, errBadRequest(err))
		return
	}
	mode, err := finmon.ParseJoinMode(p.Mode)
	if err != nil {
		render.Render(w, r, errBadRequest(err))
		return
	}
	start := time.Now()
	res, err := s.Engine.Compare(r.Context(), p.Names, mode, rg.From, rg.To)
	if err != nil {
		render.Render(w, r, errQuery(err))
		return
	}
	s.respond(w, r, "compare", res, start)
}

func (s *Server) parseRange(p rangeParams) (date.Range, error) {
	if err := defaults.Set(&p); err != nil {
		return date.Range{}, err
	}
	return date.ParseRange(p.From, p.To, s.now())
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, name string, res finmon.Result, start time.Time) {
	if s.Metrics != nil {
		s.Metrics.RecordQuery(name, res, time.Since(start))
	}
	if res.Degraded() {
		w.Header().Set("X-Finmon-Degraded", "true")
	}
	render.JSON(w, r, res)
}

// logRequests logs every request once it is served.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Log.Info().
			Str("request", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("served")
	})
}
