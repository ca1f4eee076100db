// Package api serves the hub boundary operations as JSON over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/dikkadev/launchhub/pkg/apperr"
	"github.com/dikkadev/launchhub/pkg/catalog"
	"github.com/dikkadev/launchhub/pkg/github"
	"github.com/dikkadev/launchhub/pkg/hub"
	"github.com/dikkadev/launchhub/pkg/lifecycle"
	"github.com/dikkadev/launchhub/pkg/logging"
	"github.com/dikkadev/launchhub/pkg/registry"
	"github.com/dikkadev/launchhub/pkg/storage"
	"github.com/dikkadev/launchhub/pkg/updater"
)

var log = logging.GetLogger("api")

// Service is the part of hub.Service the API exposes
type Service interface {
	ListApps(ctx context.Context) ([]registry.Manifest, error)
	Launch(ctx context.Context, id string) (*lifecycle.LaunchResult, error)
	CheckUpdate(ctx context.Context, id string) (*updater.Result, error)
	CheckAllUpdates(ctx context.Context) ([]hub.AppUpdate, error)
	Uninstall(ctx context.Context, id string) (*lifecycle.UninstallResult, error)
	GetAppSize(ctx context.Context, id string) (*lifecycle.SizeResult, error)
	ClearAll(ctx context.Context) error
	ListReleases(ctx context.Context, id string) ([]*github.Release, error)
	History(ctx context.Context, id string, limit int) ([]*storage.Check, error)
}

// NewRouter builds the HTTP routes for svc
func NewRouter(svc Service) http.Handler {
	h := &handlers{svc: svc}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, hub.Response{Success: true})
	})

	r.Route("/apps", func(r chi.Router) {
		r.Get("/", h.listApps)
		r.Delete("/", h.clearAll)

		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", h.uninstall)
			r.Post("/launch", h.launch)
			r.Get("/update", h.checkUpdate)
			r.Get("/size", h.size)
			r.Get("/releases", h.releases)
		})
	})
	r.Get("/updates", h.checkAll)
	r.Get("/history", h.history)

	return r
}

// Serve runs the API on addr until ctx is done
func Serve(ctx context.Context, addr string, svc Service) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("Listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start),
			"request":  middleware.GetReqID(r.Context()),
		}).Debug("Handled request")
	})
}

type handlers struct {
	svc Service
}

func (h *handlers) listApps(w http.ResponseWriter, r *http.Request) {
	filter := catalog.NewFilter()
	filter.SetSearch(r.URL.Query().Get("q"))
	filter.SetCategory(r.URL.Query().Get("category"))
	filter.Fuzzy, _ = strconv.ParseBool(r.URL.Query().Get("fuzzy"))

	respond(w, "listApps", func() (interface{}, error) {
		apps, err := h.svc.ListApps(r.Context())
		if err != nil {
			return nil, err
		}
		return filter.Apply(apps), nil
	})
}

func (h *handlers) launch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	respond(w, "launch", func() (interface{}, error) {
		return h.svc.Launch(r.Context(), id)
	})
}

func (h *handlers) checkUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	respond(w, "checkUpdate", func() (interface{}, error) {
		return h.svc.CheckUpdate(r.Context(), id)
	})
}

func (h *handlers) checkAll(w http.ResponseWriter, r *http.Request) {
	respond(w, "checkAllUpdates", func() (interface{}, error) {
		return h.svc.CheckAllUpdates(r.Context())
	})
}

func (h *handlers) uninstall(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	respond(w, "uninstall", func() (interface{}, error) {
		return h.svc.Uninstall(r.Context(), id)
	})
}

func (h *handlers) size(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	respond(w, "getAppSize", func() (interface{}, error) {
		return h.svc.GetAppSize(r.Context(), id)
	})
}

func (h *handlers) releases(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	respond(w, "listReleases", func() (interface{}, error) {
		return h.svc.ListReleases(r.Context(), id)
	})
}

func (h *handlers) clearAll(w http.ResponseWriter, r *http.Request) {
	if confirm, _ := strconv.ParseBool(r.URL.Query().Get("confirm")); !confirm {
		writeJSON(w, http.StatusBadRequest, hub.Response{Error: "clearing all apps requires confirm=true"})
		return
	}
	respond(w, "clearAll", func() (interface{}, error) {
		return nil, h.svc.ClearAll(r.Context())
	})
}

func (h *handlers) history(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, hub.Response{Error: "limit must be a number"})
			return
		}
		limit = n
	}
	app := r.URL.Query().Get("app")

	respond(w, "history", func() (interface{}, error) {
		return h.svc.History(r.Context(), app, limit)
	})
}

// respond runs fn through the hub boundary and picks the HTTP status
func respond(w http.ResponseWriter, op string, fn func() (interface{}, error)) {
	resp := hub.Respond(op, fn)
	status := http.StatusOK
	if !resp.Success {
		status = statusFor(resp.Kind)
	}
	writeJSON(w, status, resp)
}

var kindStatus = map[string]int{
	apperr.NotFound.String():     http.StatusNotFound,
	apperr.NotInstalled.String(): http.StatusConflict,
	apperr.Format.String():       http.StatusUnprocessableEntity,
	apperr.Network.String():      http.StatusBadGateway,
	apperr.Upstream.String():     http.StatusBadGateway,
	apperr.Parse.String():        http.StatusBadGateway,
}

func statusFor(kind string) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to write response")
	}
}
