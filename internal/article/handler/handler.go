package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"keeptrack/internal/article"
	"keeptrack/pkg/activity"
	id "keeptrack/pkg/domain"
	"keeptrack/pkg/platform/httputil"
	"keeptrack/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the article operations exposed over HTTP.
type Service interface {
	Get(ctx context.Context, articleID string) (*article.Article, error)
	Create(ctx context.Context, req article.CreateRequest) (*article.Result, error)
	Update(ctx context.Context, articleID string, req article.UpdateRequest) (*article.Result, error)
	Delete(ctx context.Context, articleID string) (*article.Result, error)
	Track(ctx context.Context, articleID string, opts activity.Options) (*activity.Record, error)
}

// Handler serves the article endpoints.
type Handler struct {
	logger   *slog.Logger
	articles Service
}

// New creates an article Handler.
func New(articles Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{logger: logger, articles: articles}
}

// Register mounts the article routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/articles", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Patch("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
		r.Post("/{id}/activities", h.handleTrack)
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	a, err := h.articles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "get article", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req article.CreateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "create article", err)
		return
	}
	res, err := h.articles.Create(r.Context(), req)
	if err != nil {
		h.fail(w, r, "create article", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req article.UpdateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "update article", err)
		return
	}
	res, err := h.articles.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, "update article", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	res, err := h.articles.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "delete article", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// handleTrack records a custom activity. The body is a loose override
// mapping: key and action are strings, owner and recipient are "Type#ID"
// strings or null, params is an object, anything else is a custom field.
func (h *Handler) handleTrack(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := httputil.DecodeJSON(r, &body); err != nil {
		h.fail(w, r, "track article", err)
		return
	}
	m, err := OverridesFromJSON(body)
	if err != nil {
		h.fail(w, r, "track article", err)
		return
	}
	opts, err := activity.OptionsFromMapping(m)
	if err != nil {
		h.fail(w, r, "track article", err)
		return
	}
	rec, err := h.articles.Track(r.Context(), chi.URLParam(r, "id"), opts)
	if err != nil {
		h.fail(w, r, "track article", err)
		return
	}
	if rec == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, rec)
}

// OverridesFromJSON converts a decoded JSON object into an override mapping
// with deterministic entry order.
func OverridesFromJSON(body map[string]any) (*activity.Mapping, error) {
	m := activity.NewMapping()
	for _, key := range slices.Sorted(maps.Keys(body)) {
		raw := body[key]
		switch key {
		case "owner", "recipient":
			v, err := refValue(key, raw)
			if err != nil {
				return nil, err
			}
			m.Set(key, v)
		case "params", "parameters":
			obj, ok := raw.(map[string]any)
			if !ok {
				return nil, httputil.BadRequest("%s must be an object", key)
			}
			m.Set(key, activity.Nested(activity.Literals(obj)))
		default:
			m.Set(key, activity.Literal(raw))
		}
	}
	return m, nil
}

func refValue(field string, raw any) (activity.Value, error) {
	if raw == nil {
		return activity.Literal(nil), nil
	}
	s, ok := raw.(string)
	if !ok {
		return activity.Value{}, httputil.BadRequest("%s must be a \"Type#ID\" string", field)
	}
	ref, err := id.ParseRef(s)
	if err != nil {
		return activity.Value{}, fmt.Errorf("%s: %w", field, err)
	}
	return activity.Literal(ref), nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	if errors.Is(err, article.ErrInvalidArticle) {
		err = httputil.BadRequest("%v", err)
	}
	e := httputil.Classify(err)
	if e.Status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "failed to "+op,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	} else {
		h.logger.WarnContext(ctx, "rejected "+op,
			"request_id", requestcontext.RequestID(ctx),
			"status", e.Status,
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
