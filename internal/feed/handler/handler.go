package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"keeptrack/pkg/activity"
	"keeptrack/pkg/activity/render"
	id "keeptrack/pkg/domain"
	"keeptrack/pkg/platform/httputil"
	"keeptrack/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the feed operations exposed over HTTP.
type Service interface {
	List(ctx context.Context, q activity.Query) ([]*activity.Record, error)
	Get(ctx context.Context, activityID id.ActivityID) (*activity.Record, error)
	Render(ctx context.Context, w io.Writer, activityID id.ActivityID, opts render.Options) error
	RenderList(ctx context.Context, w io.Writer, q activity.Query, opts render.Options) error
}

// Handler serves the activity feed endpoints.
type Handler struct {
	logger *slog.Logger
	feed   Service
}

// New creates a feed Handler.
func New(feed Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{logger: logger, feed: feed}
}

// Register mounts the feed routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/activities", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/html", h.handleListHTML)
		r.Get("/{id}", h.handleGet)
		r.Get("/{id}/html", h.handleGetHTML)
	})
}

type listResponse struct {
	Activities []*activity.Record `json:"activities"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		h.fail(w, r, "list activities", err)
		return
	}
	recs, err := h.feed.List(r.Context(), q)
	if err != nil {
		h.fail(w, r, "list activities", err)
		return
	}
	if recs == nil {
		recs = []*activity.Record{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Activities: recs})
}

func (h *Handler) handleListHTML(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		h.fail(w, r, "render activities", err)
		return
	}
	var buf bytes.Buffer
	if err := h.feed.RenderList(r.Context(), &buf, q, renderOptions(r.URL.Query())); err != nil {
		h.fail(w, r, "render activities", err)
		return
	}
	writeHTML(w, buf.Bytes())
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	activityID, err := id.ParseActivityID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "get activity", err)
		return
	}
	rec, err := h.feed.Get(r.Context(), activityID)
	if err != nil {
		h.fail(w, r, "get activity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleGetHTML(w http.ResponseWriter, r *http.Request) {
	activityID, err := id.ParseActivityID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "render activity", err)
		return
	}
	var buf bytes.Buffer
	if err := h.feed.Render(r.Context(), &buf, activityID, renderOptions(r.URL.Query())); err != nil {
		h.fail(w, r, "render activity", err)
		return
	}
	writeHTML(w, buf.Bytes())
}

// ParseQuery reads the trackable, owner, recipient, key_prefix and limit
// query parameters. Refs use the "Type#ID" form.
func ParseQuery(v url.Values) (activity.Query, error) {
	var q activity.Query
	for name, dst := range map[string]**id.Ref{
		"trackable": &q.Trackable,
		"owner":     &q.Owner,
		"recipient": &q.Recipient,
	} {
		raw := v.Get(name)
		if raw == "" {
			continue
		}
		ref, err := id.ParseRef(raw)
		if err != nil {
			return activity.Query{}, httputil.BadRequest("%s: %v", name, err)
		}
		*dst = &ref
	}
	q.KeyPrefix = v.Get("key_prefix")
	if raw := v.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return activity.Query{}, httputil.BadRequest("limit must be a non-negative integer")
		}
		q.Limit = n
	}
	return q, nil
}

func renderOptions(v url.Values) render.Options {
	return render.Options{
		Display: v.Get("display"),
		Layout:  v.Get("layout"),
	}
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
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
