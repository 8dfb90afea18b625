package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"keeptrack/internal/feed/handler/mocks"
	"keeptrack/pkg/activity"
	"keeptrack/pkg/activity/render"
	id "keeptrack/pkg/domain"
	"keeptrack/pkg/platform/sentinel"
)

type FeedHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
	w       *httptest.ResponseRecorder
}

func TestFeedHandlerSuite(t *testing.T) {
	suite.Run(t, new(FeedHandlerSuite))
}

func (s *FeedHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.service, nil).Register(s.router)
}

func (s *FeedHandlerSuite) whenGetting(path string) {
	s.w = httptest.NewRecorder()
	s.router.ServeHTTP(s.w, httptest.NewRequest(http.MethodGet, path, nil))
}

func (s *FeedHandlerSuite) thenStatusIs(status int) {
	s.Equal(status, s.w.Code, s.w.Body.String())
}

func (s *FeedHandlerSuite) TestList() {
	s.Run("passes parsed filters and returns records", func() {
		owner := id.NewRef("User", "1")
		rec := &activity.Record{ID: id.NewActivityID(), Trackable: id.NewRef("Article", "a"), Key: "article.create"}
		s.service.EXPECT().
			List(gomock.Any(), activity.Query{Owner: &owner, KeyPrefix: "article.", Limit: 5}).
			Return([]*activity.Record{rec}, nil)

		s.whenGetting("/activities?owner=User%231&key_prefix=article.&limit=5")

		s.thenStatusIs(http.StatusOK)
		var body struct {
			Activities []activity.Record `json:"activities"`
		}
		s.Require().NoError(json.Unmarshal(s.w.Body.Bytes(), &body))
		s.Require().Len(body.Activities, 1)
		s.Equal(rec.ID, body.Activities[0].ID)
	})

	s.Run("empty result is an empty array", func() {
		s.service.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil)

		s.whenGetting("/activities")

		s.thenStatusIs(http.StatusOK)
		s.JSONEq(`{"activities":[]}`, s.w.Body.String())
	})

	s.Run("bad ref is rejected", func() {
		s.whenGetting("/activities?trackable=Article")
		s.thenStatusIs(http.StatusBadRequest)
	})
}

func (s *FeedHandlerSuite) TestGet() {
	s.Run("malformed id", func() {
		s.whenGetting("/activities/not-a-uuid")
		s.thenStatusIs(http.StatusBadRequest)
	})

	s.Run("unknown id", func() {
		activityID := id.NewActivityID()
		s.service.EXPECT().Get(gomock.Any(), activityID).
			Return(nil, fmt.Errorf("activity %s: %w", activityID, sentinel.ErrNotFound))

		s.whenGetting("/activities/" + activityID.String())

		s.thenStatusIs(http.StatusNotFound)
	})
}

func (s *FeedHandlerSuite) TestGetHTML() {
	s.Run("writes the rendered activity", func() {
		activityID := id.NewActivityID()
		s.service.EXPECT().
			Render(gomock.Any(), gomock.Any(), activityID, render.Options{Layout: "card"}).
			DoAndReturn(func(_ context.Context, w io.Writer, _ id.ActivityID, _ render.Options) error {
				_, err := io.WriteString(w, "<p>hi</p>")
				return err
			})

		s.whenGetting("/activities/" + activityID.String() + "/html?layout=card")

		s.thenStatusIs(http.StatusOK)
		s.Equal("text/html; charset=utf-8", s.w.Header().Get("Content-Type"))
		s.Equal("<p>hi</p>", s.w.Body.String())
	})

	s.Run("missing layout is an internal error with no partial body", func() {
		activityID := id.NewActivityID()
		s.service.EXPECT().Render(gomock.Any(), gomock.Any(), activityID, gomock.Any()).
			DoAndReturn(func(_ context.Context, w io.Writer, _ id.ActivityID, _ render.Options) error {
				_, _ = io.WriteString(w, "<p>partial")
				return render.ErrLayoutMissing
			})

		s.whenGetting("/activities/" + activityID.String() + "/html?layout=nope")

		s.thenStatusIs(http.StatusInternalServerError)
		s.NotContains(s.w.Body.String(), "partial")
	})
}

func (s *FeedHandlerSuite) TestListHTML() {
	s.service.EXPECT().
		RenderList(gomock.Any(), gomock.Any(), activity.Query{KeyPrefix: "article."}, render.Options{Display: "i18n"}).
		DoAndReturn(func(_ context.Context, w io.Writer, _ activity.Query, _ render.Options) error {
			_, err := io.WriteString(w, "one\ntwo")
			return err
		})

	s.whenGetting("/activities/html?key_prefix=article.&display=i18n")

	s.thenStatusIs(http.StatusOK)
	s.Equal("one\ntwo", s.w.Body.String())
}

func TestParseQuery(t *testing.T) {
	q, err := ParseQuery(url.Values{
		"trackable": {"Article#7"},
		"recipient": {"User#2"},
		"limit":     {"0"},
	})
	require.NoError(t, err)
	assert.Equal(t, &id.Ref{Type: "Article", ID: "7"}, q.Trackable)
	assert.Equal(t, &id.Ref{Type: "User", ID: "2"}, q.Recipient)
	assert.Nil(t, q.Owner)
	assert.Zero(t, q.Limit)

	_, err = ParseQuery(url.Values{"limit": {"-1"}})
	assert.Error(t, err)
}
