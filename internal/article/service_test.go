package article

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"keeptrack/pkg/activity"
	"keeptrack/pkg/activity/activitytest"
	id "keeptrack/pkg/domain"
	"keeptrack/pkg/platform/sentinel"
	"keeptrack/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	registry *activity.Registry
	capture  *activitytest.CaptureStore
	repo     *InMemoryRepository
	service  *Service
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.newService(activity.BestEffort)
}

func (s *ServiceSuite) newService(policy activity.StoragePolicy) {
	s.registry = activity.NewRegistry()
	Register(s.registry)
	s.capture = &activitytest.CaptureStore{}
	recorder, err := activity.NewRecorder(s.registry, activity.NewStoreAdapter(s.capture),
		activity.WithStoragePolicy(policy))
	s.Require().NoError(err)
	s.repo = NewInMemoryRepository()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.service, err = NewService(s.repo, recorder, WithClock(func() time.Time { return fixed }))
	s.Require().NoError(err)
	s.ctx = requestcontext.WithCaller(context.Background(),
		&requestcontext.Caller{ID: "u-1", Type: "User", Name: "Michael"})
}

func (s *ServiceSuite) givenArticle(published bool) *Article {
	s.T().Helper()
	f := Fields{ID: id.NewActivityID().String(), Title: "Draft", Body: "text", AuthorID: "u-1", Published: published}
	s.Require().NoError(s.repo.Create(s.ctx, f))
	return &Article{Fields: f}
}

func (s *ServiceSuite) lastKey() string {
	keys := s.capture.Keys()
	if len(keys) == 0 {
		return ""
	}
	return keys[len(keys)-1]
}

func (s *ServiceSuite) TestCreate() {
	s.Run("records create with global and instance params", func() {
		res, err := s.service.Create(s.ctx, CreateRequest{Title: "Hello", Body: "World"})
		s.Require().NoError(err)
		s.Require().NotNil(res.Activity)

		rec := res.Activity
		s.Equal("article.create", rec.Key)
		s.Equal(res.Article.ActivityRef(), rec.Trackable)
		s.Equal(&id.Ref{Type: "User", ID: "u-1"}, rec.Owner)
		s.Equal(map[string]any{"title": "Hello", "summary": "World", "author_name": "Michael"}, rec.Parameters)
		s.Equal("u-1", res.Article.AuthorID)
		s.True(res.Article.ActivityTier().Empty(), "instance tier is consumed by the record")
	})

	s.Run("anonymous create has no owner", func() {
		res, err := s.service.Create(context.Background(), CreateRequest{Title: "Anon"})
		s.Require().NoError(err)
		s.Require().NotNil(res.Activity)
		s.Nil(res.Activity.Owner)
		s.NotContains(res.Activity.Parameters, "author_name")
	})

	s.Run("blank title is invalid", func() {
		_, err := s.service.Create(s.ctx, CreateRequest{Title: "  "})
		s.ErrorIs(err, ErrInvalidArticle)
	})

	s.Run("tracking disabled stores the article without activity", func() {
		activitytest.WithoutTracking(s.T(), s.registry, TypeName)
		res, err := s.service.Create(s.ctx, CreateRequest{Title: "Quiet"})
		s.Require().NoError(err)
		s.Nil(res.Activity)
		_, err = s.repo.Get(s.ctx, res.Article.ID)
		s.NoError(err)
	})
}

func (s *ServiceSuite) TestCreate_PropagatedStorageFailureUndoesCreate() {
	s.newService(activity.Propagate)
	s.capture.FailWith(sentinel.ErrUnavailable)

	res, err := s.service.Create(s.ctx, CreateRequest{Title: "Hello"})

	s.Nil(res)
	s.True(activity.IsStorageError(err))
	s.ErrorIs(err, sentinel.ErrUnavailable)
	s.Empty(s.repo.byID)
}

func (s *ServiceSuite) TestCreate_BestEffortStorageFailureKeepsArticle() {
	s.capture.FailWith(errors.New("disk full"))

	res, err := s.service.Create(s.ctx, CreateRequest{Title: "Hello"})

	s.Require().NoError(err)
	s.Nil(res.Activity)
	s.Len(s.repo.byID, 1)
}

func (s *ServiceSuite) TestUpdate() {
	s.Run("published article records update", func() {
		a := s.givenArticle(true)
		title := "Final"

		res, err := s.service.Update(s.ctx, a.ID, UpdateRequest{Title: &title})

		s.Require().NoError(err)
		s.Require().NotNil(res.Activity)
		s.Equal("article.update", res.Activity.Key)
		s.Equal("Final", res.Activity.Parameters["title"])
		s.Equal("article.update", s.lastKey())
	})

	s.Run("draft update is vetoed by the hook", func() {
		a := s.givenArticle(false)
		body := "more text"
		before := len(s.capture.Records())

		res, err := s.service.Update(s.ctx, a.ID, UpdateRequest{Body: &body})

		s.Require().NoError(err)
		s.Nil(res.Activity)
		s.Len(s.capture.Records(), before)
		stored, err := s.repo.Get(s.ctx, a.ID)
		s.Require().NoError(err)
		s.Equal("more text", stored.Body)
	})

	s.Run("no change records nothing", func() {
		a := s.givenArticle(true)
		same := a.Title
		before := len(s.capture.Records())

		res, err := s.service.Update(s.ctx, a.ID, UpdateRequest{Title: &same})

		s.Require().NoError(err)
		s.Nil(res.Activity)
		s.Len(s.capture.Records(), before)
	})

	s.Run("unknown article", func() {
		title := "x"
		_, err := s.service.Update(s.ctx, "missing", UpdateRequest{Title: &title})
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *ServiceSuite) TestUpdate_PropagatedFailureRestoresArticle() {
	s.newService(activity.Propagate)
	res, err := s.service.Create(s.ctx, CreateRequest{Title: "Draft", Published: true})
	s.Require().NoError(err)
	s.capture.FailWith(sentinel.ErrUnavailable)
	title := "Final"

	_, err = s.service.Update(s.ctx, res.Article.ID, UpdateRequest{Title: &title})

	s.ErrorIs(err, sentinel.ErrUnavailable)
	stored, getErr := s.repo.Get(s.ctx, res.Article.ID)
	s.Require().NoError(getErr)
	s.Equal("Draft", stored.Title)
}

func (s *ServiceSuite) TestDelete() {
	a := s.givenArticle(false)

	res, err := s.service.Delete(s.ctx, a.ID)

	s.Require().NoError(err)
	s.Require().NotNil(res.Activity)
	s.Equal("article.destroy", res.Activity.Key)
	s.Equal("Draft", res.Activity.Parameters["title"])
	_, err = s.repo.Get(s.ctx, a.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ServiceSuite) TestTrack() {
	s.Run("custom key with call-site overrides", func() {
		a := s.givenArticle(true)
		opts := activity.Options{
			Key:       "article.shared",
			Recipient: activity.Literal(id.NewRef("User", "u-2")),
			Params:    activity.Literals(map[string]any{"summary": "override"}),
		}

		rec, err := s.service.Track(s.ctx, a.ID, opts)

		s.Require().NoError(err)
		s.Require().NotNil(rec)
		s.Equal("article.shared", rec.Key)
		s.Equal(&id.Ref{Type: "User", ID: "u-2"}, rec.Recipient)
		s.Equal("override", rec.Parameters["summary"])
	})

	s.Run("update-keyed activity on a draft is vetoed", func() {
		a := s.givenArticle(false)

		rec, err := s.service.Track(s.ctx, a.ID, activity.Options{Action: "update"})

		s.Require().NoError(err)
		s.Nil(rec)
	})

	s.Run("missing key and action", func() {
		a := s.givenArticle(true)
		_, err := s.service.Track(s.ctx, a.ID, activity.Options{})
		s.ErrorIs(err, activity.ErrNoKeyProvided)
	})
}

func TestSummary(t *testing.T) {
	a := &Article{Fields: Fields{Body: strings.Repeat("ż", 100)}}
	got := a.Summary()
	if n := len([]rune(got)); n != summaryLength+1 {
		t.Fatalf("expected %d runes, got %d", summaryLength+1, n)
	}
	short := &Article{Fields: Fields{Body: "short"}}
	if short.Summary() != "short" {
		t.Fatalf("short bodies are kept as-is, got %q", short.Summary())
	}
}
