package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	id "keeptrack/pkg/domain"
	"keeptrack/pkg/requestcontext"
)

type ComposerSuite struct {
	suite.Suite
	registry *Registry
	composer *Composer
	post     *post
}

func TestComposerSuite(t *testing.T) {
	suite.Run(t, new(ComposerSuite))
}

func (s *ComposerSuite) SetupTest() {
	s.registry = NewRegistry()
	s.composer = NewComposer(s.registry)
	s.post = newPost()
}

func (s *ComposerSuite) track(opts TrackOptions) {
	s.registry.Track("Post", opts)
}

// =============================================================================
// Key resolution
// =============================================================================

func (s *ComposerSuite) TestKey() {
	s.Run("synthesized from type and action", func() {
		got, err := s.composer.Compose(s.post, Options{Action: "create"}, nil)
		s.Require().NoError(err)
		s.Equal("post.create", got.Key())
	})

	s.Run("instance key beats synthesized", func() {
		s.post.SetActivity(Tier{Key: "post.featured"})
		defer s.post.ResetActivity()

		got, err := s.composer.Compose(s.post, Options{Action: "create"}, nil)
		s.Require().NoError(err)
		s.Equal("post.featured", got.Key())
	})

	s.Run("explicit key beats instance key", func() {
		s.post.SetActivity(Tier{Key: "post.featured"})
		defer s.post.ResetActivity()

		got, err := s.composer.Compose(s.post, Options{Key: "post.pinned", Action: "create"}, nil)
		s.Require().NoError(err)
		s.Equal("post.pinned", got.Key())
	})

	s.Run("no key and no action", func() {
		_, err := s.composer.Compose(s.post, Options{}, nil)
		s.Require().ErrorIs(err, ErrNoKeyProvided)
	})
}

// =============================================================================
// Owner and recipient: highest tier wins wholesale
// =============================================================================

func (s *ComposerSuite) TestOwnerPrecedence() {
	global := id.Ref{Type: "User", ID: "global"}
	instance := id.Ref{Type: "User", ID: "instance"}
	callSite := id.Ref{Type: "User", ID: "call"}

	s.track(TrackOptions{Owner: Literal(global), Recipient: Literal(global)})

	s.Run("global when nothing overrides", func() {
		got, err := s.composer.Compose(s.post, Options{Action: "create"}, nil)
		s.Require().NoError(err)
		s.Equal(&global, got.Owner())
		s.Equal(&global, got.Recipient())
	})

	s.Run("instance beats global", func() {
		s.post.SetActivity(Tier{Owner: Literal(instance)})
		defer s.post.ResetActivity()

		got, err := s.composer.Compose(s.post, Options{Action: "create"}, nil)
		s.Require().NoError(err)
		s.Equal(&instance, got.Owner())
		s.Equal(&global, got.Recipient())
	})

	s.Run("call site beats instance", func() {
		s.post.SetActivity(Tier{Owner: Literal(instance)})
		defer s.post.ResetActivity()

		got, err := s.composer.Compose(s.post, Options{Action: "create", Owner: Literal(callSite)}, nil)
		s.Require().NoError(err)
		s.Equal(&callSite, got.Owner())
	})

	s.Run("explicit nil at the call site clears the owner", func() {
		got, err := s.composer.Compose(s.post, Options{Action: "create", Owner: Literal(nil)}, nil)
		s.Require().NoError(err)
		s.Nil(got.Owner())
	})

	s.Run("nil on the instance falls through to global", func() {
		s.post.SetActivity(Tier{Owner: Literal(nil), Recipient: Literal(nil)})
		defer s.post.ResetActivity()

		got, err := s.composer.Compose(s.post, Options{Action: "create"}, nil)
		s.Require().NoError(err)
		s.Equal(&global, got.Owner())
		s.Equal(&global, got.Recipient())
	})

	s.Run("explicit nil at the call site beats the instance", func() {
		s.post.SetActivity(Tier{Owner: Literal(instance)})
		defer s.post.ResetActivity()

		got, err := s.composer.Compose(s.post, Options{Action: "create", Owner: Literal(nil)}, nil)
		s.Require().NoError(err)
		s.Nil(got.Owner())
	})
}

func (s *ComposerSuite) TestOwnerFromCaller() {
	s.track(TrackOptions{
		Owner: Computed(func(c *requestcontext.Caller, _ Subject) (any, error) { return c, nil }),
	})
	caller := &requestcontext.Caller{ID: "42", Type: "User"}

	got, err := s.composer.Compose(s.post, Options{Action: "create"}, caller)
	s.Require().NoError(err)
	s.Equal(&id.Ref{Type: "User", ID: "42"}, got.Owner())

	got, err = s.composer.Compose(s.post, Options{Action: "create"}, nil)
	s.Require().NoError(err)
	s.Nil(got.Owner(), "nil caller means no owner")
}

func (s *ComposerSuite) TestOwnerInvalidReference() {
	_, err := s.composer.Compose(s.post, Options{Action: "create", Owner: Literal(12)}, nil)
	s.Require().ErrorIs(err, ErrInvalidReference)
	s.Contains(err.Error(), "owner")
}

// =============================================================================
// Params and custom fields: shallow merge, higher tier wins per key
// =============================================================================

func (s *ComposerSuite) TestParamsMerge() {
	s.track(TrackOptions{
		Params:       NewMapping(E("a", Literal(1)), E("b", Literal(2))),
		CustomFields: NewMapping(E("source", Literal("global")), E("region", Literal("eu"))),
	})
	s.post.SetActivity(Tier{
		Params:       NewMapping(E("b", Literal(20)), E("c", Literal(3))),
		CustomFields: NewMapping(E("source", Literal("instance"))),
	})

	got, err := s.composer.Compose(s.post, Options{
		Action:       "create",
		Params:       NewMapping(E("c", Literal(30)), E("d", Attr("slug"))),
		CustomFields: NewMapping(E("ip", Literal("10.0.0.1"))),
	}, nil)
	s.Require().NoError(err)

	s.Equal(map[string]any{"a": 1, "b": 20, "c": 30, "d": "hello-world"}, got.Parameters())
	s.Equal(map[string]any{"source": "instance", "region": "eu", "ip": "10.0.0.1"}, got.CustomFields())
}

func (s *ComposerSuite) TestSettingsAreImmutable() {
	got, err := s.composer.Compose(s.post, Options{
		Action: "create",
		Params: NewMapping(E("a", Literal(1))),
		Owner:  Literal(id.Ref{Type: "User", ID: "1"}),
	}, nil)
	s.Require().NoError(err)

	params := got.Parameters()
	params["a"] = 99
	owner := got.Owner()
	owner.ID = "mutated"

	s.Equal(map[string]any{"a": 1}, got.Parameters())
	s.Equal("1", got.Owner().ID)
}

func (s *ComposerSuite) TestComposeFailureLeavesInstanceTier() {
	s.post.SetActivity(Tier{Key: "post.custom", Params: NewMapping(E("x", Attr("missing")))})

	_, err := s.composer.Compose(s.post, Options{}, nil)
	s.Require().ErrorIs(err, ErrAttributeNotFound)

	tier := s.post.ActivityTier()
	s.Equal("post.custom", tier.Key, "instance tier survives a failed composition")
	s.Equal(1, tier.Params.Len())
}

func (s *ComposerSuite) TestUnregisteredTypeHasNoGlobals() {
	got, err := s.composer.Compose(s.post, Options{Action: "create"}, nil)
	s.Require().NoError(err)
	s.Nil(got.Owner())
	s.Empty(got.Parameters())
	s.Empty(got.CustomFields())
}

// =============================================================================
// OptionsFromMapping
// =============================================================================

func TestOptionsFromMapping(t *testing.T) {
	owner := id.Ref{Type: "User", ID: "1"}
	m := NewMapping(
		E("key", Literal("article.commented_on")),
		E("action", Literal("comment")),
		E("owner", Literal(owner)),
		E("recipient", Attr("author")),
		E("params", Nested(NewMapping(E("body", Literal("nice"))))),
		E("ip_address", Literal("10.0.0.1")),
		E("channel", Literal("web")),
	)

	opts, err := OptionsFromMapping(m)
	require.NoError(t, err)

	assert.Equal(t, "article.commented_on", opts.Key)
	assert.Equal(t, "comment", opts.Action)
	assert.Equal(t, Literal(owner), opts.Owner)
	assert.Equal(t, Attr("author"), opts.Recipient)
	assert.Equal(t, []string{"body"}, opts.Params.Keys())
	assert.Equal(t, []string{"ip_address", "channel"}, opts.CustomFields.Keys(),
		"unrecognized keys become custom fields in order")
}

func TestOptionsFromMapping_Invalid(t *testing.T) {
	_, err := OptionsFromMapping(NewMapping(E("key", Attr("title"))))
	require.ErrorIs(t, err, ErrInvalidOption)

	_, err = OptionsFromMapping(NewMapping(E("params", Literal("nope"))))
	require.ErrorIs(t, err, ErrInvalidOption)
}

func TestOptionsFromMapping_ParametersAlias(t *testing.T) {
	opts, err := OptionsFromMapping(NewMapping(
		E("parameters", Nested(NewMapping(E("a", Literal(1))))),
		E("params", Nested(NewMapping(E("b", Literal(2))))),
	))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, opts.Params.Keys())
	assert.Nil(t, opts.CustomFields)
}
