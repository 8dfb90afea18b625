package article

import (
	"time"
	"unicode/utf8"

	"keeptrack/pkg/activity"
	id "keeptrack/pkg/domain"
)

// TypeName is the trackable type of articles.
const TypeName = "Article"

// AuthorType is the reference type of article authors.
const AuthorType = "User"

const summaryLength = 80

// Fields are the persisted attributes of an article.
type Fields struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	AuthorID   string    `json:"author_id,omitempty"`
	AuthorName string    `json:"author_name,omitempty"`
	Published  bool      `json:"published"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Article is a tracked entity. Each loaded article carries its own
// instance tier of activity settings.
type Article struct {
	activity.Instance `json:"-"`
	Fields
}

// ActivityRef implements activity.Referencer.
func (a *Article) ActivityRef() id.Ref { return id.NewRef(TypeName, a.ID) }

// Author is the author reference, or the zero ref for anonymous articles.
func (a *Article) Author() id.Ref {
	if a.AuthorID == "" {
		return id.Ref{}
	}
	return id.NewRef(AuthorType, a.AuthorID)
}

// Summary is the body cut to a fixed number of runes.
func (a *Article) Summary() string {
	if utf8.RuneCountInString(a.Body) <= summaryLength {
		return a.Body
	}
	runes := []rune(a.Body)
	return string(runes[:summaryLength]) + "…"
}

// CreateRequest is the input of Service.Create.
type CreateRequest struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
}

// UpdateRequest is the input of Service.Update. Nil fields are left alone.
type UpdateRequest struct {
	Title     *string `json:"title"`
	Body      *string `json:"body"`
	Published *bool   `json:"published"`
}

func (r UpdateRequest) apply(f *Fields) bool {
	changed := false
	if r.Title != nil && *r.Title != f.Title {
		f.Title = *r.Title
		changed = true
	}
	if r.Body != nil && *r.Body != f.Body {
		f.Body = *r.Body
		changed = true
	}
	if r.Published != nil && *r.Published != f.Published {
		f.Published = *r.Published
		changed = true
	}
	return changed
}

// Result pairs a mutated article with the activity it produced, if any.
type Result struct {
	Article  *Article         `json:"article"`
	Activity *activity.Record `json:"activity,omitempty"`
}
