package activity

import (
	"errors"
	"strings"

	id "keeptrack/pkg/domain"
)

var errBroken = errors.New("broken accessor")

type post struct {
	Instance
	ID       string
	Title    string
	AuthorID string
	Tags     []string
	hidden   string
}

func (p *post) ActivityRef() id.Ref { return id.Ref{Type: "Post", ID: p.ID} }

func (p *post) Slug() string {
	return strings.ToLower(strings.ReplaceAll(p.Title, " ", "-"))
}

func (p *post) Broken() (string, error) { return "", errBroken }

func (p *post) Lookup(key string) string { return key }

type readerPost struct {
	post
	attrs map[string]any
}

func (r *readerPost) ActivityAttribute(name string) (any, bool) {
	v, ok := r.attrs[name]
	return v, ok
}

func newPost() *post {
	return &post{ID: "1", Title: "Hello World", AuthorID: "u-7", Tags: []string{"go"}, hidden: "secret"}
}
