package activity_test

import (
	"io"
	"log/slog"

	"keeptrack/pkg/activity"
	id "keeptrack/pkg/domain"
)

type Article struct {
	activity.Instance
	ID        string
	Title     string
	Published bool
}

func (a *Article) ActivityRef() id.Ref { return id.Ref{Type: "Article", ID: a.ID} }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
