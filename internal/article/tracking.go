package article

import (
	"keeptrack/pkg/activity"
	"keeptrack/pkg/requestcontext"
)

// Register declares how articles are tracked: the owner is the caller, or
// the author when no caller is bound; every activity carries the title and
// a summary; updates are only recorded for published articles.
func Register(reg *activity.Registry) *activity.TypeConfig {
	return reg.Track(TypeName, activity.TrackOptions{
		Owner: activity.Computed(owner),
		Params: activity.NewMapping(
			activity.E("title", activity.Attr("title")),
			activity.E("summary", activity.Attr("summary")),
		),
		On: map[activity.Action]any{
			activity.ActionUpdate: published,
		},
	})
}

func owner(caller *requestcontext.Caller, subject activity.Subject) (any, error) {
	if caller != nil && caller.ID != "" {
		return caller, nil
	}
	if a, ok := subject.(*Article); ok {
		return a.Author(), nil
	}
	return nil, nil
}

func published(subject activity.Subject) bool {
	a, ok := subject.(*Article)
	return ok && a.Published
}
