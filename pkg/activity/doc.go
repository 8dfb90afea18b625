// Package activity turns lifecycle events of tracked entities into activity
// records.
//
// A record is composed from three tiers of settings. Global settings are
// registered once per entity type in a Registry. Instance settings are
// carried by the entity itself through an embedded Instance. Call-site
// Options are passed to a single Record call. Owner, recipient and key are
// taken from the highest tier that sets them. Parameters and custom fields
// are merged key by key with the higher tier winning.
//
// Setting values are Values: literals, attribute references that are read
// off the entity, callables computed from the caller and the entity, or
// nested mappings of those. They are resolved at record time, never earlier.
//
//	reg := activity.NewRegistry()
//	reg.Track("Article", activity.TrackOptions{
//		Owner:  activity.Computed(func(c *requestcontext.Caller, _ activity.Subject) (any, error) { return c, nil }),
//		Params: activity.NewMapping(activity.E("title", activity.Attr("title"))),
//	})
//
//	rec, err := recorder.Record(ctx, article, "publish", activity.Options{})
package activity
