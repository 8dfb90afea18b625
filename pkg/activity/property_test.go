//go:build property

package activity_test

import (
	"maps"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"keeptrack/pkg/activity"
)

func toAny(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// TestMergeProperties checks that a merged mapping resolves to the
// right-biased union of both sides.
func TestMergeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("merge is a right-biased union", prop.ForAll(
		func(lower, upper map[string]string) bool {
			merged := activity.Literals(toAny(lower)).Merge(activity.Literals(toAny(upper)))
			got, err := merged.Resolve(nil, nil)
			if err != nil {
				return false
			}
			want := toAny(lower)
			maps.Copy(want, toAny(upper))
			return maps.Equal(got, want)
		},
		gen.MapOf(gen.Identifier(), gen.AlphaString()),
		gen.MapOf(gen.Identifier(), gen.AlphaString()),
	))

	properties.Property("merge never mutates its receiver", prop.ForAll(
		func(lower, upper map[string]string) bool {
			base := activity.Literals(toAny(lower))
			before := base.Len()
			_ = base.Merge(activity.Literals(toAny(upper)))
			return base.Len() == before
		},
		gen.MapOf(gen.Identifier(), gen.AlphaString()),
		gen.MapOf(gen.Identifier(), gen.AlphaString()),
	))

	properties.TestingRun(t)
}

// TestKeyProperties checks that synthesized keys carry their action as the
// last segment, which is what hook lookup relies on.
func TestKeyProperties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("action survives key synthesis", prop.ForAll(
		func(typeName, action string) bool {
			key := activity.SynthesizeKey(typeName, action)
			return activity.ActionFromKey(key) == string(activity.NormalizeAction(action))
		},
		gen.Identifier(),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
