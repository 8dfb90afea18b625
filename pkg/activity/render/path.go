package render

import "strings"

const (
	// DefaultRoot is the template namespace activity keys are resolved under.
	DefaultRoot = "activity_views"
	// DefaultLayoutRoot is the namespace relative layout names are joined under.
	DefaultLayoutRoot = "layouts"
)

// TemplatePath maps an activity key to a template path: the key is split on
// ".", a leading "activity" segment is dropped and the rest is joined under
// root with "/". "activity.article.create" -> "activity_views/article/create".
func TemplatePath(key, root string) string {
	if root == "" {
		root = DefaultRoot
	}
	parts := strings.Split(key, ".")
	if len(parts) > 1 && parts[0] == "activity" {
		parts = parts[1:]
	}
	return root + "/" + strings.Join(parts, "/")
}

// LayoutPath joins layout under layoutRoot unless it already starts with the
// root or with "/". An empty layout stays empty.
func LayoutPath(layout, layoutRoot string) string {
	if layout == "" {
		return ""
	}
	if layoutRoot == "" {
		layoutRoot = DefaultLayoutRoot
	}
	if strings.HasPrefix(layout, layoutRoot) || strings.HasPrefix(layout, "/") {
		return layout
	}
	return layoutRoot + "/" + layout
}

// TextKey is the translation key of an activity key: "activity." is
// prepended unless the key already starts with that segment.
func TextKey(key string) string {
	if key == "activity" || strings.HasPrefix(key, "activity.") {
		return key
	}
	return "activity." + key
}
