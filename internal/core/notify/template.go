// Package notify renders notification templates and dispatches them to
// registered channel handlers. Rendering and channel selection are pure;
// the handlers themselves are host-supplied and may do I/O.
package notify

import (
	"regexp"
	"strconv"
	"time"

	"github.com/artpar/rollout/internal/core/timeline"
)

// =============================================================================
// Template Rendering
// =============================================================================

var tokenPattern = regexp.MustCompile(`\$\{([a-zA-Z][a-zA-Z.]*)\}`)

// RenderTemplate substitutes `${...}` tokens against an enumerated set of
// timeline and item fields plus the current date. Tokens whose path is not
// in the set are left verbatim, so malformed templates stay visible in the
// output instead of failing the dispatch.
func RenderTemplate(tmpl string, item timeline.Item, t *timeline.Timeline, now time.Time) string {
	return tokenPattern.ReplaceAllStringFunc(tmpl, func(token string) string {
		path := tokenPattern.FindStringSubmatch(token)[1]
		if value, ok := resolvePath(path, item, t, now); ok {
			return value
		}
		return token
	})
}

// resolvePath maps a substitution path to its value. The set of paths is
// deliberately closed: no reflective field walking.
func resolvePath(path string, item timeline.Item, t *timeline.Timeline, now time.Time) (string, bool) {
	switch path {
	case "date":
		return now.UTC().Format(time.RFC3339), true
	case "formattedDate":
		return now.UTC().Format("January 2, 2006"), true
	}

	if t != nil {
		switch path {
		case "timeline.id":
			return t.ID, true
		case "timeline.name":
			return t.Name, true
		case "timeline.status":
			return string(t.Status), true
		case "timeline.version":
			return strconv.Itoa(t.Version), true
		case "timeline.description":
			return t.Description, true
		}
	}

	if item != nil {
		base := item.Base()
		switch path {
		case "item.id":
			return base.ID, true
		case "item.name":
			return base.Name, true
		case "item.status":
			return string(base.Status), true
		case "item.priority":
			return string(base.Priority), true
		case "item.owner":
			return base.Owner, true
		case "item.description":
			return base.Description, true
		}
	}

	return "", false
}
