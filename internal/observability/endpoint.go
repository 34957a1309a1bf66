package observability

import (
	"regexp"
	"strings"
)

var (
	uuidSegment    = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	numericSegment = regexp.MustCompile(`^[0-9]+$`)
)

// ownerRepoPrefixes are path segments after which a two-segment suffix is
// treated as an owner/repo pair (GitHub-style routes of the matching app).
var ownerRepoPrefixes = map[string]bool{
	"repos":    true,
	"projects": true,
}

// NormalizeEndpoint collapses a raw request path into a stable endpoint key
// by replacing variable segments with placeholders: UUID-shaped segments
// become :uuid, purely numeric segments become :id, and a two-segment
// owner/repo suffix following a recognized prefix becomes :owner/:repo.
// Rules are applied deterministically, left to right, first match wins.
func NormalizeEndpoint(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return "/"
	}
	// Strip query strings that leaked into the recorded path.
	if i := strings.IndexByte(trimmed, '?'); i >= 0 {
		trimmed = trimmed[:i]
	}

	segments := strings.Split(trimmed, "/")
	out := make([]string, 0, len(segments))
	for i := 0; i < len(segments); i++ {
		seg := segments[i]
		switch {
		case seg == "":
			// Collapse duplicate slashes from malformed paths.
			continue
		case uuidSegment.MatchString(seg):
			out = append(out, ":uuid")
		case numericSegment.MatchString(seg):
			out = append(out, ":id")
		case ownerRepoPrefixes[seg] && i+3 == len(segments):
			out = append(out, seg, ":owner", ":repo")
			i += 2
		default:
			out = append(out, seg)
		}
	}

	return "/" + strings.Join(out, "/")
}
