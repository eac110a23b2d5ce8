package domain

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// UnknownRoute is the sentinel identifier recorded when neither the marker
// protocol nor the trace fallback yields a routing decision. RoutedTo is
// never the empty string.
const UnknownRoute = "unknown"

var (
	// markerPattern matches the marker protocol lines nodes embed in their
	// output: [ROUTED_TO: <id>] or [HANDLED_BY: <id>]. The bracket text is
	// case-sensitive; the identifier is everything between the colon and
	// the closing bracket.
	markerPattern = regexp.MustCompile(`\[(?:ROUTED_TO|HANDLED_BY):([^\]]*)\]`)

	// dispatcherTerms mark trace identifiers belonging to routing
	// infrastructure rather than terminal handlers. The fallback skips
	// them when no marker was emitted.
	dispatcherTerms = []string{"coordinator", "category"}

	// foldCaser is a package-level Unicode case folder for performance.
	foldCaser = cases.Fold()
)

// ExtractMarker scans text for marker protocol occurrences and returns the
// trimmed identifier of the last one carrying a non-empty identifier. Later
// markers override earlier ones because nodes closer to the leaf are assumed
// more specific.
func ExtractMarker(response string) (string, bool) {
	matches := markerPattern.FindAllStringSubmatch(response, -1)
	if len(matches) == 0 {
		return "", false
	}

	var last string
	for _, m := range matches {
		if id := strings.TrimSpace(m[1]); id != "" {
			last = id
		}
	}
	if last == "" {
		return "", false
	}
	return last, true
}

// ResolveRoutedTo determines the terminal routed-to identifier for one
// dispatch. The marker protocol wins when present. Otherwise the trace is
// inspected: identifiers containing "coordinator" or "category"
// (case-insensitive) are dropped and the last remaining identifier is taken;
// if the filter removes everything, the raw last trace entry is used; an
// empty trace resolves to UnknownRoute. Resolution is deterministic and
// never fails.
func ResolveRoutedTo(response string, path []string) string {
	if id, ok := ExtractMarker(response); ok {
		return id
	}

	if handler, ok := lastHandlerIn(path); ok {
		return handler
	}
	if len(path) > 0 {
		return path[len(path)-1]
	}
	return UnknownRoute
}

// lastHandlerIn returns the last trace identifier that does not look like
// routing infrastructure.
func lastHandlerIn(path []string) (string, bool) {
	for i := len(path) - 1; i >= 0; i-- {
		if !isDispatcherIdentifier(path[i]) {
			return path[i], true
		}
	}
	return "", false
}

func isDispatcherIdentifier(id string) bool {
	folded := foldCaser.String(id)
	for _, term := range dispatcherTerms {
		if strings.Contains(folded, term) {
			return true
		}
	}
	return false
}
