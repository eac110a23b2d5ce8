package domain

import "strings"

// OutputEvent is one author-tagged emission observed at the completion
// service boundary: the identifier of the node that produced output plus
// zero or more text segments. The harness is agnostic to the service's
// protocol beyond this shape.
type OutputEvent struct {
	// Author is the identifier of the node that produced the event.
	Author string `json:"author"`

	// Segments are the text parts of the event, in emission order.
	Segments []string `json:"segments,omitempty"`
}

// Text joins the event's segments with newlines.
func (e OutputEvent) Text() string { return strings.Join(e.Segments, "\n") }

// DispatchTrace records one request's path through a delegation tree: the
// node identifiers that produced output, in visitation order, plus the
// concatenated free-text response. Traces are created per query and
// discarded after scoring.
type DispatchTrace struct {
	// Path holds the identifier of every node that spoke, in order.
	// Identifiers may repeat when a node speaks more than once.
	Path []string `json:"path"`

	// Response is the newline-joined text of every event.
	Response string `json:"response"`
}

// TraceFromEvents assembles a DispatchTrace from ordered output events,
// dropping events whose author matches one of the excluded identifiers
// (typically the synthetic user author).
func TraceFromEvents(events []OutputEvent, exclude ...string) DispatchTrace {
	var (
		path  []string
		parts []string
	)
	for _, ev := range events {
		if ev.Author == "" || excluded(ev.Author, exclude) {
			continue
		}
		path = append(path, ev.Author)
		if text := ev.Text(); text != "" {
			parts = append(parts, text)
		}
	}
	return DispatchTrace{
		Path:     path,
		Response: strings.TrimSpace(strings.Join(parts, "\n")),
	}
}

func excluded(author string, exclude []string) bool {
	for _, e := range exclude {
		if author == e {
			return true
		}
	}
	return false
}

// HopCount returns the number of distinct node identifiers in the path.
// Repeated turns by the same node count once.
func (t DispatchTrace) HopCount() int {
	if len(t.Path) == 0 {
		return 0
	}
	distinct := make(map[string]struct{}, len(t.Path))
	for _, id := range t.Path {
		distinct[id] = struct{}{}
	}
	return len(distinct)
}

// IsEmpty reports whether no node produced output for the request.
func (t DispatchTrace) IsEmpty() bool { return len(t.Path) == 0 }
