// Package testutils provides deterministic test doubles and fixtures for
// the routing harness: a scripted dispatch runner, a mock completion
// client, and a canned registry with query cases. Nothing here touches the
// network, so every component downstream of the ports boundary is testable
// without live model calls.
package testutils

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ahrav/go-switchboard/internal/domain"
	"github.com/ahrav/go-switchboard/internal/ports"
)

// ScriptedDispatch is one pre-configured dispatch outcome. The runner
// replays Events for queries containing Pattern; an empty Pattern is the
// default script for unmatched queries.
type ScriptedDispatch struct {
	// Pattern is matched as a substring against the query text.
	Pattern string

	// Events are the author-tagged output events to replay.
	Events []domain.OutputEvent

	// Err, when set, is returned instead of events to simulate a
	// transport failure.
	Err error

	// Delay simulates service latency before the outcome is delivered.
	// The runner honors context cancellation during the delay.
	Delay time.Duration
}

// Verify interface compliance at compile time.
var _ ports.DispatchRunner = (*ScriptedRunner)(nil)

// ScriptedRunner implements ports.DispatchRunner with fixed scripted
// responses per query pattern. It records every request so tests can assert
// on session isolation and submission behavior. Safe for concurrent use.
type ScriptedRunner struct {
	mu       sync.Mutex
	scripts  []ScriptedDispatch
	requests []ports.DispatchRequest
}

// NewScriptedRunner creates an empty ScriptedRunner. Queries with no
// matching script produce an empty event sequence, which downstream
// resolves to the unknown route.
func NewScriptedRunner() *ScriptedRunner {
	return &ScriptedRunner{}
}

// AddScript registers a scripted outcome. Scripts are matched in
// registration order; the first pattern contained in the query wins.
func (r *ScriptedRunner) AddScript(script ScriptedDispatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scripts = append(r.scripts, script)
}

// Run replays the scripted outcome for the request's query.
func (r *ScriptedRunner) Run(ctx context.Context, req ports.DispatchRequest) ([]domain.OutputEvent, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	script, ok := r.match(req.Query)
	r.mu.Unlock()

	if !ok {
		return nil, nil
	}

	if script.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(script.Delay):
		}
	}

	if script.Err != nil {
		return nil, script.Err
	}

	// Copy so callers cannot mutate the script.
	events := make([]domain.OutputEvent, len(script.Events))
	copy(events, script.Events)
	return events, nil
}

func (r *ScriptedRunner) match(query string) (ScriptedDispatch, bool) {
	var fallback *ScriptedDispatch
	for i, s := range r.scripts {
		if s.Pattern == "" {
			if fallback == nil {
				fallback = &r.scripts[i]
			}
			continue
		}
		if strings.Contains(query, s.Pattern) {
			return s, true
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return ScriptedDispatch{}, false
}

// Requests returns a copy of every recorded dispatch request in submission
// order.
func (r *ScriptedRunner) Requests() []ports.DispatchRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ports.DispatchRequest, len(r.requests))
	copy(out, r.requests)
	return out
}

// SessionIDs returns the session identifier of every recorded request.
func (r *ScriptedRunner) SessionIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, len(r.requests))
	for i, req := range r.requests {
		ids[i] = req.SessionID
	}
	return ids
}

// Reset clears scripts and recorded requests.
func (r *ScriptedRunner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scripts = nil
	r.requests = nil
}

// ScriptCorrectRoutes configures the runner to route every query case to
// its expected domain through the given tree, emitting the event sequence a
// well-behaved model would: one event per node on the delegation path, with
// the terminal node self-identifying through the marker protocol.
func (r *ScriptedRunner) ScriptCorrectRoutes(root *domain.DispatchNode, cases []domain.QueryCase) {
	for _, qc := range cases {
		path := pathToDomain(root, qc.ExpectedDomain)
		if path == nil {
			continue
		}
		r.AddScript(ScriptedDispatch{
			Pattern: qc.Text,
			Events:  RouteEvents(path),
		})
	}
}

// RouteEvents builds the event sequence of a clean delegation along the
// given nodes: every dispatcher acknowledges the hand-off and the terminal
// node answers with its marker.
func RouteEvents(path []*domain.DispatchNode) []domain.OutputEvent {
	events := make([]domain.OutputEvent, 0, len(path))
	for i, node := range path {
		if i == len(path)-1 {
			events = append(events, domain.OutputEvent{
				Author:   node.ID,
				Segments: []string{"Handling the request.", "[ROUTED_TO: " + node.ID + "]"},
			})
			continue
		}
		events = append(events, domain.OutputEvent{
			Author:   node.ID,
			Segments: []string{"Delegating to " + path[i+1].ID + "."},
		})
	}
	return events
}

// pathToDomain finds the root-to-terminal path whose terminal node belongs
// to the expected domain, preferring leaves over dispatchers.
func pathToDomain(root *domain.DispatchNode, expectedDomain string) []*domain.DispatchNode {
	var found []*domain.DispatchNode

	var walk func(node *domain.DispatchNode, path []*domain.DispatchNode) bool
	walk = func(node *domain.DispatchNode, path []*domain.DispatchNode) bool {
		path = append(path, node)
		if node.IsLeaf() && domain.IsCorrectRoute(node.ID, expectedDomain) {
			found = append([]*domain.DispatchNode(nil), path...)
			return true
		}
		for _, child := range node.Children {
			if walk(child, path) {
				return true
			}
		}
		return false
	}
	walk(root, nil)
	return found
}
