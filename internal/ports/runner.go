package ports

import (
	"context"

	"github.com/ahrav/go-switchboard/internal/domain"
)

// DispatchRunner drives one request through a delegation tree via the
// external completion service and reports what it observed: the ordered,
// author-tagged output events of every node that spoke. The harness is
// agnostic to the service's protocol beyond this shape; the routing
// decision itself happens inside the service and is never visible to
// callers except through the events.
//
// Production code uses the LLM-backed runner in infrastructure/runner; tests
// use the scripted runner in internal/testutils, so everything downstream of
// this boundary is exercisable without live model calls.
type DispatchRunner interface {
	// Run submits the request's query into the tree root and returns the
	// output events in emission order. A transport failure or timeout
	// surfaces as an error and is fatal for this single request only;
	// callers decide retry policy. An empty event slice with a nil error
	// is legal and means no node produced output.
	Run(ctx context.Context, req DispatchRequest) ([]domain.OutputEvent, error)
}
