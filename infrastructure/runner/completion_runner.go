// Package runner drives delegation trees through a live completion client.
//
// The completion boundary is a single-turn text API with no native delegation
// support, so the runner layers a text protocol on top: dispatcher prompts are
// extended with a delegation directive, and responses are scanned for
// [DELEGATE_TO: <identifier>] lines naming the next node. Leaves answer in a
// single completion. Every node that speaks contributes one author-tagged
// output event, the shape the dispatch executor scores.
package runner

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/ahrav/go-switchboard/internal/domain"
	"github.com/ahrav/go-switchboard/internal/ports"
)

// DefaultMaxDepth bounds delegation hops per request. The deepest standard
// topology needs three completions root to leaf; the guard exists for
// malformed trees.
const DefaultMaxDepth = 8

// ErrDepthExceeded reports a delegation chain longer than the configured
// maximum.
var ErrDepthExceeded = errors.New("delegation depth exceeded")

var errMissingRoot = errors.New("dispatch request has no root node")

// delegatePattern matches the delegation directive dispatchers emit:
// [DELEGATE_TO: <id>]. The bracket text is case-sensitive; the identifier is
// everything between the colon and the closing bracket.
var delegatePattern = regexp.MustCompile(`\[DELEGATE_TO:([^\]]*)\]`)

var foldCaser = cases.Fold()

// Verify interface compliance at compile time.
var _ ports.DispatchRunner = (*CompletionRunner)(nil)

// Config controls completion runner behavior.
// The zero value is usable once a client is supplied.
type Config struct {
	// MaxDepth bounds delegation hops per request. DefaultMaxDepth applies
	// when zero or negative.
	MaxDepth int

	// Options are base completion options attached to every request, such as
	// "model", "max_tokens", or "temperature". The session and user options
	// are set per request and override entries here.
	Options map[string]any

	// Logger receives per-hop delegation logs. A nil logger disables logging.
	Logger *zap.Logger
}

// CompletionRunner implements ports.DispatchRunner over a raw completion
// client. Each tree node costs one completion: dispatchers are prompted with
// their instruction plus the delegation directive over their children, leaves
// with their instruction alone. The walk follows directives downward until a
// leaf answers, a dispatcher answers in place, or the depth guard trips.
type CompletionRunner struct {
	client   ports.CompletionClient
	maxDepth int
	options  map[string]any
	logger   *zap.Logger
}

// NewCompletionRunner creates a runner that completes through the given
// client.
func NewCompletionRunner(client ports.CompletionClient, config Config) (*CompletionRunner, error) {
	if client == nil {
		return nil, fmt.Errorf("completion client cannot be nil")
	}

	maxDepth := config.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CompletionRunner{
		client:   client,
		maxDepth: maxDepth,
		options:  config.Options,
		logger:   logger,
	}, nil
}

// Run walks the tree from the request root, completing one prompt per node
// and following delegation directives until the request terminates. The
// returned events carry one entry per node that spoke, in hop order; on error
// the events collected before the failure are returned alongside it.
func (r *CompletionRunner) Run(ctx context.Context, req ports.DispatchRequest) ([]domain.OutputEvent, error) {
	if req.Root == nil {
		return nil, ports.NewDispatchError(req.SessionID, "", errMissingRoot)
	}

	events := make([]domain.OutputEvent, 0, 4)
	node := req.Root

	for depth := 0; ; depth++ {
		if depth >= r.maxDepth {
			return events, ports.NewDispatchError(req.SessionID, node.ID,
				fmt.Errorf("%w: %d hops", ErrDepthExceeded, depth))
		}
		if err := ctx.Err(); err != nil {
			return events, ports.NewDispatchError(req.SessionID, node.ID, err)
		}

		text, err := r.complete(ctx, node, req)
		if err != nil {
			return events, ports.NewDispatchError(req.SessionID, node.ID, err)
		}
		events = append(events, domain.OutputEvent{Author: node.ID, Segments: []string{text}})

		if node.IsLeaf() {
			return events, nil
		}

		target, ok := extractDirective(text)
		if !ok {
			// The dispatcher answered in place; its text is the final
			// response and scoring falls back to trace resolution.
			r.logger.Debug("dispatcher answered in place",
				zap.String("session_id", req.SessionID),
				zap.String("node_id", node.ID))
			return events, nil
		}

		child, found := resolveChild(node, target)
		if !found {
			r.logger.Warn("delegation target not in roster",
				zap.String("session_id", req.SessionID),
				zap.String("node_id", node.ID),
				zap.String("target", target))
			return events, nil
		}

		r.logger.Debug("delegating",
			zap.String("session_id", req.SessionID),
			zap.String("from", node.ID),
			zap.String("to", child.ID),
			zap.Int("depth", depth))
		node = child
	}
}

// complete sends one node-conditioned prompt through the client with the
// request's session and user identifiers attached.
func (r *CompletionRunner) complete(ctx context.Context, node *domain.DispatchNode, req ports.DispatchRequest) (string, error) {
	opts := make(map[string]any, len(r.options)+2)
	for k, v := range r.options {
		opts[k] = v
	}
	opts["session"] = req.SessionID
	opts["user"] = req.UserID

	return r.client.Complete(ctx, nodePrompt(node, req.Query), opts)
}

// nodePrompt assembles the single-turn prompt for one node: its rendered
// instruction, the delegation directive when it has children, and the user
// query.
func nodePrompt(node *domain.DispatchNode, query string) string {
	var sb strings.Builder
	sb.WriteString(node.Instruction)

	if !node.IsLeaf() {
		ids := make([]string, len(node.Children))
		for i, child := range node.Children {
			ids[i] = child.ID
		}
		sb.WriteString("\n\nTo delegate, reply with a single line:\n[DELEGATE_TO: <identifier>]\nusing one of: ")
		sb.WriteString(strings.Join(ids, ", "))
		sb.WriteString(".")
	}

	sb.WriteString("\n\nUser query: ")
	sb.WriteString(query)
	return sb.String()
}

// extractDirective returns the identifier of the last non-empty delegation
// directive in the response. Later directives override earlier ones, matching
// marker resolution semantics.
func extractDirective(response string) (string, bool) {
	matches := delegatePattern.FindAllStringSubmatch(response, -1)
	var last string
	for _, m := range matches {
		if id := strings.TrimSpace(m[1]); id != "" {
			last = id
		}
	}
	return last, last != ""
}

// resolveChild maps a directive identifier to a child node. Exact identifier
// matches win, then case-folded matches, and finally a bare domain name
// resolves when exactly one child identifier extends it with an underscore
// segment. The last rule covers dispatchers that quote roster names like
// "finance" instead of "finance_agent".
func resolveChild(node *domain.DispatchNode, target string) (*domain.DispatchNode, bool) {
	if child, ok := node.Child(target); ok {
		return child, true
	}

	folded := foldCaser.String(target)
	var (
		prefixed *domain.DispatchNode
		count    int
	)
	for _, child := range node.Children {
		id := foldCaser.String(child.ID)
		if id == folded {
			return child, true
		}
		if strings.HasPrefix(id, folded+"_") {
			prefixed = child
			count++
		}
	}
	if count == 1 {
		return prefixed, true
	}
	return nil, false
}
