package topology

import (
	"fmt"
	"strings"
	"text/template"
)

// rosterTruncateLen caps description length in dispatcher rosters so large
// registries stay scannable for the model.
const rosterTruncateLen = 80

// maxSampleQueries caps the sample queries embedded per leaf instruction.
const maxSampleQueries = 3

var (
	// tmplDomainDescription renders the enriched description embedded in
	// flat-domain leaf instructions and roster entries.
	tmplDomainDescription = mustParse("domain_description", `{{.Description}}

Keywords: {{join .Keywords ", "}}{{range .Samples}}
      - "{{.}}"{{end}}`)

	// tmplDomainAgent conditions a flat-topology leaf that handles a whole
	// domain and self-identifies through the marker protocol.
	tmplDomainAgent = mustParse("domain_agent", `You are the {{titleSnake .Domain}} agent.

{{.FullDescription}}

Acknowledge you are handling this request as the {{.Domain}} agent.
Start your response with: [ROUTED_TO: {{.ID}}]`)

	// tmplCentralRoot conditions the flat-domain root dispatcher.
	tmplCentralRoot = mustParse("central_root", `You are the central routing coordinator. Your ONLY job is to route queries to domain agents.

**CRITICAL RULES:**
1. You MUST ALWAYS delegate to a domain agent - never answer queries yourself
2. Read ALL available agents before deciding
3. When in doubt, choose the closest match
4. Pick exactly ONE agent per query

**Available Domain Agents ({{.Count}} total):**
{{range .Roster}}{{.}}
{{end}}{{if .Hints}}
**ROUTING HINTS FOR AMBIGUOUS CASES:**
{{range .Hints}}{{.}}
{{end}}{{end}}
Now route the query and DELEGATE immediately.`)

	// tmplLeafHandler conditions a namespaced leaf handler in the
	// two-level and flat-leaf shapes.
	tmplLeafHandler = mustParse("leaf_handler", `You are the {{.Name}} handler for the {{titleSnake .Domain}} domain.
Description: {{.Description}}
Handle this request directly and completely.
Start your response with: [HANDLED_BY: {{.ID}}]`)

	// tmplDomainDispatcher conditions a two-level domain dispatcher, which
	// sees only its own handler roster rather than the full registry.
	tmplDomainDispatcher = mustParse("domain_dispatcher", `You are the {{.Domain}} domain dispatcher.
Description: {{.Description}}
Your keywords: {{join .Keywords ", "}}

Your handlers:
{{range .Roster}}{{.}}
{{end}}
Route to the most appropriate handler and delegate immediately.
After routing, indicate with: [ROUTED_TO: {{.ID}}]`)

	// tmplDomainDirect conditions a two-level domain with no leaf handlers,
	// which answers in place as a leaf.
	tmplDomainDirect = mustParse("domain_direct", `You are the {{.Domain}} domain handler.
Description: {{.Description}}
Your keywords: {{join .Keywords ", "}}
Handle this request directly.
Start your response with: [HANDLED_BY: {{.ID}}]`)

	// tmplDistributedRoot conditions the two-level root dispatcher.
	tmplDistributedRoot = mustParse("distributed_root", `You are the root coordinator for distributed routing.

Route user queries to the appropriate domain dispatcher.

Available domain dispatchers ({{.Count}} total):
{{range .Roster}}{{.}}
{{end}}{{if .Hints}}
ROUTING HINTS FOR AMBIGUOUS CASES:
{{range .Hints}}{{.}}
{{end}}{{end}}
IMPORTANT: Analyze the query and route to the MOST appropriate domain dispatcher.
Be decisive - pick ONE and delegate immediately.`)

	// tmplDirectRoot conditions the flat-leaf root dispatcher over the
	// full namespaced handler set.
	tmplDirectRoot = mustParse("direct_root", `You are the direct routing coordinator over every specialist handler.

**CRITICAL RULES:**
1. You MUST ALWAYS delegate to a handler - never answer queries yourself
2. Scan the full handler list before deciding
3. When in doubt, choose the closest match
4. Pick exactly ONE handler per query

Available handlers ({{.Count}} total):
{{range .Roster}}{{.}}
{{end}}{{if .Hints}}
ROUTING HINTS FOR AMBIGUOUS CASES:
{{range .Hints}}{{.}}
{{end}}{{end}}
Now route the query and DELEGATE immediately.`)
)

// mustParse parses a static instruction template with the shared function
// map. Templates are fixed at compile time, so a parse failure is a
// programming error.
func mustParse(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(instructionFuncMap()).Parse(text))
}

type domainDescriptionData struct {
	Description string
	Keywords    []string
	Samples     []string
}

type domainAgentData struct {
	ID              string
	Domain          string
	FullDescription string
}

type leafHandlerData struct {
	ID          string
	Domain      string
	Name        string
	Description string
}

type domainDispatcherData struct {
	ID          string
	Domain      string
	Description string
	Keywords    []string
	Roster      []string
}

type rootData struct {
	Count  int
	Roster []string
	Hints  []string
}

// render executes a template into a string. Template data is fully
// controlled by the builder, so failures indicate a broken template rather
// than bad input.
func render(t *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to execute instruction template %q: %w", t.Name(), err)
	}
	return sb.String(), nil
}
