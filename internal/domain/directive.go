package domain

// DirectiveKind identifies one tool directive form in model output.
type DirectiveKind string

const (
	KindList   DirectiveKind = "list"   // <list>dir</list>
	KindLoad   DirectiveKind = "load"   // <read>path</read>, loads file into context
	KindRead   DirectiveKind = "read"   // <read path="p"/>, returns content inline
	KindRun    DirectiveKind = "run"    // <run>command</run>
	KindCreate DirectiveKind = "create" // <create path="p">content</create>
	KindEdit   DirectiveKind = "edit"   // <edit path="p"><old>..</old><new>..</new></edit>
	KindChange DirectiveKind = "change" // <change file="p"><description>..</description><old>..</old><new>..</new></change>
	KindGui    DirectiveKind = "gui"    // <gui>html</gui>
	KindURL    DirectiveKind = "url"    // <url>url</url>
	KindDelete DirectiveKind = "delete" // <delete path="p"/>
)

// Directive is one parsed tool invocation extracted from model output.
// Which fields are set depends on Kind; a directive with an empty required
// field is a no-op, never an error.
type Directive struct {
	Kind        DirectiveKind
	Path        string // List, Load, Read, Create, Edit, Change, Delete
	Command     string // Run
	Content     string // Create
	Old         string // Edit, Change ("" on Change means create the file)
	New         string // Edit, Change
	Description string // Change
	HTML        string // Gui
	URL         string // URL
}

// ExecutionResult records the outcome of a single executed directive.
// Output is appended to the turn's tool-output buffer and fed back to the
// model; SideEffect is a human-readable description of what changed.
type ExecutionResult struct {
	Directive  Directive
	Success    bool
	Output     string
	SideEffect string
}
