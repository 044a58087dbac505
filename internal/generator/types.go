package generator

// IntentSpec is the document produced for one Solidity source file.
type IntentSpec struct {
	Contract   Contract   `json:"contract" yaml:"contract" validate:"required"`
	Functions  []Function `json:"functions" yaml:"functions" validate:"required,min=1,dive"`
	Events     []Event    `json:"events,omitempty" yaml:"events,omitempty" validate:"omitempty,dive"`
	Invariants []string   `json:"invariants,omitempty" yaml:"invariants,omitempty" validate:"omitempty,dive,required"`
}

// Contract holds the contract-level fields.
type Contract struct {
	Name        string `json:"name" yaml:"name" validate:"required"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Function describes one function carrying an agent-intent tag.
type Function struct {
	Name string `json:"name" yaml:"name" validate:"required"`
	// Signature is the EVM function selector, 0x followed by 8 hex chars.
	Signature     string   `json:"signature,omitempty" yaml:"signature,omitempty" validate:"omitempty,selector"`
	Intent        string   `json:"intent" yaml:"intent" validate:"required"`
	Preconditions []string `json:"preconditions,omitempty" yaml:"preconditions,omitempty" validate:"omitempty,dive,required"`
	Effects       []string `json:"effects,omitempty" yaml:"effects,omitempty" validate:"omitempty,dive,required"`
	Risks         []string `json:"risks,omitempty" yaml:"risks,omitempty" validate:"omitempty,dive,required"`
	AgentGuidance string   `json:"agentGuidance,omitempty" yaml:"agentGuidance,omitempty"`
}

// Event is a contract event declared with agent-event.
type Event struct {
	Name        string `json:"name" yaml:"name" validate:"required"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// DeclKind classifies the declaration following a comment block.
type DeclKind int

const (
	DeclContract DeclKind = iota + 1
	DeclFunction
)

func (k DeclKind) String() string {
	switch k {
	case DeclContract:
		return "contract"
	case DeclFunction:
		return "function"
	default:
		return "other"
	}
}

// Declaration is a contract or function header located after a comment block.
type Declaration struct {
	Kind DeclKind
	Name string
	// Params is the raw text between the parentheses of a function header.
	Params string
	// Balanced is false when a function's parameter list never closes.
	Balanced bool
	Offset   int
}

// CommentBlock is a documentation comment and its position in the source.
type CommentBlock struct {
	Text  string // inner text without the opener and closer
	Start int
	End   int // offset just past the closer
	Line  int // 1-based line of the opener
}

// Association pairs a comment block with the declaration that follows it.
// Decl is nil for orphaned blocks.
type Association struct {
	Block CommentBlock
	Decl  *Declaration
}

// Warning is a non-fatal observation made during extraction.
type Warning struct {
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

// Extraction is the result of a successful extraction.
type Extraction struct {
	Spec     *IntentSpec
	Warnings []Warning
}
