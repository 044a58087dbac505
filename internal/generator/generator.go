package generator

import (
	"fmt"
	"os"
	"strings"
	"unicode"
)

// Options control extraction.
type Options struct {
	Mode ParseMode
}

// Generator builds IntentSpec documents from Solidity source. It holds no
// per-call state and is safe for concurrent use.
type Generator struct {
	opts Options
}

// New creates a generator with the given options.
func New(opts Options) *Generator {
	return &Generator{opts: opts}
}

// Extract runs a default generator over source.
func Extract(source string) (*IntentSpec, error) {
	ex, err := New(Options{}).Generate(source)
	if err != nil {
		return nil, err
	}
	return ex.Spec, nil
}

// ExtractWithOptions runs a generator configured with opts over source.
func ExtractWithOptions(source string, opts Options) (*Extraction, error) {
	return New(opts).Generate(source)
}

// ExtractFile reads path and runs a generator configured with opts over it.
func ExtractFile(path string, opts Options) (*Extraction, error) {
	return New(opts).GenerateFile(path)
}

// GenerateFile reads path and extracts its document. Read failures are
// reported as ErrUnreadableSource.
func (g *Generator) GenerateFile(path string) (*Extraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ExtractError{Reason: ReasonUnreadableSource, Detail: path, Err: err}
	}
	return g.Generate(string(data))
}

// Generate scans source once and assembles the document.
func (g *Generator) Generate(source string) (*Extraction, error) {
	contracts := FindContracts(source)
	if len(contracts) == 0 {
		return nil, ErrNoContractDeclaration
	}

	a := &assembler{
		mode:     g.opts.Mode,
		contract: Contract{Name: contracts[0]},
	}
	if len(contracts) > 1 {
		a.warn(0, fmt.Sprintf("%d contracts declared (%s); all documented functions are folded into %s",
			len(contracts), strings.Join(contracts, ", "), contracts[0]))
	}

	sc := NewScanner(source)
	for {
		assoc, ok := sc.Next()
		if !ok {
			break
		}
		a.add(assoc)
	}

	if len(a.functions) == 0 {
		return nil, ErrNoIntentFunctions
	}

	return &Extraction{
		Spec: &IntentSpec{
			Contract:   a.contract,
			Functions:  a.functions,
			Events:     a.events,
			Invariants: a.invariants,
		},
		Warnings: a.warnings,
	}, nil
}

// assembler accumulates one document while the scanner runs.
type assembler struct {
	mode       ParseMode
	contract   Contract
	functions  []Function
	events     []Event
	invariants []string
	warnings   []Warning
}

func (a *assembler) warn(line int, msg string) {
	a.warnings = append(a.warnings, Warning{Line: line, Message: msg})
}

func (a *assembler) add(assoc Association) {
	tags := ParseTags(assoc.Block.Text, a.mode)
	if assoc.Decl == nil {
		if hasAgentTags(tags) {
			a.warn(assoc.Block.Line, "documentation block is not followed by a contract or function; ignored")
		}
		return
	}

	a.checkScope(assoc, tags)
	switch assoc.Decl.Kind {
	case DeclContract:
		a.addContract(tags)
	case DeclFunction:
		a.addFunction(assoc, tags)
	}
}

func (a *assembler) addContract(tags Tags) {
	if v, ok := tags.Last(KindVersion); ok {
		a.contract.Version = v
	}
	if d := contractDescription(tags); d != "" {
		a.contract.Description = d
	}
	a.invariants = append(a.invariants, tags.All(KindInvariant)...)
	for _, v := range tags.All(KindEvent) {
		a.events = append(a.events, parseEvent(v))
	}
}

func (a *assembler) addFunction(assoc Association, tags Tags) {
	decl := assoc.Decl
	intent, ok := tags.Last(KindIntent)
	if !ok {
		if hasAgentTags(tags) {
			a.warn(assoc.Block.Line, fmt.Sprintf("function %s has agent tags but no @custom:agent-intent; skipped", decl.Name))
		}
		return
	}

	fn := Function{
		Name:          decl.Name,
		Intent:        intent,
		Preconditions: tags.All(KindPrecondition),
		Effects:       tags.All(KindEffect),
		Risks:         tags.All(KindRisk),
	}
	fn.AgentGuidance, _ = tags.Last(KindGuidance)

	if !decl.Balanced {
		a.warn(assoc.Block.Line, fmt.Sprintf("function %s: parameter list is not closed; signature omitted", decl.Name))
	} else if sel, err := ComputeSelector(decl.Name, decl.Params); err != nil {
		a.warn(assoc.Block.Line, fmt.Sprintf("function %s: %v; signature omitted", decl.Name, err))
	} else {
		fn.Signature = sel.Hex()
	}

	a.functions = append(a.functions, fn)
}

// checkScope reports agent tags written above the wrong kind of declaration.
func (a *assembler) checkScope(assoc Association, tags Tags) {
	for _, tag := range tags {
		if tag.Kind.isAgent() && tag.Kind.Scope() != assoc.Decl.Kind {
			a.warn(assoc.Block.Line, fmt.Sprintf("@custom:%s has no effect above %s %s",
				tag.Kind, assoc.Decl.Kind, assoc.Decl.Name))
		}
	}
}

// contractDescription prefers agent-description, then @dev, then @title.
func contractDescription(tags Tags) string {
	if d, ok := tags.Last(KindDescription); ok {
		return d
	}
	if d, ok := tags.First(KindDev); ok {
		return d
	}
	d, _ := tags.First(KindTitle)
	return d
}

// parseEvent splits "Name description..." at the first whitespace.
func parseEvent(v string) Event {
	i := strings.IndexFunc(v, unicode.IsSpace)
	if i < 0 {
		return Event{Name: v}
	}
	return Event{Name: v[:i], Description: strings.TrimSpace(v[i:])}
}

func hasAgentTags(tags Tags) bool {
	for _, tag := range tags {
		if tag.Kind.isAgent() {
			return true
		}
	}
	return false
}
