package generator

import (
	"regexp"
	"strings"
)

// TagKind identifies a recognised NatSpec tag.
type TagKind string

// Contract scope.
const (
	KindVersion     TagKind = "agent-version"
	KindDescription TagKind = "agent-description"
	KindInvariant   TagKind = "agent-invariant"
	KindEvent       TagKind = "agent-event"
)

// Function scope.
const (
	KindIntent       TagKind = "agent-intent"
	KindPrecondition TagKind = "agent-precondition"
	KindEffect       TagKind = "agent-effect"
	KindRisk         TagKind = "agent-risk"
	KindGuidance     TagKind = "agent-guidance"
)

// Standard NatSpec tags used as the contract description fallback.
const (
	KindDev   TagKind = "dev"
	KindTitle TagKind = "title"
)

var knownKinds = map[TagKind]DeclKind{
	KindVersion:      DeclContract,
	KindDescription:  DeclContract,
	KindInvariant:    DeclContract,
	KindEvent:        DeclContract,
	KindIntent:       DeclFunction,
	KindPrecondition: DeclFunction,
	KindEffect:       DeclFunction,
	KindRisk:         DeclFunction,
	KindGuidance:     DeclFunction,
	KindDev:          DeclContract,
	KindTitle:        DeclContract,
}

// Repeatable reports whether every occurrence of the kind is kept. For the
// other kinds the last occurrence in a block wins.
func (k TagKind) Repeatable() bool {
	switch k {
	case KindPrecondition, KindEffect, KindRisk, KindInvariant, KindEvent:
		return true
	}
	return false
}

// Scope returns the declaration kind the tag applies to.
func (k TagKind) Scope() DeclKind {
	return knownKinds[k]
}

func (k TagKind) isAgent() bool {
	return strings.HasPrefix(string(k), "agent-")
}

// Tag is one parsed (kind, value) pair.
type Tag struct {
	Kind  TagKind
	Value string
}

// Tags is an ordered tag list as encountered in a block.
type Tags []Tag

// Last returns the value of the last tag of the given kind.
func (t Tags) Last(kind TagKind) (string, bool) {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Kind == kind {
			return t[i].Value, true
		}
	}
	return "", false
}

// First returns the value of the first tag of the given kind.
func (t Tags) First(kind TagKind) (string, bool) {
	for _, tag := range t {
		if tag.Kind == kind {
			return tag.Value, true
		}
	}
	return "", false
}

// All returns every value of the given kind in encounter order, duplicates
// included. It returns nil when there are none.
func (t Tags) All(kind TagKind) []string {
	var out []string
	for _, tag := range t {
		if tag.Kind == kind {
			out = append(out, tag.Value)
		}
	}
	return out
}

// ParseMode selects how tag values are delimited.
type ParseMode int

const (
	// WrapMode continues a tag value over following lines until the next
	// @ tag or the end of the block.
	WrapMode ParseMode = iota
	// LineMode takes the remainder of the tag line only.
	LineMode
)

func (m ParseMode) String() string {
	if m == LineMode {
		return "line"
	}
	return "wrap"
}

// ParseModeFromString maps "line" and "wrap" to a mode; anything else is
// WrapMode.
func ParseModeFromString(s string) ParseMode {
	if strings.EqualFold(strings.TrimSpace(s), "line") {
		return LineMode
	}
	return WrapMode
}

var (
	customTagRegex  = regexp.MustCompile(`^@custom:([\w-]+)(?:\s+(.*))?$`)
	natspecTagRegex = regexp.MustCompile(`^@(dev|title)(?:\s+(.*))?$`)
)

// ParseTags extracts the recognised tags of one comment block in order.
// Unknown @custom kinds and other NatSpec tags are skipped but still end a
// wrapped value.
func ParseTags(block string, mode ParseMode) Tags {
	var tags Tags
	open := -1
	for _, line := range normalizeBlockLines(block) {
		if strings.HasPrefix(line, "@") {
			open = -1
			kind, value, ok := matchTagLine(line)
			if !ok || (value == "" && mode == LineMode) {
				continue
			}
			tags = append(tags, Tag{Kind: kind, Value: value})
			open = len(tags) - 1
			continue
		}
		if mode != WrapMode || open < 0 {
			continue
		}
		if tags[open].Value == "" {
			tags[open].Value = line
		} else {
			tags[open].Value += " " + line
		}
	}

	out := tags[:0]
	for _, tag := range tags {
		if tag.Value != "" {
			out = append(out, tag)
		}
	}
	return out
}

func matchTagLine(line string) (TagKind, string, bool) {
	if m := customTagRegex.FindStringSubmatch(line); m != nil {
		kind := TagKind(m[1])
		if _, known := knownKinds[kind]; !known || !kind.isAgent() {
			return "", "", false
		}
		return kind, strings.TrimSpace(m[2]), true
	}
	if m := natspecTagRegex.FindStringSubmatch(line); m != nil {
		return TagKind(m[1]), strings.TrimSpace(m[2]), true
	}
	return "", "", false
}

// normalizeBlockLines strips comment leaders (`*`, `/`) and surrounding
// whitespace from each line and drops blank lines.
func normalizeBlockLines(block string) []string {
	var lines []string
	for _, raw := range strings.Split(block, "\n") {
		line := strings.TrimSpace(raw)
		line = strings.TrimSuffix(line, "*/")
		line = strings.TrimLeft(line, "/*")
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
