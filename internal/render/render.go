// Package render encodes IntentSpec documents for files, terminals and HTTP
// responses.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/example/intentspec/internal/generator"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat accepts json, yaml|yml, markdown|md and html.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", errors.Errorf("unsupported format: %s (use json, yaml, markdown or html)", s)
}

// Ext is the file extension written for the format.
func (f Format) Ext() string {
	switch f {
	case FormatYAML:
		return ".yaml"
	case FormatMarkdown:
		return ".md"
	case FormatHTML:
		return ".html"
	default:
		return ".json"
	}
}

// ContentType is the HTTP media type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "application/json"
	}
}

// Write encodes spec to w.
func Write(w io.Writer, spec *generator.IntentSpec, f Format) error {
	switch f {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(spec); err != nil {
			return errors.Errorf("encode json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(spec); err != nil {
			return errors.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return errors.Errorf("encode yaml: %w", err)
		}
	case FormatMarkdown:
		if _, err := w.Write(Markdown(spec)); err != nil {
			return errors.WithStack(err)
		}
	case FormatHTML:
		out, err := HTML(spec)
		if err != nil {
			return err
		}
		if _, err := w.Write(out); err != nil {
			return errors.WithStack(err)
		}
	default:
		return errors.Errorf("unsupported format: %s", f)
	}
	return nil
}

// Marshal returns the encoded document.
func Marshal(spec *generator.IntentSpec, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, spec, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Markdown renders a human-readable summary of the document.
func Markdown(spec *generator.IntentSpec) []byte {
	var b strings.Builder
	c := spec.Contract

	fmt.Fprintf(&b, "# %s\n\n", c.Name)
	if c.Version != "" {
		fmt.Fprintf(&b, "Version: `%s`\n\n", c.Version)
	}
	if c.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", c.Description)
	}

	b.WriteString("## Functions\n\n")
	for _, fn := range spec.Functions {
		fmt.Fprintf(&b, "### %s\n\n", fn.Name)
		if fn.Signature != "" {
			fmt.Fprintf(&b, "Selector: `%s`\n\n", fn.Signature)
		}
		fmt.Fprintf(&b, "%s\n\n", fn.Intent)
		writeList(&b, "Preconditions", fn.Preconditions)
		writeList(&b, "Effects", fn.Effects)
		writeList(&b, "Risks", fn.Risks)
		if fn.AgentGuidance != "" {
			fmt.Fprintf(&b, "**Agent guidance:** %s\n\n", fn.AgentGuidance)
		}
	}

	if len(spec.Events) > 0 {
		b.WriteString("## Events\n\n| Event | Description |\n| --- | --- |\n")
		for _, ev := range spec.Events {
			fmt.Fprintf(&b, "| %s | %s |\n", tableCell(ev.Name), tableCell(ev.Description))
		}
		b.WriteString("\n")
	}

	if len(spec.Invariants) > 0 {
		writeList(&b, "Invariants", spec.Invariants)
	}

	return []byte(strings.TrimRight(b.String(), "\n") + "\n")
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s**\n\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func tableCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// HTML renders the Markdown summary as a standalone HTML page.
func HTML(spec *generator.IntentSpec) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var body bytes.Buffer
	if err := md.Convert(Markdown(spec), &body); err != nil {
		return nil, errors.Errorf("render html: %w", err)
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s intent spec</title>\n</head>\n<body>\n",
		html.EscapeString(spec.Contract.Name))
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}
