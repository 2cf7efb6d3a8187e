// Package render turns a markdown note into the title, post parameters and
// HTML content published to WordPress.
package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const fmDelimiter = "---"

// StringList decodes either a YAML sequence or a comma separated scalar
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*l = nil
		for _, part := range strings.Split(value.Value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				*l = append(*l, part)
			}
		}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("line %d: expected a list or a comma separated string", value.Line)
	}
}

// FrontMatter holds the publishing keys of a note's YAML header
type FrontMatter struct {
	Title         string     `yaml:"title,omitempty"`
	Tags          StringList `yaml:"tags,omitempty"`
	Categories    []int      `yaml:"categories,omitempty"`
	PostID        string     `yaml:"postId,omitempty"`
	PostType      string     `yaml:"postType,omitempty"`
	Status        string     `yaml:"status,omitempty"`
	CommentStatus string     `yaml:"commentStatus,omitempty"`
	Date          string     `yaml:"date,omitempty"`
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Datetime parses Date. Dates without a zone are local time.
func (fm FrontMatter) Datetime() (*time.Time, error) {
	if fm.Date == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, fm.Date, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", fm.Date)
}

// Note is a parsed markdown note
type Note struct {
	FrontMatter FrontMatter
	Body        string
	// HasFrontMatter is false when the note starts without a YAML header
	HasFrontMatter bool
}

// ParseNote splits the YAML front matter from the body of src
func ParseNote(src []byte) (Note, error) {
	header, body, ok := splitFrontMatter(src)
	if !ok {
		return Note{Body: string(src)}, nil
	}

	var fm FrontMatter
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return Note{}, fmt.Errorf("failed to parse front matter: %w", err)
	}
	return Note{FrontMatter: fm, Body: string(body), HasFrontMatter: true}, nil
}

// splitFrontMatter returns the YAML between the leading "---" lines and the
// remaining body
func splitFrontMatter(src []byte) (header, body []byte, ok bool) {
	src = bytes.TrimPrefix(src, []byte("\ufeff"))
	first, rest, found := cutLine(src)
	if !found || strings.TrimSpace(string(first)) != fmDelimiter {
		return nil, src, false
	}

	offset := 0
	for offset < len(rest) {
		line, next := rest[offset:], len(rest)
		if end := bytes.IndexByte(rest[offset:], '\n'); end >= 0 {
			line, next = rest[offset:offset+end], offset+end+1
		}
		if strings.TrimSpace(string(line)) == fmDelimiter {
			return rest[:offset], rest[next:], true
		}
		offset = next
	}
	return nil, src, false
}

func cutLine(b []byte) (line, rest []byte, found bool) {
	line, rest, found = bytes.Cut(b, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r")), rest, found
}

// SetFrontMatter sets key to value in the front matter of src, keeping the
// other keys and their order. A note without front matter gets one.
func SetFrontMatter(src []byte, key string, value any) ([]byte, error) {
	header, body, ok := splitFrontMatter(src)
	if !ok {
		body = src
	}

	var doc yaml.Node
	if ok && len(bytes.TrimSpace(header)) > 0 {
		if err := yaml.Unmarshal(header, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse front matter: %w", err)
		}
	}
	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	mapping := doc.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("front matter is not a mapping")
	}

	var valueNode yaml.Node
	if err := valueNode.Encode(value); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", key, err)
	}

	replaced := false
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = &valueNode
			replaced = true
			break
		}
	}
	if !replaced {
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&valueNode,
		)
	}

	var buf bytes.Buffer
	buf.WriteString(fmDelimiter + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("failed to write front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteString(fmDelimiter + "\n")
	buf.Write(body)
	return buf.Bytes(), nil
}
