// Package configdoc provides typed field access over YAML job configuration
// documents while preserving key order and comments across re-serialization.
package configdoc

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document wraps a parsed YAML configuration tree.
type Document struct {
	root yaml.Node
}

// Parse decodes a YAML document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc.root); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if doc.root.Kind != yaml.DocumentNode || len(doc.root.Content) == 0 {
		return nil, fmt.Errorf("document is empty")
	}
	if doc.root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("document root is not a mapping")
	}
	return &doc, nil
}

// Encode renders the document deterministically: 2-space indent, key order
// preserved. Encoding the same tree always yields the same bytes, which is
// what makes resolver rewrites idempotent.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&d.root); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// Has reports whether a dotted path exists.
func (d *Document) Has(path string) bool {
	return d.find(path) != nil
}

// Lookup returns the scalar value at a dotted path.
func (d *Document) Lookup(path string) (string, bool) {
	node := d.find(path)
	if node == nil || node.Kind != yaml.ScalarNode {
		return "", false
	}
	return node.Value, true
}

// SetString replaces the scalar value at a dotted path. It returns false if
// the path does not exist or does not point at a scalar.
func (d *Document) SetString(path, value string) bool {
	node := d.find(path)
	if node == nil || node.Kind != yaml.ScalarNode {
		return false
	}
	node.Value = value
	node.Tag = "!!str"
	return true
}

// find walks the mapping tree along a dotted path.
func (d *Document) find(path string) *yaml.Node {
	node := d.root.Content[0]
	for _, part := range strings.Split(path, ".") {
		if node.Kind != yaml.MappingNode {
			return nil
		}
		var next *yaml.Node
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == part {
				next = node.Content[i+1]
				break
			}
		}
		if next == nil {
			return nil
		}
		node = next
	}
	return node
}
