package domain

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyFlow is returned when a flow document has no root mapping.
var ErrEmptyFlow = errors.New("flow document is empty or not a mapping")

// FlowDocument is a decoded integration flow document.
//
// The document is held as a yaml.v3 node tree so that mapping order survives
// decoding: trigger iteration, id property lookup and path insertion order all
// follow the order in which keys appear in the source.
type FlowDocument struct {
	root *yaml.Node
}

// Entry is a single key/value pair of a mapping node.
type Entry struct {
	Key   string
	Value *yaml.Node
}

// ParseFlow decodes YAML or JSON text into a flow document.
func ParseFlow(data []byte) (*FlowDocument, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to decode flow document: %w", err)
	}

	return NewFlowDocument(&node)
}

// NewFlowDocument wraps an already decoded node tree. Both document nodes and
// bare mapping nodes are accepted.
func NewFlowDocument(node *yaml.Node) (*FlowDocument, error) {
	if node != nil && node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, ErrEmptyFlow
		}
		node = node.Content[0]
	}

	node = Resolve(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil, ErrEmptyFlow
	}

	return &FlowDocument{root: node}, nil
}

// FlowFromValue encodes an arbitrary Go value (maps, slices, structs) into a
// flow document.
func FlowFromValue(v any) (*FlowDocument, error) {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode flow document: %w", err)
	}

	return NewFlowDocument(&node)
}

// Root returns the root mapping node.
func (d *FlowDocument) Root() *yaml.Node {
	return d.root
}

// Lookup walks mapping keys from the root and returns the node found, or nil.
func (d *FlowDocument) Lookup(path ...string) *yaml.Node {
	return LookupPath(d.root, path...)
}

// Name returns integration.name.
func (d *FlowDocument) Name() string {
	return ScalarString(d.Lookup("integration", "name"))
}

// NormalizeName replaces spaces in integration.name with underscores. The
// tree is modified in place, so every holder of this document sees the new
// name. Callers sharing a tree should Clone first.
func (d *FlowDocument) NormalizeName() {
	name := d.Lookup("integration", "name")
	if name == nil || name.Kind != yaml.ScalarNode {
		return
	}

	name.Value = strings.ReplaceAll(name.Value, " ", "_")
}

// Clone returns a deep copy of the document.
func (d *FlowDocument) Clone() (*FlowDocument, error) {
	data, err := d.Encode()
	if err != nil {
		return nil, err
	}

	return ParseFlow(data)
}

// Encode re-serializes the document as YAML.
func (d *FlowDocument) Encode() ([]byte, error) {
	var buf bytes.Buffer

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(d.root); err != nil {
		return nil, fmt.Errorf("failed to encode flow document: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode flow document: %w", err)
	}

	return buf.Bytes(), nil
}

// Resolve follows alias nodes to their anchors.
func Resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}

	return n
}

// MappingValue returns the value stored under key in a mapping node.
func MappingValue(n *yaml.Node, key string) *yaml.Node {
	n = Resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return Resolve(n.Content[i+1])
		}
	}

	return nil
}

// LookupPath walks a chain of mapping keys starting at n.
func LookupPath(n *yaml.Node, path ...string) *yaml.Node {
	current := Resolve(n)
	for _, key := range path {
		current = MappingValue(current, key)
		if current == nil {
			return nil
		}
	}

	return current
}

// Entries returns the key/value pairs of a mapping node in document order.
func Entries(n *yaml.Node) []Entry {
	n = Resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}

	entries := make([]Entry, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		entries = append(entries, Entry{Key: n.Content[i].Value, Value: Resolve(n.Content[i+1])})
	}

	return entries
}

// MappingKeys returns the keys of a mapping node in document order.
func MappingKeys(n *yaml.Node) []string {
	entries := Entries(n)
	keys := make([]string, 0, len(entries))

	for _, e := range entries {
		keys = append(keys, e.Key)
	}

	return keys
}

// Items returns the elements of a sequence node.
func Items(n *yaml.Node) []*yaml.Node {
	n = Resolve(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}

	items := make([]*yaml.Node, 0, len(n.Content))
	for _, item := range n.Content {
		items = append(items, Resolve(item))
	}

	return items
}

// ScalarString returns the value of a scalar node, or "" for anything else.
func ScalarString(n *yaml.Node) string {
	n = Resolve(n)
	if n == nil || n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		return ""
	}

	return n.Value
}

// ScalarStrings returns the scalar values of a sequence node.
func ScalarStrings(n *yaml.Node) []string {
	var out []string

	for _, item := range Items(n) {
		if item.Kind == yaml.ScalarNode {
			out = append(out, item.Value)
		}
	}

	return out
}

// Truthy reports whether a node holds a "set" value: true, a non-zero number,
// a non-empty string or any collection.
func Truthy(n *yaml.Node) bool {
	n = Resolve(n)
	if n == nil {
		return false
	}

	if n.Kind != yaml.ScalarNode {
		return true
	}

	switch n.ShortTag() {
	case "!!null":
		return false
	case "!!bool":
		var b bool
		return n.Decode(&b) == nil && b
	case "!!int", "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		return err == nil && f != 0
	default:
		return n.Value != ""
	}
}
