// Package gate rejects flow documents that use actions or connectors the
// deployment target cannot run.
package gate

import (
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/GabrielNunesIT/bargen/internal/domain"
)

const (
	executeKey       = "execute"
	connectorTypeKey = "connector-type"
)

// Denylist maps raw action or connector keys to the labels shown to users.
// Entries are checked in insertion order.
type Denylist struct {
	entries *domain.OrderedMap[string]
}

// NewDenylist builds a denylist from a plain map. Keys are ordered
// alphabetically since map order is not stable.
func NewDenylist(actions map[string]string) *Denylist {
	keys := make([]string, 0, len(actions))
	for key := range actions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	d := &Denylist{entries: domain.NewOrderedMap[string]()}
	for _, key := range keys {
		d.Add(key, actions[key])
	}

	return d
}

// Add appends an entry.
func (d *Denylist) Add(key, label string) *Denylist {
	if d.entries == nil {
		d.entries = domain.NewOrderedMap[string]()
	}

	d.entries.Set(key, label)

	return d
}

// Len returns the number of entries.
func (d *Denylist) Len() int {
	if d == nil {
		return 0
	}

	return d.entries.Len()
}

// Check returns an unsupported-actions BuildError listing the label of every
// denied key found under an execute block and every denied connector-type.
// A key found in both places is reported twice.
func Check(flow *domain.FlowDocument, denylist *Denylist) error {
	if denylist.Len() == 0 {
		return nil
	}

	actions, connectors := collect(flow.Root())

	var found []string

	for _, key := range denylist.entries.Keys() {
		label, _ := denylist.entries.Get(key)

		if slices.Contains(actions, key) {
			found = append(found, label)
		}

		if slices.Contains(connectors, key) {
			found = append(found, label)
		}
	}

	if len(found) == 0 {
		return nil
	}

	return domain.NewUnsupportedActionsError(found)
}

// collect walks the whole tree and returns the keys nested one level under
// any execute key and the values of any connector-type key.
func collect(root *yaml.Node) (actions, connectors []string) {
	var walk func(n *yaml.Node)

	walk = func(n *yaml.Node) {
		n = domain.Resolve(n)
		if n == nil {
			return
		}

		switch n.Kind {
		case yaml.MappingNode:
			for _, e := range domain.Entries(n) {
				switch e.Key {
				case executeKey:
					actions = append(actions, executeKeys(e.Value)...)
				case connectorTypeKey:
					connectors = append(connectors, scalarValues(e.Value)...)
				}

				walk(e.Value)
			}
		case yaml.SequenceNode, yaml.DocumentNode:
			for _, child := range n.Content {
				walk(child)
			}
		}
	}

	walk(root)

	return actions, connectors
}

// executeKeys returns the keys of an execute block. Execute blocks are either
// a mapping or a sequence of single-key mappings.
func executeKeys(n *yaml.Node) []string {
	if n.Kind == yaml.SequenceNode {
		var keys []string
		for _, item := range domain.Items(n) {
			keys = append(keys, domain.MappingKeys(item)...)
		}

		return keys
	}

	return domain.MappingKeys(n)
}

func scalarValues(n *yaml.Node) []string {
	if n.Kind == yaml.SequenceNode {
		return domain.ScalarStrings(n)
	}

	if v := domain.ScalarString(n); v != "" {
		return []string{v}
	}

	return nil
}
