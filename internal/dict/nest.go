package dict

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Flatten reads a YAML document of nested groups into a mapping. Nested
// mappings join their keys with "/", sequences become entry lists and a
// lone scalar becomes a single entry. Document order is kept.
func Flatten(doc *yaml.Node) (*Mapping, error) {
	m := NewMapping()
	if err := FlattenInto(m, doc); err != nil {
		return nil, err
	}
	return m, nil
}

// FlattenInto is like Flatten but merges into an existing mapping.
func FlattenInto(m *Mapping, doc *yaml.Node) error {
	n := doc
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil
		}
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: top level must be a mapping", n.Line)
	}
	return flatten(m, "", n)
}

func flatten(m *Mapping, prefix string, n *yaml.Node) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := Join(prefix, n.Content[i].Value)
		v := n.Content[i+1]
		if v.Kind == yaml.AliasNode {
			v = v.Alias
		}
		switch v.Kind {
		case yaml.MappingNode:
			if err := flatten(m, key, v); err != nil {
				return err
			}
		case yaml.SequenceNode:
			entries := make([]string, 0, len(v.Content))
			for _, item := range v.Content {
				if item.Kind == yaml.AliasNode {
					item = item.Alias
				}
				if item.Kind != yaml.ScalarNode {
					return fmt.Errorf("line %d: %s: entries must be scalars", item.Line, key)
				}
				if item.ShortTag() == "!!null" {
					entries = append(entries, "")
					continue
				}
				entries = append(entries, item.Value)
			}
			m.Set(key, entries)
		case yaml.ScalarNode:
			if v.ShortTag() == "!!null" {
				continue
			}
			m.Set(key, []string{v.Value})
		}
	}
	return nil
}

// Nest builds a YAML document from m. Keys under root are nested into
// mappings by path segment; all other keys are written flat. A key that
// cannot be nested because a sibling already uses its path as a slot or a
// group is written flat as well, so Flatten restores every key.
//
// The nested root block sits where the first root key was, so root keys
// interleaved with other keys come back grouped together. When root itself
// is a slot, every key is written flat.
func Nest(m *Mapping, root string) *yaml.Node {
	top := &yaml.Node{Kind: yaml.MappingNode}
	var rootNode *yaml.Node
	nest := !m.Has(root)

	for key, entries := range m.All() {
		if nest && InGroup(key, root) {
			if rootNode == nil {
				rootNode = &yaml.Node{Kind: yaml.MappingNode}
				top.Content = append(top.Content, scalar(root), rootNode)
			}
			if placeNested(rootNode, strings.Split(ShortName(key, root), Sep), entries) {
				continue
			}
		}
		top.Content = append(top.Content, scalar(key), sequence(entries))
	}
	return &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{top}}
}

func placeNested(n *yaml.Node, path []string, entries []string) bool {
	for len(path) > 1 {
		child := lookup(n, path[0])
		if child == nil {
			child = &yaml.Node{Kind: yaml.MappingNode}
			n.Content = append(n.Content, scalar(path[0]), child)
		}
		if child.Kind != yaml.MappingNode {
			return false
		}
		n, path = child, path[1:]
	}
	if lookup(n, path[0]) != nil {
		return false
	}
	n.Content = append(n.Content, scalar(path[0]), sequence(entries))
	return true
}

func lookup(n *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func sequence(entries []string) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, e := range entries {
		seq.Content = append(seq.Content, scalar(e))
	}
	return seq
}
