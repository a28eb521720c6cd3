package program

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"ngtsc-go/packages/compiler/src/render3/view"
)

// Template is a component template written as a YAML node tree. Each node is either a text
// scalar or a mapping with `tag`, `attrs` and `children`; attrs keep the order they are
// written in:
//
//	- tag: li
//	  attrs:
//	    "*ngFor": let item of items
//	  children:
//	    - "{{item | uppercase}}"
type Template []*view.NodeSource

func (t *Template) UnmarshalYAML(value *yaml.Node) error {
	nodes, err := decodeNodes(value)
	if err != nil {
		return err
	}
	*t = nodes
	return nil
}

func decodeNodes(value *yaml.Node) ([]*view.NodeSource, error) {
	if value.Kind != yaml.SequenceNode {
		return nil, nodeError(value, "expected a list of template nodes")
	}
	nodes := make([]*view.NodeSource, 0, len(value.Content))
	for _, item := range value.Content {
		node, err := decodeNode(item)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func decodeNode(value *yaml.Node) (*view.NodeSource, error) {
	switch value.Kind {
	case yaml.ScalarNode:
		return &view.NodeSource{Text: value.Value, Line: value.Line}, nil
	case yaml.MappingNode:
	default:
		return nil, nodeError(value, "expected a text or an element")
	}

	node := &view.NodeSource{Line: value.Line}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		switch key.Value {
		case "tag":
			node.Tag = val.Value
		case "text":
			node.Text = val.Value
		case "attrs":
			if val.Kind != yaml.MappingNode {
				return nil, nodeError(val, "attrs must be a mapping")
			}
			for j := 0; j+1 < len(val.Content); j += 2 {
				node.Attrs = append(node.Attrs, view.Attribute{Name: val.Content[j].Value, Value: val.Content[j+1].Value})
			}
		case "children":
			children, err := decodeNodes(val)
			if err != nil {
				return nil, err
			}
			node.Children = children
		default:
			return nil, nodeError(key, fmt.Sprintf("unknown template node field %q", key.Value))
		}
	}
	if node.Tag == "" && node.Text == "" {
		return nil, nodeError(value, "template node needs a tag or a text")
	}
	return node, nil
}

func nodeError(value *yaml.Node, msg string) error {
	return fmt.Errorf("line %d: %s", value.Line, msg)
}
