package rdfa

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/html-page/pkg/pageerr"
)

// DecodeYAML builds data from a YAML mapping, keeping the mapping's key order.
//
//	dc:title: Lorem ipsum
//	dc:subject: [foo, bar]          # several statements
//	dc:source:                      # node reference
//	  uri: https://example.com/src
//	  rdfa:
//	    dc:language: de
func DecodeYAML(reg *Registry, node *yaml.Node) (*Data, error) {
	if node == nil {
		return reg.NewData(), nil
	}
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil, pageerr.InvalidInput("rdfa data must be a mapping", "line", node.Line)
	}

	d := reg.NewData()
	for i := 0; i+1 < len(node.Content); i += 2 {
		curie := node.Content[i].Value
		valueNode := node.Content[i+1]

		values := []*yaml.Node{valueNode}
		if valueNode.Kind == yaml.SequenceNode {
			values = valueNode.Content
		}

		for _, v := range values {
			obj, err := decodeObject(reg, v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", curie, err)
			}
			stmt, err := reg.StatementFromCurie(curie, obj)
			if err != nil {
				return nil, err
			}
			d.Add(stmt)
		}
	}
	return d, nil
}

func decodeObject(reg *Registry, v *yaml.Node) (Object, error) {
	switch v.Kind {
	case yaml.ScalarNode:
		if v.ShortTag() == "!!null" {
			return nil, pageerr.InvalidInput("property without value", "line", v.Line)
		}
		var value any
		if err := v.Decode(&value); err != nil {
			return nil, pageerr.InvalidInput("unreadable value", "line", v.Line, "error", err)
		}
		return Literal{Value: value}, nil

	case yaml.MappingNode:
		var uri string
		var nested *yaml.Node
		for i := 0; i+1 < len(v.Content); i += 2 {
			switch v.Content[i].Value {
			case "uri":
				uri = v.Content[i+1].Value
			case "rdfa":
				nested = v.Content[i+1]
			default:
				return nil, pageerr.InvalidInput("unknown node field", "field", v.Content[i].Value, "line", v.Content[i].Line)
			}
		}
		if uri == "" {
			return nil, pageerr.InvalidInput("node without uri", "line", v.Line)
		}
		n := NewNode(uri)
		if nested != nil {
			data, err := DecodeYAML(reg, nested)
			if err != nil {
				return nil, err
			}
			n.Data = data
		}
		return n, nil
	}

	return nil, pageerr.InvalidInput("unsupported value", "line", v.Line)
}

// YAMLNode encodes d as a YAML mapping in key order, the inverse of DecodeYAML.
// A meta:charset derived from dc:format is left out.
func (d *Data) YAMLNode() *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode}
	csKey, _ := d.charsetKey()
	for _, key := range d.Keys() {
		if key == csKey && d.charsetDerived {
			continue
		}
		stmts := d.Get(key)

		var value *yaml.Node
		if len(stmts) == 1 {
			value = objectNode(stmts[0].Object)
		} else {
			value = &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
			for _, s := range stmts {
				value.Content = append(value.Content, objectNode(s.Object))
			}
		}

		m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, value)
	}
	return m
}

func objectNode(o Object) *yaml.Node {
	if n, ok := o.(*Node); ok {
		m := &yaml.Node{Kind: yaml.MappingNode}
		m.Content = append(m.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "uri"},
			&yaml.Node{Kind: yaml.ScalarNode, Value: n.URI})
		if n.Data.Len() > 0 {
			m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: "rdfa"}, n.Data.YAMLNode())
		}
		return m
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Value: o.String()}
}
