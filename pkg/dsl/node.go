package dsl

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/element"
	"github.com/aretw0/arbor/pkg/registry"
)

// NodeSpec is one node of a declarative document.
//
//	type: ul
//	props: {class: list}
//	children:
//	  - {type: li, key: a, children: [first]}
//	  - {type: Card, props: {title: hi}}
//	  - plain text
//
// A type starting with a lowercase letter is a host tag, anything else
// names a registered component. A node with only "text" is a text node.
type NodeSpec struct {
	Type     string         `json:"type,omitempty" yaml:"type,omitempty" mapstructure:"type"`
	Key      *string        `json:"key,omitempty" yaml:"key,omitempty" mapstructure:"key"`
	Ref      string         `json:"ref,omitempty" yaml:"ref,omitempty" mapstructure:"ref"`
	Props    map[string]any `json:"props,omitempty" yaml:"props,omitempty" mapstructure:"props"`
	Text     *string        `json:"text,omitempty" yaml:"text,omitempty" mapstructure:"text"`
	Children []any          `json:"children,omitempty" yaml:"children,omitempty" mapstructure:"children"`
}

// Format is the encoding of a document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFor picks a format from a file name or a content type.
// Unknown inputs default to YAML, which also accepts JSON.
func FormatFor(nameOrContentType string) Format {
	s := strings.ToLower(nameOrContentType)
	if strings.HasSuffix(s, ".json") || strings.Contains(s, "application/json") {
		return FormatJSON
	}
	return FormatYAML
}

// Parse decodes a document into its raw tree of maps, lists and scalars.
func Parse(data []byte, format Format) (any, error) {
	var raw any
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &raw)
	default:
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidDocument, err)
	}
	return raw, nil
}

// ParseFile is Parse with the format taken from the file extension.
func ParseFile(name string, data []byte) (any, error) {
	return Parse(data, FormatFor(filepath.Ext(name)))
}

// Load parses and resolves a document in one step.
func Load(data []byte, format Format, reg *registry.Registry) (any, error) {
	raw, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	return Resolve(raw, reg)
}

// Resolve turns a raw document tree into renderable descriptors:
// maps become elements, lists stay lists, scalars become text.
func Resolve(raw any, reg *registry.Registry) (any, error) {
	return resolve(raw, reg, "$")
}

func resolve(raw any, reg *registry.Registry, path string) (any, error) {
	switch v := raw.(type) {
	case nil, bool, string, int, int64, uint64, float64:
		return v, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			r, err := resolve(item, reg, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case map[string]any:
		spec, err := decodeSpec(v, path)
		if err != nil {
			return nil, err
		}
		return spec.resolve(reg, path)
	}
	return nil, fmt.Errorf("%w: %s: unsupported value %T", domain.ErrInvalidDocument, path, raw)
}

func decodeSpec(m map[string]any, path string) (NodeSpec, error) {
	var spec NodeSpec
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &spec,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return spec, err
	}
	if err := decoder.Decode(m); err != nil {
		return spec, fmt.Errorf("%w: %s: %w", domain.ErrInvalidDocument, path, err)
	}
	return spec, nil
}

func (s NodeSpec) resolve(reg *registry.Registry, path string) (any, error) {
	if s.Type == "" {
		if s.Text != nil {
			return *s.Text, nil
		}
		return nil, fmt.Errorf("%w: %s: node without type or text", domain.ErrInvalidDocument, path)
	}
	if s.Text != nil && len(s.Children) > 0 {
		return nil, fmt.Errorf("%w: %s: text and children are exclusive", domain.ErrInvalidDocument, path)
	}

	typ, err := s.elementType(reg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	config := make(map[string]any, len(s.Props)+3)
	for k, v := range s.Props {
		config[k] = v
	}
	if s.Key != nil {
		config["key"] = *s.Key
	}
	if s.Ref != "" {
		config["ref"] = s.Ref
	}

	switch {
	case s.Text != nil:
		config[element.ChildrenProp] = *s.Text
	case len(s.Children) == 1:
		child, err := resolve(s.Children[0], reg, path+".children[0]")
		if err != nil {
			return nil, err
		}
		config[element.ChildrenProp] = child
	case len(s.Children) > 1:
		children, err := resolve(s.Children, reg, path+".children")
		if err != nil {
			return nil, err
		}
		config[element.ChildrenProp] = children
	}
	return element.New(typ, config), nil
}

func (s NodeSpec) elementType(reg *registry.Registry) (element.Type, error) {
	if r, _ := utf8.DecodeRuneInString(s.Type); unicode.IsLower(r) {
		return element.Tag(s.Type), nil
	}
	if reg == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownComponent, s.Type)
	}
	return reg.Lookup(s.Type)
}
