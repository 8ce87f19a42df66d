// Package models defines data structures for configuration and imported metadata.
package models

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/html-page/pkg/element"
	"github.com/dtnitsch/html-page/pkg/pageerr"
	"github.com/dtnitsch/html-page/pkg/rdfa"
	"github.com/dtnitsch/html-page/pkg/resource"
)

// RenderConfig holds runtime configuration for render operations.
// All values come from CLI flags, not external config files.
type RenderConfig struct {
	Configs     []string
	WorkerCount int
}

// HtdocsConfig maps resource paths to URLs.
type HtdocsConfig struct {
	Dir string `yaml:"dir"`
	URL string `yaml:"url"`
	// PreferCompressed defaults to true.
	PreferCompressed *bool `yaml:"prefer_compressed"`
	DisableModTime   bool  `yaml:"disable_mod_time"`
}

// ElementConfig is a literal head element.
type ElementConfig struct {
	Tag   string
	Attrs element.Attrs
	Text  string
}

// ResourceItem is one entry of the `resources` list. It is written as
//
//	- css/site.css                       # path
//	- [manifest.json, manifest]          # path and rel
//	- [app.mjs, {defer: defer}]          # path and attributes
//	- {path: x.json, rel: alternate, attrs: {title: Data}}
//	- {element: {tag: style, text: "p { margin: 0 }"}}
type ResourceItem struct {
	Path    string
	Rel     string
	Attrs   element.Attrs
	Element *ElementConfig
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *ResourceItem) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		r.Path = node.Value
		return nil

	case yaml.SequenceNode:
		if len(node.Content) != 2 {
			return pageerr.InvalidInput("resource sequence must have two items", "line", node.Line)
		}
		r.Path = node.Content[0].Value
		second := node.Content[1]
		switch second.Kind {
		case yaml.ScalarNode:
			r.Rel = second.Value
			return nil
		case yaml.MappingNode:
			attrs, err := decodeAttrs(second)
			r.Attrs = attrs
			return err
		}
		return pageerr.InvalidInput("second resource item must be a rel or a mapping", "line", second.Line)

	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			var err error
			switch key.Value {
			case "path":
				r.Path = value.Value
			case "rel":
				r.Rel = value.Value
			case "attrs":
				r.Attrs, err = decodeAttrs(value)
			case "element":
				r.Element, err = decodeElement(value)
			default:
				err = pageerr.InvalidInput("unknown resource field", "field", key.Value, "line", key.Line)
			}
			if err != nil {
				return err
			}
		}
		if (r.Path == "") == (r.Element == nil) {
			return pageerr.InvalidInput("resource needs exactly one of path and element", "line", node.Line)
		}
		return nil
	}

	return pageerr.InvalidInput("unsupported resource item", "line", node.Line)
}

func decodeElement(node *yaml.Node) (*ElementConfig, error) {
	if node.Kind != yaml.MappingNode {
		return nil, pageerr.InvalidInput("element must be a mapping", "line", node.Line)
	}
	e := &ElementConfig{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "tag":
			e.Tag = value.Value
		case "text":
			e.Text = value.Value
		case "attrs":
			attrs, err := decodeAttrs(value)
			if err != nil {
				return nil, err
			}
			e.Attrs = attrs
		default:
			return nil, pageerr.InvalidInput("unknown element field", "field", key.Value, "line", key.Line)
		}
	}
	if e.Tag == "" {
		return nil, pageerr.InvalidInput("element without tag", "line", node.Line)
	}
	return e, nil
}

// decodeAttrs keeps the order of the mapping.
func decodeAttrs(node *yaml.Node) (element.Attrs, error) {
	if node.Kind != yaml.MappingNode {
		return nil, pageerr.InvalidInput("attributes must be a mapping", "line", node.Line)
	}
	var attrs element.Attrs
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return nil, pageerr.InvalidInput("attribute value must be a scalar", "attr", key.Value, "line", value.Line)
		}
		attrs.Set(key.Value, value.Value)
	}
	return attrs, nil
}

// Descriptor converts the item for resource.Classifier.
func (r ResourceItem) Descriptor() resource.Descriptor {
	if r.Element != nil {
		var children []element.Node
		if r.Element.Text != "" {
			children = append(children, element.Text(r.Element.Text))
		}
		return resource.Prebuilt(element.NewGeneric(r.Element.Tag, r.Element.Attrs, children...))
	}
	return resource.Descriptor{Path: r.Path, Rel: r.Rel, Attrs: r.Attrs}
}

// Attributes is a YAML mapping of attributes in document order.
type Attributes struct {
	element.Attrs
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Attributes) UnmarshalYAML(node *yaml.Node) error {
	attrs, err := decodeAttrs(node)
	a.Attrs = attrs
	return err
}

// PageConfig describes one page to render.
type PageConfig struct {
	// Prefixes registers additional vocabularies, prefix to namespace name.
	Prefixes  map[string]string `yaml:"prefixes"`
	RDFa      yaml.Node         `yaml:"rdfa"`
	Resources []ResourceItem    `yaml:"resources"`
	Htdocs    HtdocsConfig      `yaml:"htdocs"`
	HTMLAttrs Attributes        `yaml:"html_attrs"`
	BodyAttrs Attributes        `yaml:"body_attrs"`
	// Body is inline body markup, BodyFile a file holding it.
	Body     string `yaml:"body"`
	BodyFile string `yaml:"body_file"`
	Output   string `yaml:"output"`
	Status   int    `yaml:"status"`
	// Languages restricts language detection to these ISO 639-1 codes.
	Languages []string `yaml:"languages"`

	// Path is the first file the config was loaded from.
	Path string `yaml:"-"`
	// Data is the decoded rdfa mapping of all files.
	Data     *rdfa.Data     `yaml:"-"`
	Registry *rdfa.Registry `yaml:"-"`
}

// LoadConfig reads page configs and merges them in order. Later files
// override scalar settings and metadata keys, resources are appended.
// Relative paths are resolved against the directory of the file they
// appear in.
func LoadConfig(paths ...string) (*PageConfig, error) {
	if len(paths) == 0 {
		return nil, pageerr.InvalidInput("no config file given")
	}

	var files []*PageConfig
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, pageerr.ResourceNotFound(path)
			}
			return nil, fmt.Errorf("failed to open config %s: %w", path, err)
		}
		cfg, err := decodeConfig(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		cfg.Path = path
		cfg.resolvePaths(filepath.Dir(path))
		files = append(files, cfg)
	}

	reg := rdfa.Default()
	for _, cfg := range files {
		for prefix, ns := range cfg.Prefixes {
			reg.Register(prefix, ns)
		}
	}

	merged := &PageConfig{Path: paths[0], Registry: reg, Data: reg.NewData()}
	for _, cfg := range files {
		data, err := cfg.decodeRDFa(reg)
		if err != nil {
			return nil, fmt.Errorf("rdfa of %s: %w", cfg.Path, err)
		}
		merged.Data = merged.Data.Replace(data)
		merged.merge(cfg)
	}

	if merged.Htdocs.Dir == "" {
		merged.Htdocs.Dir = filepath.Dir(paths[0])
	}
	return merged, nil
}

// ParseConfig reads a single config from r. Relative paths are kept.
func ParseConfig(r io.Reader) (*PageConfig, error) {
	cfg, err := decodeConfig(r)
	if err != nil {
		return nil, err
	}
	cfg.Registry = rdfa.Default()
	for prefix, ns := range cfg.Prefixes {
		cfg.Registry.Register(prefix, ns)
	}
	if cfg.Data, err = cfg.decodeRDFa(cfg.Registry); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *PageConfig) decodeRDFa(reg *rdfa.Registry) (*rdfa.Data, error) {
	if c.RDFa.Kind == 0 {
		return reg.NewData(), nil
	}
	return rdfa.DecodeYAML(reg, &c.RDFa)
}

func decodeConfig(r io.Reader) (*PageConfig, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	cfg := &PageConfig{}
	if len(bytes.TrimSpace(content)) == 0 {
		return cfg, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, pageerr.InvalidInput("invalid page config", "error", err)
	}
	return cfg, nil
}

func (c *PageConfig) resolvePaths(dir string) {
	abs := func(p string) string {
		if p == "" || p == "-" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.Htdocs.Dir = abs(c.Htdocs.Dir)
	c.BodyFile = abs(c.BodyFile)
	c.Output = abs(c.Output)
}

func (c *PageConfig) merge(o *PageConfig) {
	c.Resources = append(c.Resources, o.Resources...)
	c.HTMLAttrs.Attrs = c.HTMLAttrs.Merge(o.HTMLAttrs.Attrs)
	c.BodyAttrs.Attrs = c.BodyAttrs.Merge(o.BodyAttrs.Attrs)

	if o.Htdocs.Dir != "" {
		c.Htdocs.Dir = o.Htdocs.Dir
	}
	if o.Htdocs.URL != "" {
		c.Htdocs.URL = o.Htdocs.URL
	}
	if o.Htdocs.PreferCompressed != nil {
		c.Htdocs.PreferCompressed = o.Htdocs.PreferCompressed
	}
	c.Htdocs.DisableModTime = c.Htdocs.DisableModTime || o.Htdocs.DisableModTime

	if o.Body != "" || o.BodyFile != "" {
		c.Body, c.BodyFile = o.Body, o.BodyFile
	}
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.Status != 0 {
		c.Status = o.Status
	}
	if len(o.Languages) > 0 {
		c.Languages = o.Languages
	}
}

// Descriptors returns the resources for resource.Classifier.
func (c *PageConfig) Descriptors() []resource.Descriptor {
	out := make([]resource.Descriptor, len(c.Resources))
	for i, r := range c.Resources {
		out[i] = r.Descriptor()
	}
	return out
}

// BodyContent returns the body markup, reading BodyFile if set.
func (c *PageConfig) BodyContent() ([]byte, error) {
	if c.BodyFile == "" {
		return []byte(c.Body), nil
	}
	content, err := os.ReadFile(c.BodyFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, pageerr.ResourceNotFound(c.BodyFile)
		}
		return nil, fmt.Errorf("failed to read body %s: %w", c.BodyFile, err)
	}
	return content, nil
}
