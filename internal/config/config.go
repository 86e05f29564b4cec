// Package config loads the plantkg configuration: which ontology to read,
// extra namespace prefixes and the named queries to run.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/aleksaelezovic/plantkg/pkg/rdf"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultFile is the config file looked up when --config is not given
	DefaultFile = "plantkg.yaml"
	// BundledOntology names the sample ontology shipped with the binary
	BundledOntology = "plant-disease-ontology.ttl"
)

//go:embed plantkg.yaml
var defaultConfig []byte

//go:embed plant-disease-ontology.ttl
var bundledOntology []byte

// Config represents the complete plantkg configuration
type Config struct {
	// Ontology is the Turtle file to load
	Ontology string `yaml:"ontology"`
	// Namespaces maps prefixes to base IRIs; "" is the default namespace
	Namespaces map[string]string `yaml:"namespaces"`
	// Queries are run in order by "plantkg run"
	Queries []Query `yaml:"queries"`
}

// Query is a named query with the text shown in its report header
type Query struct {
	Name     string `yaml:"name"`
	Title    string `yaml:"title"`
	Question string `yaml:"question"`
	Query    string `yaml:"query"`
}

// Default returns the bundled configuration
func Default() (*Config, error) {
	config := &Config{}
	if err := yaml.Unmarshal(defaultConfig, config); err != nil {
		return nil, fmt.Errorf("failed to parse bundled config: %w", err)
	}
	return config, nil
}

// Load parses data over the bundled defaults. Namespaces are merged;
// a queries list replaces the default one.
func Load(data []byte) (*Config, error) {
	config, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	config, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Ontology == "" {
		return errors.New("ontology is required")
	}
	seen := make(map[string]bool, len(c.Queries))
	for i, q := range c.Queries {
		if q.Name == "" {
			return fmt.Errorf("queries[%d]: name is required", i)
		}
		if seen[q.Name] {
			return fmt.Errorf("queries[%d]: duplicate name %q", i, q.Name)
		}
		seen[q.Name] = true
		if q.Query == "" {
			return fmt.Errorf("query %q: query text is required", q.Name)
		}
	}
	return nil
}

// Lookup returns the named query
func (c *Config) Lookup(name string) (Query, bool) {
	for _, q := range c.Queries {
		if q.Name == name {
			return q, true
		}
	}
	return Query{}, false
}

// NamespaceTable returns the standard prefixes plus the configured ones
func (c *Config) NamespaceTable() *rdf.Namespaces {
	ns := rdf.StandardNamespaces()
	for prefix, base := range c.Namespaces {
		ns.Register(prefix, base)
	}
	return ns
}

// OpenOntology opens the configured ontology. When the file does not exist
// and names the bundled sample, the embedded copy is returned instead.
func (c *Config) OpenOntology() (io.ReadCloser, error) {
	f, err := os.Open(c.Ontology)
	if err == nil {
		return f, nil
	}
	if errors.Is(err, fs.ErrNotExist) && c.Ontology == BundledOntology {
		return io.NopCloser(bytes.NewReader(bundledOntology)), nil
	}
	return nil, err
}
