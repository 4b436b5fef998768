package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Pack is an operator-supplied set of extra rules and broad types, appended
// after the built-in entries when the table is built.
type Pack struct {
	Rules      []Rule          `yaml:"rules"`
	BroadTypes []BroadDataType `yaml:"broad_types"`
}

// LoadPack reads a rule pack from a YAML file. An empty path yields an empty
// pack.
func LoadPack(path string) (*Pack, error) {
	if path == "" {
		return &Pack{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule pack: %w", err)
	}

	return ParsePack(data)
}

// ParsePack decodes a rule pack from YAML.
func ParsePack(data []byte) (*Pack, error) {
	var p Pack
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse rule pack: %w", err)
	}
	return &p, nil
}

// Apply appends the pack entries to b in file order.
func (p *Pack) Apply(b *Builder) *Builder {
	for _, r := range p.Rules {
		b.AddRule(r)
	}
	for _, t := range p.BroadTypes {
		b.AddBroadType(t)
	}
	return b
}

// Len returns the number of entries in the pack.
func (p *Pack) Len() int {
	return len(p.Rules) + len(p.BroadTypes)
}

// LoadTable builds the built-in table extended with the rule pack at path.
// An empty path returns Default().
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}

	pack, err := LoadPack(path)
	if err != nil {
		return nil, err
	}
	return pack.Apply(NewDefaultBuilder()).Build()
}
