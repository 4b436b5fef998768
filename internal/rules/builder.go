package rules

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dlclark/regexp2"
)

// Table is the frozen registry of subtype rules and broad data types. It has
// no mutating methods and is safe for concurrent use.
type Table struct {
	rules      []Rule
	broadTypes []BroadDataType
}

// Rules returns a copy of the subtype rules in declaration order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	for i, r := range t.rules {
		out[i] = r.clone()
	}
	return out
}

// BroadTypes returns a copy of the broad taxonomy in declaration order.
func (t *Table) BroadTypes() []BroadDataType {
	out := make([]BroadDataType, len(t.broadTypes))
	for i, b := range t.broadTypes {
		out[i] = b.clone()
	}
	return out
}

// Rule returns the first rule declared for subtype.
func (t *Table) Rule(subtype Subtype) (Rule, bool) {
	for _, r := range t.rules {
		if r.Subtype == subtype {
			return r.clone(), true
		}
	}
	return Rule{}, false
}

// Builder collects rules and broad types before freezing them into a Table.
type Builder struct {
	rules      []Rule
	broadTypes []BroadDataType
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddRule appends a subtype rule. Declaration order is preserved.
func (b *Builder) AddRule(r Rule) *Builder {
	b.rules = append(b.rules, r.clone())
	return b
}

// AddBroadType appends a broad data type. Declaration order is preserved.
func (b *Builder) AddBroadType(t BroadDataType) *Builder {
	b.broadTypes = append(b.broadTypes, t.clone())
	return b
}

// Build validates the collected entries, compiles their patterns and returns
// an immutable Table. A pattern that fails to compile is kept on the rule
// and treated as a non-match during scanning.
func (b *Builder) Build() (*Table, error) {
	var errs []error

	t := &Table{
		rules:      make([]Rule, 0, len(b.rules)),
		broadTypes: make([]BroadDataType, 0, len(b.broadTypes)),
	}

	for i, r := range b.rules {
		if err := validateRule(r); err != nil {
			errs = append(errs, fmt.Errorf("rule %d (%s): %w", i, r.Subtype, err))
			continue
		}
		r = r.clone()
		if r.HasPattern() {
			r.validator, r.patternErr = regexp2.Compile(r.Pattern, regexp2.None)
		}
		t.rules = append(t.rules, r)
	}

	for i, bt := range b.broadTypes {
		if err := validateBroadType(bt); err != nil {
			errs = append(errs, fmt.Errorf("broad type %d (%s): %w", i, bt.Name, err))
			continue
		}
		bt = bt.clone()
		bt.compiled = make([]*regexp2.Regexp, len(bt.Patterns))
		for j, p := range bt.Patterns {
			re, err := regexp2.Compile(p, regexp2.IgnoreCase)
			if err != nil {
				continue
			}
			bt.compiled[j] = re
		}
		t.broadTypes = append(t.broadTypes, bt)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return t, nil
}

func validateRule(r Rule) error {
	if r.Subtype == "" {
		return errors.New("subtype is required")
	}
	if r.Category != CategoryInternal && r.Category != CategoryIdentifiable {
		return fmt.Errorf("unknown category %q", r.Category)
	}
	if len(r.Keywords) == 0 {
		return errors.New("at least one keyword is required")
	}
	if slices.ContainsFunc(r.Keywords, func(k string) bool { return k == "" }) {
		return errors.New("keywords must not be empty")
	}
	return nil
}

func validateBroadType(t BroadDataType) error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("name is required")
	}
	if len(t.Categories) == 0 {
		return errors.New("at least one category is required")
	}
	for _, c := range t.Categories {
		if c != BroadPersonalSensitive && c != BroadInternalSensitive {
			return fmt.Errorf("unknown category %q", c)
		}
	}
	return nil
}
