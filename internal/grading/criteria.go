package grading

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed criteria.yaml
var defaultCriteriaYAML []byte

// Criterion is a single quality check.
type Criterion struct {
	ID    string `yaml:"id"`
	Check string `yaml:"check"`
	Field string `yaml:"field,omitempty"`
}

// Group is a scorecard category and the checks that decide it.
type Group struct {
	Name     string      `yaml:"name"`
	Key      string      `yaml:"key"`
	Criteria []Criterion `yaml:"criteria"`
}

// Criteria is the full rubric handed to the grader.
type Criteria struct {
	Groups []Group `yaml:"groups"`
}

// DefaultCriteria returns the built-in rubric.
func DefaultCriteria() Criteria {
	c, err := ParseCriteria(defaultCriteriaYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded criteria: %v", err))
	}
	return c
}

// LoadCriteria reads a rubric file. An empty path selects the built-in rubric.
func LoadCriteria(path string) (Criteria, error) {
	if path == "" {
		return DefaultCriteria(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Criteria{}, fmt.Errorf("reading criteria: %w", err)
	}
	return ParseCriteria(data)
}

// ParseCriteria decodes and checks a YAML rubric.
func ParseCriteria(data []byte) (Criteria, error) {
	var c Criteria
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Criteria{}, fmt.Errorf("parsing criteria: %w", err)
	}
	if len(c.Groups) == 0 {
		return Criteria{}, fmt.Errorf("criteria: no groups defined")
	}

	seen := make(map[string]bool)
	for _, g := range c.Groups {
		if g.Name == "" {
			return Criteria{}, fmt.Errorf("criteria: group without a name")
		}
		if len(g.Criteria) == 0 {
			return Criteria{}, fmt.Errorf("criteria: group %q has no checks", g.Name)
		}
		for _, cr := range g.Criteria {
			if cr.ID == "" || cr.Check == "" {
				return Criteria{}, fmt.Errorf("criteria: group %q has a check without id or text", g.Name)
			}
			if seen[cr.ID] {
				return Criteria{}, fmt.Errorf("criteria: duplicate check %q", cr.ID)
			}
			seen[cr.ID] = true
		}
	}
	return c, nil
}

// Categories returns the scorecard category names in rubric order.
func (c Criteria) Categories() []string {
	names := make([]string, 0, len(c.Groups))
	for _, g := range c.Groups {
		names = append(names, g.Name)
	}
	return names
}
