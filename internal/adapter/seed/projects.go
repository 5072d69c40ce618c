// Package seed loads the project portfolio from a YAML file.
package seed

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/beccaRND/ci-fund-intelligence/internal/domain"
	"gopkg.in/yaml.v3"
)

type file struct {
	Projects []domain.Project `yaml:"projects"`
}

// Portfolio is the loaded, validated list of projects in file order.
type Portfolio struct {
	projects []domain.Project
	byID     map[string]int
}

// LoadFile reads and validates a portfolio seed file.
func LoadFile(path string) (*Portfolio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open projects file: %w", err)
	}
	defer f.Close()

	p, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return p, nil
}

// Load decodes and validates a portfolio from YAML.
func Load(r io.Reader) (*Portfolio, error) {
	var doc file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	return NewPortfolio(doc.Projects)
}

// NewPortfolio validates projects and indexes them by id.
func NewPortfolio(projects []domain.Project) (*Portfolio, error) {
	p := &Portfolio{
		projects: projects,
		byID:     make(map[string]int, len(projects)),
	}
	for i, proj := range projects {
		if err := validate(proj); err != nil {
			return nil, fmt.Errorf("project %d: %w", i, err)
		}
		if _, dup := p.byID[proj.ID]; dup {
			return nil, fmt.Errorf("project %d: duplicate id %q", i, proj.ID)
		}
		p.byID[proj.ID] = i
	}
	return p, nil
}

func validate(p domain.Project) error {
	switch {
	case p.ID == "":
		return errors.New("id is required")
	case p.Lat < -90 || p.Lat > 90:
		return fmt.Errorf("%s: latitude %v out of range", p.ID, p.Lat)
	case p.Lng < -180 || p.Lng > 180:
		return fmt.Errorf("%s: longitude %v out of range", p.ID, p.Lng)
	case p.Hectares < 0:
		return fmt.Errorf("%s: hectares must not be negative", p.ID)
	}
	return nil
}

// Projects returns the portfolio in file order.
func (p *Portfolio) Projects() []domain.Project {
	out := make([]domain.Project, len(p.projects))
	copy(out, p.projects)
	return out
}

// Find looks up a project by id.
func (p *Portfolio) Find(id string) (domain.Project, bool) {
	i, ok := p.byID[id]
	if !ok {
		return domain.Project{}, false
	}
	return p.projects[i], true
}

// Len reports the number of projects.
func (p *Portfolio) Len() int { return len(p.projects) }
