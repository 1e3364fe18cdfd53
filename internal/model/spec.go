package model

// Severity is the blocking level a check failure carries.
type Severity string

const (
	SeverityBlocking Severity = "blocking"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"

	// SeverityModerate is used only by compare-mode DiffRegions (§3.4),
	// which have a distinct {minor,moderate,major} vocabulary from
	// review-mode Issues ({blocking,major,minor}, §8 invariant 9).
	SeverityModerate Severity = "moderate"
)

// Check is a single named rule inside a Pillar.
type Check struct {
	ID             string         `yaml:"id" json:"id"`
	Severity       Severity       `yaml:"severity" json:"severity"`
	Description    string         `yaml:"description" json:"description"`
	Config         map[string]any `yaml:"config,omitempty" json:"config,omitempty"`
	HowToCheck     string         `yaml:"howToCheck,omitempty" json:"howToCheck,omitempty"`
	ApprovedValues []string       `yaml:"approvedValues,omitempty" json:"approvedValues,omitempty"`
}

// Pillar groups related checks under one heading (e.g. "Accessibility").
type Pillar struct {
	Name   string  `yaml:"name" json:"name"`
	Checks []Check `yaml:"checks" json:"checks"`
}

// Override is a partial update applied to a check of the same id inherited
// from a parent spec via Extends.
type Override struct {
	CheckID  string         `yaml:"checkId" json:"checkId"`
	Severity Severity       `yaml:"severity,omitempty" json:"severity,omitempty"`
	Config   map[string]any `yaml:"config,omitempty" json:"config,omitempty"`
	Disabled bool           `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

// Spec is a fully-resolved, extends-flattened design spec.
type Spec struct {
	Name      string     `yaml:"name" json:"name"`
	Version   string     `yaml:"version" json:"version"`
	Extends   string     `yaml:"extends,omitempty" json:"-"`
	Pillars   []Pillar   `yaml:"pillars" json:"pillars"`
	Overrides []Override `yaml:"overrides,omitempty" json:"-"`
	SourcePath string    `yaml:"-" json:"-"`
}

// PillarCheck pairs a resolved Check with the name of the pillar that
// owns it. AllChecks flattens this association away; evaluators that
// need to stamp Issue.Pillar (§3.3) use AllPillarChecks instead.
type PillarCheck struct {
	Pillar string
	Check  Check
}

// AllChecks flattens every non-disabled check across all pillars in
// declared order, applying overrides by check id.
func (s *Spec) AllChecks() []Check {
	pcs := s.AllPillarChecks()
	out := make([]Check, len(pcs))
	for i, pc := range pcs {
		out[i] = pc.Check
	}
	return out
}

// AllPillarChecks is AllChecks but keeps each check's owning pillar
// name attached.
func (s *Spec) AllPillarChecks() []PillarCheck {
	overridesByID := make(map[string]Override, len(s.Overrides))
	for _, o := range s.Overrides {
		overridesByID[o.CheckID] = o
	}

	var out []PillarCheck
	for _, p := range s.Pillars {
		for _, c := range p.Checks {
			ov, ok := overridesByID[c.ID]
			if ok && ov.Disabled {
				continue
			}
			if ok {
				if ov.Severity != "" {
					c.Severity = ov.Severity
				}
				if ov.Config != nil {
					merged := make(map[string]any, len(c.Config)+len(ov.Config))
					for k, v := range c.Config {
						merged[k] = v
					}
					for k, v := range ov.Config {
						merged[k] = v
					}
					c.Config = merged
				}
			}
			out = append(out, PillarCheck{Pillar: p.Name, Check: c})
		}
	}
	return out
}

// PillarNames returns pillar names in declared order.
func (s *Spec) PillarNames() []string {
	names := make([]string, len(s.Pillars))
	for i, p := range s.Pillars {
		names[i] = p.Name
	}
	return names
}
