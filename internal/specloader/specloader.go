// Package specloader discovers, parses, and resolves design specs from
// markdown documents (with an optional YAML frontmatter form) into a
// fully extends-flattened model.Spec.
package specloader

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/raysh454/design-review/internal/model"
)

var (
	h2Pattern  = regexp.MustCompile(`(?m)^##\s+(.+)$`)
	h4Pattern  = regexp.MustCompile(`(?m)^####\s+(.+)$`)
	kvPattern  = regexp.MustCompile(`(?m)^\s*-\s*\*\*([^*]+)\*\*:\s*(.+)$`)
	frontmatterPattern = regexp.MustCompile(`(?s)\A---\n(.*?)\n---\n?`)
)

// frontmatter is the optional YAML preamble a spec document may carry.
type frontmatter struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Extends string `yaml:"extends"`
}

// Loader discovers spec files under a set of search roots and resolves
// extends-chains, caching fully-resolved specs.
type Loader struct {
	searchRoots []string

	mu    sync.Mutex
	cache map[string]*model.Spec
}

// NewLoader builds a loader over searchRoots, plain directories checked
// in order (§6.1). No embedded default specs are built in.
func NewLoader(searchRoots ...string) *Loader {
	return &Loader{
		searchRoots: searchRoots,
		cache:       make(map[string]*model.Spec),
	}
}

// Resolve loads and fully resolves the named spec (an extends chain
// flattened into one model.Spec). name may be a bare spec name (searched
// across searchRoots) or a direct file path.
func (l *Loader) Resolve(name string) (*model.Spec, error) {
	return l.resolve(name, map[string]bool{})
}

func (l *Loader) resolve(name string, loading map[string]bool) (*model.Spec, error) {
	l.mu.Lock()
	if cached, ok := l.cache[name]; ok {
		l.mu.Unlock()
		return cached, nil
	}
	l.mu.Unlock()

	if loading[name] {
		return nil, model.NewEngineError(model.ErrSpecCycle, "specloader.Resolve",
			fmt.Errorf("extends cycle detected at %q", name))
	}
	loading[name] = true

	path, err := l.findSpecFile(name)
	if err != nil {
		return nil, model.NewEngineError(model.ErrSpecNotFound, "specloader.Resolve", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, model.NewEngineError(model.ErrSpecNotFound, "specloader.Resolve", err)
	}

	spec, err := parseDocument(string(raw))
	if err != nil {
		return nil, model.NewEngineError(model.ErrSpecParseError, "specloader.Resolve", err)
	}
	spec.SourcePath = path

	if err := validateSeverities(spec); err != nil {
		return nil, model.NewEngineError(model.ErrSpecInvalidSeverity, "specloader.Resolve", err)
	}

	if spec.Extends != "" {
		parent, err := l.resolve(spec.Extends, loading)
		if err != nil {
			return nil, err
		}
		spec = mergeSpecs(parent, spec)
	}

	l.mu.Lock()
	l.cache[name] = spec
	l.mu.Unlock()

	return spec, nil
}

// findSpecFile locates name on disk, trying it as a literal path first,
// then as "<root>/<name>" and "<root>/<name>.md" across each search root
// in order. It does not look for DESIGN-SPEC.md / design-spec.md /
// .claude/DESIGN-SPEC.md; FindProjectRoot is separate.
func (l *Loader) findSpecFile(name string) (string, error) {
	if fi, err := os.Stat(name); err == nil && !fi.IsDir() {
		return name, nil
	}

	candidates := []string{name, name + ".md"}
	for _, root := range l.searchRoots {
		for _, c := range candidates {
			p := filepath.Join(root, c)
			if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
				return p, nil
			}
		}
	}

	return "", fmt.Errorf("spec %q not found in any search root", name)
}

// FindProjectRoot walks up from dir looking for one of the well-known
// spec filenames (§6.1), mirroring the pack's upward project-root search.
func FindProjectRoot(dir string) (string, error) {
	names := []string{"DESIGN-SPEC.md", "design-spec.md", filepath.Join(".claude", "DESIGN-SPEC.md")}
	for {
		for _, n := range names {
			if _, err := os.Stat(filepath.Join(dir, n)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no design spec found above %s", dir)
		}
		dir = parent
	}
}

// parseDocument parses one markdown (optionally frontmatter-prefixed)
// spec document into an unresolved model.Spec (Extends still set, no
// parent merge performed yet).
func parseDocument(content string) (*model.Spec, error) {
	fm := frontmatter{}
	body := content
	if m := frontmatterPattern.FindStringSubmatchIndex(content); m != nil {
		yamlBlock := content[m[2]:m[3]]
		if err := yaml.Unmarshal([]byte(yamlBlock), &fm); err != nil {
			return nil, fmt.Errorf("parsing frontmatter: %w", err)
		}
		body = content[m[1]:]
	}

	spec := &model.Spec{
		Name:    fm.Name,
		Version: fm.Version,
		Extends: fm.Extends,
	}

	sections := splitSections(body, h2Pattern)
	for _, sec := range sections {
		upper := strings.ToUpper(strings.TrimSpace(sec.name))
		switch upper {
		case "NAME":
			if spec.Name == "" {
				spec.Name = strings.TrimSpace(sec.content)
			}
		case "VERSION":
			if spec.Version == "" {
				spec.Version = strings.TrimSpace(sec.content)
			}
		case "EXTENDS":
			if spec.Extends == "" {
				spec.Extends = strings.TrimSpace(sec.content)
			}
		case "OVERRIDES":
			overrides, err := parseOverrides(sec.content)
			if err != nil {
				return nil, err
			}
			spec.Overrides = overrides
		default:
			pillar, err := parsePillar(sec.name, sec.content)
			if err != nil {
				return nil, err
			}
			spec.Pillars = append(spec.Pillars, pillar)
		}
	}

	if spec.Name == "" {
		return nil, fmt.Errorf("spec has no name (frontmatter `name:` or `## Name` section)")
	}

	return spec, nil
}

type section struct {
	name    string
	content string
}

func splitSections(content string, pattern *regexp.Regexp) []section {
	matches := pattern.FindAllStringSubmatchIndex(content, -1)
	var out []section
	for i, m := range matches {
		name := content[m[2]:m[3]]
		start := m[1]
		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		out = append(out, section{name: name, content: strings.TrimSpace(content[start:end])})
	}
	return out
}

func parsePillar(name, content string) (model.Pillar, error) {
	pillar := model.Pillar{Name: strings.TrimSpace(name)}

	for _, checkSec := range splitSections(content, h4Pattern) {
		check, err := parseCheck(checkSec.name, checkSec.content)
		if err != nil {
			return pillar, err
		}
		pillar.Checks = append(pillar.Checks, check)
	}

	return pillar, nil
}

func parseCheck(id, content string) (model.Check, error) {
	check := model.Check{ID: strings.TrimSpace(id), Severity: model.SeverityMinor}

	for _, m := range kvPattern.FindAllStringSubmatch(content, -1) {
		key := strings.ToLower(strings.TrimSpace(m[1]))
		val := strings.TrimSpace(m[2])
		switch key {
		case "severity":
			sev := model.Severity(strings.ToLower(val))
			if sev != model.SeverityBlocking && sev != model.SeverityMajor && sev != model.SeverityMinor {
				return check, fmt.Errorf("check %q: invalid severity %q", id, val)
			}
			check.Severity = sev
		case "description":
			check.Description = val
		case "config":
			cfg, err := parseConfig(val)
			if err != nil {
				return check, fmt.Errorf("check %q: %w", id, err)
			}
			check.Config = cfg
		case "how to check", "howtocheck":
			check.HowToCheck = val
		case "approved values", "approvedvalues":
			check.ApprovedValues = splitList(val)
		}
	}

	return check, nil
}

// parseConfig parses a "- **Config**: …" bullet's value into the
// opaque scalar/list mapping §4.1 describes: comma-separated
// `key: value` pairs, where value is a `[a, b]` list, a number, a
// bool, or a bare string (e.g. "minimum_ratio: 4.5, minimum_grade: B").
func parseConfig(val string) (map[string]any, error) {
	cfg := make(map[string]any)
	for _, pair := range splitConfigPairs(val) {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		idx := strings.Index(pair, ":")
		if idx < 0 {
			return nil, fmt.Errorf("malformed config entry %q", pair)
		}
		key := strings.TrimSpace(pair[:idx])
		cfg[key] = parseConfigScalar(strings.TrimSpace(pair[idx+1:]))
	}
	return cfg, nil
}

// splitConfigPairs splits s on top-level commas, ignoring commas
// nested inside a "[...]" list value.
func splitConfigPairs(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}

func parseConfigScalar(raw string) any {
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		return splitList(raw[1 : len(raw)-1])
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseOverrides(content string) ([]model.Override, error) {
	var overrides []model.Override
	for _, sec := range splitSections(content, h4Pattern) {
		ov := model.Override{CheckID: strings.TrimSpace(sec.name)}
		for _, m := range kvPattern.FindAllStringSubmatch(sec.content, -1) {
			key := strings.ToLower(strings.TrimSpace(m[1]))
			val := strings.TrimSpace(m[2])
			switch key {
			case "severity":
				ov.Severity = model.Severity(strings.ToLower(val))
			case "disabled":
				if b, err := strconv.ParseBool(val); err == nil {
					ov.Disabled = b
				}
			case "config":
				cfg, err := parseConfig(val)
				if err != nil {
					return nil, fmt.Errorf("override %q: %w", sec.name, err)
				}
				ov.Config = cfg
			}
		}
		overrides = append(overrides, ov)
	}
	return overrides, nil
}

func validateSeverities(spec *model.Spec) error {
	for _, p := range spec.Pillars {
		for _, c := range p.Checks {
			switch c.Severity {
			case model.SeverityBlocking, model.SeverityMajor, model.SeverityMinor:
			default:
				return fmt.Errorf("pillar %q check %q: invalid severity %q", p.Name, c.ID, c.Severity)
			}
		}
	}
	return nil
}

// mergeSpecs flattens child on top of parent: child pillars/checks are
// appended after parent's, and child overrides apply across the whole
// union (§4.1 extends semantics).
func mergeSpecs(parent, child *model.Spec) *model.Spec {
	merged := &model.Spec{
		Name:       child.Name,
		Version:    child.Version,
		SourcePath: child.SourcePath,
		Pillars:    append(append([]model.Pillar{}, parent.Pillars...), child.Pillars...),
		Overrides:  append(append([]model.Override{}, parent.Overrides...), child.Overrides...),
	}
	if merged.Name == "" {
		merged.Name = parent.Name
	}
	if merged.Version == "" {
		merged.Version = parent.Version
	}
	return merged
}
