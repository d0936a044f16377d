package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// PackageSet lists the packages of one bucket in manifest order.
type PackageSet struct {
	// Formulae are command-line tool packages.
	Formulae []string `json:"formulae" yaml:"formulae"`
	// Casks are GUI application packages.
	Casks []string `json:"casks" yaml:"casks"`
}

// clone returns a deep copy with nil lists normalized to empty ones.
func (s PackageSet) clone() PackageSet {
	return PackageSet{
		Formulae: append([]string{}, s.Formulae...),
		Casks:    append([]string{}, s.Casks...),
	}
}

// document is the on-disk manifest shape.
type document struct {
	Shared PackageSet            `json:"shared" yaml:"shared"`
	Roles  map[string]PackageSet `json:"roles" yaml:"roles"`
}

// Manifest is the loaded, immutable package manifest.
type Manifest struct {
	shared PackageSet
	roles  map[string]PackageSet
}

// ConfigError reports a manifest that cannot be used: missing, unreadable or malformed.
// It is always fatal to a run.
type ConfigError struct {
	// Path is the manifest location.
	Path string
	// Err is the underlying failure.
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("manifest %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ErrNotFound is wrapped by ConfigError when the manifest file does not exist.
var ErrNotFound = errors.New("manifest not found")

// New builds a manifest from in-memory package sets. The inputs are copied.
func New(shared PackageSet, roles map[string]PackageSet) *Manifest {
	m := &Manifest{
		shared: shared.clone(),
		roles:  make(map[string]PackageSet, len(roles)),
	}

	for name, set := range roles {
		m.roles[name] = set.clone()
	}

	return m
}

// Load reads the manifest at path. Files ending in .yaml or .yml are decoded as YAML,
// everything else as JSON. Any failure is returned as *ConfigError.
func Load(path string) (*Manifest, error) {
	path = filepath.Clean(path)

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ConfigError{Path: path, Err: ErrNotFound}
		}

		return nil, &ConfigError{Path: path, Err: fmt.Errorf("read: %w", err)}
	}

	m, err := Parse(contents, formatOf(path))
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	return m, nil
}

// Format is the encoding of a manifest document.
type Format int

const (
	// FormatJSON is the default manifest encoding.
	FormatJSON Format = iota
	// FormatYAML is accepted for hand-maintained manifests.
	FormatYAML
)

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes a manifest document.
func Parse(contents []byte, format Format) (*Manifest, error) {
	var doc document

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(contents, &doc); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(contents, &doc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	}

	return New(doc.Shared, doc.Roles), nil
}

// Shared returns a copy of the shared package set.
func (m *Manifest) Shared() PackageSet {
	return m.shared.clone()
}

// Role returns a copy of the role's package set. Lookup is exact and case-sensitive.
func (m *Manifest) Role(name string) (PackageSet, bool) {
	set, ok := m.roles[name]
	if !ok {
		return PackageSet{Formulae: []string{}, Casks: []string{}}, false
	}

	return set.clone(), true
}

// RoleNames returns the declared role names in sorted order.
func (m *Manifest) RoleNames() []string {
	names := make([]string, 0, len(m.roles))
	for name := range m.roles {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// ResolvePath returns path unchanged when it is absolute, otherwise the same name
// next to the running executable.
func ResolvePath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}

	executable, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}

	if resolved, err := filepath.EvalSymlinks(executable); err == nil {
		executable = resolved
	}

	return filepath.Join(filepath.Dir(executable), path), nil
}
