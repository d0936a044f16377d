package manifest

import (
	"go.uber.org/zap"

	"github.com/oshokin/workstation-setup/internal/domain/provision"
)

// Plan is the resolved install plan for a role.
type Plan struct {
	// Role is the requested role name.
	Role string
	// RoleFound is false when the manifest does not declare Role.
	RoleFound bool

	SharedFormulae []string
	SharedCasks    []string
	RoleFormulae   []string
	RoleCasks      []string
}

// Entry is one package of a plan in install order.
type Entry struct {
	Name string
	Kind provision.Kind
}

// Resolve builds the plan for role: shared lists first, then role lists, each in manifest order.
// Duplicates are kept. An unknown role is logged as a warning and yields empty role lists.
func Resolve(m *Manifest, role string, log *zap.SugaredLogger) Plan {
	shared := m.Shared()
	roleSet, found := m.Role(role)

	if !found {
		log.Warnf("Role %q is not defined in the manifest, only shared packages will be installed", role)
	}

	return Plan{
		Role:           role,
		RoleFound:      found,
		SharedFormulae: shared.Formulae,
		SharedCasks:    shared.Casks,
		RoleFormulae:   roleSet.Formulae,
		RoleCasks:      roleSet.Casks,
	}
}

// Order returns the plan as a single sequence: shared formulae, shared casks,
// role formulae, role casks. Blank names are omitted.
func (p Plan) Order() []Entry {
	groups := []struct {
		names []string
		kind  provision.Kind
	}{
		{p.SharedFormulae, provision.KindFormula},
		{p.SharedCasks, provision.KindCask},
		{p.RoleFormulae, provision.KindFormula},
		{p.RoleCasks, provision.KindCask},
	}

	var entries []Entry

	for _, group := range groups {
		for _, name := range group.names {
			if provision.IsBlank(name) {
				continue
			}

			entries = append(entries, Entry{Name: name, Kind: group.kind})
		}
	}

	return entries
}

// Names returns the install order as plain names.
func (p Plan) Names() []string {
	entries := p.Order()

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}

	return names
}
