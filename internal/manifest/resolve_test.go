package manifest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oshokin/workstation-setup/internal/domain/provision"
)

func observedLogger() (*zap.SugaredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)

	return zap.New(core).Sugar(), logs
}

func analyst(t *testing.T) *Manifest {
	t.Helper()

	m, err := Parse([]byte(analystManifest), FormatJSON)
	require.NoError(t, err)

	return m
}

// TestResolve_KnownRole returns shared then role lists in the fixed order without warnings.
func TestResolve_KnownRole(t *testing.T) {
	t.Parallel()

	log, logs := observedLogger()

	plan := Resolve(analyst(t), "Analyst", log)

	require.True(t, plan.RoleFound)
	require.Equal(t, []string{"jq"}, plan.SharedFormulae)
	require.Equal(t, []string{"malwarebytes"}, plan.SharedCasks)
	require.Equal(t, []string{"tableau-cli"}, plan.RoleFormulae)
	require.Empty(t, plan.RoleCasks)
	require.Equal(t, []string{"jq", "malwarebytes", "tableau-cli"}, plan.Names())
	require.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

// TestResolve_UnknownRole falls back to shared packages and logs a warning.
func TestResolve_UnknownRole(t *testing.T) {
	t.Parallel()

	log, logs := observedLogger()

	plan := Resolve(analyst(t), "Developer", log)

	require.False(t, plan.RoleFound)
	require.Empty(t, plan.RoleFormulae)
	require.Empty(t, plan.RoleCasks)
	require.Equal(t, []string{"jq", "malwarebytes"}, plan.Names())

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "Developer")
}

// TestResolve_KeepsDuplicatesAndOrder preserves manifest order and repeated names.
func TestResolve_KeepsDuplicatesAndOrder(t *testing.T) {
	t.Parallel()

	log, _ := observedLogger()

	m := New(
		PackageSet{Formulae: []string{"git", "jq"}, Casks: []string{"iterm2"}},
		map[string]PackageSet{
			"Developer": {Formulae: []string{"jq", "go"}, Casks: []string{"docker", "iterm2"}},
		},
	)

	plan := Resolve(m, "Developer", log)

	require.Equal(t, []Entry{
		{Name: "git", Kind: provision.KindFormula},
		{Name: "jq", Kind: provision.KindFormula},
		{Name: "iterm2", Kind: provision.KindCask},
		{Name: "jq", Kind: provision.KindFormula},
		{Name: "go", Kind: provision.KindFormula},
		{Name: "docker", Kind: provision.KindCask},
		{Name: "iterm2", Kind: provision.KindCask},
	}, plan.Order())
}

// TestPlan_OrderSkipsBlankNames drops empty and whitespace-only names.
func TestPlan_OrderSkipsBlankNames(t *testing.T) {
	t.Parallel()

	plan := Plan{
		SharedFormulae: []string{"", "jq", "  "},
		RoleCasks:      []string{"\t", "slack"},
	}

	require.Equal(t, []string{"jq", "slack"}, plan.Names())
}
