package installer

import (
	"context"
	"errors"

	"github.com/hashicorp/go-version"

	"github.com/oshokin/workstation-setup/internal/domain/provision"
)

var errInstallFailed = errors.New("exit status 1")

// call records one adapter invocation.
type call struct {
	op   string
	name string
	kind provision.Kind
}

// fakeManager is a scripted package manager that remembers what it installed.
type fakeManager struct {
	installed map[provision.Kind]map[string]bool
	failing   map[string]bool
	queryErr  map[string]bool
	updateErr error
	calls     []call
}

func newFakeManager() *fakeManager {
	return &fakeManager{
		installed: map[provision.Kind]map[string]bool{
			provision.KindFormula: {},
			provision.KindCask:    {},
		},
		failing:  map[string]bool{},
		queryErr: map[string]bool{},
	}
}

func (f *fakeManager) IsInstalled(_ context.Context, name string, kind provision.Kind) (bool, error) {
	f.calls = append(f.calls, call{op: "query", name: name, kind: kind})

	if f.queryErr[name] {
		return false, errors.New("query failed")
	}

	return f.installed[kind][name], nil
}

func (f *fakeManager) Install(_ context.Context, name string, kind provision.Kind) error {
	f.calls = append(f.calls, call{op: "install", name: name, kind: kind})

	if f.failing[name] {
		return errInstallFailed
	}

	f.installed[kind][name] = true

	return nil
}

func (f *fakeManager) Update(context.Context) error {
	f.calls = append(f.calls, call{op: "update"})

	return f.updateErr
}

func (f *fakeManager) ListInstalled(_ context.Context, kind provision.Kind) (map[string]struct{}, error) {
	names := make(map[string]struct{}, len(f.installed[kind]))
	for name := range f.installed[kind] {
		names[name] = struct{}{}
	}

	return names, nil
}

func (f *fakeManager) names(op string) []string {
	var names []string

	for _, c := range f.calls {
		if c.op == op {
			names = append(names, c.name)
		}
	}

	return names
}

// fakeBootstrapper scripts Locate/InstallSelf/Version.
type fakeBootstrapper struct {
	present    bool
	installErr error
	// appearsAfterInstall controls whether Locate succeeds after InstallSelf.
	appearsAfterInstall bool
	version             string
	versionErr          error
	installCalls        int
}

func (f *fakeBootstrapper) Locate() (string, error) {
	if f.present {
		return "/opt/homebrew/bin/brew", nil
	}

	return "", errors.New("not found")
}

func (f *fakeBootstrapper) InstallSelf(context.Context) error {
	f.installCalls++

	if f.installErr != nil {
		return f.installErr
	}

	f.present = f.appearsAfterInstall

	return nil
}

func (f *fakeBootstrapper) Version(context.Context) (*version.Version, error) {
	if f.versionErr != nil {
		return nil, f.versionErr
	}

	return version.NewVersion(f.version)
}

// cancellingManager cancels the run right after installing one package.
type cancellingManager struct {
	*fakeManager
	cancelAfter string
	cancel      context.CancelFunc
}

func (c *cancellingManager) Install(ctx context.Context, name string, kind provision.Kind) error {
	err := c.fakeManager.Install(ctx, name, kind)
	if name == c.cancelAfter {
		c.cancel()
	}

	return err
}
