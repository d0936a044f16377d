package security

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oshokin/workstation-setup/internal/config"
)

// fakeProvider returns scripted answers.
type fakeProvider struct {
	appExists  bool
	appErr     error
	running    bool
	runningErr error
	status     string
	statusErr  error
}

func (f *fakeProvider) AppExists(string) (bool, error)      { return f.appExists, f.appErr }
func (f *fakeProvider) ProcessRunning(string) (bool, error) { return f.running, f.runningErr }
func (f *fakeProvider) GatekeeperStatus(context.Context) (string, error) {
	return f.status, f.statusErr
}

func check(t *testing.T, p Provider) ([]Finding, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	findings := NewChecker(p, config.Default().Security, zap.New(core).Sugar()).Check(context.Background())
	require.Len(t, findings, 2)

	return findings, logs
}

// TestAntivirus covers missing, stopped and running antivirus.
func TestAntivirus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		provider *fakeProvider
		level    Level
		contains string
	}{
		{"missing", &fakeProvider{}, LevelWarning, "verify installation"},
		{"stat error", &fakeProvider{appErr: errors.New("permission denied")}, LevelWarning, "permission denied"},
		{"not running", &fakeProvider{appExists: true}, LevelWarning, "not running"},
		{"process error", &fakeProvider{appExists: true, runningErr: errors.New("sysctl failed")}, LevelWarning, "unknown"},
		{"running", &fakeProvider{appExists: true, running: true}, LevelInfo, "running"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tc.provider.status = config.DefaultGatekeeperEnabledStatus

			findings, _ := check(t, tc.provider)
			require.Equal(t, CheckAntivirus, findings[0].Check)
			require.Equal(t, tc.level, findings[0].Level)
			require.Contains(t, findings[0].Message, tc.contains)
		})
	}
}

// TestGatekeeper matches the enabled sentinel exactly and reports anything else.
func TestGatekeeper(t *testing.T) {
	t.Parallel()

	findings, _ := check(t, &fakeProvider{status: "assessments enabled"})
	require.Equal(t, CheckGatekeeper, findings[1].Check)
	require.Equal(t, LevelInfo, findings[1].Level)
	require.Contains(t, findings[1].Message, "active")

	findings, _ = check(t, &fakeProvider{status: "assessments enabled\n"})
	require.Equal(t, LevelInfo, findings[1].Level)

	findings, _ = check(t, &fakeProvider{status: "assessments disabled"})
	require.Equal(t, LevelWarning, findings[1].Level)
	require.Contains(t, findings[1].Message, "assessments disabled")

	findings, _ = check(t, &fakeProvider{status: "Assessments Enabled"})
	require.Equal(t, LevelWarning, findings[1].Level)
	require.Contains(t, findings[1].Message, "Assessments Enabled")

	findings, _ = check(t, &fakeProvider{statusErr: errors.New("exit status 1")})
	require.Equal(t, LevelWarning, findings[1].Level)
	require.Contains(t, findings[1].Message, "could not determine status")
}

// TestCheck_LogsEveryFinding writes warnings at warning level and the rest at info level.
func TestCheck_LogsEveryFinding(t *testing.T) {
	t.Parallel()

	_, logs := check(t, &fakeProvider{status: "assessments disabled"})

	require.Equal(t, 2, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	require.Zero(t, logs.FilterLevelExact(zapcore.InfoLevel).Len())

	_, logs = check(t, &fakeProvider{appExists: true, running: true, status: "assessments enabled"})

	require.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	require.Equal(t, 2, logs.FilterLevelExact(zapcore.InfoLevel).Len())
}
