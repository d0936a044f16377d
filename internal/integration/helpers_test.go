package integration

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeBrew is a shell stand-in for Homebrew keeping installed packages as files next to it.
// Installing a package named "broken" fails. Each marker holds HOMEBREW_NO_AUTO_UPDATE as seen by the install.
const fakeBrew = `#!/bin/sh
state="$(dirname "$0")/state"
mkdir -p "$state"
case "$1" in
--version)
	echo "Homebrew 4.3.5"
	;;
update)
	echo "Already up-to-date."
	;;
list)
	kind="${2#--}"
	if [ "$3" = "-1" ]; then
		for f in "$state"/"$kind"-*; do
			[ -e "$f" ] && basename "$f" | sed "s/^$kind-//"
		done
		exit 0
	fi
	[ -e "$state/$kind-$3" ] || { echo "Error: No such keg: $3" >&2; exit 1; }
	;;
install)
	kind="${2#--}"
	if [ "$3" = "broken" ]; then
		echo "Error: No available $kind with the name \"$3\"." >&2
		exit 1
	fi
	echo "$HOMEBREW_NO_AUTO_UPDATE" > "$state/$kind-$3"
	echo "==> Installing $3"
	;;
*)
	exit 2
	;;
esac
`

// installFakeBrew writes the fake package manager into a temporary directory and returns its path.
func installFakeBrew(t *testing.T) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "brew")

	//nolint:gosec // The script must be executable.
	require.NoError(t, os.WriteFile(path, []byte(fakeBrew), 0o755))

	return path
}

// installedMarkers lists the packages the fake package manager has installed.
func installedMarkers(t *testing.T, brewPath string) []string {
	t.Helper()

	entries, err := os.ReadDir(filepath.Join(filepath.Dir(brewPath), "state"))
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}

	return names
}
