// Package installer drives the package manager: it bootstraps the package manager and
// the required tools, then installs the resolved packages as a best-effort batch.
//
// A package that fails to install is recorded and the batch moves on; only bootstrap
// failures are fatal.
package installer
