// Package version exposes build metadata of workstation-setup.
//
// Version, Commit and BuildTime are injected with -ldflags "-X" at build time.
package version
