// Package provision contains core domain types shared by the provisioning services.
//
// It defines package kinds (formula or cask), per-package install outcomes, the
// Result record produced for every dispatched package and the Actor that identifies
// the host and user a run provisions.
package provision
