// Package provisioner orchestrates a provisioning run.
//
// A run is a fixed sequence of steps: bootstrap the package manager, refresh its
// catalog, install required tools, load and resolve the manifest, install shared
// and role packages, then check the security posture. Each step returns a
// StepResult; the pipeline stops only on StepFatal, soft failures are logged and
// counted in the final summary.
package provisioner
