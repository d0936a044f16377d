// Package integration runs whole provisioning runs through real processes.
package integration
