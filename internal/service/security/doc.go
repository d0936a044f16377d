// Package security reports the endpoint-protection posture of the workstation.
//
// Two read-only checks run through a Provider: the antivirus application bundle and
// its process, and the OS application-gatekeeping status. Findings are informational
// or warnings and never fail a run.
//
// The antivirus check only verifies that the bundle exists and that a matching
// process is running. It does not inspect version, license or real-time protection
// settings.
package security
