// Package system runs external commands behind the CommandExecutor interface so the
// package manager adapter and the security checks can be tested with scripted output.
package system
