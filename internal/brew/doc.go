// Package brew adapts the Homebrew command-line interface to the operations the
// provisioner needs: installed-state queries, installs, catalog updates, listing,
// version detection and bootstrapping Homebrew itself.
//
// Every call is a blocking external process run through system.CommandExecutor.
package brew
