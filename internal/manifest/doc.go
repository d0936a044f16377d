// Package manifest loads the declarative package manifest and resolves the
// packages that apply to a role.
//
// A manifest has a "shared" package set installed for every role and a "roles"
// mapping from role name to a role-specific package set. Each set lists formulae
// (command-line tools) and casks (GUI applications). Missing lists are empty lists.
//
// A loaded Manifest is read-only: accessors hand out copies.
package manifest
