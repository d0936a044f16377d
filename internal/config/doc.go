// Package config defines the provisioner settings and provides helpers to load,
// validate and save them in YAML format.
//
// Load layers built-in defaults, an optional YAML settings file and PROVISION_*
// environment variables through koanf. Save writes a complete settings file, which
// is how "provision config init" produces an editable template.
package config
