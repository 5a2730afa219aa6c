// Package config defines the fleetboot configuration and loads it from a
// YAML file and the environment.
//
// Precedence, lowest first: [Default], the YAML file, environment
// variables, command line flags. Flags are applied by the CLI after [Load];
// [Config.Validate] runs last.
//
// Secrets are never read from the file: the Hetzner Cloud token comes from
// HCLOUD_TOKEN and the S3 credentials from FLEETBOOT_S3_ACCESS_KEY and
// FLEETBOOT_S3_SECRET_KEY.
package config
