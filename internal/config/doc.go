// Package config loads and validates syncd configuration from YAML files.
//
// Configuration files support ${VAR} environment variable expansion, so
// secrets like session tokens and database passwords can be injected at
// deploy time rather than committed to disk.
package config
