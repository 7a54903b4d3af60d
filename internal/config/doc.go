// Package config reads process configuration from the environment and the
// embedded provider defaults.
package config
