// Package config resolves broker settings from explicit overrides, previously
// resolved values, environment variables, an optional YAML file, and compiled
// defaults, in that order of precedence.
package config
