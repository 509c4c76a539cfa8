// Package config provides the configuration of an a11yscan run: CLI
// defaults and validation, the optional .a11yscan YAML file with per-target
// profiles, and the rule table assembled from the built-in thresholds and
// user overrides.
package config
