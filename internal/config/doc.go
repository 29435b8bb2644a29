// Package config loads and validates application settings from environment
// variables (prefix CURRICULUM_) and an optional config.yaml.
package config
