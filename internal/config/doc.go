// Package config manages the arkfeed job definition.
//
// It handles:
//   - Loading arkfeed.yaml from the repository root, with defaults for every field
//   - ARKFEED_* environment overrides for deployment-specific settings
//   - Validation and the commit message template
package config
