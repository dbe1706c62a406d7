// Package aqbot provides embedded assets for the aqbot command.
//
// The root package exists solely to embed [config.default.toml] via
// [DefaultConfigTOML], which "aqbot run" writes to the data directory on
// first start.
package aqbot

import _ "embed"

// DefaultConfigTOML holds the raw bytes of config.default.toml, embedded at
// build time.
//
//go:embed config.default.toml
var DefaultConfigTOML []byte
