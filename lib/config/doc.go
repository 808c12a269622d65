// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for objectbusd.
//
// Configuration is loaded from a single file specified by either the
// OBJECTBUS_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There are no fallbacks and no automatic file
// search. Without a file, [Resolve] returns the defaults.
//
// Files are YAML (.yaml, .yml) or JSONC (.json, .jsonc). JSONC files
// may contain // and /* */ comments and trailing commas. In both
// formats unknown keys are errors.
//
// Variable expansion is performed on listen.socket_path after
// loading: ${HOME} and ${VAR:-default} patterns are expanded. The
// default socket path is ${XDG_RUNTIME_DIR:-/tmp}/objectbus.sock.
//
// Key exports:
//
//   - [Config] -- master struct with Listen, Logging, Counter
//   - [Default] -- returns a Config with defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
package config
