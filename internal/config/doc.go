// Package config provides Lua-based tap configuration for cellarman.
//
// # Overview
//
// A tap directory may carry a tap.lua file that adjusts which upstream
// project is tracked, where the version store lives, and where binaries are
// installed. Every setting has a working default, so the file is optional;
// when present it is evaluated in a sandboxed Lua VM and overlaid on the
// defaults.
//
// # Configuration Schema
//
// The file must define a global `tap` table:
//
//	tap = {
//	  upstream = {
//	    owner = "XaF",          -- GitHub repository owner
//	    repo = "omni",          -- GitHub repository name
//	    tool = "omni",          -- binary and artifact base name
//	  },
//	  registry = {
//	    crate = "omnicli",      -- crates.io crate used for yank checks
//	  },
//	  build = {
//	    workflow = ".github/workflows/build.yaml",
//	  },
//	  store = {
//	    path = "~/.config/cellarman/versions.json",
//	    latest_path = nil,      -- optional single-version projection
//	  },
//	  install = {
//	    bin_dir = platform.when(platform.is_apple_silicon, "/opt/homebrew/bin")
//	      or "~/.local/bin",
//	  },
//	}
//
// The read-only `platform` global comes from the platform package and lets
// a tap vary paths per OS, architecture, or Linux distribution.
//
// # Sandboxing
//
// Tap files are declarative. The Lua VM they run in removes os, io, require,
// dofile, loadfile, load, loadstring, and debug, so a tap cannot execute
// commands, touch the filesystem, or load external code. The string, table,
// and math libraries remain available.
//
// Credentials never belong in a tap file; the GitHub token is read from the
// environment. ParseFile scans the file for token-shaped content and logs a
// warning when it finds any.
//
// # Error Types
//
//	type ParseError struct {
//	    Message string  // user-friendly message
//	    Detail  string  // raw Lua error
//	}
//
//	type ValidationError struct {
//	    Field   string  // field that failed validation
//	    Message string  // error description
//	}
package config
