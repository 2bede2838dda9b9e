package config

// TapFileName is the configuration file cellarman looks for in its base
// directory.
const TapFileName = "tap.lua"

// EnvDir overrides the base directory holding tap.lua and the version store.
const EnvDir = "CELLARMAN_DIR"

// maxTapFileBytes bounds how much of a tap.lua file is read and parsed.
const maxTapFileBytes = 1 << 20

// Lua schema field names and globals
const (
	luaGlobalTap       = "tap"
	luaFieldUpstream   = "upstream"
	luaFieldRegistry   = "registry"
	luaFieldBuild      = "build"
	luaFieldStore      = "store"
	luaFieldInstall    = "install"
	luaFieldOwner      = "owner"
	luaFieldRepo       = "repo"
	luaFieldTool       = "tool"
	luaFieldCrate      = "crate"
	luaFieldWorkflow   = "workflow"
	luaFieldPath       = "path"
	luaFieldLatestPath = "latest_path"
	luaFieldBinDir     = "bin_dir"
)
