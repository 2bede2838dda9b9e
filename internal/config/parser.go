package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cellarman/cellarman/internal/logger"
	"github.com/cellarman/cellarman/internal/platform"
	lua "github.com/yuin/gopher-lua"
)

// Parser represents a Lua tap parser with platform detection.
type Parser struct {
	detector platform.Detector
}

// NewParser creates a new tap parser with the given platform detector.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector}
}

// Load reads the tap configuration from dir, falling back to defaults when
// no tap.lua exists there.
func Load(ctx context.Context, detector platform.Detector, dir string) (*Config, error) {
	parser := NewParser(detector)
	config, err := parser.ParseFile(ctx, filepath.Join(dir, TapFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return config, err
}

// ParseFile parses the tap configuration at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tap configuration: %w", err)
	}
	if len(content) > maxTapFileBytes {
		return nil, &ParseError{
			Message: "tap configuration too large",
			Detail:  fmt.Sprintf("%s is %d bytes (max %d)", path, len(content), maxTapFileBytes),
		}
	}

	// Tokens belong in the environment, never in the tap file
	for _, finding := range DetectSensitiveData(string(content)) {
		logger.Warnw("possible credential in tap configuration",
			"file", path,
			"line", finding.Line,
			"pattern", finding.PatternName,
			"preview", finding.Preview)
	}

	return p.ParseString(ctx, string(content))
}

// ParseString parses a Lua tap configuration from a string.
// This is useful for testing and in-memory configuration.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Config, error) {
	L := newSandboxedVM()
	defer L.Close()

	// Detect platform and inject platform table
	if p.detector != nil {
		platformInfo, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, platformInfo); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	// Execute Lua code
	if err := L.DoString(luaCode); err != nil {
		return nil, &ParseError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	// Extract config from the Lua state
	return extractConfig(L)
}

// ParseError represents a tap parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractConfig extracts the configuration from a Lua state.
// It expects a global "tap" table and overlays the fields it finds on the
// defaults, so a tap only needs to name what it changes.
func extractConfig(L *lua.LState) (*Config, error) {
	tapTable := L.GetGlobal(luaGlobalTap)
	if tapTable.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: "missing or invalid 'tap' table",
			Detail:  fmt.Sprintf("expected table, got %s", tapTable.Type()),
		}
	}

	config := Default()
	table := tapTable.(*lua.LTable)

	if upstreamVal := table.RawGetString(luaFieldUpstream); upstreamVal.Type() == lua.LTTable {
		extractUpstream(upstreamVal.(*lua.LTable), &config.Upstream)
	}

	if registryVal := table.RawGetString(luaFieldRegistry); registryVal.Type() == lua.LTTable {
		extractRegistry(registryVal.(*lua.LTable), &config.Registry)
	}

	if buildVal := table.RawGetString(luaFieldBuild); buildVal.Type() == lua.LTTable {
		extractBuild(buildVal.(*lua.LTable), &config.Build)
	}

	if storeVal := table.RawGetString(luaFieldStore); storeVal.Type() == lua.LTTable {
		extractStore(storeVal.(*lua.LTable), &config.Store)
	}

	if installVal := table.RawGetString(luaFieldInstall); installVal.Type() == lua.LTTable {
		extractInstall(installVal.(*lua.LTable), &config.Install)
	}

	// Validate the extracted config
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return expandConfigPaths(config)
}

// setString assigns the destination when the Lua field is a string.
// Missing and nil fields (from platform conditionals) keep the default.
func setString(table *lua.LTable, field string, dst *string) {
	if val := table.RawGetString(field); val.Type() == lua.LTString {
		*dst = val.String()
	}
}

func extractUpstream(table *lua.LTable, upstream *Upstream) {
	setString(table, luaFieldOwner, &upstream.Owner)
	setString(table, luaFieldRepo, &upstream.Repo)
	setString(table, luaFieldTool, &upstream.Tool)
}

func extractRegistry(table *lua.LTable, registry *Registry) {
	setString(table, luaFieldCrate, &registry.Crate)
}

func extractBuild(table *lua.LTable, build *Build) {
	setString(table, luaFieldWorkflow, &build.Workflow)
}

func extractStore(table *lua.LTable, store *Store) {
	setString(table, luaFieldPath, &store.Path)
	setString(table, luaFieldLatestPath, &store.LatestPath)
}

func extractInstall(table *lua.LTable, install *Install) {
	setString(table, luaFieldBinDir, &install.BinDir)
}

// expandConfigPaths resolves ~ in the configured filesystem paths.
func expandConfigPaths(config *Config) (*Config, error) {
	var err error
	if config.Store.Path, err = ExpandPath(config.Store.Path); err != nil {
		return nil, err
	}
	if config.Store.LatestPath != "" {
		if config.Store.LatestPath, err = ExpandPath(config.Store.LatestPath); err != nil {
			return nil, err
		}
	}
	if config.Install.BinDir, err = ExpandPath(config.Install.BinDir); err != nil {
		return nil, err
	}
	return config, nil
}

// FormatError formats a ParseError for user display.
// In verbose mode, show the raw Lua error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	if parseErr, ok := err.(*ParseError); ok {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		// Extract the most relevant part of the error
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
