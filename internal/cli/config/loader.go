package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store the logger in the command context.
type loggerKey struct{}

// Package-level koanf instance and config file tracking.
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// findConfigFile finds the config file to use.
// Priority: explicit path > ./quantumctl.yaml > ./quantumctl.yml >
// $QUANTUM_RUST_HOME/quantumctl.yaml
func findConfigFile(explicit, home string) string {
	if explicit != "" {
		return explicit
	}
	candidates := []string{"quantumctl.yaml", "quantumctl.yml"}
	if home != "" {
		candidates = append(candidates,
			filepath.Join(home, "quantumctl.yaml"),
			filepath.Join(home, "quantumctl.yml"),
		)
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for a fresh load
	k = koanf.New(".")

	// 1. Load defaults
	defaultHome := DefaultHome()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"home":        defaultHome,
		"bin_dir":     filepath.Join(defaultHome, DefaultBinDirName),
		"state_path":  filepath.Join(defaultHome, DefaultStateFile),
		"backup_root": DefaultBackupRoot(),
		"tools":       DefaultTools,
		"rc_files":    DefaultRCFiles(),
		"quiet":       false,
		"verbose":     false,
		"output":      DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	configFileUsed = findConfigFile(cfgFile, expandPath(os.Getenv("QUANTUM_RUST_HOME")))
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (QUANTUMCTL_ prefix)
	// Transform: QUANTUMCTL_BIN_DIR -> bin_dir, with __ marking nesting
	// (QUANTUMCTL_LOG__LEVEL -> log.level) so single underscores stay
	// available for flat keys.
	if err := k.Load(env.Provider("QUANTUMCTL_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "QUANTUMCTL_"))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case to snake_case for config keys
			key := strings.ReplaceAll(f.Name, "-", "_")

			// --state is the flag spelling for the state_path config key
			if key == "state" {
				return "state_path", posflag.FlagVal(flags, f)
			}

			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct. The decode hook splits comma-joined
	// tool lists so QUANTUMCTL_TOOLS=rustc,cargo works.
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Expand ~ and ${VAR} in all paths, then derive unset paths from home
	cfg.Home = expandPath(cfg.Home)
	cfg.BinDir = expandPath(cfg.BinDir)
	cfg.StatePath = expandPath(cfg.StatePath)
	cfg.BackupRoot = expandPath(cfg.BackupRoot)
	for i, rc := range cfg.RCFiles {
		cfg.RCFiles[i] = expandPath(rc)
	}

	if cfg.BinDir == "" {
		cfg.BinDir = filepath.Join(cfg.Home, DefaultBinDirName)
	}
	if cfg.StatePath == "" {
		cfg.StatePath = filepath.Join(cfg.Home, DefaultStateFile)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
func GetCurrentConfig() *Config {
	return currentConfig
}

// WithLogger stores the logger in a context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandPath expands a leading ~ and ${VAR} references.
func expandPath(p string) string {
	if p == "" {
		return p
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return envVarPattern.ReplaceAllStringFunc(p, func(match string) string {
		name := match[2 : len(match)-1]
		if val := os.Getenv(name); val != "" {
			return val
		}
		return match
	})
}
