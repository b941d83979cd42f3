// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"firestige.xyz/pktinfo/internal/core"
	"firestige.xyz/pktinfo/internal/log"
)

// Filter modes select one of the pipeline drivers.
const (
	FilterModeNone      = "none"      // unfiltered collection
	FilterModeNative    = "native"    // in-process port filter
	FilterModePredicate = "predicate" // port filter called through the predicate boundary
	FilterModeBPF       = "bpf"       // opaque classic BPF program
)

// Config is the top-level configuration. Maps to the `pktinfo:` root key in YAML.
type Config struct {
	Log    log.LoggerConfig `mapstructure:"log"`
	Input  InputConfig      `mapstructure:"input"`
	Filter FilterConfig     `mapstructure:"filter"`
	Output OutputConfig     `mapstructure:"output"`
}

// InputConfig names the capture file to decode.
type InputConfig struct {
	File string `mapstructure:"file"`
}

// FilterConfig describes the optional port filter.
type FilterConfig struct {
	Mode    string   `mapstructure:"mode"`
	Ports   []uint16 `mapstructure:"ports"`
	IPs     []string `mapstructure:"ips"`      // Carried along, never matched
	BPFFile string   `mapstructure:"bpf_file"` // tcpdump -ddd output; empty = compile from ports
}

// OutputConfig controls record rendering.
type OutputConfig struct {
	Format string `mapstructure:"format"` // text | json | yaml
	Count  bool   `mapstructure:"count"`  // print only the number of records
}

type configRoot struct {
	Pktinfo Config `mapstructure:"pktinfo"`
}

// Load loads configuration from file. An empty path yields the defaults plus
// environment overrides (PKTINFO_FILTER_MODE, PKTINFO_LOG_LEVEL, ...).
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// key "pktinfo.log.level" -> env "PKTINFO_LOG_LEVEL"
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Pktinfo

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// Defaults are static; only a broken environment override ends up here.
		return &Config{
			Log:    *log.DefaultConfig(),
			Filter: FilterConfig{Mode: FilterModeNone},
			Output: OutputConfig{Format: "text"},
		}
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("pktinfo.log.level", "info")
	v.SetDefault("pktinfo.log.pattern", log.DefaultPattern)
	v.SetDefault("pktinfo.log.time", log.DefaultTime)

	// Filter defaults
	v.SetDefault("pktinfo.filter.mode", FilterModeNone)

	// Output defaults
	v.SetDefault("pktinfo.output.format", "text")
	v.SetDefault("pktinfo.output.count", false)
}

// ValidateAndApplyDefaults validates configuration and applies runtime defaults.
func (cfg *Config) ValidateAndApplyDefaults() error {
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("%w: log level %q (must be trace/debug/info/warn/error)", core.ErrConfigInvalid, cfg.Log.Level)
	}
	if len(cfg.Log.Appenders) == 0 {
		cfg.Log.Appenders = []log.AppenderConfig{{Type: "console"}}
	}

	if cfg.Filter.Mode == "" {
		cfg.Filter.Mode = FilterModeNone
	}
	switch cfg.Filter.Mode {
	case FilterModeNone:
	case FilterModeNative, FilterModePredicate:
		if len(cfg.Filter.Ports) == 0 {
			return fmt.Errorf("%w: filter.ports is required for mode %q", core.ErrConfigInvalid, cfg.Filter.Mode)
		}
	case FilterModeBPF:
		if cfg.Filter.BPFFile == "" && len(cfg.Filter.Ports) == 0 {
			return fmt.Errorf("%w: filter.bpf_file or filter.ports is required for mode %q", core.ErrConfigInvalid, cfg.Filter.Mode)
		}
	default:
		return fmt.Errorf("%w: filter mode %q (must be none/native/predicate/bpf)", core.ErrConfigInvalid, cfg.Filter.Mode)
	}

	switch cfg.Output.Format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("%w: output format %q (must be text/json/yaml)", core.ErrConfigInvalid, cfg.Output.Format)
	}

	return nil
}
