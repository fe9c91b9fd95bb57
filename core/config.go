package core

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Config is the root configuration object, parsed from the YAML file
// named on the command line. Its section layout follows the
// `general` / `log` / `tables` / `rib` sections; `face_system` is the
// face/transport layer and is out of scope here.
type Config struct {
	General GeneralConfig `yaml:"general"`
	Log     LogConfig     `yaml:"log"`
	Tables  TablesConfig  `yaml:"tables"`
	Rib     RibConfig     `yaml:"rib"`

	// BaseDir is not part of the file; it is set to the config
	// file's directory before parsing, for resolving relative paths.
	BaseDir string `yaml:"-"`

	CpuProfile   string `yaml:"-"`
	MemProfile   string `yaml:"-"`
	BlockProfile string `yaml:"-"`
}

// GeneralConfig corresponds to the `general` section.
type GeneralConfig struct {
	User  string `yaml:"user"`
	Group string `yaml:"group"`
}

// LogConfig corresponds to the `log` section: a default
// level plus per-module overrides.
type LogConfig struct {
	DefaultLevel string            `yaml:"default_level"`
	Modules      map[string]string `yaml:"modules"`
}

// TablesConfig corresponds to the `tables` section.
type TablesConfig struct {
	CsMaxPackets        int               `yaml:"cs_max_packets"`
	CsPolicy            string            `yaml:"cs_policy"`
	CsUnsolicitedPolicy string            `yaml:"cs_unsolicited_policy"`
	StrategyChoice      map[string]string `yaml:"strategy_choice"`
	NetworkRegion       []string          `yaml:"network_region"`
}

// RibConfig corresponds to the `rib` section.
type RibConfig struct {
	RemoteRegister RemoteRegisterConfig `yaml:"remote_register"`
}

// RemoteRegisterConfig corresponds to the
// `rib.remote_register` subsection.
type RemoteRegisterConfig struct {
	Cost            uint64        `yaml:"cost"`
	Timeout         time.Duration `yaml:"timeout"`
	Retry           int           `yaml:"retry"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

const defaultRefreshInterval = 25 * time.Second
const maxRefreshInterval = 600 * time.Second
const defaultCsMaxPackets = 65536

// DefaultConfig returns a Config populated with documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			DefaultLevel: "INFO",
			Modules:      map[string]string{},
		},
		Tables: TablesConfig{
			CsMaxPackets: defaultCsMaxPackets,
			CsPolicy:     "lru",
		},
		Rib: RibConfig{
			RemoteRegister: RemoteRegisterConfig{
				RefreshInterval: defaultRefreshInterval,
			},
		},
	}
}

// ReadYamlConfig parses the YAML file at path into cfg, validating the
// documented bounds (unknown keys fail parse via strict
// decoding; a refresh_interval above its documented maximum or a
// negative cs_max_packets is rejected with an error).
func ReadYamlConfig(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Rib.RemoteRegister.RefreshInterval > maxRefreshInterval {
		return fmt.Errorf("rib.remote_register.refresh_interval exceeds max %s", maxRefreshInterval)
	}
	if cfg.Tables.CsMaxPackets < 0 {
		return fmt.Errorf("tables.cs_max_packets must not be negative")
	}
	return nil
}

// ApplyLogConfig installs the parsed log levels onto the process Log.
func ApplyLogConfig(lc LogConfig) error {
	if lc.DefaultLevel != "" {
		lvl, err := ParseLevel(lc.DefaultLevel)
		if err != nil {
			return err
		}
		Log.SetDefaultLevel(lvl)
	}
	for module, levelStr := range lc.Modules {
		lvl, err := ParseLevel(levelStr)
		if err != nil {
			return fmt.Errorf("log.%s: %w", module, err)
		}
		Log.SetModuleLevel(module, lvl)
	}
	return nil
}
