package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// AppConfig holds daemon-wide configuration.
type AppConfig struct {
	DataDir           string `mapstructure:"data_dir" json:"data_dir"`
	LogDir            string `mapstructure:"log_dir" json:"log_dir"`
	LogLevel          string `mapstructure:"log_level" json:"log_level"`
	ListenAddr        string `mapstructure:"listen_addr" json:"listen_addr"`
	SteamCMDPath      string `mapstructure:"steamcmd_path" json:"steamcmd_path"`
	DefaultInstallDir string `mapstructure:"default_install_dir" json:"default_install_dir"`
	BackupDir         string `mapstructure:"backup_dir" json:"backup_dir"`
	SchedulerTimezone string `mapstructure:"scheduler_timezone" json:"scheduler_timezone"`
	Debug             bool   `mapstructure:"debug" json:"debug"`
}

// Load reads config.yaml from the user config dir, creating it with
// defaults on first run, and ensures all referenced directories exist.
func Load() (*AppConfig, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return nil, herr
		}
		base = home
	}

	dataDir := filepath.Join(base, "cs2panel")

	cfg := &AppConfig{
		DataDir:           dataDir,
		LogDir:            filepath.Join(dataDir, "logs"),
		LogLevel:          "info",
		ListenAddr:        "127.0.0.1:8960",
		SteamCMDPath:      filepath.Join(dataDir, "steamcmd"),
		DefaultInstallDir: filepath.Join(dataDir, "servers"),
		BackupDir:         filepath.Join(dataDir, "backups"),
		SchedulerTimezone: "UTC",
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return cfg, nil
	}

	configPath := filepath.Join(dataDir, "config.yaml")

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(configPath)

	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("log_dir", cfg.LogDir)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("listen_addr", cfg.ListenAddr)
	v.SetDefault("steamcmd_path", cfg.SteamCMDPath)
	v.SetDefault("default_install_dir", cfg.DefaultInstallDir)
	v.SetDefault("backup_dir", cfg.BackupDir)
	v.SetDefault("scheduler_timezone", cfg.SchedulerTimezone)
	v.SetDefault("debug", false)

	if err := v.ReadInConfig(); err != nil {
		_ = v.WriteConfigAs(configPath)
	}

	_ = v.Unmarshal(cfg)

	for _, d := range []string{cfg.DataDir, cfg.LogDir, cfg.SteamCMDPath, cfg.DefaultInstallDir, cfg.BackupDir} {
		if d != "" {
			_ = os.MkdirAll(d, 0755)
		}
	}

	return cfg, nil
}

// Save writes the configuration back to config.yaml.
func (c *AppConfig) Save() error {
	if c.DataDir == "" {
		return errors.New("data_dir is empty")
	}

	configPath := filepath.Join(c.DataDir, "config.yaml")
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(configPath)

	v.Set("data_dir", c.DataDir)
	v.Set("log_dir", c.LogDir)
	v.Set("log_level", c.LogLevel)
	v.Set("listen_addr", c.ListenAddr)
	v.Set("steamcmd_path", c.SteamCMDPath)
	v.Set("default_install_dir", c.DefaultInstallDir)
	v.Set("backup_dir", c.BackupDir)
	v.Set("scheduler_timezone", c.SchedulerTimezone)
	v.Set("debug", c.Debug)

	return v.WriteConfig()
}

// DBPath returns the sqlite database path under the data dir.
func (c *AppConfig) DBPath() string {
	return filepath.Join(c.DataDir, "cs2panel.db")
}
