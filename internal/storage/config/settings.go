package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"vsmm/internal/domain"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yaml"
	envPrefix      = "VSMM"

	DefaultAPIURL          = "https://mods.vintagestory.at/api"
	DefaultFilesURL        = "https://mods.vintagestory.at"
	DefaultHTTPTimeout     = 30 * time.Second
	DefaultDetailCacheSize = 256
	DefaultUserAgent       = "Vintage Story Mod Manager"
)

// Settings holds everything the core needs from the environment
type Settings struct {
	GameDir         string              `mapstructure:"game_dir" yaml:"game_dir,omitempty"`
	ModsDir         string              `mapstructure:"mods_dir" yaml:"mods_dir,omitempty"`
	DataDir         string              `mapstructure:"data_dir" yaml:"data_dir,omitempty"`
	ProfilesDir     string              `mapstructure:"profiles_dir" yaml:"profiles_dir,omitempty"`
	APIURL          string              `mapstructure:"api_url" yaml:"api_url"`
	FilesURL        string              `mapstructure:"files_url" yaml:"files_url"`
	DeployMethodStr string              `mapstructure:"deploy_method" yaml:"deploy_method"`
	DeployMethod    domain.DeployMethod `mapstructure:"-" yaml:"-"`
	HTTPTimeout     time.Duration       `mapstructure:"http_timeout" yaml:"http_timeout"`
	DetailCacheSize int                 `mapstructure:"detail_cache_size" yaml:"detail_cache_size"`
	LogLevel        string              `mapstructure:"log_level" yaml:"log_level"`
	UserAgent       string              `mapstructure:"user_agent" yaml:"user_agent"`
}

// Keys lists the settings accepted by Set, sorted
func Keys() []string {
	keys := []string{
		"game_dir", "mods_dir", "data_dir", "profiles_dir", "api_url", "files_url",
		"deploy_method", "http_timeout", "detail_cache_size", "log_level", "user_agent",
	}
	sort.Strings(keys)
	return keys
}

func defaultDataDir(configDir string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(configDir, "data")
	}
	return filepath.Join(home, ".local", "share", "vsmm")
}

// Load reads config.yaml from configDir, applies VSMM_* environment overrides and defaults
func Load(configDir string) (*Settings, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetDefault("game_dir", "")
	v.SetDefault("mods_dir", "")
	v.SetDefault("data_dir", defaultDataDir(configDir))
	v.SetDefault("profiles_dir", filepath.Join(configDir, "profiles"))
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("files_url", DefaultFilesURL)
	v.SetDefault("deploy_method", domain.DeployCopy.String())
	v.SetDefault("http_timeout", DefaultHTTPTimeout)
	v.SetDefault("detail_cache_size", DefaultDetailCacheSize)
	v.SetDefault("log_level", "info")
	v.SetDefault("user_agent", DefaultUserAgent)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks values and resolves DeployMethod from its string form
func (s *Settings) Validate() error {
	method, err := domain.ParseDeployMethod(s.DeployMethodStr)
	if err != nil {
		return err
	}
	s.DeployMethod = method

	if s.HTTPTimeout <= 0 {
		return fmt.Errorf("%w: http_timeout must be positive", domain.ErrInvalidConfig)
	}
	if s.DetailCacheSize <= 0 {
		return fmt.Errorf("%w: detail_cache_size must be positive", domain.ErrInvalidConfig)
	}
	for key, raw := range map[string]string{"api_url": s.APIURL, "files_url": s.FilesURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %s must be an absolute URL, got %q", domain.ErrInvalidConfig, key, raw)
		}
	}
	if s.DataDir == "" || s.ProfilesDir == "" {
		return fmt.Errorf("%w: data_dir and profiles_dir are required", domain.ErrInvalidConfig)
	}
	return nil
}

// RequireGameDir fails when no game folder is configured
func (s *Settings) RequireGameDir() error {
	if s.ModsPath() == "" {
		return fmt.Errorf("%w: game_dir is not set; run 'vsmm config set game_dir <path>'", domain.ErrInvalidConfig)
	}
	return nil
}

// ModsPath is the game folder that deployed archives are placed in
func (s *Settings) ModsPath() string {
	if s.ModsDir != "" {
		return s.ModsDir
	}
	if s.GameDir == "" {
		return ""
	}
	return filepath.Join(s.GameDir, "Mods")
}

// ArchivesDir is the root of the downloaded archive store
func (s *Settings) ArchivesDir() string {
	return filepath.Join(s.DataDir, "archives")
}

// CacheFile is the persisted mod cache snapshot
func (s *Settings) CacheFile() string {
	return filepath.Join(s.DataDir, "mod_cache.json")
}

// JournalPath is the SQLite deploy journal
func (s *Settings) JournalPath() string {
	return filepath.Join(s.DataDir, "vsmm.db")
}

// LogFile is where the zap logger writes
func (s *Settings) LogFile() string {
	return filepath.Join(s.DataDir, "vsmm.log")
}

// Set assigns one key from its string form and re-validates
func (s *Settings) Set(key, value string) error {
	switch key {
	case "game_dir":
		s.GameDir = value
	case "mods_dir":
		s.ModsDir = value
	case "data_dir":
		s.DataDir = value
	case "profiles_dir":
		s.ProfilesDir = value
	case "api_url":
		s.APIURL = value
	case "files_url":
		s.FilesURL = value
	case "deploy_method":
		s.DeployMethodStr = value
	case "http_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: http_timeout: %v", domain.ErrInvalidConfig, err)
		}
		s.HTTPTimeout = d
	case "detail_cache_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: detail_cache_size: %v", domain.ErrInvalidConfig, err)
		}
		s.DetailCacheSize = n
	case "log_level":
		s.LogLevel = value
	case "user_agent":
		s.UserAgent = value
	default:
		return fmt.Errorf("%w: unknown key %q (known: %s)", domain.ErrInvalidConfig, key, strings.Join(Keys(), ", "))
	}
	return s.Validate()
}

// Save writes the settings to config.yaml in configDir
func (s *Settings) Save(configDir string) error {
	s.DeployMethodStr = s.DeployMethod.String()

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	configPath := filepath.Join(configDir, configFileName)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
