package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const configFileVar = "CONFIG_FILE"

type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
	SessionConfig
	StorageConfig
}

type EnvConfig interface {
	GetPort() string
	GetPortalPort() string
	GetAppName() string
	GetBaseURL() string
	GetLogLevel() string
	GetEnv() string
	IsProduction() bool
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

// FileSettings mirrors the optional YAML configuration file. Any value left
// empty falls back to the built in default; environment variables win over both.
type FileSettings struct {
	Port       string `yaml:"port"`
	PortalPort string `yaml:"portal_port"`
	AppName    string `yaml:"app_name"`
	BaseURL    string `yaml:"base_url"`
	LogLevel   string `yaml:"log_level"`
	Env        string `yaml:"env"`

	Token struct {
		Algorithm      string `yaml:"algorithm"`
		Secret         string `yaml:"secret"`
		KeyID          string `yaml:"key_id"`
		PrivateKeyPath string `yaml:"private_key_path"`
		PublicKeyPath  string `yaml:"public_key_path"`
		AccessTTL      string `yaml:"access_ttl"`
		RefreshTTL     string `yaml:"refresh_ttl"`
	} `yaml:"token"`

	Session struct {
		Mode          string `yaml:"mode"`
		Backend       string `yaml:"backend"`
		TTL           string `yaml:"ttl"`
		Password      string `yaml:"password"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		AuthServerURL string `yaml:"auth_server_url"`
	} `yaml:"session"`

	Storage struct {
		DataFolder   string `yaml:"data_folder"`
		UserDatabase string `yaml:"user_database"`
	} `yaml:"storage"`

	Cors struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

type mainConfig struct {
	EnvVars
	Cors
	Tokens
	Sessions
	Storage
}

// New returns a configuration backed by environment variables and defaults only.
func New() Config {
	return newMainConfig(&FileSettings{})
}

// Load reads the YAML file at path (or at $CONFIG_FILE when path is empty) and
// layers environment variables on top. No file at all is not an error.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(configFileVar)
	}
	if path == "" {
		return New(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[config.Load] failed to read %s: %w", path, err)
	}

	settings := &FileSettings{}
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("[config.Load] failed to parse %s: %w", path, err)
	}
	return newMainConfig(settings), nil
}

func newMainConfig(settings *FileSettings) mainConfig {
	return mainConfig{
		EnvVars:  EnvVars{file: settings},
		Cors:     Cors{file: settings},
		Tokens:   Tokens{file: settings},
		Sessions: Sessions{file: settings},
		Storage:  Storage{file: settings},
	}
}
