package config

import (
	"os"
	"strings"
	"time"
)

const (
	portEnvVar       = "PORT"
	portalPortEnvVar = "PORTAL_PORT"
	appNameVar       = "APP_NAME"
	baseURLVar       = "BASE_URL"
	logLevelVar      = "LOG_LEVEL"
	envVar           = "ENV"
)

type EnvVars struct {
	file *FileSettings
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	return withColon(lookup(portEnvVar, e.file.Port, "8080"))
}

func (e EnvVars) GetPortalPort() string {
	return withColon(lookup(portalPortEnvVar, e.file.PortalPort, "3000"))
}

func (e EnvVars) GetAppName() string {
	return lookup(appNameVar, e.file.AppName, "Go Token Auth")
}

// GetBaseURL returns the public URL of the auth server (e.g., "https://auth.example.com")
func (e EnvVars) GetBaseURL() string {
	return lookup(baseURLVar, e.file.BaseURL, "http://localhost:8080")
}

func (e EnvVars) GetLogLevel() string {
	return lookup(logLevelVar, e.file.LogLevel, "info")
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(lookup(envVar, e.file.Env, "DEV"))
}

func (e EnvVars) IsProduction() bool {
	env := e.GetEnv()
	return env == "PROD" || env == "PRODUCTION"
}

func withColon(port string) string {
	if port != "" && port[0] != ':' {
		return ":" + port
	}
	return port
}

// lookup resolves a setting: environment variable, then file value, then default.
func lookup(envVar, fileValue, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

func lookupDuration(envVar, fileValue string, defaultValue time.Duration) time.Duration {
	raw := lookup(envVar, fileValue, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
