package config

import (
	"os"
	"strings"
)

// Environment is the deployment stage read from APP_ENV.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
	Test        Environment = "test"
)

// GetEnvironment maps APP_ENV and its short aliases onto an Environment.
// Anything unknown counts as development.
func GetEnvironment() Environment {
	switch strings.ToLower(os.Getenv("APP_ENV")) {
	case "production", "prod":
		return Production
	case "staging", "stage":
		return Staging
	case "test", "testing":
		return Test
	default:
		return Development
	}
}

func IsDevelopment() bool {
	return GetEnvironment() == Development
}
