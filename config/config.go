package config

import (
	"os"

	"github.com/ghodss/yaml"
)

// ClientProperties holds everything a client needs besides the transport
// itself: where to connect, how large the pool may grow and the per-call
// time limits.
type ClientProperties struct {
	Address            string `yaml:"address"`
	PoolSize           int    `yaml:"poolSize"`
	DialTimeoutMillis  int    `yaml:"dialTimeoutMillis"`
	ReadTimeoutMillis  int    `yaml:"readTimeoutMillis"`
	WriteTimeoutMillis int    `yaml:"writeTimeoutMillis"`
	EnableMetrics      bool   `yaml:"enableMetrics"`
	DebugMode          bool   `yaml:"debugMode"`
}

var Properties *ClientProperties

func init() {
	Properties = &ClientProperties{
		Address:            "127.0.0.1:6379",
		PoolSize:           8,
		DialTimeoutMillis:  5000,
		ReadTimeoutMillis:  3000,
		WriteTimeoutMillis: 3000,
		EnableMetrics:      true,
		DebugMode:          false,
	}
}

// LoadConfigs overlays the YAML file at configFilePath onto the defaults.
func LoadConfigs(configFilePath string) error {
	content, err := os.ReadFile(configFilePath)
	if err != nil {
		return err
	}
	configs := Properties
	if err := yaml.Unmarshal(content, configs); err != nil {
		return err
	}
	Properties = configs
	return nil
}
