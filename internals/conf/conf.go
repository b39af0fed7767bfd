package conf

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"

	z "github.com/Oudwins/zog"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Version string       `json:"-" yaml:"-"`
	Server  ServerConfig `json:"server" yaml:"server"`
	Work    WorkConfig   `json:"work" yaml:"work"`
	Pages   PagesConfig  `json:"pages" yaml:"pages"`
	Notify  NotifyConfig `json:"notify" yaml:"notify"`
}

type ServerConfig struct {
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// WorkConfig locates the staging-directory root shared by all pipeline runs.
type WorkConfig struct {
	Dir string `json:"dir" yaml:"dir"`
}

type PagesConfig struct {
	PollTimeoutSeconds  int `json:"poll_timeout_seconds" yaml:"poll_timeout_seconds"`
	PollIntervalSeconds int `json:"poll_interval_seconds" yaml:"poll_interval_seconds"`
}

type NotifyConfig struct {
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`
}

var serverSchema = z.Struct(z.Shape{
	"DataDir": z.String().Default("~/.deployer").Transform(expandPathTransform),
})

var workSchema = z.Struct(z.Shape{
	"Dir": z.String().Default("~/.deployer/work").Transform(expandPathTransform),
})

var pagesSchema = z.Struct(z.Shape{
	"PollTimeoutSeconds":  z.Int().Default(180),
	"PollIntervalSeconds": z.Int().Default(3),
})

var notifySchema = z.Struct(z.Shape{
	"MaxAttempts": z.Int().Default(6),
})

var ConfigSchema = z.Struct(z.Shape{
	"server": serverSchema,
	"work":   workSchema,
	"pages":  pagesSchema,
	"notify": notifySchema,
})

var config *Config

func GetConfig() *Config {
	if config == nil {
		defaults := &Config{}
		if err := ConfigSchema.Parse(map[string]any{}, defaults); err != nil {
			log.Fatal("[Deployer] Failed to parse config", err)
		}
		defaults.Version = "0.1.0"

		dataDir, err := expandPath(defaults.Server.DataDir)
		if err != nil {
			log.Fatal("[Deployer] Failed to expand config data dir", err)
		}

		payload, found, err := readConfigFile(filepath.Clean(dataDir))
		if err != nil {
			log.Fatal("[Deployer] Failed to read config file", err)
		}
		if !found {
			config = defaults
			return config
		}

		parsed := &Config{}
		if err := ConfigSchema.Parse(payload, parsed); err != nil {
			log.Fatal("[Deployer] Failed to parse config", err)
		}
		parsed.Version = defaults.Version
		config = parsed
	}

	return config
}

// readConfigFile loads deployer.json, falling back to deployer.yaml. Both
// decode to the loose map the schema parses, so defaults still apply to any
// keys the file leaves out.
func readConfigFile(dataDir string) (map[string]any, bool, error) {
	jsonPath := filepath.Join(dataDir, "deployer.json")
	data, err := os.ReadFile(jsonPath)
	if err == nil {
		if strings.TrimSpace(string(data)) == "" {
			return nil, false, nil
		}
		var payload map[string]any
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, false, err
		}
		return payload, true, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, false, err
	}

	yamlPath := filepath.Join(dataDir, "deployer.yaml")
	data, err = os.ReadFile(yamlPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, false, nil
	}
	var payload map[string]any
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func expandPathTransform(ptr *string, c z.Ctx) error {
	expanded, err := expandPath(*ptr)
	*ptr = expanded
	return err
}

func expandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
	}
	return path, nil
}
