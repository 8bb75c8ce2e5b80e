package publisher

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"postline/app/schedule"
)

// Config maps each platform to its publish endpoint.
type Config struct {
	Platforms map[string]EndpointConfig `yaml:"platforms"`
}

type EndpointConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// LoadConfig reads the platform endpoint configuration from a YAML file.
// Unknown platform keys are rejected so a typo does not silently disable
// publishing for a platform.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read platforms file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse platforms file: %w", err)
	}

	if len(config.Platforms) == 0 {
		return nil, fmt.Errorf("platforms file %s defines no platforms", path)
	}

	for name, endpoint := range config.Platforms {
		if _, err := schedule.ParsePlatform(name); err != nil {
			return nil, fmt.Errorf("platforms file %s: %w", path, err)
		}
		if endpoint.URL == "" {
			return nil, fmt.Errorf("platforms file %s: platform %q has no url", path, name)
		}
	}

	return &config, nil
}
