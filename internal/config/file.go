package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"whatip/internal/logger"
)

// ServiceConfig is one entry under ip_services in the config file.
// Timeout is in seconds; Enabled defaults to true when absent.
type ServiceConfig struct {
	URL     string `yaml:"url"`
	Timeout int    `yaml:"timeout"`
	Enabled *bool  `yaml:"enabled"`
}

// ResolverConfig is the dns_resolver section of the config file.
type ResolverConfig struct {
	EnableCache *bool `yaml:"enable_cache"`
	DefaultTTL  int   `yaml:"default_ttl"` // seconds
}

// File is the parsed whatip.yaml configuration.
type File struct {
	IPServices  map[string]ServiceConfig
	DNSResolver ResolverConfig
}

// rawFile keeps ip_services entries as raw nodes so one malformed entry
// can be skipped without rejecting the whole file.
type rawFile struct {
	IPServices  map[string]yaml.Node `yaml:"ip_services"`
	DNSResolver ResolverConfig       `yaml:"dns_resolver"`
}

// LoadFile reads and parses the whatip.yaml configuration file.
// Malformed ip_services entries are skipped with a warning, never fatal.
func LoadFile(path string, log logger.Logger) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw rawFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}

	f := &File{
		IPServices:  make(map[string]ServiceConfig, len(raw.IPServices)),
		DNSResolver: raw.DNSResolver,
	}

	for name, node := range raw.IPServices {
		var svc ServiceConfig
		if err := node.Decode(&svc); err != nil {
			log.Warn("skipping malformed service entry",
				logger.String("service", name),
				logger.Error(err))
			continue
		}
		f.IPServices[name] = svc
	}

	return f, nil
}
