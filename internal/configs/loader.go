package configs

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type configsFile struct {
	Configurations []Configuration `yaml:"configurations"`
}

// LoadFile reads configuration snapshots from a YAML file:
//
//	configurations:
//	  - id: standard
//	    version: 1
//	    active: true
//	    stages:
//	      - name: tokenization
//	        enabled: true
//	      - name: frequency
//	        enabled: true
//	        params: {top_terms: 10}
func LoadFile(path string) ([]Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load configurations %s: %w", path, err)
	}
	var file configsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("load configurations %s: %w", path, err)
	}
	for _, cfg := range file.Configurations {
		if cfg.ID == "" || cfg.Version <= 0 {
			return nil, fmt.Errorf("load configurations %s: entry needs id and positive version", path)
		}
	}
	return file.Configurations, nil
}
