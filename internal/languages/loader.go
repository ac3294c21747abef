package languages

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type languagesFile struct {
	Languages []Language `yaml:"languages"`
}

// LoadFile reads administratively maintained language definitions from a
// YAML file:
//
//	languages:
//	  - code: en
//	    name: English
//	    tokenizer: unicode
//	    stopwords: [the, of, and]
func LoadFile(path string) ([]Language, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load languages %s: %w", path, err)
	}
	var file languagesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("load languages %s: %w", path, err)
	}
	if len(file.Languages) == 0 {
		return nil, fmt.Errorf("load languages %s: %w", path, ErrNoLanguages)
	}
	return file.Languages, nil
}
