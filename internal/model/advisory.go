package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DiseaseInfo is the advisory text shown alongside a confident prediction.
type DiseaseInfo struct {
	Treatment string   `json:"treatment" yaml:"treatment"`
	Schemes   []string `json:"govt_schemes" yaml:"govt_schemes"`
}

// Advisory maps a class label to its DiseaseInfo. It is read-only once
// loaded.
type Advisory map[string]DiseaseInfo

// LoadAdvisory reads a JSON or YAML (by extension) label → info table.
func LoadAdvisory(path string) (Advisory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read disease info: %w", err)
	}

	advisory := Advisory{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &advisory)
	default:
		err = json.Unmarshal(raw, &advisory)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse disease info %s: %w", path, err)
	}

	return advisory, nil
}

// Lookup never returns a nil scheme list so callers can serialize it as [].
func (a Advisory) Lookup(label string) DiseaseInfo {
	info, ok := a[label]
	if !ok {
		return DiseaseInfo{Schemes: []string{}}
	}

	schemes := make([]string, len(info.Schemes))
	copy(schemes, info.Schemes)
	return DiseaseInfo{Treatment: info.Treatment, Schemes: schemes}
}
