// Package parser walks a project tree, selects documentation files, and
// chunks them into documents and snippets.
package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Project config file names, tried in order.
var configFileNames = []string{"codex7.json", "context7.json"}

// ProjectConfig is the optional per-project configuration file.
type ProjectConfig struct {
	ProjectTitle     string   `json:"projectTitle"`
	Description      string   `json:"description"`
	Folders          []string `json:"folders"`
	ExcludeFolders   []string `json:"excludeFolders"`
	ExcludeFiles     []string `json:"excludeFiles"`
	Rules            []string `json:"rules"`
	PreviousVersions []struct {
		Tag   string `json:"tag"`
		Title string `json:"title"`
	} `json:"previousVersions"`
}

// LoadProjectConfig reads the project configuration from the root directory.
// A missing file yields a zero config with no warning; a malformed file
// yields a zero config plus a warning — config errors never abort indexing.
func LoadProjectConfig(root string) (ProjectConfig, []string) {
	var warnings []string
	for _, name := range configFileNames {
		path := filepath.Join(root, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			warnings = append(warnings, fmt.Sprintf("read %s: %v", name, err))
			continue
		}

		var cfg ProjectConfig
		if err := json.Unmarshal(data, &cfg); err != nil {
			warnings = append(warnings, fmt.Sprintf("parse %s: %v (using defaults)", name, err))
			return ProjectConfig{}, warnings
		}
		return cfg, warnings
	}
	return ProjectConfig{}, warnings
}
