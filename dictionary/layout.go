// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package dictionary

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/blang/semver"
	"gopkg.in/yaml.v3"
)

// IssueSeverity grades a known keyboard layout issue
type IssueSeverity string

const (
	IssueMinor    IssueSeverity = "minor"
	IssueModerate IssueSeverity = "moderate"
	IssueMajor    IssueSeverity = "major"
)

type KnownIssue struct {
	Severity    IssueSeverity `json:"severity" yaml:"severity"`
	Description string        `json:"description" yaml:"description"`
	Workaround  string        `json:"workaround,omitempty" yaml:"workaround,omitempty"`
}

// KeyboardLayout is published metadata about a dialect keyboard layout
type KeyboardLayout struct {
	ID                        string       `json:"id" yaml:"id"`
	Name                      string       `json:"name" yaml:"name"`
	Version                   string       `json:"version" yaml:"version"`
	License                   string       `json:"license,omitempty" yaml:"license,omitempty"`
	Description               string       `json:"description" yaml:"description"`
	RepoURL                   string       `json:"repoUrl" yaml:"repoUrl"`
	SymbolicExpressiveness    int          `json:"symbolicExpressiveness" yaml:"symbolicExpressiveness"`
	CoreFunctionalityRetained int          `json:"coreFunctionalityRetained" yaml:"coreFunctionalityRetained"`
	InstallInstructions       string       `json:"installInstructions,omitempty" yaml:"installInstructions,omitempty"`
	KnownIssues               []KnownIssue `json:"knownIssues,omitempty" yaml:"knownIssues,omitempty"`
	Tradeoffs                 []string     `json:"tradeoffs,omitempty" yaml:"tradeoffs,omitempty"`
	Tags                      []string     `json:"tags,omitempty" yaml:"tags,omitempty"`
	DateCreated               string       `json:"dateCreated,omitempty" yaml:"dateCreated,omitempty"`
	DateUpdated               string       `json:"dateUpdated,omitempty" yaml:"dateUpdated,omitempty"`
	Maintainers               []string     `json:"maintainers,omitempty" yaml:"maintainers,omitempty"`
}

// HasTag reports whether the layout is tagged with tag
func (l KeyboardLayout) HasTag(tag string) bool {
	return slices.Contains(l.Tags, tag)
}

type layoutFile struct {
	Layouts []KeyboardLayout `json:"layouts" yaml:"layouts"`
}

// LoadLayouts reads a keyboard layout file in JSON or YAML
func LoadLayouts(path string) ([]KeyboardLayout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseLayouts(data)
}

// ParseLayouts decodes a {"layouts": [...]} document. Input starting with
// '{' is read as JSON, anything else as YAML.
func ParseLayouts(data []byte) ([]KeyboardLayout, error) {
	var f layoutFile
	var err error
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse keyboard layouts: %w", err)
	}
	if err := ValidateLayouts(f.Layouts); err != nil {
		return nil, err
	}
	return f.Layouts, nil
}

// ValidateLayouts applies light checks. Layout metadata is maintained
// upstream, so only what the API relies on is enforced.
func ValidateLayouts(layouts []KeyboardLayout) error {
	var violations []Violation
	fail := func(i int, id, field, format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		if id != "" {
			msg = fmt.Sprintf("layout %q: %s", id, msg)
		}
		violations = append(violations, Violation{Index: i, Field: field, Message: msg})
	}

	seen := make(map[string]bool)
	for i, l := range layouts {
		if l.ID == "" {
			fail(i, "", "id", "layouts[%d] must have an id", i)
		} else if seen[l.ID] {
			fail(i, l.ID, "id", "duplicate id")
		}
		seen[l.ID] = true

		if l.Name == "" {
			fail(i, l.ID, "name", "required")
		}
		if _, err := semver.Parse(l.Version); err != nil {
			fail(i, l.ID, "version", "must be a semantic version: %v", err)
		}
		if l.Description == "" {
			fail(i, l.ID, "description", "required")
		}
		if !isValidURL(l.RepoURL) {
			fail(i, l.ID, "repoUrl", "must be an absolute URL")
		}
		if l.SymbolicExpressiveness < 1 || l.SymbolicExpressiveness > 10 {
			fail(i, l.ID, "symbolicExpressiveness", "must be between 1 and 10")
		}
		if l.CoreFunctionalityRetained < 1 || l.CoreFunctionalityRetained > 10 {
			fail(i, l.ID, "coreFunctionalityRetained", "must be between 1 and 10")
		}
		for j, issue := range l.KnownIssues {
			switch issue.Severity {
			case IssueMinor, IssueModerate, IssueMajor:
			default:
				fail(i, l.ID, fmt.Sprintf("knownIssues[%d].severity", j), "unknown severity %q", issue.Severity)
			}
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
