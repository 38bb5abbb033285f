// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package project loads project documents and resolves per-page fields
// against the project defaults.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pagemill/pkg/types"
)

// DefaultPrefix is used for staged filenames when the project sets none.
const DefaultPrefix = "page"

// ErrInvalidProject is wrapped by every validation failure in Load.
var ErrInvalidProject = errors.New("invalid project")

// Load reads and validates the project document at path. Relative staging,
// output, and directory paths are resolved against the document's directory.
// Any failure aborts the load; a partially populated project is never
// returned.
func Load(path string) (*types.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project: %w", err)
	}
	var p types.Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing project %s: %w", path, err)
	}
	if err := Validate(&p); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	base := filepath.Dir(path)
	p.Path = path
	p.Settings.Staging = anchor(base, p.Settings.Staging)
	p.Settings.Output = anchor(base, p.Settings.Output)
	for alias, dir := range p.Directories {
		p.Directories[alias] = anchor(base, dir)
	}
	if p.Settings.Prefix == "" {
		p.Settings.Prefix = DefaultPrefix
	}
	return &p, nil
}

// Validate checks the settings every run depends on. Page-level problems
// (unknown page types, missing files) are not checked here; they surface
// when the page is rendered.
func Validate(p *types.Project) error {
	s := p.Settings
	var problems []string
	if strings.TrimSpace(s.Staging) == "" {
		problems = append(problems, "project.staging is required")
	}
	if strings.TrimSpace(s.Output) == "" {
		problems = append(problems, "project.output is required")
	}
	if s.PageDimension.Width() <= 0 || s.PageDimension.Height() <= 0 {
		problems = append(problems, "project.page_dimension must be two positive integers")
	}
	if s.SubDimension.Width() <= 0 || s.SubDimension.Height() <= 0 {
		problems = append(problems, "project.sub_dimension must be two positive integers")
	}
	if s.DPI <= 0 {
		problems = append(problems, "project.dpi must be positive")
	}
	if strings.ContainsAny(s.Prefix, `/\`) {
		problems = append(problems, "project.prefix must not contain path separators")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidProject, strings.Join(problems, "; "))
	}
	return nil
}

func anchor(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return filepath.Clean(filepath.Join(base, p))
}
