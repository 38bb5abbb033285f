// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pagemill/pkg/types"
)

// StarterFile is the filename written by Scaffold.
const StarterFile = "project.yaml"

// ErrExists is returned by Save when the target file is already present.
var ErrExists = errors.New("file already exists")

// Starter returns a small, valid project: A4 at 300 dpi with a title page,
// one image page read from the "inks" directory, and a closing blank page.
func Starter(title, author string) *types.Project {
	return &types.Project{
		Settings: types.Settings{
			Staging:       "staging",
			Prefix:        DefaultPrefix,
			SubDimension:  types.Dimension{2000, 3000},
			PageDimension: types.Dimension{2480, 3508},
			Displacement:  types.Displacement{Recto: 300, Verso: 180, Vertical: 250},
			Title:         title,
			Author:        author,
			DPI:           300,
			Output:        "out/book.pdf",
			Filenames:     true,
		},
		Defaults: types.PageDescriptor{
			Type:       string(types.PageImage),
			Dir:        "inks",
			Colorspace: types.ColorspaceMono,
		},
		Directories: map[string]string{"inks": "inks"},
		Pages: []types.PageDescriptor{
			{Type: string(types.PageFrontMatter)},
			{File: "page_001.png", Memo: "first spread"},
			{Type: string(types.PageBlank)},
		},
	}
}

// Save writes p as YAML to path. It never overwrites an existing file.
func Save(path string, p *types.Project) error {
	if err := Validate(p); err != nil {
		return err
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding project: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating project directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
		return fmt.Errorf("writing project: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing project: %w", err)
	}
	return f.Close()
}

// Scaffold writes a starter project into dir along with the directories it
// names, and returns the project file path.
func Scaffold(dir, title, author string) (string, error) {
	p := Starter(title, author)
	path := filepath.Join(dir, StarterFile)
	if err := Save(path, p); err != nil {
		return "", err
	}
	for _, d := range p.Directories {
		if err := os.MkdirAll(anchor(dir, d), 0o755); err != nil {
			return "", fmt.Errorf("creating %s: %w", d, err)
		}
	}
	return path, nil
}
