// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package project

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/pdiddy/pagemill/pkg/types"
)

var (
	// ErrMissingField means neither the page nor the defaults supply a value.
	ErrMissingField = errors.New("missing field")

	// ErrUnknownDirectory means a page names a directory alias that the
	// project does not define.
	ErrUnknownDirectory = errors.New("unknown directory alias")
)

// Resolver merges page descriptors with a defaults table.
type Resolver struct {
	defaults    types.PageDescriptor
	directories map[string]string
}

// NewResolver returns a Resolver over the project's defaults and directory
// aliases.
func NewResolver(p *types.Project) *Resolver {
	return &Resolver{defaults: p.Defaults, directories: p.Directories}
}

// Resolve returns the page's own value for field when it is non-empty,
// otherwise the defaults value when that is non-empty. The boolean is false
// when neither supplies a value. An empty string is treated as absent.
func (r *Resolver) Resolve(page types.PageDescriptor, field types.Field) (string, bool) {
	if v := page.Get(field); v != "" {
		return v, true
	}
	if v := r.defaults.Get(field); v != "" {
		return v, true
	}
	return "", false
}

// Require is Resolve for callers that cannot proceed without a value.
func (r *Resolver) Require(page types.PageDescriptor, field types.Field) (string, error) {
	v, ok := r.Resolve(page, field)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	return v, nil
}

// Type returns the resolved page type. An unresolved type is returned as the
// empty PageType, which is not Valid.
func (r *Resolver) Type(page types.PageDescriptor) types.PageType {
	v, _ := r.Resolve(page, types.FieldType)
	return types.PageType(v)
}

// SourcePath joins the resolved directory alias and filename of an image page.
func (r *Resolver) SourcePath(page types.PageDescriptor) (string, error) {
	alias, err := r.Require(page, types.FieldDir)
	if err != nil {
		return "", err
	}
	file, err := r.Require(page, types.FieldFile)
	if err != nil {
		return "", err
	}
	dir, ok := r.directories[alias]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDirectory, alias)
	}
	return filepath.Join(dir, file), nil
}
