// Package archive builds Walk abstraction on top of "archive/zip".
package archive

import (
	"archive/zip"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/maruel/natural"
	"golang.org/x/text/encoding"
)

// Member is archive entry selected by Walk. Name is entry name decoded with
// requested code page when archive did not mark it as UTF-8.
type Member struct {
	File *zip.File
	Name string
}

// WalkFunc is called for each selected member, archive is the path passed to
// Walk. If an error is returned, processing stops.
type WalkFunc func(archive string, m Member) error

// Filter selects members to visit. Zero Filter selects every file.
type Filter struct {
	// Prefix is matched against decoded name, case sensitive.
	Prefix string
	// Match is optional additional condition on decoded name.
	Match func(name string) bool
	// CodePage decodes names not flagged as UTF-8, nil leaves them as is.
	CodePage encoding.Encoding
}

func (f Filter) decode(file *zip.File) string {
	if !file.NonUTF8 || f.CodePage == nil {
		return file.Name
	}
	if name, err := f.CodePage.NewDecoder().String(file.Name); err == nil {
		return name
	}
	return file.Name
}

func (f Filter) selects(name string) bool {
	if !strings.HasPrefix(name, f.Prefix) {
		return false
	}
	return f.Match == nil || f.Match(name)
}

// Walk visits files in the archive selected by filter in natural order of
// their names, so "page10.html" comes after "page9.html". Archives with
// entries which could escape extraction directory are rejected.
func Walk(archive string, filter Filter, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	var members []Member
	for _, f := range r.File {
		if !isSafePath(f.Name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", f.Name)
		}
		if f.FileInfo().IsDir() {
			continue
		}
		if name := filter.decode(f); filter.selects(name) {
			members = append(members, Member{File: f, Name: name})
		}
	}
	slices.SortStableFunc(members, func(a, b Member) int {
		switch {
		case natural.Less(a.Name, b.Name):
			return -1
		case natural.Less(b.Name, a.Name):
			return 1
		default:
			return 0
		}
	})

	for _, m := range members {
		if err := walkFn(archive, m); err != nil {
			return err
		}
	}
	return nil
}

// isSafePath returns false for absolute paths and those containing ".."
// components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	return !slices.Contains(strings.Split(strings.ReplaceAll(name, `\`, "/"), "/"), "..")
}
