// Package cache lays out downloaded mod archives on disk, one directory per mod version.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// tempSuffix marks in-flight downloads; such files never count as present
const tempSuffix = ".tmp"

// Archive is one stored archive file
type Archive struct {
	ModID   int
	Version string
	Name    string
	Path    string
	Size    int64
}

// Cache manages the archive store under basePath
type Cache struct {
	basePath string
}

// New creates a new archive cache rooted at basePath
func New(basePath string) *Cache {
	return &Cache{basePath: basePath}
}

// BasePath returns the root directory of the archive store
func (c *Cache) BasePath() string {
	return c.basePath
}

// ModPath returns the directory holding the archive for a mod version
func (c *Cache) ModPath(modID int, version string) string {
	return filepath.Join(c.basePath, strconv.Itoa(modID), escapeVersion(version))
}

// ArchivePath returns where the named archive for a mod version is stored
func (c *Cache) ArchivePath(modID int, version, archiveName string) string {
	return filepath.Join(c.ModPath(modID, version), archiveName)
}

// Find returns the stored archive for a mod version, if present
func (c *Cache) Find(modID int, version string) (string, bool) {
	dir := c.ModPath(modID, version)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasSuffix(entry.Name(), tempSuffix) {
			continue
		}
		return filepath.Join(dir, entry.Name()), true
	}
	return "", false
}

// List returns every stored archive, ordered by mod and version
func (c *Cache) List() ([]Archive, error) {
	var archives []Archive
	err := filepath.WalkDir(c.basePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == c.basePath {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || strings.HasSuffix(d.Name(), tempSuffix) {
			return nil
		}

		rel, err := filepath.Rel(c.basePath, p)
		if err != nil {
			return err
		}
		parts := strings.Split(rel, string(filepath.Separator))
		if len(parts) != 3 {
			return nil
		}
		modID, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		archives = append(archives, Archive{
			ModID:   modID,
			Version: unescapeVersion(parts[1]),
			Name:    parts[2],
			Path:    p,
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing archives: %w", err)
	}

	sort.Slice(archives, func(i, j int) bool {
		if archives[i].ModID != archives[j].ModID {
			return archives[i].ModID < archives[j].ModID
		}
		return archives[i].Version < archives[j].Version
	})
	return archives, nil
}

// Delete removes a stored mod version
func (c *Cache) Delete(modID int, version string) error {
	if err := os.RemoveAll(c.ModPath(modID, version)); err != nil {
		return fmt.Errorf("deleting archive: %w", err)
	}
	// Drop the mod directory once its last version is gone
	_ = os.Remove(filepath.Join(c.basePath, strconv.Itoa(modID)))
	return nil
}

// ArchiveName derives the local file name from an archive reference,
// e.g. "https://mods.vintagestory.at/files/asset/1/foo_1.0.zip?dl=1" -> "foo_1.0.zip"
func ArchiveName(ref string) (string, error) {
	p := ref
	if u, err := url.Parse(ref); err == nil {
		p = u.Path
	}
	p = strings.TrimRight(p, "/")
	name := path.Base(p)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if name == "" || name == "." || name == "/" || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("archive reference %q has no usable file name", ref)
	}
	return name, nil
}

// escapeVersion keeps versions usable as directory names
func escapeVersion(version string) string {
	escaped := url.PathEscape(version)
	if escaped == "" || escaped == "." || escaped == ".." {
		return strings.Repeat("%2E", len(escaped)) + "_"
	}
	return escaped
}

func unescapeVersion(dir string) string {
	if dots, ok := strings.CutSuffix(dir, "_"); ok && dots == strings.Repeat("%2E", len(dots)/3) {
		return strings.Repeat(".", len(dots)/3)
	}
	if v, err := url.PathUnescape(dir); err == nil {
		return v
	}
	return dir
}
