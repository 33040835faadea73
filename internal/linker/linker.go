// Package linker places archive files into the game's mod directory.
package linker

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"vsmm/internal/domain"
)

// Linker places src at dst using one deploy method
type Linker interface {
	Place(src, dst string) error
	Method() domain.DeployMethod
}

// New creates a linker for the given method
func New(method domain.DeployMethod) Linker {
	switch method {
	case domain.DeploySymlink:
		return symlinker{}
	case domain.DeployHardlink:
		return hardlinker{}
	default:
		return copier{}
	}
}

func prepare(dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("%w: creating destination dir: %v", domain.ErrLinkFailed, err)
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: removing existing %s: %v", domain.ErrLinkFailed, filepath.Base(dst), err)
	}
	return nil
}

// copier copies through a temp file so dst never holds a partial archive
type copier struct{}

func (copier) Method() domain.DeployMethod { return domain.DeployCopy }

func (copier) Place(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: opening source: %v", domain.ErrLinkFailed, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("%w: creating destination dir: %v", domain.ErrLinkFailed, err)
	}

	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("%w: creating destination: %v", domain.ErrLinkFailed, err)
	}
	defer func() {
		if err != nil {
			out.Close()
			os.Remove(tmp)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return fmt.Errorf("%w: copying %s: %v", domain.ErrLinkFailed, filepath.Base(src), err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("%w: closing destination: %v", domain.ErrLinkFailed, err)
	}
	if err = os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("%w: renaming into place: %v", domain.ErrLinkFailed, err)
	}
	return nil
}

type symlinker struct{}

func (symlinker) Method() domain.DeployMethod { return domain.DeploySymlink }

func (symlinker) Place(src, dst string) error {
	abs, err := filepath.Abs(src)
	if err != nil {
		return fmt.Errorf("%w: resolving source: %v", domain.ErrLinkFailed, err)
	}
	if err := prepare(dst); err != nil {
		return err
	}
	if err := os.Symlink(abs, dst); err != nil {
		return fmt.Errorf("%w: creating symlink: %v", domain.ErrLinkFailed, err)
	}
	return nil
}

type hardlinker struct{}

func (hardlinker) Method() domain.DeployMethod { return domain.DeployHardlink }

func (hardlinker) Place(src, dst string) error {
	if err := prepare(dst); err != nil {
		return err
	}
	if err := os.Link(src, dst); err != nil {
		return fmt.Errorf("%w: creating hardlink: %v", domain.ErrLinkFailed, err)
	}
	return nil
}
