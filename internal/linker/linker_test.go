package linker_test

import (
	"os"
	"path/filepath"
	"testing"

	"vsmm/internal/domain"
	"vsmm/internal/linker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, dir string) string {
	t.Helper()
	src := filepath.Join(dir, "store", "mod.zip")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0755))
	require.NoError(t, os.WriteFile(src, []byte("archive"), 0644))
	return src
}

func TestCopy_Place(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir)
	dst := filepath.Join(dir, "Mods", "mod.zip")

	require.NoError(t, linker.New(domain.DeployCopy).Place(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("archive"), data)

	_, err = os.Stat(dst + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestCopy_Place_Overwrites(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir)
	dst := filepath.Join(dir, "mod.zip")
	require.NoError(t, os.WriteFile(dst, []byte("old contents"), 0644))

	require.NoError(t, linker.New(domain.DeployCopy).Place(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("archive"), data)
}

func TestCopy_Place_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := linker.New(domain.DeployCopy).Place(filepath.Join(dir, "nope.zip"), filepath.Join(dir, "out.zip"))
	assert.ErrorIs(t, err, domain.ErrLinkFailed)
}

func TestSymlink_Place(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir)
	dst := filepath.Join(dir, "Mods", "mod.zip")

	require.NoError(t, linker.New(domain.DeploySymlink).Place(src, dst))

	info, err := os.Lstat(dst)
	require.NoError(t, err)
	assert.True(t, info.Mode()&os.ModeSymlink != 0)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("archive"), data)
}

func TestHardlink_Place(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir)
	dst := filepath.Join(dir, "Mods", "mod.zip")

	require.NoError(t, linker.New(domain.DeployHardlink).Place(src, dst))

	srcInfo, err := os.Stat(src)
	require.NoError(t, err)
	dstInfo, err := os.Stat(dst)
	require.NoError(t, err)
	assert.True(t, os.SameFile(srcInfo, dstInfo))
}

func TestNew_ReturnsCorrectLinker(t *testing.T) {
	assert.Equal(t, domain.DeployCopy, linker.New(domain.DeployCopy).Method())
	assert.Equal(t, domain.DeploySymlink, linker.New(domain.DeploySymlink).Method())
	assert.Equal(t, domain.DeployHardlink, linker.New(domain.DeployHardlink).Method())
}
