package assets

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/vibe/engine/assets/loaders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeShader(t *testing.T, path string, words ...uint32) {
	t.Helper()
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	require.NoError(t, os.WriteFile(path, buf, 0o644))
}

func TestDetermineAssetType(t *testing.T) {
	assert.Equal(t, loaders.ResourceTypeShader, determineAssetType("shaders/vert.spv"))
	assert.Equal(t, loaders.ResourceTypeImage, determineAssetType("assets/icon.png"))
	assert.Equal(t, loaders.ResourceTypeImage, determineAssetType("assets/icon.bmp"))
	assert.Equal(t, loaders.ResourceTypeNone, determineAssetType("shaders/shader.vert"))
}

func TestLoadShaderIndexesAsset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frag.spv")
	writeShader(t, path, loaders.SPIRVMagic, 1, 2)

	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(dir))
	defer am.Shutdown()

	info, ok := am.Asset(path)
	require.True(t, ok)
	assert.Equal(t, loaders.ResourceTypeShader, info.Type)
	assert.True(t, info.LastLoaded.IsZero())

	code, err := am.LoadShader(path)
	require.NoError(t, err)
	assert.Equal(t, []uint32{loaders.SPIRVMagic, 1, 2}, code)

	info, _ = am.Asset(path)
	assert.False(t, info.LastLoaded.IsZero())
}

func TestShaderChangeRaisesFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vert.spv")
	writeShader(t, path, loaders.SPIRVMagic)

	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(dir))
	defer am.Shutdown()

	assert.False(t, am.TakeShadersChanged())

	writeShader(t, path, loaders.SPIRVMagic, 3)
	assert.Eventually(t, am.TakeShadersChanged, 2*time.Second, 10*time.Millisecond)
}

func TestShutdownTwice(t *testing.T) {
	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(t.TempDir()))
	require.NoError(t, am.Shutdown())
	assert.Error(t, am.Shutdown())
}

func TestShutdownClosesWatcherWhenNotWatching(t *testing.T) {
	am, err := NewAssetManager()
	require.NoError(t, err)
	assert.Error(t, am.Initialize(filepath.Join(t.TempDir(), "missing")))

	require.NoError(t, am.Shutdown())
	assert.ErrorIs(t, am.fsnotify.Add(t.TempDir()), fsnotify.ErrClosed)
}
