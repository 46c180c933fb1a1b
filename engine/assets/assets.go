package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/vibe/engine/assets/loaders"
	"github.com/spaghettifunk/vibe/engine/core"
)

type AssetInfo struct {
	Path       string
	Type       loaders.ResourceType
	LastLoaded time.Time
}

// AssetManager loads shaders and images from disk and watches the asset
// directory. A change to a shader only raises a flag; the render loop picks
// it up between frames.
type AssetManager struct {
	assets  map[string]AssetInfo
	loaders map[loaders.ResourceType]Loader

	mutex sync.RWMutex

	done           chan struct{}
	wg             sync.WaitGroup
	fsnotify       *fsnotify.Watcher
	isClosed       bool
	isWatching     bool
	shadersChanged atomic.Bool
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	am := &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[loaders.ResourceType]Loader),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
	}
	am.registerLoader(loaders.ResourceTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(loaders.ResourceTypeImage, &loaders.ImageLoader{})
	return am, nil
}

// Initialize indexes assetsDir and starts watching it and all its
// sub-directories.
func (am *AssetManager) Initialize(assetsDir string) error {
	if err := am.watchRecursive(assetsDir); err != nil {
		return err
	}
	am.mutex.Lock()
	am.isWatching = true
	am.mutex.Unlock()
	am.wg.Add(1)
	go am.start()
	core.LogDebug("watching assets in %s", assetsDir)
	return nil
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType loaders.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

func (am *AssetManager) LoadShader(path string) ([]uint32, error) {
	res, err := am.load(path, loaders.ResourceTypeShader)
	if err != nil {
		return nil, err
	}
	return res.Data.([]uint32), nil
}

func (am *AssetManager) LoadImage(path string) (*loaders.Resource, error) {
	return am.load(path, loaders.ResourceTypeImage)
}

func (am *AssetManager) load(path string, resourceType loaders.ResourceType) (*loaders.Resource, error) {
	loader, exists := am.loaders[resourceType]
	if !exists {
		return nil, fmt.Errorf("no loader registered for asset type: %s", resourceType)
	}
	res, err := loader.Load(path)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	am.assets[path] = AssetInfo{
		Path:       path,
		Type:       resourceType,
		LastLoaded: time.Now(),
	}
	am.mutex.Unlock()
	return res, nil
}

// Asset returns what is known about an indexed file.
func (am *AssetManager) Asset(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[path]
	return info, ok
}

// TakeShadersChanged reports whether a shader changed on disk since the
// last call and clears the flag.
func (am *AssetManager) TakeShadersChanged() bool {
	return am.shadersChanged.Swap(false)
}

func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return errors.New("asset manager already closed")
	}
	am.isClosed = true
	watching := am.isWatching
	am.mutex.Unlock()

	close(am.done)
	am.wg.Wait()
	if !watching {
		// The watch loop closes the watcher when it runs; it never did.
		return am.fsnotify.Close()
	}
	return nil
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name); err != nil {
						core.LogWarn("failed to watch %s: %s", e.Name, err)
					}
				}
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(e.Name)
			}
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

// watchRecursive adds all directories under the given one to the watch list
// and indexes the files it finds.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		am.indexFile(walkPath)
		return nil
	})
}

func (am *AssetManager) indexFile(path string) loaders.ResourceType {
	assetType := determineAssetType(path)
	if assetType == loaders.ResourceTypeNone {
		return assetType
	}
	am.mutex.Lock()
	defer am.mutex.Unlock()
	info := am.assets[path]
	info.Path = path
	info.Type = assetType
	am.assets[path] = info
	return assetType
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) {
	if am.indexFile(path) == loaders.ResourceTypeShader {
		core.LogDebug("shader changed: %s", path)
		am.shadersChanged.Store(true)
	}
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, path)
}

func determineAssetType(path string) loaders.ResourceType {
	switch filepath.Ext(path) {
	case ".spv":
		return loaders.ResourceTypeShader
	case ".png", ".bmp":
		return loaders.ResourceTypeImage
	default:
		return loaders.ResourceTypeNone
	}
}
