package assets

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/spaghettifunk/vkframe/engine/assets/loaders"
	"github.com/spaghettifunk/vkframe/engine/config"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

type AssetManager struct {
	mutex   sync.RWMutex
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader
}

func NewAssetManager() *AssetManager {
	am := &AssetManager{
		assets:  make(map[string]AssetInfo),
		loaders: make(map[metadata.ResourceType]Loader),
	}
	am.registerLoader(metadata.ResourceTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(metadata.ResourceTypeMesh, &loaders.ModelLoader{})
	return am
}

func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// LoadAsset picks the loader from the file extension. Safe for concurrent use.
func (am *AssetManager) LoadAsset(path string, params interface{}) (*metadata.Resource, error) {
	assetType := determineAssetType(path)
	loader, ok := am.loaders[assetType]
	if !ok {
		return nil, errors.Newf("no loader registered for %s", path)
	}
	res, err := loader.Load(path, params)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	am.assets[path] = AssetInfo{Path: path, Type: assetType, LastLoaded: time.Now()}
	am.mutex.Unlock()
	return res, nil
}

// Loaded returns when path was last loaded.
func (am *AssetManager) Loaded(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[path]
	return info, ok
}

func (am *AssetManager) loadShader(path, entry string) (metadata.ShaderBlob, error) {
	res, err := am.LoadAsset(path, loaders.ShaderParams{EntryPoint: entry})
	if err != nil {
		return metadata.ShaderBlob{}, err
	}
	return *res.Data.(*metadata.ShaderBlob), nil
}

// LoadShaders reads both stages concurrently. Without a fragment path both
// entry points are taken from the vertex module.
func (am *AssetManager) LoadShaders(ctx context.Context, cfg config.Shaders) (metadata.ShaderSet, error) {
	var set metadata.ShaderSet
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		blob, err := am.loadShader(cfg.Vertex, cfg.VertexEntry)
		set.Vertex = blob
		return err
	})
	if cfg.Fragment != "" {
		g.Go(func() error {
			blob, err := am.loadShader(cfg.Fragment, cfg.FragmentEntry)
			set.Fragment = blob
			return err
		})
	} else {
		set.Fragment.EntryPoint = cfg.FragmentEntry
	}
	if err := g.Wait(); err != nil {
		return metadata.ShaderSet{}, errors.Mark(err, core.ErrShaderModule)
	}
	return set, nil
}

// LoadScene reads the mesh and expands it into a triangle list. An empty
// path yields no vertices, which draws the built-in triangle.
func (am *AssetManager) LoadScene(cfg config.Scene) ([]metadata.Vertex, error) {
	if cfg.Mesh == "" {
		return nil, nil
	}
	res, err := am.LoadAsset(cfg.Mesh, nil)
	if err != nil {
		return nil, err
	}
	mesh := res.Data.(*metadata.IndexedMesh)
	if cfg.RightHanded {
		return ExpandIndexedRightHanded(mesh.Vertices, mesh.Indices)
	}
	return ExpandIndexed(mesh.Vertices, mesh.Indices)
}

// Startup is everything read from disk before the renderer is created.
type Startup struct {
	Shaders  metadata.ShaderSet
	Vertices []metadata.Vertex
}

// LoadStartup loads shaders and scene in parallel.
func (am *AssetManager) LoadStartup(ctx context.Context, cfg *config.Config) (*Startup, error) {
	startup := &Startup{}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		shaders, err := am.LoadShaders(ctx, cfg.Shaders)
		startup.Shaders = shaders
		return err
	})
	g.Go(func() error {
		vertices, err := am.LoadScene(cfg.Scene)
		startup.Vertices = vertices
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	core.LogInfo("assets loaded: vertex %q, fragment %q, %d scene vertices",
		startup.Shaders.Vertex.Name, startup.Shaders.Fragment.Name, len(startup.Vertices))
	return startup, nil
}

func determineAssetType(path string) metadata.ResourceType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".spv":
		return metadata.ResourceTypeShader
	case ".obj":
		return metadata.ResourceTypeMesh
	default:
		return metadata.ResourceTypeNone
	}
}
