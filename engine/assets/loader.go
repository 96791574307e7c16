package assets

import "github.com/spaghettifunk/vkframe/engine/renderer/metadata"

// Loader reads one kind of asset from disk. The Data of the returned
// resource depends on the loader.
type Loader interface {
	Load(path string, params interface{}) (*metadata.Resource, error)
	Unload(*metadata.Resource) error
}
