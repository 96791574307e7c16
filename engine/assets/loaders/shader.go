package loaders

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

type ShaderParams struct {
	// Defaults to the file name without extension.
	Name       string
	EntryPoint string
}

// ShaderLoader reads precompiled SPIR-V. Data is a *metadata.ShaderBlob.
type ShaderLoader struct{}

func (sl *ShaderLoader) Load(path string, params interface{}) (*metadata.Resource, error) {
	var p ShaderParams
	switch v := params.(type) {
	case nil:
	case ShaderParams:
		p = v
	case *ShaderParams:
		p = *v
	default:
		return nil, errors.Newf("shader loader: unexpected params %T", params)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading shader %s", path)
	}
	code, err := bytesToBytecode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "shader %s", path)
	}
	return &metadata.Resource{
		Name:     p.Name,
		FullPath: path,
		Type:     metadata.ResourceTypeShader,
		DataSize: uint64(len(data)),
		Data: &metadata.ShaderBlob{
			Name:       p.Name,
			Code:       code,
			EntryPoint: p.EntryPoint,
		},
	}, nil
}

func (sl *ShaderLoader) Unload(res *metadata.Resource) error {
	res.Data = nil
	res.DataSize = 0
	return nil
}
