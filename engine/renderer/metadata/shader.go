package metadata

type ShaderStage int

const (
	ShaderStageVertex   ShaderStage = 0x00000001
	ShaderStageFragment ShaderStage = 0x00000004
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

/**
 * @brief A precompiled SPIR-V module and the entry point used from it.
 * The renderer treats Code as opaque.
 */
type ShaderBlob struct {
	Name       string
	Code       []uint32
	EntryPoint string
}

func (b ShaderBlob) IsEmpty() bool {
	return len(b.Code) == 0
}

// ShaderSet holds the two stages of the graphics pipeline. When the fragment
// blob has no code of its own both entry points live in the vertex module.
type ShaderSet struct {
	Vertex   ShaderBlob
	Fragment ShaderBlob
}

func (s ShaderSet) SharedModule() bool {
	return s.Fragment.IsEmpty()
}

// Default entry point names, one shared module.
const (
	DefaultVertexEntryPoint   = "main_vs"
	DefaultFragmentEntryPoint = "main_fs"
)
