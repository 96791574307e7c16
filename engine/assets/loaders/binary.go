package loaders

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

// bytesToBytecode turns a little endian SPIR-V file into its words.
func bytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 {
		return nil, errors.New("empty SPIR-V module")
	}
	if len(b)%4 != 0 {
		return nil, errors.Newf("SPIR-V size %d is not a multiple of 4", len(b))
	}
	byteCode := make([]uint32, len(b)/4)
	for i := range byteCode {
		byteCode[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	if byteCode[0] != metadata.SpirvMagic {
		return nil, errors.Newf("bad SPIR-V magic %#08x", byteCode[0])
	}
	return byteCode, nil
}
