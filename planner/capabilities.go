package planner

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Shape2D is a {width, height} pair used for block configs and kernel/patch shapes.
type Shape2D struct {
	W uint32 `yaml:"w"`
	H uint32 `yaml:"h"`
}

// Capabilities holds the read-only hardware constants the planner reasons
// about. Never mutated after load; a planning attempt only ever reads it.
type Capabilities struct {
	NumberOfEngines            uint32  `yaml:"number_of_engines"`
	NumberOfOfm                uint32  `yaml:"number_of_ofm"`
	NumberOfSrams              uint32  `yaml:"number_of_srams"`
	IfmPerEngine               uint32  `yaml:"ifm_per_engine"`
	OfmPerEngine                uint32  `yaml:"ofm_per_engine"`
	MacUnitsPerEngine          uint32  `yaml:"mac_units_per_engine"`
	TotalAccumulatorsPerEngine uint32  `yaml:"total_accumulators_per_engine"`
	PatchShape                 Shape2D `yaml:"patch_shape"`
	BrickGroupShape            Shape3D `yaml:"brick_group_shape"`
	OutputSizePerWinograd1D    uint32  `yaml:"output_size_per_winograd_1d"` // S1
	OutputSizePerWinograd2D    uint32  `yaml:"output_size_per_winograd_2d"` // S2
	MacsPerWinograd1D          uint32  `yaml:"macs_per_winograd_1d"`        // M1
	MacsPerWinograd2D          uint32  `yaml:"macs_per_winograd_2d"`        // M2
	WideKernelSize             uint32  `yaml:"wide_kernel_size"`            // K
	SramSize                   uint32  `yaml:"sram_size"`
}

// Shape3D is a {width, height, channels} triple used for brick-group shapes.
type Shape3D struct {
	W uint32 `yaml:"w"`
	H uint32 `yaml:"h"`
	C uint32 `yaml:"c"`
}

// TotalAccumulators returns the accumulator budget used by the Winograd
// block-config cap. One accumulator pool is shared per engine.
func (c Capabilities) TotalAccumulators() uint32 {
	return c.TotalAccumulatorsPerEngine
}

// LoadCapabilities parses a strict YAML capabilities document. Unknown
// fields are a load error, matching the teacher's KnownFields(true)
// convention for defaults.yaml.
func LoadCapabilities(path string) (Capabilities, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Capabilities{}, fmt.Errorf("failed to read capabilities file: %w", err)
	}
	return ParseCapabilities(data)
}

// ParseCapabilities decodes a capabilities document from bytes, enforcing
// strict field checking so a typo'd capability name fails to load instead
// of silently zeroing a field.
func ParseCapabilities(data []byte) (Capabilities, error) {
	var caps Capabilities
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&caps); err != nil {
		return Capabilities{}, fmt.Errorf("failed to parse capabilities yaml: %w", err)
	}
	return caps, nil
}
