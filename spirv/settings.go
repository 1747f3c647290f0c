package spirv

import (
	"strconv"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

// Stage is the shader stage of the generated entry point.
type Stage uint8

const (
	StageVertex Stage = iota
	StageFragment
	StageCompute
)

var stageNames = [...]string{"vertex", "fragment", "compute"}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "stage(" + strconv.Itoa(int(s)) + ")"
}

// ParseStage parses a stage name as printed by Stage.String.
func ParseStage(s string) (Stage, error) {
	for i, n := range stageNames {
		if strings.EqualFold(s, n) {
			return Stage(i), nil
		}
	}

	return 0, errors.New("unknown stage %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(text []byte) (err error) {
	*s, err = ParseStage(string(text))
	return err
}

func (s Stage) executionModel() ExecutionModel {
	switch s {
	case StageVertex:
		return ExecutionModelVertex
	case StageCompute:
		return ExecutionModelGLCompute
	}
	return ExecutionModelFragment
}

// Settings configures SPIR-V generation.
type Settings struct {
	// Version is the SPIR-V version to target
	Version Version

	// Stage selects the execution model of the entry point
	Stage Stage

	// WorkgroupSize is the LocalSize of compute shaders
	WorkgroupSize [3]uint32

	// Debug emits OpName for interface variables and functions
	Debug bool

	// UniformSet and UniformBinding place the uniform block
	UniformSet     uint32
	UniformBinding uint32

	// SamplerSet is the descriptor set of sampler uniforms.
	// Their binding is the uniform location.
	SamplerSet uint32

	// Generator is written into the module header
	Generator uint32

	// Trace receives per-node lowering events when its "lower" topic is
	// enabled. The zero Span discards everything.
	Trace tlog.Span
}

// DefaultSettings returns sensible default settings.
func DefaultSettings() Settings {
	return Settings{
		Version:       Version1_3,
		Stage:         StageFragment,
		WorkgroupSize: [3]uint32{1, 1, 1},
		SamplerSet:    1,
		Generator:     GeneratorID,
	}
}
