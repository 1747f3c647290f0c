package spirv

// GLSL.std.450 extended instructions, invoked with OpExtInst.
const (
	GLSLstd450Round         uint32 = 1
	GLSLstd450FAbs          uint32 = 4
	GLSLstd450SAbs          uint32 = 5
	GLSLstd450Floor         uint32 = 8
	GLSLstd450Ceil          uint32 = 9
	GLSLstd450Sin           uint32 = 13
	GLSLstd450Cos           uint32 = 14
	GLSLstd450Tan           uint32 = 15
	GLSLstd450Pow           uint32 = 26
	GLSLstd450Log           uint32 = 28
	GLSLstd450Sqrt          uint32 = 31
	GLSLstd450MatrixInverse uint32 = 34
	GLSLstd450FMin          uint32 = 37
	GLSLstd450UMin          uint32 = 38
	GLSLstd450SMin          uint32 = 39
	GLSLstd450FMax          uint32 = 40
	GLSLstd450UMax          uint32 = 41
	GLSLstd450SMax          uint32 = 42
	GLSLstd450FClamp        uint32 = 43
	GLSLstd450UClamp        uint32 = 44
	GLSLstd450SClamp        uint32 = 45
	GLSLstd450FMix          uint32 = 46
	GLSLstd450Step          uint32 = 48
	GLSLstd450SmoothStep    uint32 = 49
	GLSLstd450Length        uint32 = 66
	GLSLstd450Distance      uint32 = 67
	GLSLstd450Cross         uint32 = 68
	GLSLstd450Normalize     uint32 = 69
	GLSLstd450Reflect       uint32 = 71
	GLSLstd450Refract       uint32 = 72
)

var glslNames = map[uint32]string{
	GLSLstd450Round:         "Round",
	GLSLstd450FAbs:          "FAbs",
	GLSLstd450SAbs:          "SAbs",
	GLSLstd450Floor:         "Floor",
	GLSLstd450Ceil:          "Ceil",
	GLSLstd450Sin:           "Sin",
	GLSLstd450Cos:           "Cos",
	GLSLstd450Tan:           "Tan",
	GLSLstd450Pow:           "Pow",
	GLSLstd450Log:           "Log",
	GLSLstd450Sqrt:          "Sqrt",
	GLSLstd450MatrixInverse: "MatrixInverse",
	GLSLstd450FMin:          "FMin",
	GLSLstd450UMin:          "UMin",
	GLSLstd450SMin:          "SMin",
	GLSLstd450FMax:          "FMax",
	GLSLstd450UMax:          "UMax",
	GLSLstd450SMax:          "SMax",
	GLSLstd450FClamp:        "FClamp",
	GLSLstd450UClamp:        "UClamp",
	GLSLstd450SClamp:        "SClamp",
	GLSLstd450FMix:          "FMix",
	GLSLstd450Step:          "Step",
	GLSLstd450SmoothStep:    "SmoothStep",
	GLSLstd450Length:        "Length",
	GLSLstd450Distance:      "Distance",
	GLSLstd450Cross:         "Cross",
	GLSLstd450Normalize:     "Normalize",
	GLSLstd450Reflect:       "Reflect",
	GLSLstd450Refract:       "Refract",
}
