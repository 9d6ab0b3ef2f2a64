package testing

import "github.com/blendgraph/blendgraph/internal/core"

// FieldSpec describes one field to synthesize into a test DNAStruct.
type FieldSpec struct {
	Name       string
	IsPointer  bool
	ArrayCount int
	Size       uint32
	Offset     uint32
}

// BuildDNA assembles a minimal DNA schema from plain Go descriptions,
// letting expander, tracer, and filter tests exercise struct/field lookups
// without decoding a real SDNA payload.
func BuildDNA(structs map[string][]FieldSpec) *core.DNA {
	var out []core.DNAStruct
	for typeName, specs := range structs {
		out = append(out, buildStruct(typeName, specs))
	}
	return core.NewDNAForTest(out)
}

func buildStruct(typeName string, specs []FieldSpec) core.DNAStruct {
	fields := make([]core.DNAField, 0, len(specs))
	for _, s := range specs {
		count := s.ArrayCount
		if count == 0 {
			count = 1
		}
		fields = append(fields, core.DNAField{
			FullName:   s.Name,
			BaseName:   s.Name,
			IsPointer:  s.IsPointer,
			ArrayCount: count,
			Size:       s.Size,
			Offset:     s.Offset,
		})
	}
	return core.NewDNAStructForTest(typeName, fields)
}
