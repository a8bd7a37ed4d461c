package godot

import (
	"bytes"
	"fmt"
)

// EnumEntry is one creature in the generated GDScript.
type EnumEntry struct {
	Enum string
	Name string
	// SpriteFrames is the res:// path of the creature's resource; empty
	// leaves the creature out of the SPRITE_FRAMES table.
	SpriteFrames string
}

// EnumFile describes the generated GDScript enum file.
type EnumFile struct {
	ClassName string
	EnumName  string
	Entries   []EnumEntry
}

// RenderEnum writes the GDScript for f: the enum itself plus NAMES and
// SPRITE_FRAMES lookup tables keyed by enum value.
//
// Precondition: ClassName and EnumName are valid GDScript identifiers.
// Postcondition: output is deterministic and entries keep their order.
func RenderEnum(f EnumFile) []byte {
	var b bytes.Buffer
	b.WriteString("# Code generated by spritegen. DO NOT EDIT.\n")
	fmt.Fprintf(&b, "class_name %s\n", f.ClassName)
	b.WriteString("extends RefCounted\n\n")

	fmt.Fprintf(&b, "enum %s {\n", f.EnumName)
	for _, e := range f.Entries {
		fmt.Fprintf(&b, "\t%s,\n", e.Enum)
	}
	b.WriteString("}\n\n")

	b.WriteString("const NAMES := {\n")
	for _, e := range f.Entries {
		fmt.Fprintf(&b, "\t%s.%s: %s,\n", f.EnumName, e.Enum, quote(e.Name))
	}
	b.WriteString("}\n\n")

	b.WriteString("const SPRITE_FRAMES := {\n")
	for _, e := range f.Entries {
		if e.SpriteFrames == "" {
			continue
		}
		fmt.Fprintf(&b, "\t%s.%s: %s,\n", f.EnumName, e.Enum, quote(e.SpriteFrames))
	}
	b.WriteString("}\n")
	return b.Bytes()
}
