package godot

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Render writes sf in the Godot 4 text resource format.
//
// Postcondition: output is deterministic for a given sf and ends with a newline.
func Render(sf *SpriteFrames) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "[gd_resource type=\"SpriteFrames\" load_steps=%d format=3", sf.LoadSteps())
	if sf.UID != "" {
		fmt.Fprintf(&b, " uid=%s", quote(sf.UID))
	}
	b.WriteString("]\n\n")

	for _, ext := range sf.Textures {
		fmt.Fprintf(&b, "[ext_resource type=%s", quote(ext.Type))
		if ext.UID != "" {
			fmt.Fprintf(&b, " uid=%s", quote(ext.UID))
		}
		fmt.Fprintf(&b, " path=%s id=%s]\n", quote(ext.Path), quote(ext.ID))
	}
	if len(sf.Textures) > 0 {
		b.WriteString("\n")
	}

	b.WriteString("[resource]\n")
	b.WriteString("animations = [")
	for i, anim := range sf.Animations {
		if i > 0 {
			b.WriteString(", ")
		}
		writeAnimation(&b, anim)
	}
	b.WriteString("]\n")
	return b.Bytes()
}

func writeAnimation(b *bytes.Buffer, anim Animation) {
	b.WriteString("{\n\"frames\": [")
	for i, fr := range anim.Frames {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "{\n\"duration\": %s,\n\"texture\": ExtResource(%s)\n}", formatFloat(fr.Duration), quote(fr.Texture))
	}
	b.WriteString("],\n")
	fmt.Fprintf(b, "\"loop\": %t,\n", anim.Loop)
	fmt.Fprintf(b, "\"name\": &%s,\n", quote(anim.Name))
	fmt.Fprintf(b, "\"speed\": %s\n}", formatFloat(anim.Speed))
}

// formatFloat matches Godot's variant writer: shortest form, always with a
// decimal point.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

var (
	escaper   = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)
	unescaper = strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\n`, "\n", `\t`, "\t")
)

func quote(s string) string {
	return `"` + escaper.Replace(s) + `"`
}

func unquote(s string) string {
	return unescaper.Replace(s)
}
