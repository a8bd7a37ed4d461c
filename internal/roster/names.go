package roster

import "strings"

// NameToID derives a folder key from a display name: lower case, words
// joined by single underscores, punctuation dropped.
// "Grave Robber's Hunting Dog" -> "grave_robbers_hunting_dog".
//
// Postcondition: result contains only [a-z0-9_], has no leading, trailing
// or doubled underscores, and NameToID(NameToID(s)) == NameToID(s).
func NameToID(name string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(name) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
		case r == ' ' || r == '_' || r == '-' || r == '\t':
			pending = true
		}
	}
	return b.String()
}

// EnumFromFolder derives the symbolic identifier for a folder key,
// e.g. "neon_bat" -> "NEON_BAT". Folder keys are already [a-z0-9_], so
// the mapping is one-to-one.
func EnumFromFolder(folder string) string {
	return strings.ToUpper(folder)
}
