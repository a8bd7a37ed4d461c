package godot

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// namespace scopes the name-based UUIDs so ids are stable across runs and
// machines but never collide with another generator's.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/cory-johannsen/spritegen"))

// UIDFromPath returns a deterministic uid:// for a res:// path, in Godot's
// text encoding (base 36 over a-z0-9, most significant digit first).
func UIDFromPath(resPath string) string {
	return "uid://" + base36(pathID(resPath))
}

func pathID(path string) uint64 {
	u := uuid.NewSHA1(namespace, []byte(path))
	// Godot uids are non-negative int64s.
	return binary.BigEndian.Uint64(u[:8]) & 0x7FFFFFFFFFFFFFFF
}

func base36(v uint64) string {
	const digits = "abcdefghijklmnopqrstuvwxyz0123456789"
	var buf [16]byte
	i := len(buf)
	for {
		i--
		buf[i] = digits[v%36]
		v /= 36
		if v == 0 {
			break
		}
	}
	return string(buf[i:])
}

// extResourceID mirrors the editor's "<n>_<5 chars>" scheme with a suffix
// derived from the path instead of a random one.
func extResourceID(n int, path string) string {
	s := base36(pathID(path))
	for len(s) < 5 {
		s = "a" + s
	}
	return fmt.Sprintf("%d_%s", n, s[len(s)-5:])
}
