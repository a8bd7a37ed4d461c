package roster_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/spritegen/internal/roster"
)

func TestDefault_HasBuiltInCreaturesInOrder(t *testing.T) {
	r := roster.Default()
	require.Len(t, r.Creatures, 17)

	first := r.Creatures[0]
	assert.Equal(t, "guard_robot", first.Folder)
	assert.Equal(t, "Guard Robot", first.Name)
	assert.Equal(t, "GUARD_ROBOT", first.Enum)

	last := r.Creatures[16]
	assert.Equal(t, "grave_robber_hunting_dog", last.Folder)
	assert.Equal(t, "Grave Robber's Hunting Dog", last.Name)
	assert.Equal(t, "GRAVE_ROBBER_HUNTING_DOG", last.Enum)
}

func TestDefault_EnumsMatchFolders(t *testing.T) {
	for _, e := range roster.Default().Creatures {
		assert.Equal(t, roster.EnumFromFolder(e.Folder), e.Enum, "creature %s", e.Folder)
	}
}

func TestLoadFromBytes_DerivesFolderFromName(t *testing.T) {
	r, err := roster.LoadFromBytes([]byte(`
creatures:
  - name: Blazin' Sparkinstone Bugs
`))
	require.NoError(t, err)
	assert.Equal(t, "blazin_sparkinstone_bugs", r.Creatures[0].Folder)
	assert.Equal(t, "BLAZIN_SPARKINSTONE_BUGS", r.Creatures[0].Enum)
}

func TestDefault_GrizzlyPresent(t *testing.T) {
	e, ok := roster.Default().Lookup("grizzly")
	require.True(t, ok)
	assert.Equal(t, "Grizzly", e.Name)

	_, ok = roster.Default().Lookup("dragon")
	assert.False(t, ok)
}

func TestLoadFromBytes_DerivesEnum(t *testing.T) {
	r, err := roster.LoadFromBytes([]byte(`
creatures:
  - folder: mud_crab
    name: Mud Crab
  - folder: sky_eel
    name: Sky Eel
    enum: EEL
    speed: 12
`))
	require.NoError(t, err)
	require.Len(t, r.Creatures, 2)
	assert.Equal(t, "MUD_CRAB", r.Creatures[0].Enum)
	assert.Equal(t, "EEL", r.Creatures[1].Enum)
	assert.Equal(t, 12.0, r.Creatures[1].Speed)
}

func TestLoadFromBytes_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":         `creatures: []`,
		"bad folder":    "creatures:\n  - folder: Mud Crab\n    name: Mud Crab\n",
		"empty name":    "creatures:\n  - folder: mud_crab\n    name: \"  \"\n",
		"bad enum":      "creatures:\n  - folder: mud_crab\n    name: Mud Crab\n    enum: mudCrab\n",
		"dup folder":    "creatures:\n  - folder: a\n    name: A\n  - folder: a\n    name: B\n",
		"dup enum":      "creatures:\n  - folder: a\n    name: A\n    enum: X\n  - folder: b\n    name: B\n    enum: X\n",
		"neg speed":     "creatures:\n  - folder: a\n    name: A\n    speed: -1\n",
		"not yaml list": "creatures: 3\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := roster.LoadFromBytes([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte("creatures:\n  - folder: krip\n    name: Krip\n"), 0644))

	r, err := roster.LoadFromFile(path)
	require.NoError(t, err)
	require.Len(t, r.Creatures, 1)
	assert.Equal(t, "KRIP", r.Creatures[0].Enum)

	_, err = roster.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_EmptyPathIsDefault(t *testing.T) {
	r, err := roster.Load("")
	require.NoError(t, err)
	assert.Len(t, r.Creatures, 17)
}

func TestFilter(t *testing.T) {
	r := roster.Default()

	sub, err := r.Filter([]string{"robo", "guard_robot"})
	require.NoError(t, err)
	require.Len(t, sub.Creatures, 2)
	// roster order, not argument order
	assert.Equal(t, "guard_robot", sub.Creatures[0].Folder)
	assert.Equal(t, "robo", sub.Creatures[1].Folder)

	all, err := r.Filter(nil)
	require.NoError(t, err)
	assert.Same(t, r, all)

	_, err = r.Filter([]string{"dragon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dragon")
}

func TestNameToID_KnownValues(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Grave Robber's Hunting Dog", "grave_robbers_hunting_dog"},
		{"Blazin' Sparkinstone Bugs", "blazin_sparkinstone_bugs"},
		{"Neon Bat", "neon_bat"},
		{"Robo", "robo"},
		{"  Ooze -- Waste  ", "ooze_waste"},
		{"Toy_Trojan", "toy_trojan"},
		{"'!?", ""},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, roster.NameToID(tc.input))
		})
	}
}

func TestNameToID_Idempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringOf(rapid.RuneFrom(nil, unicode.Letter, unicode.Digit, unicode.Space)).Draw(t, "name")
		id := roster.NameToID(name)
		assert.Equal(t, id, roster.NameToID(id))
		assert.NotContains(t, id, "__")
		assert.False(t, strings.HasPrefix(id, "_") || strings.HasSuffix(id, "_"), "id %q", id)
		for _, r := range id {
			assert.True(t, r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'),
				"unexpected char %q in id %q", r, id)
		}
	})
}

func TestEnumFromFolder_RoundTripsThroughValidate(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		folder := rapid.StringMatching(`[a-z][a-z0-9_]{0,20}`).Draw(t, "folder")
		r := &roster.Roster{Creatures: []roster.Entry{{
			Folder: folder,
			Name:   "X",
			Enum:   roster.EnumFromFolder(folder),
		}}}
		assert.NoError(t, r.Validate())
	})
}
