package godot

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const robo = "res://assets/sprites/creatures/robo"

func buildRobo(t *testing.T) *SpriteFrames {
	t.Helper()
	b := NewBuilder(robo + ".tres")
	require.NoError(t, b.AddAnimation(AnimationSpec{
		Name: "idle", Speed: 8, Loop: true, Duration: 1,
		Textures: []TextureRef{{Path: robo + "/stand_0.png", UID: "uid://bstand0"}},
	}))
	for _, dir := range []string{"down", "left"} {
		require.NoError(t, b.AddAnimation(AnimationSpec{
			Name: "walk-" + dir, Speed: 8, Loop: true, Duration: 1,
			Textures: []TextureRef{{Path: robo + "/move_0.png"}, {Path: robo + "/move_1.png"}},
		}))
	}
	return b.Build()
}

func TestBuilder_SharesTextures(t *testing.T) {
	sf := buildRobo(t)
	require.Len(t, sf.Textures, 3, "move frames are shared by every walk clip")
	require.Len(t, sf.Animations, 3)
	assert.Equal(t, 4, sf.LoadSteps())

	assert.Equal(t, sf.Animations[1].Frames, sf.Animations[2].Frames)
	assert.Equal(t, "uid://bstand0", sf.Textures[0].UID)
	assert.Empty(t, sf.Textures[1].UID)
	for i, ext := range sf.Textures {
		assert.True(t, strings.HasPrefix(ext.ID, fmt.Sprintf("%d_", i+1)), "id %q", ext.ID)
		assert.Equal(t, TextureType, ext.Type)
	}
}

func TestBuilder_LateUIDFillsIn(t *testing.T) {
	b := NewBuilder(robo + ".tres")
	first := b.Texture(TextureRef{Path: robo + "/a.png"})
	second := b.Texture(TextureRef{Path: robo + "/a.png", UID: "uid://late"})
	assert.Equal(t, first, second)
	assert.Equal(t, "uid://late", b.Build().Textures[0].UID)
}

func TestBuilder_RejectsBadAnimations(t *testing.T) {
	b := NewBuilder(robo + ".tres")
	require.NoError(t, b.AddAnimation(AnimationSpec{Name: "idle", Speed: 8, Duration: 1}))
	assert.Error(t, b.AddAnimation(AnimationSpec{Name: "idle", Speed: 8, Duration: 1}))
	assert.Error(t, b.AddAnimation(AnimationSpec{Name: "", Speed: 8, Duration: 1}))
	assert.Error(t, b.AddAnimation(AnimationSpec{Name: "walk", Speed: 0, Duration: 1}))
	assert.Error(t, b.AddAnimation(AnimationSpec{Name: "walk", Speed: 8, Duration: 0}))
}

func TestRender_Golden(t *testing.T) {
	sf := buildRobo(t)
	s, m0, m1 := sf.Textures[0].ID, sf.Textures[1].ID, sf.Textures[2].ID

	walk := func(name string) string {
		return `{
"frames": [{
"duration": 1.0,
"texture": ExtResource("` + m0 + `")
}, {
"duration": 1.0,
"texture": ExtResource("` + m1 + `")
}],
"loop": true,
"name": &"` + name + `",
"speed": 8.0
}`
	}
	want := `[gd_resource type="SpriteFrames" load_steps=4 format=3 uid="` + sf.UID + `"]

[ext_resource type="Texture2D" uid="uid://bstand0" path="res://assets/sprites/creatures/robo/stand_0.png" id="` + s + `"]
[ext_resource type="Texture2D" path="res://assets/sprites/creatures/robo/move_0.png" id="` + m0 + `"]
[ext_resource type="Texture2D" path="res://assets/sprites/creatures/robo/move_1.png" id="` + m1 + `"]

[resource]
animations = [{
"frames": [{
"duration": 1.0,
"texture": ExtResource("` + s + `")
}],
"loop": true,
"name": &"idle",
"speed": 8.0
}, ` + walk("walk-down") + `, ` + walk("walk-left") + `]
`
	assert.Equal(t, want, string(Render(sf)))
}

func TestRender_Deterministic(t *testing.T) {
	assert.Equal(t, Render(buildRobo(t)), Render(buildRobo(t)))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "8.0", formatFloat(8))
	assert.Equal(t, "0.5", formatFloat(0.5))
	assert.Equal(t, "12.25", formatFloat(12.25))
}

func TestQuoteRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "s")
		q := quote(s)
		require.True(t, strings.HasPrefix(q, `"`) && strings.HasSuffix(q, `"`))
		assert.Equal(t, len(q)-1, closingQuote(q), "escaped string must close at its last quote")
		assert.Equal(t, s, unquote(q[1:len(q)-1]))
	})
}

var uidPattern = regexp.MustCompile(`^uid://[a-z0-9]{1,13}$`)

func TestUIDFromPath(t *testing.T) {
	a := UIDFromPath(robo + ".tres")
	assert.Regexp(t, uidPattern, a)
	assert.Equal(t, a, UIDFromPath(robo+".tres"))
	assert.NotEqual(t, a, UIDFromPath("res://assets/sprites/creatures/krip.tres"))
}

func TestBase36(t *testing.T) {
	assert.Equal(t, "a", base36(0))
	assert.Equal(t, "9", base36(35))
	assert.Equal(t, "ba", base36(36))
}

func TestExtResourceID(t *testing.T) {
	id := extResourceID(12, robo+"/stand_0.png")
	assert.Regexp(t, `^12_[a-z0-9]{5}$`, id)
}

func TestParse_RoundTrip(t *testing.T) {
	sf := buildRobo(t)
	doc, err := Parse(Render(sf))
	require.NoError(t, err)
	assert.Equal(t, "SpriteFrames", doc.Type)
	assert.Equal(t, 3, doc.Format)
	assert.Equal(t, 4, doc.LoadSteps)
	assert.Equal(t, sf.UID, doc.UID)
	assert.Equal(t, sf.Textures, doc.ExtResources)
	assert.Equal(t, []string{"idle", "walk-down", "walk-left"}, doc.Animations)
	assert.Equal(t, 5, doc.References)
}

func TestParse_PathWithSpacesAndQuotes(t *testing.T) {
	b := NewBuilder("res://x.tres")
	require.NoError(t, b.AddAnimation(AnimationSpec{
		Name: "idle", Speed: 8, Duration: 1,
		Textures: []TextureRef{{Path: `res://odd dir/say "hi".png`}},
	}))
	doc, err := Parse(Render(b.Build()))
	require.NoError(t, err)
	require.Len(t, doc.ExtResources, 1)
	assert.Equal(t, `res://odd dir/say "hi".png`, doc.ExtResources[0].Path)
}

func TestParse_Errors(t *testing.T) {
	valid := string(Render(buildRobo(t)))
	firstID := buildRobo(t).Textures[0].ID

	cases := map[string]string{
		"empty":           "",
		"no header":       "[resource]\nanimations = []\n",
		"wrong type":      strings.Replace(valid, `type="SpriteFrames"`, `type="Theme"`, 1),
		"wrong format":    strings.Replace(valid, "format=3", "format=2", 1),
		"bad load_steps":  strings.Replace(valid, "load_steps=4", "load_steps=9", 1),
		"undeclared ref":  strings.Replace(valid, `"texture": ExtResource("`+firstID+`")`, `"texture": ExtResource("99_zzzzz")`, 1),
		"no resource":     valid[:strings.Index(valid, "[resource]")],
		"dup animation":   strings.Replace(valid, `&"walk-left"`, `&"walk-down"`, 1),
		"unknown section": strings.Replace(valid, "[resource]", "[node name=\"x\"]\n[resource]", 1),
		"stray content":   strings.Replace(valid, "\n\n[ext_resource", "\nstray\n[ext_resource", 1),
		"unterminated":    "[gd_resource type=\"SpriteFrames format=3]\n[resource]\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestParse_UnusedExtResource(t *testing.T) {
	sf := buildRobo(t)
	sf.Textures = append(sf.Textures, ExtResource{ID: "9_aaaaa", Type: TextureType, Path: "res://unused.png"})
	_, err := Parse(Render(sf))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "never used")
}

// TestRenderParse_Property checks that any builder output parses back with
// the same clips, one declaration per distinct path and one reference per frame.
func TestRenderParse_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		paths := rapid.SliceOfNDistinct(rapid.StringMatching(`res://[a-z_]{1,8}/[a-z_]{1,8}\.png`), 1, 8, rapid.ID[string]).Draw(t, "paths")
		n := rapid.IntRange(1, 5).Draw(t, "animations")

		b := NewBuilder("res://prop.tres")
		used := make(map[string]bool)
		frameCount := 0
		var names []string
		for i := 0; i < n; i++ {
			picked := rapid.SliceOfN(rapid.SampledFrom(paths), 1, 6).Draw(t, fmt.Sprintf("frames%d", i))
			refs := make([]TextureRef, len(picked))
			for j, p := range picked {
				refs[j] = TextureRef{Path: p}
				used[p] = true
			}
			name := fmt.Sprintf("clip-%d", i)
			names = append(names, name)
			frameCount += len(refs)
			speed := rapid.Float64Range(0.5, 60).Draw(t, fmt.Sprintf("speed%d", i))
			require.NoError(t, b.AddAnimation(AnimationSpec{Name: name, Speed: speed, Loop: i%2 == 0, Duration: 1, Textures: refs}))
		}
		sf := b.Build()

		doc, err := Parse(Render(sf))
		require.NoError(t, err)
		assert.Equal(t, names, doc.Animations)
		assert.Equal(t, len(used), len(doc.ExtResources))
		assert.Equal(t, frameCount, doc.References)
		assert.Equal(t, sf.LoadSteps(), doc.LoadSteps)
	})
}

func TestRenderEnum(t *testing.T) {
	got := string(RenderEnum(EnumFile{
		ClassName: "CreatureEnums",
		EnumName:  "Creature",
		Entries: []EnumEntry{
			{Enum: "ROBO", Name: "Robo", SpriteFrames: "res://assets/sprites/creatures/robo.tres"},
			{Enum: "GRAVE_ROBBER_HUNTING_DOG", Name: "Grave Robber's Hunting Dog"},
		},
	}))
	want := `# Code generated by spritegen. DO NOT EDIT.
class_name CreatureEnums
extends RefCounted

enum Creature {
	ROBO,
	GRAVE_ROBBER_HUNTING_DOG,
}

const NAMES := {
	Creature.ROBO: "Robo",
	Creature.GRAVE_ROBBER_HUNTING_DOG: "Grave Robber's Hunting Dog",
}

const SPRITE_FRAMES := {
	Creature.ROBO: "res://assets/sprites/creatures/robo.tres",
}
`
	assert.Equal(t, want, got)
}
