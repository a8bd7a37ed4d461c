// Package godot renders and validates Godot 4 text resources (.tres) for
// SpriteFrames, and the GDScript enum file that indexes them.
package godot

import "fmt"

// TextureType is the ext_resource type used for every frame.
const TextureType = "Texture2D"

// ExtResource is one external resource declaration.
type ExtResource struct {
	ID   string
	Type string
	Path string
	// UID is the texture's uid:// when known; empty omits the attribute.
	UID string
}

// Frame is one animation step.
type Frame struct {
	// Texture is the ExtResource ID of the frame image.
	Texture  string
	Duration float64
}

// Animation is one named clip.
type Animation struct {
	Name   string
	Speed  float64
	Loop   bool
	Frames []Frame
}

// SpriteFrames is a complete SpriteFrames resource.
type SpriteFrames struct {
	UID        string
	Textures   []ExtResource
	Animations []Animation
}

// LoadSteps is the value Godot expects in the header: one per external
// resource plus one for the main resource.
func (sf *SpriteFrames) LoadSteps() int {
	return len(sf.Textures) + 1
}

// TextureRef names a frame image to add to an animation.
type TextureRef struct {
	// Path is the res:// path of the image.
	Path string
	// UID is the image's uid:// from its import sidecar, if any.
	UID string
}

// AnimationSpec describes a clip for Builder.AddAnimation.
type AnimationSpec struct {
	Name     string
	Speed    float64
	Loop     bool
	Duration float64
	Textures []TextureRef
}

// Builder assembles a SpriteFrames resource, sharing one ext_resource per
// distinct texture path across animations.
type Builder struct {
	sf     SpriteFrames
	byPath map[string]string
	names  map[string]bool
}

// NewBuilder starts a resource whose own uid is derived from resourcePath,
// the res:// path the .tres will be saved at.
func NewBuilder(resourcePath string) *Builder {
	return &Builder{
		sf:     SpriteFrames{UID: UIDFromPath(resourcePath)},
		byPath: make(map[string]string),
		names:  make(map[string]bool),
	}
}

// Texture registers ref and returns its ext_resource ID. Registering the
// same path twice returns the first ID; a later non-empty UID fills in a
// missing one.
func (b *Builder) Texture(ref TextureRef) string {
	if id, ok := b.byPath[ref.Path]; ok {
		for i := range b.sf.Textures {
			if b.sf.Textures[i].ID == id && b.sf.Textures[i].UID == "" {
				b.sf.Textures[i].UID = ref.UID
			}
		}
		return id
	}
	id := extResourceID(len(b.sf.Textures)+1, ref.Path)
	b.sf.Textures = append(b.sf.Textures, ExtResource{
		ID:   id,
		Type: TextureType,
		Path: ref.Path,
		UID:  ref.UID,
	})
	b.byPath[ref.Path] = id
	return id
}

// AddAnimation appends a clip.
//
// Precondition: spec.Name is unique within the builder, spec.Speed > 0 and
// spec.Duration > 0.
func (b *Builder) AddAnimation(spec AnimationSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("animation name must not be empty")
	}
	if b.names[spec.Name] {
		return fmt.Errorf("animation %q added twice", spec.Name)
	}
	if spec.Speed <= 0 {
		return fmt.Errorf("animation %q: speed must be > 0, got %g", spec.Name, spec.Speed)
	}
	if spec.Duration <= 0 {
		return fmt.Errorf("animation %q: frame duration must be > 0, got %g", spec.Name, spec.Duration)
	}
	anim := Animation{Name: spec.Name, Speed: spec.Speed, Loop: spec.Loop}
	for _, ref := range spec.Textures {
		anim.Frames = append(anim.Frames, Frame{Texture: b.Texture(ref), Duration: spec.Duration})
	}
	b.names[spec.Name] = true
	b.sf.Animations = append(b.sf.Animations, anim)
	return nil
}

// Build returns the assembled resource. The builder must not be used afterwards.
func (b *Builder) Build() *SpriteFrames {
	sf := b.sf
	return &sf
}
