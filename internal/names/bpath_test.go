package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlendPath_NormalizesBackslashes(t *testing.T) {
	p := NewBlendPath(`//textures\wood.png`)
	assert.Equal(t, "//textures/wood.png", p.String())
}

func TestBlendPath_Classification(t *testing.T) {
	rel := NewBlendPath("//assets/mat.blend")
	assert.True(t, rel.IsBlendfileRelative())
	assert.False(t, rel.IsAbsolute())

	abs := NewBlendPath("/home/user/assets/mat.blend")
	assert.False(t, abs.IsBlendfileRelative())
	assert.True(t, abs.IsAbsolute())

	win := NewBlendPath(`C:\assets\mat.blend`)
	assert.True(t, win.IsAbsolute())

	neither := NewBlendPath("assets/mat.blend")
	assert.False(t, neither.IsBlendfileRelative())
	assert.False(t, neither.IsAbsolute())
}

func TestBlendPath_Resolve(t *testing.T) {
	rel := NewBlendPath("//tex/wood.png")
	assert.Equal(t, "/base/tex/wood.png", rel.Resolve("/base"))

	abs := NewBlendPath("/abs/tex/wood.png")
	assert.Equal(t, "/abs/tex/wood.png", abs.Resolve("/base"))
}

func TestBlendPath_IsSequencePattern(t *testing.T) {
	assert.True(t, NewBlendPath("//frames/shot####.png").IsSequencePattern())
	assert.False(t, NewBlendPath("//frames/shot0001.png").IsSequencePattern())
}
