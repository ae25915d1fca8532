package sysprop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAcquireUnset(t *testing.T) {
	p := New()

	release := p.Acquire(IndexFileDirectory, "/build/classes")
	v, ok := p.Get(IndexFileDirectory)
	assert.True(t, ok)
	assert.Equal(t, "/build/classes", v)

	release()
	_, ok = p.Get(IndexFileDirectory)
	assert.False(t, ok)

	// a second release is harmless
	release()
	_, ok = p.Get(IndexFileDirectory)
	assert.False(t, ok)
}

func TestAcquirePreset(t *testing.T) {
	p := New()
	p.Set(IndexFileDirectory, "/custom")

	release := p.Acquire(IndexFileDirectory, "/build/classes")
	v, _ := p.Get(IndexFileDirectory)
	assert.Equal(t, "/custom", v)

	release()
	v, ok := p.Get(IndexFileDirectory)
	assert.True(t, ok)
	assert.Equal(t, "/custom", v)
}

func TestReleaseAfterExternalChange(t *testing.T) {
	p := New()
	release := p.Acquire("k", "a")
	p.Set("k", "b")
	release()
	_, ok := p.Get("k")
	assert.False(t, ok)
}

func TestAcquireAll(t *testing.T) {
	p := New()
	p.Set("preset", "kept")
	releaseIndex := p.Acquire(IndexFileDirectory, "/build")

	release := p.AcquireAll(map[string]string{
		"preset":           "changed",
		IndexFileDirectory: "/elsewhere",
		"b":                "2",
		"a":                "1",
	})
	assert.Equal(t, []string{"a", "b", IndexFileDirectory, "preset"}, p.Keys())
	v, _ := p.Get("preset")
	assert.Equal(t, "kept", v)
	v, _ = p.Get(IndexFileDirectory)
	assert.Equal(t, "/build", v)

	release()
	release()
	assert.Equal(t, []string{IndexFileDirectory, "preset"}, p.Keys())

	releaseIndex()
	assert.Equal(t, []string{"preset"}, p.Keys())

	p.Clear("preset")
	assert.Empty(t, p.Keys())
}
