package rest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vine-io/flowgen/api"
)

func upper(v any) any {
	if s, ok := v.(string); ok {
		return strings.ToUpper(s)
	}
	return v
}

func TestBuildMap(t *testing.T) {
	params := map[string]any{"name": "gold", "limit": 3}

	got := BuildMap(params, upper)
	assert.Equal(t, map[string]any{"name": "GOLD", "limit": 3}, got)
	assert.Equal(t, "gold", params["name"])

	assert.Equal(t, params, BuildMap(params, nil))
	assert.Empty(t, BuildMap(nil, upper))
}

func TestDefaultBodyBuilder(t *testing.T) {
	params := map[string]any{"name": "gold"}
	content := map[string]any{"raw": true}

	var b BodyBuilder = DefaultBodyBuilder{}
	assert.Equal(t, content, b.Apply(content, params, upper))
	assert.Equal(t, map[string]any{"name": "GOLD"}, b.Apply(nil, params, upper))
}

func TestParamsBodyBuilder(t *testing.T) {
	params := map[string]any{"name": "gold"}

	var b BodyBuilder = ParamsBodyBuilder{}
	assert.Equal(t, map[string]any{"name": "GOLD"}, b.Apply("ignored", params, upper))
}

type constBuilder struct{}

func (constBuilder) Apply(any, map[string]any, Resolver) any { return "const" }

func TestBuilders(t *testing.T) {
	s := NewBuilders()
	assert.Equal(t, []string{DefaultBuilder, ParamsBuilder}, s.Names())

	b, err := s.Get("")
	if !assert.NoError(t, err) {
		return
	}
	assert.IsType(t, DefaultBodyBuilder{}, b)

	if !assert.NoError(t, s.Add("const", constBuilder{})) {
		return
	}
	b, err = s.Get("const")
	if assert.NoError(t, err) {
		assert.Equal(t, "const", b.Apply(nil, nil, nil))
	}

	assert.True(t, api.IsCode(s.Add(ParamsBuilder, constBuilder{}), api.StatusConflict))
	_, err = s.Get("missing")
	assert.True(t, api.IsCode(err, api.StatusNotFound))
}
