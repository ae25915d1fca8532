// Package rest builds the request bodies of REST work items.
package rest

import (
	"sort"
	"sync"

	"github.com/vine-io/flowgen/api"
)

// Resolver turns a parameter value into the value sent, for example by
// evaluating an expression against process variables.
type Resolver func(value any) any

// BodyBuilder builds a request body from the content of a work item and
// its parameters.
type BodyBuilder interface {
	Apply(content any, params map[string]any, resolve Resolver) any
}

// BuildMap resolves every parameter value. A nil resolver keeps the values.
func BuildMap(params map[string]any, resolve Resolver) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		if resolve != nil {
			v = resolve(v)
		}
		out[k] = v
	}
	return out
}

// DefaultBodyBuilder sends the content when there is some, the resolved
// parameters otherwise.
type DefaultBodyBuilder struct{}

func (DefaultBodyBuilder) Apply(content any, params map[string]any, resolve Resolver) any {
	if content != nil {
		return content
	}
	return BuildMap(params, resolve)
}

// ParamsBodyBuilder always sends the resolved parameters.
type ParamsBodyBuilder struct{}

func (ParamsBodyBuilder) Apply(_ any, params map[string]any, resolve Resolver) any {
	return BuildMap(params, resolve)
}

const (
	DefaultBuilder = "default"
	ParamsBuilder  = "params"
)

// Builders holds body builders by name.
type Builders struct {
	sync.RWMutex
	m map[string]BodyBuilder
}

// NewBuilders returns a set with the default and params builders.
func NewBuilders() *Builders {
	return &Builders{m: map[string]BodyBuilder{
		DefaultBuilder: DefaultBodyBuilder{},
		ParamsBuilder:  ParamsBodyBuilder{},
	}}
}

func (s *Builders) Add(name string, b BodyBuilder) error {
	s.Lock()
	defer s.Unlock()
	if _, ok := s.m[name]; ok {
		return api.Conflict("body builder %s already registered", name)
	}
	s.m[name] = b
	return nil
}

// Get returns the builder called name. An empty name selects the default
// builder.
func (s *Builders) Get(name string) (BodyBuilder, error) {
	if name == "" {
		name = DefaultBuilder
	}
	s.RLock()
	b, ok := s.m[name]
	s.RUnlock()
	if !ok {
		return nil, api.NotFound("body builder %s not found", name)
	}
	return b, nil
}

func (s *Builders) Names() []string {
	s.RLock()
	defer s.RUnlock()
	out := make([]string, 0, len(s.m))
	for name := range s.m {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
