// MIT License
//
// Copyright (c) 2023 Lack
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package sysprop holds process wide build properties that generators read,
// such as the index file directory.
package sysprop

import (
	"sort"
	"sync"
)

// IndexFileDirectory names the directory where rule unit index files go.
const IndexFileDirectory = "flowgen.indexfile.directory"

// Properties is a set of string properties safe for concurrent use.
type Properties struct {
	sync.RWMutex
	values map[string]string
}

func New() *Properties {
	return &Properties{values: map[string]string{}}
}

var defaultProperties = New()

// Default returns the process wide properties.
func Default() *Properties {
	return defaultProperties
}

func (p *Properties) Get(key string) (string, bool) {
	p.RLock()
	defer p.RUnlock()
	v, ok := p.values[key]
	return v, ok
}

func (p *Properties) Set(key, value string) {
	p.Lock()
	defer p.Unlock()
	p.values[key] = value
}

// AcquireAll is Acquire for every entry of values, under one lock. Keys
// already set, including ones held by an earlier Acquire, keep their value;
// release clears only the keys AcquireAll set.
func (p *Properties) AcquireAll(values map[string]string) (release func()) {
	p.Lock()
	defer p.Unlock()
	set := make([]string, 0, len(values))
	for k, v := range values {
		if _, ok := p.values[k]; ok {
			continue
		}
		p.values[k] = v
		set = append(set, k)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			p.Lock()
			defer p.Unlock()
			for _, k := range set {
				delete(p.values, k)
			}
		})
	}
}

func (p *Properties) Clear(key string) {
	p.Lock()
	defer p.Unlock()
	delete(p.values, key)
}

// Keys returns the property names in order.
func (p *Properties) Keys() []string {
	p.RLock()
	defer p.RUnlock()
	out := make([]string, 0, len(p.values))
	for k := range p.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Acquire sets key to value for the duration of a scope when key is unset.
// The returned release clears the key only if Acquire set it, so a value
// present before the scope survives it.
func (p *Properties) Acquire(key, value string) (release func()) {
	p.Lock()
	defer p.Unlock()
	if _, ok := p.values[key]; ok {
		return func() {}
	}
	p.values[key] = value

	var once sync.Once
	return func() {
		once.Do(func() { p.Clear(key) })
	}
}
