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

// Package definitions handles the root element of process and case
// definition documents.
package definitions

import (
	"github.com/beevik/etree"
	"github.com/vine-io/flowgen/process"
	"github.com/vine-io/flowgen/xmlparser"
)

const Tag = "definitions"

// Definitions is the root record of one definition document. It is
// finalized when its element closes and is not modified afterwards.
type Definitions struct {
	Id              string
	TargetNamespace string
}

// MetadataUpdate is one metadata entry to set on a process model.
type MetadataUpdate struct {
	Process *process.Process
	Key     string
	Value   any
}

// Resolve computes the definitions record for the given attributes and the
// metadata updates it implies for the processes of the same document.
// Missing attributes are passed through as empty strings.
func Resolve(id, targetNamespace string, processes []*process.Process) (*Definitions, []MetadataUpdate) {
	updates := make([]MetadataUpdate, 0, len(processes))
	for _, p := range processes {
		updates = append(updates, MetadataUpdate{
			Process: p,
			Key:     process.MetaTargetNamespace,
			Value:   targetNamespace,
		})
	}

	return &Definitions{Id: id, TargetNamespace: targetNamespace}, updates
}

// Apply sets every update, overwriting existing entries.
func Apply(updates []MetadataUpdate) {
	for _, u := range updates {
		u.Process.SetMetaData(u.Key, u.Value)
	}
}

var _ xmlparser.Handler = (*Handler)(nil)

// Handler builds Definitions from a <definitions> element. The parser data
// must be a *process.BuildData.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) Tag() string { return Tag }

func (h *Handler) Rules() xmlparser.Rules {
	return xmlparser.Rules{
		ValidParents: []string{xmlparser.Root},
		ValidPeers:   []string{xmlparser.Root},
		AllowNesting: false,
	}
}

func (h *Handler) Start(p *xmlparser.Parser, elem *etree.Element) (any, error) {
	return &Definitions{}, nil
}

func (h *Handler) End(p *xmlparser.Parser, elem *etree.Element) (any, error) {
	current, ok := p.Current().(*Definitions)
	if !ok {
		current = &Definitions{}
	}
	data, ok := p.Data().(*process.BuildData)
	if !ok {
		return nil, xmlparser.ErrUnexpectedData
	}

	resolved, updates := Resolve(
		xmlparser.Attr(elem, "id"),
		xmlparser.Attr(elem, "targetNamespace"),
		data.Processes(),
	)
	Apply(updates)

	current.Id = resolved.Id
	current.TargetNamespace = resolved.TargetNamespace
	return current, nil
}
