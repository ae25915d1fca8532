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

package process

import (
	"fmt"

	"github.com/vine-io/pkg/xname"
)

// Builder builds a Process model node by node
type Builder struct {
	p   *Process
	cur string
	err error
}

func NewBuilder(name string) *Builder {
	p := New("Process_"+RandName(), KindProcess)
	p.Name = name
	p.Executable = true
	return &Builder{p: p}
}

func (b *Builder) Id(id string) *Builder {
	b.p.Id = id
	return b
}

func (b *Builder) Package(pkg string) *Builder {
	b.p.Package = pkg
	return b
}

func (b *Builder) Variable(name, typ string) *Builder {
	b.p.AddVariable(&Variable{Name: name, Type: typ})
	return b
}

func (b *Builder) Start() *Builder {
	node := &Node{Shape: StartEventShape}
	node.SetID(RandShapeName(node.Shape))
	b.p.AddNode(node)
	b.cur = node.Id

	return b
}

// AppendNode adds node after the current node and links them.
func (b *Builder) AppendNode(node *Node) *Builder {
	if b.err != nil {
		return b
	}
	if node.Id == "" {
		node.SetID(RandShapeName(node.Shape))
	}
	if _, exists := b.p.Nodes.Get(node.Id); exists {
		b.err = fmt.Errorf("node %s already exists", node.Id)
		return b
	}
	b.p.AddNode(node)
	if b.cur != "" {
		b.p.AddConnection(&Connection{
			Id:     RandShapeName(0),
			Source: b.cur,
			Target: node.Id,
		})
	}
	b.cur = node.Id
	return b
}

func (b *Builder) End() *Builder {
	return b.AppendNode(&Node{Shape: EndEventShape})
}

func (b *Builder) Out() (*Process, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.p, nil
}

// RandName returns a short random lowercase name.
func RandName() string {
	return xname.Gen(xname.C(7), xname.Lowercase(), xname.Digit())
}

// RandShapeName returns a random id prefixed after the shape family.
func RandShapeName(shape Shape) string {
	return shapePrefix(shape) + "_" + RandName()
}

func shapePrefix(shape Shape) string {
	prefix := ""
	switch shape {
	case StartEventShape:
		prefix = "StartEvent"
	case EndEventShape:
		prefix = "EndEvent"
	case 0:
		prefix = "Flow"
	case ExclusiveGatewayShape, InclusiveGatewayShape, ParallelGatewayShape:
		prefix = "Gateway"
	case MilestoneShape:
		prefix = "Milestone"
	case StageShape, CasePlanShape:
		prefix = "Stage"
	default:
		prefix = "Activity"
	}
	return prefix
}
