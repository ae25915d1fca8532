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
	"sort"
	"strconv"

	"github.com/tidwall/btree"
)

// MetaTargetNamespace is the metadata key set by the enclosing definitions.
const MetaTargetNamespace = "TargetNamespace"

// Kind tells which definition language a process model came from.
type Kind int32

const (
	KindProcess Kind = iota + 1
	KindCase
)

func (k Kind) String() string {
	switch k {
	case KindProcess:
		return "process"
	case KindCase:
		return "case"
	default:
		return "unknown"
	}
}

type Shape int32

const (
	StartEventShape Shape = iota + 1
	EndEventShape
	TaskShape
	ServiceTaskShape
	UserTaskShape
	ScriptTaskShape
	ExclusiveGatewayShape
	InclusiveGatewayShape
	ParallelGatewayShape
	CasePlanShape
	StageShape
	HumanTaskShape
	ProcessTaskShape
	MilestoneShape
)

func (s Shape) String() string {
	switch s {
	case StartEventShape:
		return "StartEvent"
	case EndEventShape:
		return "EndEvent"
	case TaskShape:
		return "Task"
	case ServiceTaskShape:
		return "ServiceTask"
	case UserTaskShape:
		return "UserTask"
	case ScriptTaskShape:
		return "ScriptTask"
	case ExclusiveGatewayShape:
		return "ExclusiveGateway"
	case InclusiveGatewayShape:
		return "InclusiveGateway"
	case ParallelGatewayShape:
		return "ParallelGateway"
	case CasePlanShape:
		return "CasePlan"
	case StageShape:
		return "Stage"
	case HumanTaskShape:
		return "HumanTask"
	case ProcessTaskShape:
		return "ProcessTask"
	case MilestoneShape:
		return "Milestone"
	default:
		return "Unknown"
	}
}

func (s Shape) IsGateway() bool {
	switch s {
	case ExclusiveGatewayShape, InclusiveGatewayShape, ParallelGatewayShape:
		return true
	default:
		return false
	}
}

// IsHumanTask reports whether nodes of this shape wait for a person.
func (s Shape) IsHumanTask() bool {
	return s == UserTaskShape || s == HumanTaskShape
}

// Variable is a typed data item of a process or of a task input.
type Variable struct {
	Id   string
	Name string
	Type string
	// Ref names the variable an input is bound to.
	Ref string
}

// Node is one flow node of a process model.
type Node struct {
	Id         string
	Name       string
	Shape      Shape
	Incoming   []string
	Outgoing   []string
	Inputs     []*Variable
	Attributes map[string]string
}

func (n *Node) GetID() string { return n.Id }

func (n *Node) SetID(id string) { n.Id = id }

func (n *Node) GetName() string { return n.Name }

func (n *Node) SetName(name string) { n.Name = name }

func (n *Node) SetAttribute(key, value string) {
	if n.Attributes == nil {
		n.Attributes = map[string]string{}
	}
	n.Attributes[key] = value
}

// Connection links two nodes of the same process.
type Connection struct {
	Id        string
	Name      string
	Source    string
	Target    string
	Condition string
}

// Process is the in-memory model of one process or case definition.
type Process struct {
	Id         string
	Name       string
	Package    string
	Version    string
	Kind       Kind
	Executable bool
	Resource   string

	Nodes       *btree.Map[string, *Node]
	Connections *btree.Map[string, *Connection]
	Variables   []*Variable

	metadata  map[string]any
	anonymous int
}

func New(id string, kind Kind) *Process {
	return &Process{
		Id:          id,
		Kind:        kind,
		Nodes:       &btree.Map[string, *Node]{},
		Connections: &btree.Map[string, *Connection]{},
		metadata:    map[string]any{},
	}
}

func (p *Process) GetID() string { return p.Id }

func (p *Process) SetID(id string) { p.Id = id }

func (p *Process) GetName() string { return p.Name }

func (p *Process) SetName(name string) { p.Name = name }

// SetMetaData sets or overwrites a metadata entry.
func (p *Process) SetMetaData(key string, value any) {
	if p.metadata == nil {
		p.metadata = map[string]any{}
	}
	p.metadata[key] = value
}

func (p *Process) GetMetaData(key string) (any, bool) {
	v, ok := p.metadata[key]
	return v, ok
}

// MetaData returns a copy of all metadata entries.
func (p *Process) MetaData() map[string]any {
	out := make(map[string]any, len(p.metadata))
	for k, v := range p.metadata {
		out[k] = v
	}
	return out
}

// TargetNamespace returns the TargetNamespace metadata as a string.
func (p *Process) TargetNamespace() string {
	v, _ := p.GetMetaData(MetaTargetNamespace)
	s, _ := v.(string)
	return s
}

// AnonymousID returns the id of an element declared without one. It only
// depends on the shape and on how many anonymous elements came before, so
// parsing the same document twice yields the same ids.
func (p *Process) AnonymousID(shape Shape) string {
	p.anonymous++
	return shapePrefix(shape) + "_" + strconv.Itoa(p.anonymous)
}

func (p *Process) AddNode(node *Node) {
	p.Nodes.Set(node.Id, node)
}

func (p *Process) Node(id string) (*Node, bool) {
	return p.Nodes.Get(id)
}

func (p *Process) AddConnection(conn *Connection) {
	p.Connections.Set(conn.Id, conn)
	if source, ok := p.Nodes.Get(conn.Source); ok {
		source.Outgoing = appendUnique(source.Outgoing, conn.Id)
	}
	if target, ok := p.Nodes.Get(conn.Target); ok {
		target.Incoming = appendUnique(target.Incoming, conn.Id)
	}
}

func (p *Process) AddVariable(v *Variable) {
	for i, item := range p.Variables {
		if item.Name == v.Name {
			p.Variables[i] = v
			return
		}
	}
	p.Variables = append(p.Variables, v)
}

// VariableByID returns the process variable declared with id.
func (p *Process) VariableByID(id string) (*Variable, bool) {
	for _, v := range p.Variables {
		if v.Id != "" && v.Id == id {
			return v, true
		}
	}
	return nil, false
}

// NodesByShape returns the nodes matching any of shapes, ordered by id.
func (p *Process) NodesByShape(shapes ...Shape) []*Node {
	out := make([]*Node, 0)
	p.Nodes.Scan(func(key string, node *Node) bool {
		for _, shape := range shapes {
			if node.Shape == shape {
				out = append(out, node)
				break
			}
		}
		return true
	})
	return out
}

// HumanTasks returns user tasks and CMMN human tasks.
func (p *Process) HumanTasks() []*Node {
	return p.NodesByShape(UserTaskShape, HumanTaskShape)
}

// SortedVariables returns the process variables ordered by name.
func (p *Process) SortedVariables() []*Variable {
	out := make([]*Variable, len(p.Variables))
	copy(out, p.Variables)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func appendUnique(items []string, item string) []string {
	for _, v := range items {
		if v == item {
			return items
		}
	}
	return append(items, item)
}
