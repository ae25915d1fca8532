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

package bpmn

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/vine-io/flowgen/definitions"
	"github.com/vine-io/flowgen/process"
	"github.com/vine-io/flowgen/xmlparser"
)

// DefaultPackage is used for processes without a packageName attribute.
const DefaultPackage = "org.flowgen.processes"

func buildData(p *xmlparser.Parser) (*process.BuildData, error) {
	data, ok := p.Data().(*process.BuildData)
	if !ok {
		return nil, xmlparser.ErrUnexpectedData
	}
	return data, nil
}

func enclosingProcess(p *xmlparser.Parser) (*process.Process, bool) {
	node := p.Lookup(func(node any) bool {
		_, ok := node.(*process.Process)
		return ok
	})
	proc, ok := node.(*process.Process)
	return proc, ok
}

// itemDefinitionHandler handles <itemDefinition>.
type itemDefinitionHandler struct{}

func (h *itemDefinitionHandler) Tag() string { return "itemDefinition" }

func (h *itemDefinitionHandler) Rules() xmlparser.Rules {
	return xmlparser.Rules{ValidParents: []string{definitions.Tag}}
}

func (h *itemDefinitionHandler) Start(p *xmlparser.Parser, elem *etree.Element) (any, error) {
	data, err := buildData(p)
	if err != nil {
		return nil, err
	}
	id := xmlparser.Attr(elem, "id")
	data.SetItemDefinition(id, xmlparser.Attr(elem, "structureRef"))
	return id, nil
}

func (h *itemDefinitionHandler) End(p *xmlparser.Parser, elem *etree.Element) (any, error) {
	return p.Current(), nil
}

// processHandler handles <process>.
type processHandler struct{}

func (h *processHandler) Tag() string { return "process" }

func (h *processHandler) Rules() xmlparser.Rules {
	return xmlparser.Rules{ValidParents: []string{definitions.Tag}}
}

func (h *processHandler) Start(p *xmlparser.Parser, elem *etree.Element) (any, error) {
	data, err := buildData(p)
	if err != nil {
		return nil, err
	}
	id := xmlparser.Attr(elem, "id")
	if id == "" {
		id = data.AnonymousID("Process")
	}
	proc := process.New(id, process.KindProcess)
	proc.Name = xmlparser.Attr(elem, "name")
	proc.Package = xmlparser.Attr(elem, "packageName")
	if proc.Package == "" {
		proc.Package = DefaultPackage
	}
	proc.Version = xmlparser.Attr(elem, "version")
	proc.Executable = xmlparser.Attr(elem, "isExecutable") == "true"
	proc.Resource = p.Resource()
	return proc, nil
}

func (h *processHandler) End(p *xmlparser.Parser, elem *etree.Element) (any, error) {
	data, err := buildData(p)
	if err != nil {
		return nil, err
	}
	proc := p.Current().(*process.Process)

	// flows may be declared before the nodes they link
	conns := make([]*process.Connection, 0, proc.Connections.Len())
	proc.Connections.Scan(func(key string, conn *process.Connection) bool {
		conns = append(conns, conn)
		return true
	})
	for _, conn := range conns {
		proc.AddConnection(conn)
	}

	resolve := func(v *process.Variable) {
		if v.Type != "" || v.Ref == "" {
			return
		}
		if structure, ok := data.ItemDefinition(v.Ref); ok && structure != "" {
			v.Type = structure
		} else {
			v.Type = v.Ref
		}
	}
	for _, v := range proc.Variables {
		resolve(v)
	}
	proc.Nodes.Scan(func(key string, node *process.Node) bool {
		for _, v := range node.Inputs {
			resolve(v)
		}
		return true
	})

	if _, exists := data.Process(proc.Id); !exists {
		data.AddProcess(proc)
	}
	return proc, nil
}

// nodeHandler handles the flow nodes of a process.
type nodeHandler struct {
	tag   string
	shape process.Shape
	attrs []string
}

func (h *nodeHandler) Tag() string { return h.tag }

func (h *nodeHandler) Rules() xmlparser.Rules {
	return xmlparser.Rules{ValidParents: []string{"process"}}
}

func (h *nodeHandler) Start(p *xmlparser.Parser, elem *etree.Element) (any, error) {
	proc, ok := enclosingProcess(p)
	if !ok {
		return nil, xmlparser.ErrUnexpectedData
	}
	node := &process.Node{
		Id:    xmlparser.Attr(elem, "id"),
		Name:  xmlparser.Attr(elem, "name"),
		Shape: h.shape,
	}
	if node.Id == "" {
		node.Id = proc.AnonymousID(h.shape)
	}
	for _, key := range h.attrs {
		if v, ok := xmlparser.LookupAttr(elem, key); ok {
			node.SetAttribute(key, v)
		}
	}
	proc.AddNode(node)
	return node, nil
}

func (h *nodeHandler) End(p *xmlparser.Parser, elem *etree.Element) (any, error) {
	return p.Current(), nil
}

// sequenceFlowHandler handles <sequenceFlow>.
type sequenceFlowHandler struct{}

func (h *sequenceFlowHandler) Tag() string { return "sequenceFlow" }

func (h *sequenceFlowHandler) Rules() xmlparser.Rules {
	return xmlparser.Rules{ValidParents: []string{"process"}}
}

func (h *sequenceFlowHandler) Start(p *xmlparser.Parser, elem *etree.Element) (any, error) {
	conn := &process.Connection{
		Id:     xmlparser.Attr(elem, "id"),
		Name:   xmlparser.Attr(elem, "name"),
		Source: xmlparser.Attr(elem, "sourceRef"),
		Target: xmlparser.Attr(elem, "targetRef"),
	}

	for _, child := range elem.ChildElements() {
		if child.Tag == "conditionExpression" {
			conn.Condition = strings.TrimSpace(child.Text())
		}
	}
	return conn, nil
}

func (h *sequenceFlowHandler) End(p *xmlparser.Parser, elem *etree.Element) (any, error) {
	proc, ok := enclosingProcess(p)
	if !ok {
		return nil, xmlparser.ErrUnexpectedData
	}
	conn := p.Current().(*process.Connection)
	if conn.Id == "" {
		conn.Id = proc.AnonymousID(0)
	}
	proc.AddConnection(conn)
	return conn, nil
}

// variableHandler handles <property> and <dataObject>, the process variables.
type variableHandler struct {
	tag string
}

func (h *variableHandler) Tag() string { return h.tag }

func (h *variableHandler) Rules() xmlparser.Rules {
	return xmlparser.Rules{ValidParents: []string{"process"}}
}

func (h *variableHandler) Start(p *xmlparser.Parser, elem *etree.Element) (any, error) {
	proc, ok := enclosingProcess(p)
	if !ok {
		return nil, xmlparser.ErrUnexpectedData
	}
	v := &process.Variable{
		Id:   xmlparser.Attr(elem, "id"),
		Name: xmlparser.Attr(elem, "name"),
		Ref:  xmlparser.Attr(elem, "itemSubjectRef"),
	}
	if v.Name == "" {
		v.Name = v.Id
	}
	proc.AddVariable(v)
	return v, nil
}

func (h *variableHandler) End(p *xmlparser.Parser, elem *etree.Element) (any, error) {
	return p.Current(), nil
}

// dataInputHandler handles the <dataInput> items of a task io specification.
type dataInputHandler struct{}

func (h *dataInputHandler) Tag() string { return "dataInput" }

func (h *dataInputHandler) Rules() xmlparser.Rules {
	return xmlparser.Rules{ValidParents: []string{"task", "userTask", "serviceTask", "scriptTask"}}
}

func (h *dataInputHandler) Start(p *xmlparser.Parser, elem *etree.Element) (any, error) {
	node, ok := p.Parent().(*process.Node)
	if !ok {
		return nil, xmlparser.ErrUnexpectedData
	}
	v := &process.Variable{
		Id:   xmlparser.Attr(elem, "id"),
		Name: xmlparser.Attr(elem, "name"),
		Ref:  xmlparser.Attr(elem, "itemSubjectRef"),
	}
	if isReservedInput(v.Name) {
		return v, nil
	}
	node.Inputs = append(node.Inputs, v)
	return v, nil
}

func (h *dataInputHandler) End(p *xmlparser.Parser, elem *etree.Element) (any, error) {
	return p.Current(), nil
}

// reserved task inputs configure the work item and are not user data
var reservedInputs = map[string]struct{}{
	"TaskName":    {},
	"Skippable":   {},
	"GroupId":     {},
	"ActorId":     {},
	"Priority":    {},
	"NodeName":    {},
	"Comment":     {},
	"Content":     {},
	"Locale":      {},
	"CreatedBy":   {},
	"Description": {},
}

func isReservedInput(name string) bool {
	_, ok := reservedInputs[name]
	return ok
}

// Handlers returns the handlers of the BPMN vocabulary.
func Handlers() []xmlparser.Handler {
	return []xmlparser.Handler{
		definitions.NewHandler(),
		&itemDefinitionHandler{},
		&processHandler{},
		&nodeHandler{tag: "startEvent", shape: process.StartEventShape},
		&nodeHandler{tag: "endEvent", shape: process.EndEventShape},
		&nodeHandler{tag: "task", shape: process.TaskShape},
		&nodeHandler{tag: "serviceTask", shape: process.ServiceTaskShape, attrs: []string{"implementation", "operationRef", "serviceInterface", "serviceOperation"}},
		&nodeHandler{tag: "userTask", shape: process.UserTaskShape, attrs: []string{"taskName"}},
		&nodeHandler{tag: "scriptTask", shape: process.ScriptTaskShape, attrs: []string{"scriptFormat"}},
		&nodeHandler{tag: "exclusiveGateway", shape: process.ExclusiveGatewayShape, attrs: []string{"default"}},
		&nodeHandler{tag: "inclusiveGateway", shape: process.InclusiveGatewayShape, attrs: []string{"default"}},
		&nodeHandler{tag: "parallelGateway", shape: process.ParallelGatewayShape},
		&sequenceFlowHandler{},
		&variableHandler{tag: "property"},
		&variableHandler{tag: "dataObject"},
		&dataInputHandler{},
	}
}

// Parse reads one BPMN document and returns its definitions together with
// the process models it declares.
func Parse(resource string, data []byte) (*definitions.Definitions, *process.BuildData, error) {
	buildData := process.NewBuildData()
	p := xmlparser.NewParser(resource, buildData, Handlers()...)
	out, err := p.Parse(data)
	if err != nil {
		return nil, nil, err
	}
	defs, ok := out.(*definitions.Definitions)
	if !ok {
		return nil, nil, &xmlparser.ParseError{Resource: resource, Message: "root element is not <definitions>"}
	}
	return defs, buildData, nil
}
