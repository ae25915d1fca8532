package cmmn

import (
	"github.com/beevik/etree"
	"github.com/vine-io/flowgen/definitions"
	"github.com/vine-io/flowgen/process"
	"github.com/vine-io/flowgen/xmlparser"
)

// DefaultPackage is used for cases without a packageName attribute.
const DefaultPackage = "org.flowgen.cases"

func buildData(p *xmlparser.Parser) (*process.BuildData, error) {
	data, ok := p.Data().(*process.BuildData)
	if !ok {
		return nil, xmlparser.ErrUnexpectedData
	}
	return data, nil
}

func enclosingCase(p *xmlparser.Parser) (*process.Process, bool) {
	node := p.Lookup(func(node any) bool {
		_, ok := node.(*process.Process)
		return ok
	})
	c, ok := node.(*process.Process)
	return c, ok
}

func newNode(c *process.Process, elem *etree.Element, shape process.Shape) *process.Node {
	node := &process.Node{
		Id:    xmlparser.Attr(elem, "id"),
		Name:  xmlparser.Attr(elem, "name"),
		Shape: shape,
	}
	if node.Id == "" {
		node.Id = c.AnonymousID(shape)
	}
	return node
}

// caseHandler handles <case>.
type caseHandler struct{}

func (h *caseHandler) Tag() string { return "case" }

func (h *caseHandler) Rules() xmlparser.Rules {
	return xmlparser.Rules{ValidParents: []string{definitions.Tag}}
}

func (h *caseHandler) Start(p *xmlparser.Parser, elem *etree.Element) (any, error) {
	data, err := buildData(p)
	if err != nil {
		return nil, err
	}
	id := xmlparser.Attr(elem, "id")
	if id == "" {
		id = data.AnonymousID("Case")
	}
	c := process.New(id, process.KindCase)
	c.Name = xmlparser.Attr(elem, "name")
	c.Package = xmlparser.Attr(elem, "packageName")
	if c.Package == "" {
		c.Package = DefaultPackage
	}
	c.Version = xmlparser.Attr(elem, "version")
	c.Executable = true
	c.Resource = p.Resource()
	return c, nil
}

func (h *caseHandler) End(p *xmlparser.Parser, elem *etree.Element) (any, error) {
	data, err := buildData(p)
	if err != nil {
		return nil, err
	}
	c := p.Current().(*process.Process)

	// bind task inputs to the case file items they reference
	c.Nodes.Scan(func(key string, node *process.Node) bool {
		for _, input := range node.Inputs {
			if input.Ref == "" {
				continue
			}
			if v, ok := c.VariableByID(input.Ref); ok {
				if input.Type == "" {
					input.Type = v.Type
				}
				if input.Name == "" {
					input.Name = v.Name
				}
			}
		}
		return true
	})

	if _, exists := data.Process(c.Id); !exists {
		data.AddProcess(c)
	}
	return c, nil
}

// casePlanModelHandler handles <casePlanModel>.
type casePlanModelHandler struct{}

func (h *casePlanModelHandler) Tag() string { return "casePlanModel" }

func (h *casePlanModelHandler) Rules() xmlparser.Rules {
	return xmlparser.Rules{ValidParents: []string{"case"}}
}

func (h *casePlanModelHandler) Start(p *xmlparser.Parser, elem *etree.Element) (any, error) {
	c, ok := p.Parent().(*process.Process)
	if !ok {
		return nil, xmlparser.ErrUnexpectedData
	}
	node := newNode(c, elem, process.CasePlanShape)
	if c.Name == "" {
		c.Name = node.Name
	}
	c.AddNode(node)
	return node, nil
}

func (h *casePlanModelHandler) End(p *xmlparser.Parser, elem *etree.Element) (any, error) {
	return p.Current(), nil
}

// planItemHandler handles the plan items of a case: stages, tasks and
// milestones.
type planItemHandler struct {
	tag     string
	shape   process.Shape
	nesting bool
	attrs   []string
}

func (h *planItemHandler) Tag() string { return h.tag }

func (h *planItemHandler) Rules() xmlparser.Rules {
	return xmlparser.Rules{
		ValidParents: []string{"casePlanModel", "stage"},
		AllowNesting: h.nesting,
	}
}

func (h *planItemHandler) Start(p *xmlparser.Parser, elem *etree.Element) (any, error) {
	c, ok := enclosingCase(p)
	if !ok {
		return nil, xmlparser.ErrUnexpectedData
	}
	node := newNode(c, elem, h.shape)
	for _, key := range h.attrs {
		if v, ok := xmlparser.LookupAttr(elem, key); ok {
			node.SetAttribute(key, v)
		}
	}
	if parent, ok := p.Parent().(*process.Node); ok {
		node.SetAttribute("parent", parent.Id)
	}
	c.AddNode(node)
	return node, nil
}

func (h *planItemHandler) End(p *xmlparser.Parser, elem *etree.Element) (any, error) {
	return p.Current(), nil
}

// caseFileItemHandler handles <caseFileItem>, the case variables.
type caseFileItemHandler struct{}

func (h *caseFileItemHandler) Tag() string { return "caseFileItem" }

func (h *caseFileItemHandler) Rules() xmlparser.Rules {
	return xmlparser.Rules{ValidParents: []string{"case", "caseFileItem"}, AllowNesting: true}
}

func (h *caseFileItemHandler) Start(p *xmlparser.Parser, elem *etree.Element) (any, error) {
	c, ok := enclosingCase(p)
	if !ok {
		return nil, xmlparser.ErrUnexpectedData
	}
	v := &process.Variable{
		Id:   xmlparser.Attr(elem, "id"),
		Name: xmlparser.Attr(elem, "name"),
		Type: xmlparser.Attr(elem, "definitionRef"),
	}
	if v.Name == "" {
		v.Name = v.Id
	}
	c.AddVariable(v)
	return v, nil
}

func (h *caseFileItemHandler) End(p *xmlparser.Parser, elem *etree.Element) (any, error) {
	return p.Current(), nil
}

// inputHandler handles the <input> parameters of human and process tasks.
type inputHandler struct{}

func (h *inputHandler) Tag() string { return "input" }

func (h *inputHandler) Rules() xmlparser.Rules {
	return xmlparser.Rules{ValidParents: []string{"humanTask", "processTask"}}
}

func (h *inputHandler) Start(p *xmlparser.Parser, elem *etree.Element) (any, error) {
	return &process.Variable{
		Id:   xmlparser.Attr(elem, "id"),
		Name: xmlparser.Attr(elem, "name"),
		Type: xmlparser.Attr(elem, "type"),
		Ref:  xmlparser.Attr(elem, "bindingRef"),
	}, nil
}

func (h *inputHandler) End(p *xmlparser.Parser, elem *etree.Element) (any, error) {
	v := p.Current().(*process.Variable)
	if node, ok := p.Parent().(*process.Node); ok {
		node.Inputs = append(node.Inputs, v)
	}
	return v, nil
}

// Handlers returns the handlers of the CMMN vocabulary.
func Handlers() []xmlparser.Handler {
	return []xmlparser.Handler{
		definitions.NewHandler(),
		&caseHandler{},
		&casePlanModelHandler{},
		&planItemHandler{tag: "stage", shape: process.StageShape, nesting: true, attrs: []string{"autoComplete"}},
		&planItemHandler{tag: "humanTask", shape: process.HumanTaskShape, attrs: []string{"isBlocking", "performerRef"}},
		&planItemHandler{tag: "processTask", shape: process.ProcessTaskShape, attrs: []string{"isBlocking", "processRef"}},
		&planItemHandler{tag: "milestone", shape: process.MilestoneShape},
		&caseFileItemHandler{},
		&inputHandler{},
	}
}

// Parse reads one CMMN document and returns its definitions together with
// the case models it declares.
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
