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

// Package xmlparser walks definition documents and hands every element to
// the handler registered for its local name.
package xmlparser

import (
	"fmt"

	"github.com/beevik/etree"
	log "github.com/vine-io/vine/lib/logger"
)

// Root is the parent kind of a document root construct.
const Root = ""

// Rules restrict where an element may appear.
type Rules struct {
	// ValidParents lists the tags of allowed parents, Root for none.
	ValidParents []string
	// ValidPeers lists the tags allowed as previous sibling, Root for none.
	// A nil slice accepts any peer.
	ValidPeers   []string
	AllowNesting bool
}

// Handler builds the in-memory node of one element.
type Handler interface {
	// Tag is the local element name served by this handler.
	Tag() string
	Rules() Rules
	Start(p *Parser, elem *etree.Element) (any, error)
	End(p *Parser, elem *etree.Element) (any, error)
}

type State int32

const (
	AwaitingStart State = iota
	Content
	Closed
)

func (s State) String() string {
	switch s {
	case AwaitingStart:
		return "AWAITING_START"
	case Content:
		return "CONTENT"
	case Closed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Frame is the parse state of one handled element.
type Frame struct {
	Element *etree.Element
	Handler Handler
	State   State
	Node    any

	parent *Frame
}

func (f *Frame) Parent() *Frame {
	return f.parent
}

type Parser struct {
	resource string
	handlers map[string]Handler
	data     any
	stack    []*Frame
	root     *Frame
}

func NewParser(resource string, data any, handlers ...Handler) *Parser {
	p := &Parser{
		resource: resource,
		handlers: map[string]Handler{},
		data:     data,
		stack:    make([]*Frame, 0),
	}
	for _, h := range handlers {
		p.handlers[h.Tag()] = h
	}
	return p
}

// Resource is the name of the document being parsed.
func (p *Parser) Resource() string {
	return p.resource
}

// Data returns the build data shared by every handler of this parser.
func (p *Parser) Data() any {
	return p.data
}

// Current returns the node of the element being handled.
func (p *Parser) Current() any {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1].Node
}

// Parent returns the node of the closest handled ancestor.
func (p *Parser) Parent() any {
	if len(p.stack) < 2 {
		return nil
	}
	return p.stack[len(p.stack)-2].Node
}

// Lookup returns the node of the closest enclosing element matching match,
// not counting the element being handled.
func (p *Parser) Lookup(match func(node any) bool) any {
	for i := len(p.stack) - 2; i >= 0; i-- {
		if node := p.stack[i].Node; match(node) {
			return node
		}
	}
	return nil
}

// RootFrame returns the frame of the document root after Parse.
func (p *Parser) RootFrame() *Frame {
	return p.root
}

// Parse reads the document and returns the node built for its root.
func (p *Parser) Parse(data []byte) (any, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &ParseError{Resource: p.resource, Message: "malformed xml", Err: err}
	}
	root := doc.Root()
	if root == nil {
		return nil, &ParseError{Resource: p.resource, Message: "document has no root element"}
	}

	p.stack = p.stack[:0]
	p.root = nil
	if _, err := p.walk(root, nil, nil); err != nil {
		return nil, err
	}
	if p.root == nil {
		return nil, &ParseError{Resource: p.resource, Element: root.Tag, Message: "no handler for root element"}
	}

	return p.root.Node, nil
}

// walk handles elem and its children, returning the frame of elem, or nil
// when no handler serves it.
func (p *Parser) walk(elem *etree.Element, parent, peer *Frame) (*Frame, error) {
	handler, ok := p.handlers[elem.Tag]
	if !ok {
		log.Debugf("%s: skip <%s>", p.resource, elem.FullTag())
		last := peer
		for _, child := range elem.ChildElements() {
			frame, err := p.walk(child, parent, last)
			if err != nil {
				return nil, err
			}
			if frame != nil {
				last = frame
			}
		}
		return nil, nil
	}

	if err := p.validate(elem, handler, parent, peer); err != nil {
		return nil, err
	}

	frame := &Frame{Element: elem, Handler: handler, State: AwaitingStart, parent: parent}
	if parent == nil && p.root == nil {
		p.root = frame
	}
	if err := p.Start(frame); err != nil {
		return nil, err
	}

	var last *Frame
	for _, child := range elem.ChildElements() {
		childFrame, err := p.walk(child, frame, last)
		if err != nil {
			return nil, err
		}
		if childFrame != nil {
			last = childFrame
		}
	}

	if _, err := p.End(frame); err != nil {
		return nil, err
	}
	return frame, nil
}

func (p *Parser) validate(elem *etree.Element, handler Handler, parent, peer *Frame) error {
	rules := handler.Rules()

	parentTag := Root
	if parent != nil {
		parentTag = parent.Handler.Tag()
	}
	if !contains(rules.ValidParents, parentTag) {
		return &ParseError{
			Resource: p.resource,
			Element:  elem.Tag,
			Message:  fmt.Sprintf("invalid parent <%s>", parentTag),
		}
	}

	if rules.ValidPeers != nil {
		peerTag := Root
		if peer != nil {
			peerTag = peer.Handler.Tag()
		}
		if !contains(rules.ValidPeers, peerTag) {
			return &ParseError{
				Resource: p.resource,
				Element:  elem.Tag,
				Message:  fmt.Sprintf("invalid previous peer <%s>", peerTag),
			}
		}
	}

	if !rules.AllowNesting {
		for f := parent; f != nil; f = f.parent {
			if f.Handler.Tag() == handler.Tag() {
				return &ParseError{Resource: p.resource, Element: elem.Tag, Message: "nesting not allowed"}
			}
		}
	}

	return nil
}

// Start runs the start step of frame: AWAITING_START -> CONTENT.
func (p *Parser) Start(frame *Frame) error {
	if frame.State != AwaitingStart {
		return &ParseError{Resource: p.resource, Element: frame.Element.Tag, Message: "element already started"}
	}
	p.stack = append(p.stack, frame)
	node, err := frame.Handler.Start(p, frame.Element)
	if err != nil {
		p.stack = p.stack[:len(p.stack)-1]
		return p.wrap(frame, err)
	}
	frame.Node = node
	frame.State = Content
	return nil
}

// End runs the end step of frame: CONTENT -> CLOSED. Running it again on a
// CLOSED frame repeats the handler's end step against the current data.
func (p *Parser) End(frame *Frame) (any, error) {
	if frame.State == AwaitingStart {
		return nil, &ParseError{Resource: p.resource, Element: frame.Element.Tag, Message: "element not started"}
	}

	if len(p.stack) == 0 || p.stack[len(p.stack)-1] != frame {
		p.stack = append(p.stack, frame)
	}
	node, err := frame.Handler.End(p, frame.Element)
	p.stack = p.stack[:len(p.stack)-1]
	if err != nil {
		return nil, p.wrap(frame, err)
	}

	frame.Node = node
	frame.State = Closed
	return node, nil
}

func (p *Parser) wrap(frame *Frame, err error) error {
	if _, ok := err.(*ParseError); ok {
		return err
	}
	return &ParseError{Resource: p.resource, Element: frame.Element.Tag, Message: "handler failed", Err: err}
}

func contains(items []string, item string) bool {
	for _, v := range items {
		if v == item {
			return true
		}
	}
	return false
}
