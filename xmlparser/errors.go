package xmlparser

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"
)

// ParseError reports a structural problem of a definition document.
type ParseError struct {
	Resource string
	Element  string
	Message  string
	Err      error
}

func (e *ParseError) Error() string {
	text := e.Resource
	if e.Element != "" {
		text += fmt.Sprintf(" <%s>", e.Element)
	}
	text += ": " + e.Message
	if e.Err != nil {
		text += ": " + e.Err.Error()
	}
	return text
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Attr returns the value of the attribute whose local name is key, ignoring
// any namespace prefix. Missing attributes yield "".
func Attr(elem *etree.Element, key string) string {
	v, _ := LookupAttr(elem, key)
	return v
}

func LookupAttr(elem *etree.Element, key string) (string, bool) {
	for _, attr := range elem.Attr {
		if attr.FullKey() == key || (attr.Space != "xmlns" && attr.Key == key) {
			return attr.Value, true
		}
	}
	return "", false
}

// ErrUnexpectedData is returned by handlers when the parser carries build
// data of the wrong type.
var ErrUnexpectedData = errors.New("unexpected parser data")
