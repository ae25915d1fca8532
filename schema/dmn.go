// Package schema decodes the decision (DMN) and prediction (PMML) documents
// the generator reads but does not model as processes.
package schema

import (
	"bytes"
	"encoding/xml"

	"github.com/pkg/errors"
)

// DMN is the root <definitions> of a DMN document. Element names are matched
// without their namespace so DMN 1.1 to 1.4 documents decode alike.
type DMN struct {
	XMLName   xml.Name          `xml:"definitions"`
	ID        string            `xml:"id,attr,omitempty"`
	Name      string            `xml:"name,attr"`
	Namespace string            `xml:"namespace,attr"`
	Items     []*ItemDefinition `xml:"itemDefinition"`
	Inputs    []*InputData      `xml:"inputData"`
	Decisions []*Decision       `xml:"decision"`
}

type ItemDefinition struct {
	Name       string            `xml:"name,attr"`
	TypeRef    string            `xml:"typeRef"`
	Components []*ItemDefinition `xml:"itemComponent"`
}

type Variable struct {
	Name    string `xml:"name,attr"`
	TypeRef string `xml:"typeRef,attr,omitempty"`
}

type InputData struct {
	ID       string    `xml:"id,attr,omitempty"`
	Name     string    `xml:"name,attr"`
	Variable *Variable `xml:"variable"`
}

// TypeRef is the declared type of the input, empty when untyped.
func (in *InputData) TypeRef() string {
	if in.Variable == nil {
		return ""
	}
	return in.Variable.TypeRef
}

type Decision struct {
	ID       string         `xml:"id,attr,omitempty"`
	Name     string         `xml:"name,attr"`
	Variable *Variable      `xml:"variable"`
	Table    *DecisionTable `xml:"decisionTable"`
	Requires []*Requirement `xml:"informationRequirement"`
}

type Requirement struct {
	Input    *Reference `xml:"requiredInput"`
	Decision *Reference `xml:"requiredDecision"`
}

type Reference struct {
	Href string `xml:"href,attr"`
}

type DecisionTable struct {
	HitPolicy string         `xml:"hitPolicy,attr,omitempty"`
	Inputs    []*TableInput  `xml:"input"`
	Outputs   []*TableOutput `xml:"output"`
	Rules     []*TableRule   `xml:"rule"`
}

type TableInput struct {
	ID         string      `xml:"id,attr,omitempty"`
	Label      string      `xml:"label,attr,omitempty"`
	Expression *Expression `xml:"inputExpression"`
}

type Expression struct {
	TypeRef string `xml:"typeRef,attr,omitempty"`
	Text    string `xml:"text"`
}

type TableOutput struct {
	ID      string `xml:"id,attr,omitempty"`
	Name    string `xml:"name,attr,omitempty"`
	TypeRef string `xml:"typeRef,attr,omitempty"`
}

type TableRule struct {
	ID      string   `xml:"id,attr,omitempty"`
	Inputs  []string `xml:"inputEntry>text"`
	Outputs []string `xml:"outputEntry>text"`
}

// ParseDMN decodes a DMN document.
func ParseDMN(data []byte) (*DMN, error) {
	out := &DMN{}
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(out); err != nil {
		return nil, errors.Wrap(err, "decode dmn")
	}
	if out.Name == "" {
		return nil, errors.New("dmn definitions without name")
	}
	return out, nil
}

// DecisionNames returns the names of every decision, in document order.
func (m *DMN) DecisionNames() []string {
	out := make([]string, 0, len(m.Decisions))
	for _, d := range m.Decisions {
		out = append(out, d.Name)
	}
	return out
}
