package schema

import (
	"bytes"
	"encoding/xml"

	"github.com/pkg/errors"
)

// PMML is the root of a PMML document.
type PMML struct {
	XMLName xml.Name     `xml:"PMML"`
	Version string       `xml:"version,attr"`
	Header  *PMMLHeader  `xml:"Header"`
	Fields  []*DataField `xml:"DataDictionary>DataField"`
	// Models holds every child element; non model elements are filtered by
	// PMML.Predictions.
	Models []*PMMLModel `xml:",any"`
}

type PMMLHeader struct {
	Copyright   string `xml:"copyright,attr,omitempty"`
	Description string `xml:"description,attr,omitempty"`
	Application *struct {
		Name    string `xml:"name,attr"`
		Version string `xml:"version,attr,omitempty"`
	} `xml:"Application"`
}

type DataField struct {
	Name     string `xml:"name,attr"`
	OpType   string `xml:"optype,attr"`
	DataType string `xml:"dataType,attr"`
}

type MiningField struct {
	Name      string `xml:"name,attr"`
	UsageType string `xml:"usageType,attr,omitempty"`
}

type PMMLModel struct {
	XMLName      xml.Name       `xml:""`
	ModelName    string         `xml:"modelName,attr"`
	FunctionName string         `xml:"functionName,attr"`
	MiningFields []*MiningField `xml:"MiningSchema>MiningField"`
}

// Kind is the element name of the model, e.g. RegressionModel.
func (m *PMMLModel) Kind() string {
	return m.XMLName.Local
}

// Targets returns the names of the predicted fields.
func (m *PMMLModel) Targets() []string {
	out := make([]string, 0)
	for _, f := range m.MiningFields {
		if f.UsageType == "target" || f.UsageType == "predicted" {
			out = append(out, f.Name)
		}
	}
	return out
}

// Inputs returns the names of the active fields.
func (m *PMMLModel) Inputs() []string {
	out := make([]string, 0)
	for _, f := range m.MiningFields {
		if f.UsageType == "" || f.UsageType == "active" {
			out = append(out, f.Name)
		}
	}
	return out
}

var pmmlModels = map[string]struct{}{
	"RegressionModel":           {},
	"TreeModel":                 {},
	"Scorecard":                 {},
	"MiningModel":               {},
	"ClusteringModel":           {},
	"NeuralNetwork":             {},
	"NaiveBayesModel":           {},
	"SupportVectorMachineModel": {},
}

// Predictions returns the model elements of the document.
func (m *PMML) Predictions() []*PMMLModel {
	out := make([]*PMMLModel, 0, len(m.Models))
	for _, model := range m.Models {
		if _, ok := pmmlModels[model.Kind()]; ok {
			out = append(out, model)
		}
	}
	return out
}

// Field returns the data dictionary entry of name.
func (m *PMML) Field(name string) (*DataField, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// ParsePMML decodes a PMML document.
func ParsePMML(data []byte) (*PMML, error) {
	out := &PMML{}
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(out); err != nil {
		return nil, errors.Wrap(err, "decode pmml")
	}
	return out, nil
}
