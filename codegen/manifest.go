package codegen

import (
	"os"
	"path/filepath"
	"sort"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/vine-io/flowgen/api"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ManifestPath is the class output path of the model manifest.
const ManifestPath = "META-INF/flowgen/manifest.json"

// Capability marks what a generated type is used for downstream.
type Capability string

const (
	// CapabilityModel types are persisted.
	CapabilityModel Capability = "Model"
	// CapabilityProcessInput types start a process.
	CapabilityProcessInput Capability = "ProcessInput"
	// CapabilityUserTaskInput types feed a human task.
	CapabilityUserTaskInput Capability = "UserTaskInput"
)

type Field struct {
	Name     string `json:"name"`
	GoName   string `json:"goName"`
	GoType   string `json:"goType"`
	JSONName string `json:"jsonName"`
}

// Descriptor describes one generated Go type.
type Descriptor struct {
	TypeName     string       `json:"typeName"`
	Package      string       `json:"package"`
	Dir          string       `json:"dir"`
	ImportPath   string       `json:"importPath"`
	Source       string       `json:"source,omitempty"`
	Fields       []Field      `json:"fields"`
	Capabilities []Capability `json:"capabilities"`
}

// Has reports whether the descriptor carries capability c.
func (d *Descriptor) Has(c Capability) bool {
	for _, item := range d.Capabilities {
		if item == c {
			return true
		}
	}
	return false
}

// QualifiedName is the dotted name of the type, e.g. org.acme.orders.OrderModel.
func (d *Descriptor) QualifiedName() string {
	if d.Dir == "." || d.Dir == "" {
		return d.Package + "." + d.TypeName
	}
	return DottedPackage(d.Dir) + "." + d.TypeName
}

// Manifest lists the generated types of an application.
type Manifest struct {
	BuildID     string        `json:"buildId"`
	Module      string        `json:"module"`
	Descriptors []*Descriptor `json:"descriptors"`
}

// Sort orders descriptors by directory and type name.
func (m *Manifest) Sort() {
	sort.SliceStable(m.Descriptors, func(i, j int) bool {
		a, b := m.Descriptors[i], m.Descriptors[j]
		if a.Dir != b.Dir {
			return a.Dir < b.Dir
		}
		return a.TypeName < b.TypeName
	})
}

// With returns the descriptors carrying capability c.
func (m *Manifest) With(c Capability) []*Descriptor {
	out := make([]*Descriptor, 0)
	for _, d := range m.Descriptors {
		if d.Has(c) {
			out = append(out, d)
		}
	}
	return out
}

// File renders the manifest as an internal resource.
func (m *Manifest) File() (*api.GeneratedFile, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode manifest")
	}
	return api.NewGeneratedFile(api.InternalResource, ManifestPath, data), nil
}

// ReadManifest loads the manifest written below the class output directory.
func ReadManifest(classesDir string) (*Manifest, error) {
	target := filepath.Join(classesDir, filepath.FromSlash(ManifestPath))
	data, err := os.ReadFile(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, api.NotFound("no model manifest at %s", target)
		}
		return nil, errors.Wrapf(err, "read %s", target)
	}
	m := &Manifest{}
	if err = json.Unmarshal(data, m); err != nil {
		return nil, api.BadRequest("decode %s: %v", target, err)
	}
	return m, nil
}
