package persistence

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/gogo/protobuf/protoc-gen-gogo/descriptor"
	"github.com/stretchr/testify/assert"
	"github.com/vine-io/flowgen/api"
	"github.com/vine-io/flowgen/codegen"
	"github.com/vine-io/flowgen/compiler"
)

const module = "example.com/app"

func testManifest() *codegen.Manifest {
	return &codegen.Manifest{
		Module: module,
		Descriptors: []*codegen.Descriptor{
			{
				TypeName:   "OrderModel",
				Package:    "orders",
				Dir:        "org/acme/orders",
				ImportPath: module + "/org/acme/orders",
				Fields: []codegen.Field{
					{Name: "total", GoName: "Total", GoType: "float64", JSONName: "total"},
					{Name: "customer", GoName: "Customer", GoType: "string", JSONName: "customer"},
					{Name: "items", GoName: "Items", GoType: "map[string]interface{}", JSONName: "items"},
				},
				Capabilities: []codegen.Capability{codegen.CapabilityModel, codegen.CapabilityProcessInput},
			},
			{
				TypeName:     "OrderReviewInput",
				Package:      "orders",
				Dir:          "org/acme/orders",
				ImportPath:   module + "/org/acme/orders",
				Fields:       []codegen.Field{{Name: "approved", GoName: "Approved", GoType: "bool", JSONName: "approved"}},
				Capabilities: []codegen.Capability{codegen.CapabilityUserTaskInput},
			},
		},
	}
}

const modelSource = `package orders

type OrderModel struct {
	Total    float64                ` + "`json:\"total,omitempty\"`" + `
	Customer string                 ` + "`json:\"customer,omitempty\"`" + `
	Items    map[string]interface{} ` + "`json:\"items,omitempty\"`" + `
}
`

func TestGenerate(t *testing.T) {
	m := testManifest()
	files, err := FromManifest(&codegen.Context{Module: module}, m).Generate()
	if !assert.NoError(t, err) {
		return
	}

	set := api.NewFileSet(files...)
	assert.Equal(t, 3, set.Len())
	assert.NoError(t, api.ValidateCategories(files, api.CategorySource, api.CategoryInternalResource))

	protoset, ok := set.Get(api.CategoryInternalResource, DescriptorSetPath)
	if !assert.True(t, ok) {
		return
	}
	fds := &descriptor.FileDescriptorSet{}
	if !assert.NoError(t, proto.Unmarshal(protoset.Contents, fds)) {
		return
	}
	if assert.Len(t, fds.File, 1) {
		file := fds.File[0]
		assert.Equal(t, "org.acme.orders", file.GetPackage())
		if assert.Len(t, file.MessageType, 1) {
			msg := file.MessageType[0]
			assert.Equal(t, "OrderModel", msg.GetName())
			assert.Equal(t, descriptor.FieldDescriptorProto_TYPE_DOUBLE, msg.Field[0].GetType())
			assert.Equal(t, descriptor.FieldDescriptorProto_TYPE_BYTES, msg.Field[2].GetType())
			assert.Equal(t, int32(3), msg.Field[2].GetNumber())
		}
	}

	text, ok := set.Get(api.CategoryInternalResource, ProtoDir+"/org/acme/orders.proto")
	if assert.True(t, ok) {
		assert.Contains(t, string(text.Contents), "message OrderModel {\n  double total = 1;\n")
	}
}

func TestMarshallersCompileAgainstModels(t *testing.T) {
	c := compiler.New(compiler.WithModule(module))
	models, err := c.Compile(map[string][]byte{"org/acme/orders/model.go": []byte(modelSource)}, nil)
	if !assert.NoError(t, err) {
		return
	}
	classes := t.TempDir()
	for name, data := range models.Classes {
		target := filepath.Join(classes, filepath.FromSlash(name))
		if !assert.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755)) {
			return
		}
		if !assert.NoError(t, os.WriteFile(target, data, 0o644)) {
			return
		}
	}

	files, err := FromManifest(&codegen.Context{Module: module}, testManifest()).Generate()
	if !assert.NoError(t, err) {
		return
	}
	sources := map[string][]byte{}
	for _, f := range api.FilterCategory(files, api.CategorySource) {
		sources[f.Path] = f.Contents
	}
	if !assert.Len(t, sources, 1) {
		return
	}
	src := string(sources["persistence/org/acme/orders/marshaller.go"])
	assert.True(t, strings.Contains(src, `model "example.com/app/org/acme/orders"`))

	result, err := c.Compile(sources, compiler.Classpath{classes})
	if !assert.NoError(t, err) {
		return
	}
	assert.Contains(t, result.Classes, "persistence/org/acme/orders.a")
}

func TestGenerateWithoutModels(t *testing.T) {
	files, err := FromManifest(&codegen.Context{Module: module}, &codegen.Manifest{}).Generate()
	if !assert.NoError(t, err) {
		return
	}
	assert.Empty(t, files)
}

func TestJSONSchema(t *testing.T) {
	m := testManifest()
	types := append(m.With(codegen.CapabilityProcessInput), m.With(codegen.CapabilityUserTaskInput)...)
	files, err := NewJSONSchemaGenerator("https://json-schema.org/draft/2019-09/schema", types).Generate()
	if !assert.NoError(t, err) {
		return
	}
	if !assert.Len(t, files, 2) {
		return
	}

	assert.Equal(t, api.CategoryStaticHTTPResource, files[0].Category())
	assert.Equal(t, "jsonSchema/org.acme.orders.OrderModel.json", files[0].Path)

	doc := map[string]interface{}{}
	if !assert.NoError(t, json.Unmarshal(files[0].Contents, &doc)) {
		return
	}
	assert.Equal(t, "https://json-schema.org/draft/2019-09/schema", doc["$schema"])
	props := doc["properties"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"type": "number"}, props["total"])
	assert.Equal(t, map[string]interface{}{"type": "object"}, props["items"])

	assert.Equal(t, "jsonSchema/org.acme.orders.OrderReviewInput.json", files[1].Path)
}
