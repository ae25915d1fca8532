// Package persistence generates the persistence artifacts of generated
// model types: protobuf descriptors, marshallers and JSON schemas.
package persistence

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/gogo/protobuf/proto"
	"github.com/gogo/protobuf/protoc-gen-gogo/descriptor"
	"github.com/pkg/errors"
	"github.com/vine-io/flowgen/api"
	"github.com/vine-io/flowgen/codegen"
)

const (
	// DescriptorSetPath is the class output path of the descriptor set.
	DescriptorSetPath = "META-INF/flowgen/persistence.protoset"
	// ProtoDir holds one .proto file per model package.
	ProtoDir = "META-INF/flowgen/proto"
)

// ProtoGenerator describes Model types as protobuf messages.
type ProtoGenerator struct {
	models []*codegen.Descriptor
}

func NewProtoGenerator(models []*codegen.Descriptor) *ProtoGenerator {
	return &ProtoGenerator{models: models}
}

// DataClasses returns the model descriptors the generator describes.
func (g *ProtoGenerator) DataClasses() []*codegen.Descriptor {
	return g.models
}

func protoType(goType string) descriptor.FieldDescriptorProto_Type {
	switch goType {
	case "string":
		return descriptor.FieldDescriptorProto_TYPE_STRING
	case "int64":
		return descriptor.FieldDescriptorProto_TYPE_INT64
	case "float64":
		return descriptor.FieldDescriptorProto_TYPE_DOUBLE
	case "bool":
		return descriptor.FieldDescriptorProto_TYPE_BOOL
	default:
		// nested and untyped values are stored as JSON
		return descriptor.FieldDescriptorProto_TYPE_BYTES
	}
}

// DescriptorSet returns one file descriptor per model package.
func (g *ProtoGenerator) DescriptorSet() *descriptor.FileDescriptorSet {
	byDir := map[string][]*codegen.Descriptor{}
	for _, d := range g.models {
		byDir[d.Dir] = append(byDir[d.Dir], d)
	}
	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	set := &descriptor.FileDescriptorSet{}
	for _, dir := range dirs {
		models := byDir[dir]
		sort.SliceStable(models, func(i, j int) bool { return models[i].TypeName < models[j].TypeName })

		file := &descriptor.FileDescriptorProto{
			Name:    proto.String(protoFile(dir)),
			Package: proto.String(codegen.DottedPackage(dir)),
			Syntax:  proto.String("proto3"),
			Options: &descriptor.FileOptions{GoPackage: proto.String(models[0].ImportPath)},
		}
		for _, m := range models {
			msg := &descriptor.DescriptorProto{Name: proto.String(m.TypeName)}
			for i, f := range m.Fields {
				msg.Field = append(msg.Field, &descriptor.FieldDescriptorProto{
					Name:     proto.String(f.JSONName),
					JsonName: proto.String(f.JSONName),
					Number:   proto.Int32(int32(i + 1)),
					Label:    descriptor.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
					Type:     protoType(f.GoType).Enum(),
				})
			}
			file.MessageType = append(file.MessageType, msg)
		}
		set.File = append(set.File, file)
	}
	return set
}

func protoFile(dir string) string {
	return path.Join(ProtoDir, dir+".proto")
}

// Generate returns the encoded descriptor set and the .proto text of every
// model package.
func (g *ProtoGenerator) Generate() ([]*api.GeneratedFile, error) {
	if len(g.models) == 0 {
		return nil, nil
	}
	set := g.DescriptorSet()
	data, err := proto.Marshal(set)
	if err != nil {
		return nil, errors.Wrap(err, "encode descriptor set")
	}

	out := []*api.GeneratedFile{api.NewGeneratedFile(api.Proto, DescriptorSetPath, data)}
	for _, file := range set.File {
		out = append(out, api.NewGeneratedFile(api.Proto, file.GetName(), []byte(protoText(file))))
	}
	return out, nil
}

func protoText(file *descriptor.FileDescriptorProto) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "syntax = %q;\n\n", file.GetSyntax())
	fmt.Fprintf(&sb, "package %s;\n\n", file.GetPackage())
	fmt.Fprintf(&sb, "option go_package = %q;\n", file.GetOptions().GetGoPackage())
	for _, msg := range file.MessageType {
		fmt.Fprintf(&sb, "\nmessage %s {\n", msg.GetName())
		for _, f := range msg.Field {
			typ := strings.ToLower(strings.TrimPrefix(f.GetType().String(), "TYPE_"))
			fmt.Fprintf(&sb, "  %s %s = %d;\n", typ, f.GetName(), f.GetNumber())
		}
		sb.WriteString("}\n")
	}
	return sb.String()
}
