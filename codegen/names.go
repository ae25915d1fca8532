package codegen

import (
	"path"
	"strings"
	"unicode"

	"github.com/vine-io/vine/cmd/generator"
)

// GoName turns an identifier from a definition document into an exported
// Go name.
func GoName(s string) string {
	var sb strings.Builder
	upper := true
	for _, c := range s {
		switch {
		case unicode.IsLetter(c) || unicode.IsDigit(c):
			if upper {
				sb.WriteRune(unicode.ToUpper(c))
				upper = false
			} else {
				sb.WriteRune(c)
			}
		default:
			upper = true
		}
	}
	name := generator.CamelCase(sb.String())
	if name == "" {
		return "X"
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "X" + name
	}
	return name
}

func unexport(s string) string {
	if len(s) == 0 {
		return ""
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// PackageDir converts a dotted package name into a slash separated directory.
func PackageDir(pkg string) string {
	parts := strings.Split(pkg, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = packageName(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return "."
	}
	return strings.Join(out, "/")
}

// DottedPackage converts a slash separated directory into a dotted name.
func DottedPackage(dir string) string {
	return strings.ReplaceAll(path.Clean(dir), "/", ".")
}

// ClassPath converts a dotted compiled class name into the relative path of
// its class file.
func ClassPath(dotted string) string {
	return strings.ReplaceAll(dotted, ".", "/") + ".a"
}

// packageName returns a valid lower case Go package name for s.
func packageName(s string) string {
	var sb strings.Builder
	for _, c := range strings.ToLower(s) {
		if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' {
			sb.WriteRune(c)
		}
	}
	name := sb.String()
	if name != "" && unicode.IsDigit(rune(name[0])) {
		name = "p" + name
	}
	return name
}

// PackageName is the Go package name of directory dir.
func PackageName(dir string) string {
	name := packageName(lastElement(dir))
	if name == "" || name == "." {
		return "app"
	}
	return name
}

// importAlias is a collision free import name for directory dir.
func importAlias(dir string) string {
	return strings.ReplaceAll(dir, "/", "_")
}

// GoType maps a type reference of a definition document to a Go type.
func GoType(ref string) string {
	if i := strings.LastIndex(ref, "."); i >= 0 {
		ref = ref[i+1:]
	}
	switch strings.ToLower(ref) {
	case "string", "char", "character", "date", "localdate", "localdatetime", "datetime", "time":
		return "string"
	case "integer", "int", "long", "short", "byte", "bigint", "biginteger":
		return "int64"
	case "double", "float", "number", "bigdecimal", "decimal", "real":
		return "float64"
	case "boolean", "bool":
		return "bool"
	case "":
		return "interface{}"
	default:
		return "map[string]interface{}"
	}
}

// JSONName returns the JSON key of a document field name.
func JSONName(s string) string {
	name := unexport(GoName(s))
	if name == "" {
		return s
	}
	return name
}
