// Package codegen generates the Go sources and resources of an application
// from its process, case, decision, rule and prediction resources.
package codegen

import (
	"context"
	"crypto/sha1"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vine-io/flowgen/config"
	"github.com/vine-io/flowgen/sysprop"
	log "github.com/vine-io/vine/lib/logger"
)

type ResourceKind int32

const (
	KindProcess ResourceKind = iota + 1
	KindCase
	KindDecision
	KindRule
	KindPrediction
)

func (k ResourceKind) String() string {
	switch k {
	case KindProcess:
		return "process"
	case KindCase:
		return "case"
	case KindDecision:
		return "decision"
	case KindRule:
		return "rule"
	case KindPrediction:
		return "prediction"
	default:
		return "unknown"
	}
}

var patterns = []struct {
	glob string
	kind ResourceKind
}{
	{"**/*.{bpmn,bpmn2}", KindProcess},
	{"**/*.cmmn", KindCase},
	{"**/*.dmn", KindDecision},
	{"**/*.drl", KindRule},
	{"**/*.pmml", KindPrediction},
}

// Resource is one definition document of the project.
type Resource struct {
	Kind ResourceKind
	// Path is relative to its resource root, slash separated.
	Path string
	Data []byte
}

// Context carries everything generators read.
type Context struct {
	Module     string
	BuildID    string
	Resources  []*Resource
	Properties *sysprop.Properties

	GenerateProcesses   bool
	GenerateDecisions   bool
	GenerateRules       bool
	GeneratePredictions bool
}

// ImportPath returns the import path of the generated package in dir.
func (c *Context) ImportPath(dir string) string {
	if dir == "." || dir == "" {
		return c.Module
	}
	return path.Join(c.Module, dir)
}

// ResourcesOf returns the resources of the given kinds.
func (c *Context) ResourcesOf(kinds ...ResourceKind) []*Resource {
	out := make([]*Resource, 0)
	for _, r := range c.Resources {
		for _, k := range kinds {
			if r.Kind == k {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func (c *Context) enabled(kind ResourceKind) bool {
	switch kind {
	case KindProcess, KindCase:
		return c.GenerateProcesses
	case KindDecision:
		return c.GenerateDecisions
	case KindRule:
		return c.GenerateRules
	case KindPrediction:
		return c.GeneratePredictions
	}
	return false
}

// NewContext builds the generation context of a project and discovers its
// resources.
func NewContext(ctx context.Context, ext *config.Extension, props *sysprop.Properties) (*Context, error) {
	c := &Context{
		Module:              ext.Module,
		Properties:          props,
		GenerateProcesses:   ext.GenerateProcesses,
		GenerateDecisions:   ext.GenerateDecisions,
		GenerateRules:       ext.GenerateRules,
		GeneratePredictions: ext.GeneratePredictions,
	}
	resources, err := Discover(ctx, c, ext.ResourceDirs...)
	if err != nil {
		return nil, err
	}
	c.Resources = resources
	c.BuildID = BuildID(c.Module, resources)
	return c, nil
}

// Discover reads the enabled resources below roots. Missing roots are
// skipped. Resources are ordered by path.
func Discover(ctx context.Context, c *Context, roots ...string) ([]*Resource, error) {
	out := make([]*Resource, 0)
	seen := map[string]struct{}{}
	for _, root := range roots {
		if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
			log.Debugf("skip resource root %s", root)
			continue
		}

		fsys := os.DirFS(root)
		for _, p := range patterns {
			if !c.enabled(p.kind) {
				continue
			}
			matches, err := doublestar.Glob(fsys, p.glob)
			if err != nil {
				return nil, errors.Wrapf(err, "glob %s in %s", p.glob, root)
			}
			for _, m := range matches {
				if err = ctx.Err(); err != nil {
					return nil, err
				}
				if _, ok := seen[m]; ok {
					log.Warnf("resource %s found in more than one root, keep the first", m)
					continue
				}
				data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(m)))
				if err != nil {
					return nil, errors.Wrapf(err, "read resource %s", m)
				}
				seen[m] = struct{}{}
				out = append(out, &Resource{Kind: p.kind, Path: m, Data: data})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// BuildID derives a stable id from the module and resource contents, so
// identical inputs produce identical output.
func BuildID(module string, resources []*Resource) string {
	h := sha1.New()
	h.Write([]byte(module))
	for _, r := range resources {
		h.Write([]byte{0})
		h.Write([]byte(r.Path))
		h.Write([]byte{0})
		h.Write(r.Data)
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, h.Sum(nil)).String()
}
