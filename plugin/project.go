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

package plugin

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/vine-io/flowgen/api"
	log "github.com/vine-io/vine/lib/logger"
)

// Action is the work of a task.
type Action func(ctx context.Context) error

// Task is one named unit of a build.
type Task struct {
	Name        string
	Group       string
	Description string

	action       Action
	dependsOn    []string
	finalizedBy  []string
	mustRunAfter []string
}

// DependsOn makes the task run after names, pulling them into the build.
func (t *Task) DependsOn(names ...string) *Task {
	t.dependsOn = appendNames(t.dependsOn, names...)
	return t
}

// FinalizedBy schedules names after the task whenever it runs.
func (t *Task) FinalizedBy(names ...string) *Task {
	t.finalizedBy = appendNames(t.finalizedBy, names...)
	return t
}

// MustRunAfter orders the task after names when both are part of a build.
func (t *Task) MustRunAfter(names ...string) *Task {
	t.mustRunAfter = appendNames(t.mustRunAfter, names...)
	return t
}

func (t *Task) Dependencies() []string { return t.dependsOn }

func (t *Task) Finalizers() []string { return t.finalizedBy }

func appendNames(items []string, names ...string) []string {
	for _, name := range names {
		found := false
		for _, item := range items {
			if item == name {
				found = true
				break
			}
		}
		if !found {
			items = append(items, name)
		}
	}
	return items
}

// Project is a named set of tasks.
type Project struct {
	Name  string
	tasks map[string]*Task
	// registration order, used to break ties between ready tasks
	order []string
}

func NewProject(name string) *Project {
	return &Project{Name: name, tasks: map[string]*Task{}}
}

// Register adds a task. Names are unique inside a project.
func (p *Project) Register(name string, action Action) (*Task, error) {
	if _, ok := p.tasks[name]; ok {
		return nil, api.Conflict("task %s already registered", name)
	}
	t := &Task{Name: name, action: action}
	p.tasks[name] = t
	p.order = append(p.order, name)
	return t, nil
}

func (p *Project) Task(name string) (*Task, bool) {
	t, ok := p.tasks[name]
	return t, ok
}

// Tasks returns the task names in registration order.
func (p *Project) Tasks() []string {
	return append([]string{}, p.order...)
}

// Plan returns the tasks a build of names executes, in execution order.
func (p *Project) Plan(names ...string) ([]string, error) {
	included := map[string]struct{}{}
	queue := append([]string{}, names...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if _, ok := included[name]; ok {
			continue
		}
		t, ok := p.tasks[name]
		if !ok {
			return nil, api.NotFound("task %s not found in project %s", name, p.Name)
		}
		included[name] = struct{}{}
		queue = append(queue, t.dependsOn...)
		queue = append(queue, t.finalizedBy...)
	}

	// before[a] lists the tasks that must finish before a starts
	before := map[string][]string{}
	for name := range included {
		t := p.tasks[name]
		before[name] = append(before[name], t.dependsOn...)
		for _, after := range t.mustRunAfter {
			if _, ok := included[after]; ok {
				before[name] = append(before[name], after)
			}
		}
		for _, f := range t.finalizedBy {
			before[f] = append(before[f], name)
		}
	}

	rank := map[string]int{}
	for i, name := range p.order {
		rank[name] = i
	}
	pending := make([]string, 0, len(included))
	for name := range included {
		pending = append(pending, name)
	}
	sort.Slice(pending, func(i, j int) bool { return rank[pending[i]] < rank[pending[j]] })

	done := map[string]bool{}
	out := make([]string, 0, len(pending))
	for len(out) < len(pending) {
		progressed := false
		for _, name := range pending {
			if done[name] {
				continue
			}
			ready := true
			for _, b := range before[name] {
				if !done[b] {
					ready = false
					break
				}
			}
			if ready {
				done[name] = true
				out = append(out, name)
				progressed = true
				break
			}
		}
		if !progressed {
			blocked := make([]string, 0)
			for _, name := range pending {
				if !done[name] {
					blocked = append(blocked, name)
				}
			}
			return nil, api.Conflict("circular task dependency between %s", strings.Join(blocked, ", "))
		}
	}
	return out, nil
}

// Run executes the build of names and stops at the first failing task.
func (p *Project) Run(ctx context.Context, names ...string) error {
	plan, err := p.Plan(names...)
	if err != nil {
		return err
	}
	for _, name := range plan {
		if err = ctx.Err(); err != nil {
			return err
		}
		t := p.tasks[name]
		if t.action == nil {
			continue
		}
		start := time.Now()
		log.Infof("> Task :%s", name)
		if err = t.action(ctx); err != nil {
			log.Errorf("task %s failed: %v", name, err)
			return api.FromErr(err).WithOp(name)
		}
		log.Debugf("task %s finished in %v", name, time.Since(start))
	}
	return nil
}
