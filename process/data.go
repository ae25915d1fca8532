package process

import "strconv"

// BuildData collects the process models parsed from one or more documents.
// It is not safe for concurrent use; the build pipeline is single threaded.
type BuildData struct {
	processes []*Process
	items     map[string]string
	anonymous int
}

func NewBuildData() *BuildData {
	return &BuildData{
		processes: make([]*Process, 0),
		items:     map[string]string{},
	}
}

// SetItemDefinition records the structure type of an item definition.
func (d *BuildData) SetItemDefinition(id, structureRef string) {
	d.items[id] = structureRef
}

// ItemDefinition returns the structure type of an item definition.
func (d *BuildData) ItemDefinition(id string) (string, bool) {
	v, ok := d.items[id]
	return v, ok
}

// AnonymousID returns the id of a process declared without one, stable
// across parses of the same documents.
func (d *BuildData) AnonymousID(prefix string) string {
	d.anonymous++
	return prefix + "_" + strconv.Itoa(d.anonymous)
}

func (d *BuildData) AddProcess(p *Process) {
	d.processes = append(d.processes, p)
}

// Processes returns the shared process models. Callers may mutate them.
func (d *BuildData) Processes() []*Process {
	return d.processes
}

func (d *BuildData) Process(id string) (*Process, bool) {
	for _, p := range d.processes {
		if p.Id == id {
			return p, true
		}
	}
	return nil, false
}
