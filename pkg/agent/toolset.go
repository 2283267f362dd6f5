package agent

import (
	"github.com/arodchenko/deskagent/pkg/errmodel"
)

// Toolset is the name-addressed registry the agent loop consults. Insertion
// order is preserved for deterministic prompting; registering a tool under
// an existing name replaces the previous entry. The silent last-write-wins
// rule is the designated mechanism for overriding framework defaults (such
// as swapping in a customized final-answer tool) and is recorded in the
// AssemblyLog so the override point stays auditable.
type Toolset struct {
	byName map[string]Tool
	order  []string
}

// Replacement records one overwritten entry during assembly.
type Replacement struct {
	Name string
	// ListIndex is the index of the input list whose tool won.
	ListIndex int
}

// AssemblyLog summarizes an Assemble call.
type AssemblyLog struct {
	Inserted     int
	Replacements []Replacement
}

// NewToolset returns an empty toolset.
func NewToolset() *Toolset {
	return &Toolset{byName: map[string]Tool{}}
}

// Assemble merges ordered tool lists into a single toolset. Lists are
// visited in the given order, each list in its own order; a later tool with
// a duplicate name silently overwrites the earlier entry. A tool with an
// empty name fails assembly.
func Assemble(lists ...[]Tool) (*Toolset, AssemblyLog, error) {
	ts := NewToolset()
	var log AssemblyLog
	for i, list := range lists {
		for _, t := range list {
			replaced, err := ts.insert(t)
			if err != nil {
				return nil, AssemblyLog{}, err
			}
			if replaced {
				log.Replacements = append(log.Replacements, Replacement{Name: t.Describe().Name, ListIndex: i})
			} else {
				log.Inserted++
			}
		}
	}
	return ts, log, nil
}

// Override inserts or replaces a single entry, keeping last-write-wins
// semantics. It reports whether an existing entry was replaced.
func (ts *Toolset) Override(t Tool) (bool, error) {
	return ts.insert(t)
}

// Resolve returns a tool by name.
func (ts *Toolset) Resolve(name string) (Tool, bool) {
	t, ok := ts.byName[name]
	return t, ok
}

// Names returns tool names in insertion order.
func (ts *Toolset) Names() []string {
	out := make([]string, len(ts.order))
	copy(out, ts.order)
	return out
}

// Descriptors returns the descriptors of all tools in insertion order.
func (ts *Toolset) Descriptors() []ToolDescriptor {
	out := make([]ToolDescriptor, 0, len(ts.order))
	for _, name := range ts.order {
		out = append(out, ts.byName[name].Describe())
	}
	return out
}

// Len reports the number of registered tools.
func (ts *Toolset) Len() int { return len(ts.order) }

// Clone returns an independent copy. Entries share the underlying Tool
// values, which are stateless with respect to the registry.
func (ts *Toolset) Clone() *Toolset {
	cp := &Toolset{
		byName: make(map[string]Tool, len(ts.byName)),
		order:  make([]string, len(ts.order)),
	}
	for k, v := range ts.byName {
		cp.byName[k] = v
	}
	copy(cp.order, ts.order)
	return cp
}

func (ts *Toolset) insert(t Tool) (replaced bool, err error) {
	if t == nil {
		return false, errmodel.Validation("invalid_tool", "tool is nil", nil)
	}
	d := t.Describe()
	if d.Name == "" {
		return false, errmodel.Validation("invalid_tool", "tool name is empty", map[string]any{
			"description": d.Description,
		})
	}
	if _, exists := ts.byName[d.Name]; exists {
		ts.byName[d.Name] = t
		return true, nil
	}
	ts.byName[d.Name] = t
	ts.order = append(ts.order, d.Name)
	return false, nil
}
