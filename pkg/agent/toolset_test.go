package agent

import (
	"context"
	"testing"

	"github.com/arodchenko/deskagent/pkg/errmodel"
)

// markerTool carries a tag so tests can tell apart same-named definitions.
type markerTool struct {
	name string
	tag  string
}

func (m markerTool) Describe() ToolDescriptor {
	return ToolDescriptor{
		Name:        m.name,
		Description: "marker " + m.tag,
		InputSchema: []byte(`{"type":"object","additionalProperties":false}`),
		OutputType:  "string",
	}
}

func (m markerTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	return map[string]any{"tag": m.tag}, nil
}

func tag(t *testing.T, ts *Toolset, name string) string {
	t.Helper()
	tool, ok := ts.Resolve(name)
	if !ok {
		t.Fatalf("tool %q not found", name)
	}
	out, err := tool.Invoke(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return out["tag"].(string)
}

func TestAssembleDisjointUnion(t *testing.T) {
	ts, log, err := Assemble(
		[]Tool{markerTool{"a", "1"}, markerTool{"b", "2"}},
		[]Tool{markerTool{"c", "3"}},
	)
	if err != nil {
		t.Fatal(err)
	}
	if ts.Len() != 3 || log.Inserted != 3 || len(log.Replacements) != 0 {
		t.Fatalf("len=%d log=%+v", ts.Len(), log)
	}
	names := ts.Names()
	want := []string{"a", "b", "c"}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("names=%v", names)
		}
	}
}

func TestAssembleLastWriteWins(t *testing.T) {
	// assemble([[x], [y], [x']]) yields 2 entries; "x" is the third definition.
	ts, log, err := Assemble(
		[]Tool{markerTool{"x", "first"}},
		[]Tool{markerTool{"y", "second"}},
		[]Tool{markerTool{"x", "third"}},
	)
	if err != nil {
		t.Fatal(err)
	}
	if ts.Len() != 2 {
		t.Fatalf("len=%d want 2", ts.Len())
	}
	if got := tag(t, ts, "x"); got != "third" {
		t.Fatalf("x resolved to %q, want third", got)
	}
	if len(log.Replacements) != 1 || log.Replacements[0].Name != "x" || log.Replacements[0].ListIndex != 2 {
		t.Fatalf("replacements=%+v", log.Replacements)
	}
}

func TestAssembleManyDuplicates(t *testing.T) {
	ts, _, err := Assemble(
		[]Tool{markerTool{"x", "1"}, markerTool{"x", "2"}},
		[]Tool{markerTool{"x", "3"}},
	)
	if err != nil {
		t.Fatal(err)
	}
	if ts.Len() != 1 {
		t.Fatalf("len=%d want 1", ts.Len())
	}
	if got := tag(t, ts, "x"); got != "3" {
		t.Fatalf("x resolved to %q, want 3", got)
	}
}

func TestAssembleInvalidTool(t *testing.T) {
	_, _, err := Assemble([]Tool{markerTool{"", "anon"}})
	ce := errmodel.From(err)
	if ce == nil || ce.Code != "invalid_tool" {
		t.Fatalf("want invalid_tool, got %v", err)
	}
	if _, _, err := Assemble([]Tool{nil}); err == nil {
		t.Fatal("nil tool should fail assembly")
	}
}

func TestOverrideChangesOnlyNamedEntry(t *testing.T) {
	ts, _, err := Assemble([]Tool{markerTool{"a", "1"}, markerTool{"b", "2"}, markerTool{"c", "3"}})
	if err != nil {
		t.Fatal(err)
	}
	replaced, err := ts.Override(markerTool{"b", "patched"})
	if err != nil || !replaced {
		t.Fatalf("replaced=%v err=%v", replaced, err)
	}
	if got := tag(t, ts, "b"); got != "patched" {
		t.Fatalf("b=%q", got)
	}
	for name, want := range map[string]string{"a": "1", "c": "3"} {
		if got := tag(t, ts, name); got != want {
			t.Fatalf("%s=%q want %q", name, got, want)
		}
	}
	// inserting a fresh name reports no replacement
	replaced, err = ts.Override(markerTool{"d", "4"})
	if err != nil || replaced {
		t.Fatalf("replaced=%v err=%v", replaced, err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	ts, _, _ := Assemble([]Tool{markerTool{"a", "1"}})
	cp := ts.Clone()
	if _, err := cp.Override(markerTool{"a", "changed"}); err != nil {
		t.Fatal(err)
	}
	if got := tag(t, ts, "a"); got != "1" {
		t.Fatalf("original mutated: a=%q", got)
	}
	if got := tag(t, cp, "a"); got != "changed" {
		t.Fatalf("clone a=%q", got)
	}
}
