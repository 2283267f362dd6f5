// Package eval provides offline checks for the assistant: prompt fixture
// evaluation and scripted session replay, both runnable without network or
// model credentials.
package eval

import (
	"encoding/json"
	"io/fs"
	"path"
	"strings"
	"text/template"
)

// Fixture is one prompt evaluation case: a template, its variables, and the
// substrings the rendered output must or must not contain.
type Fixture struct {
	Name   string         `json:"name"`
	Prompt string         `json:"prompt"`
	Vars   map[string]any `json:"vars"`
	Expect Expectation    `json:"expect"`
}

type Expectation struct {
	Contains    []string `json:"contains,omitempty"`
	NotContains []string `json:"not_contains,omitempty"`
}

// check returns one detail line per violated expectation.
func (e Expectation) check(name, out string) []string {
	var details []string
	for _, s := range e.Contains {
		if !strings.Contains(out, s) {
			details = append(details, name+": missing contains: "+s)
		}
	}
	for _, s := range e.NotContains {
		if strings.Contains(out, s) {
			details = append(details, name+": unexpected contains: "+s)
		}
	}
	return details
}

// EvaluatePromptFixtures renders every .json fixture under dir and scores
// the pass rate in [0,1]. An empty directory scores 1.
func EvaluatePromptFixtures(fsys fs.FS, dir string) (score float64, total int, passed int, details []string, err error) {
	fixtures, err := loadFixtures(fsys, dir)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	total = len(fixtures)
	if total == 0 {
		return 1, 0, 0, nil, nil
	}
	for _, fx := range fixtures {
		out, rerr := renderTemplate(fx.Prompt, fx.Vars)
		if rerr != nil {
			details = append(details, fx.Name+": render error: "+rerr.Error())
			continue
		}
		if d := fx.Expect.check(fx.Name, out); len(d) > 0 {
			details = append(details, d...)
			continue
		}
		passed++
	}
	return float64(passed) / float64(total), total, passed, details, nil
}

func loadFixtures(fsys fs.FS, dir string) ([]Fixture, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	var out []Fixture
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		b, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		var fx Fixture
		if err := json.Unmarshal(b, &fx); err != nil {
			return nil, err
		}
		out = append(out, fx)
	}
	return out, nil
}

// renderTemplate renders with missingkey=error so an unbound variable fails
// the case instead of silently producing "<no value>".
func renderTemplate(tpl string, vars map[string]any) (string, error) {
	t, err := template.New("fixture").Option("missingkey=error").Parse(tpl)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := t.Execute(&b, vars); err != nil {
		return "", err
	}
	return b.String(), nil
}
