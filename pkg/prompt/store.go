// Package prompt manages the agent's system prompts: a versioned in-memory
// store with lint checks, diffing between versions, and the default
// instruction template rendered from the assembled toolset.
package prompt

import (
	"errors"
	"strings"
	"sync"
	"text/template"
)

// Prompt is one versioned prompt artifact.
type Prompt struct {
	Name    string
	Version int
	Body    string
	Meta    map[string]string
}

// Issue describes a lint finding.
type Issue struct {
	Rule    string
	Message string
}

// lintRules run in order; each returns an empty message when the prompt passes.
var lintRules = []struct {
	rule  string
	check func(Prompt) string
}{
	{"name.required", func(p Prompt) string {
		if p.Name == "" {
			return "name is required"
		}
		return ""
	}},
	{"body.required", func(p Prompt) string {
		if p.Body == "" {
			return "body is empty"
		}
		return ""
	}},
	{"template.parse", func(p Prompt) string {
		if _, err := template.New(p.Name).Parse(p.Body); err != nil {
			return err.Error()
		}
		return ""
	}},
	{"security.secrets", func(p Prompt) string {
		body := strings.ToLower(p.Body)
		for _, needle := range []string{"aws_secret_access_key", "begin private key", "sk-"} {
			if strings.Contains(body, needle) {
				return "body appears to contain secrets-like content"
			}
		}
		return ""
	}},
}

// Lint runs every rule and collects the failures.
func Lint(p Prompt) []Issue {
	var issues []Issue
	for _, r := range lintRules {
		if msg := r.check(p); msg != "" {
			issues = append(issues, Issue{Rule: r.rule, Message: msg})
		}
	}
	return issues
}

var ErrLintFailed = errors.New("prompt failed lint checks")

// Store is an in-memory versioned prompt store. Versions are dense and
// ascending per name: version n lives at index n-1.
type Store struct {
	mu       sync.RWMutex
	versions map[string][]Prompt
}

func NewStore() *Store { return &Store{versions: make(map[string][]Prompt)} }

// Save lints p and appends it as the next version of its name, starting at
// 1. Lint failures return ErrLintFailed together with the issues.
func (s *Store) Save(p Prompt) (Prompt, []Issue, error) {
	if issues := Lint(p); len(issues) > 0 {
		return Prompt{}, issues, ErrLintFailed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := Prompt{
		Name:    p.Name,
		Version: len(s.versions[p.Name]) + 1,
		Body:    p.Body,
		Meta:    p.Meta,
	}
	s.versions[p.Name] = append(s.versions[p.Name], saved)
	return saved, nil, nil
}

// Get retrieves a specific version; version 0 means latest.
func (s *Store) Get(name string, version int) (Prompt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.versions[name]
	switch {
	case len(all) == 0:
		return Prompt{}, false
	case version <= 0:
		return all[len(all)-1], true
	case version > len(all):
		return Prompt{}, false
	default:
		return all[version-1], true
	}
}

// List returns all versions for a name in ascending order.
func (s *Store) List(name string) []Prompt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Prompt(nil), s.versions[name]...)
}
