package prompt

import "strings"

// UnifiedDiff returns a minimal line diff between two strings: the common
// prefix and suffix are trimmed, removals come before additions. Empty when
// the inputs are equal.
func UnifiedDiff(a, b string) string {
	if a == b {
		return ""
	}
	al := strings.Split(a, "\n")
	bl := strings.Split(b, "\n")

	pre := 0
	for pre < len(al) && pre < len(bl) && al[pre] == bl[pre] {
		pre++
	}
	post := 0
	for post < len(al)-pre && post < len(bl)-pre && al[len(al)-1-post] == bl[len(bl)-1-post] {
		post++
	}

	var sb strings.Builder
	sb.WriteString("--- a\n+++ b\n")
	for _, line := range al[pre : len(al)-post] {
		sb.WriteString("-")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	for _, line := range bl[pre : len(bl)-post] {
		sb.WriteString("+")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Diff compares two stored versions of a prompt, empty when either is missing.
func (s *Store) Diff(name string, v1, v2 int) string {
	p1, ok1 := s.Get(name, v1)
	p2, ok2 := s.Get(name, v2)
	if !ok1 || !ok2 {
		return ""
	}
	return UnifiedDiff(p1.Body, p2.Body)
}
