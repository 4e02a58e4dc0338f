package extractor

import (
	"regexp"
	"strings"
)

var (
	pyClassRe  = regexp.MustCompile(`^class\s+([A-Za-z_][A-Za-z0-9_]*)`)
	pyFuncRe   = regexp.MustCompile(`^(?:async\s+)?def\s+([A-Za-z_][A-Za-z0-9_]*)`)
	curlyClass = regexp.MustCompile(`^(?:export\s+)?(?:public\s+|private\s+|abstract\s+)*class\s+([A-Za-z_][A-Za-z0-9_]*)`)
	curlyFunc  = regexp.MustCompile(`^(?:export\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_][A-Za-z0-9_]*)`)
	goFuncRe   = regexp.MustCompile(`^func\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
)

// Heuristic is the default extractor: an indentation-tracking,
// keyword-pattern scanner used when no grammar is available or a
// grammar-aware parse fails. It is approximate but never errors.
type Heuristic struct{}

// NewHeuristic returns the heuristic extractor.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Language returns the registry default tag.
func (h *Heuristic) Language() string { return "" }

// Extract scans content line by line, tracking the enclosing class by
// indentation (Python style) and by brace-delimited class bodies
// (C-family style).
func (h *Heuristic) Extract(content string) (Structure, error) {
	st := Structure{Classes: make(map[string][]string)}

	currentClass := ""
	classIndent := 0
	braceClass := ""
	braceDepth := 0

	for _, line := range strings.Split(content, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "#") || strings.HasPrefix(stripped, "//") {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))

		// Python-style class tracking by indentation.
		if m := pyClassRe.FindStringSubmatch(stripped); m != nil {
			currentClass = m[1]
			classIndent = indent
			if _, ok := st.Classes[currentClass]; !ok {
				st.Classes[currentClass] = []string{}
			}
			continue
		}
		if currentClass != "" && indent <= classIndent {
			if !strings.HasPrefix(stripped, "@") {
				currentClass = ""
			}
		}
		if m := pyFuncRe.FindStringSubmatch(stripped); m != nil {
			if currentClass != "" && indent > classIndent {
				st.Classes[currentClass] = append(st.Classes[currentClass], m[1])
			} else {
				st.Functions = append(st.Functions, m[1])
			}
			continue
		}

		// C-family class tracking by brace depth.
		if m := curlyClass.FindStringSubmatch(stripped); m != nil {
			braceClass = m[1]
			braceDepth = 0
			if _, ok := st.Classes[braceClass]; !ok {
				st.Classes[braceClass] = []string{}
			}
		}
		if braceClass != "" {
			braceDepth += strings.Count(stripped, "{") - strings.Count(stripped, "}")
			if braceDepth <= 0 && strings.Contains(stripped, "}") {
				braceClass = ""
			}
		}
		if m := curlyFunc.FindStringSubmatch(stripped); m != nil {
			if braceClass != "" {
				st.Classes[braceClass] = append(st.Classes[braceClass], m[1])
			} else {
				st.Functions = append(st.Functions, m[1])
			}
			continue
		}
		if m := goFuncRe.FindStringSubmatch(stripped); m != nil {
			st.Functions = append(st.Functions, m[1])
		}
	}

	return st, nil
}
