package report

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dshills/docforge/pkg/types"
)

var (
	classLabelRe = regexp.MustCompile(`^class\((.+)\)$`)
	funcLabelRe  = regexp.MustCompile(`^function\((.+)\)$`)
)

// groupByTarget attributes each analysis item to one of the file's search
// targets by matching target names against the item title, defaulting to
// the file-level target. Returns the groups and the label order.
func groupByTarget(res types.FileAnalysisResult) (map[string][]types.AnalysisItem, []string) {
	fileLabel := types.StructuralTarget{Kind: types.TargetFile, FilePath: res.FilePath}.Label()

	type namedTarget struct {
		label string
		name  string
	}
	var classes, funcs []namedTarget
	for _, label := range res.Targets {
		if m := classLabelRe.FindStringSubmatch(label); m != nil {
			classes = append(classes, namedTarget{label: label, name: m[1]})
		} else if m := funcLabelRe.FindStringSubmatch(label); m != nil {
			funcs = append(funcs, namedTarget{label: label, name: m[1]})
		}
	}

	infer := func(item types.AnalysisItem) string {
		title := strings.ToLower(item.Title)
		for _, t := range classes {
			if strings.Contains(title, strings.ToLower(t.name)) {
				return t.label
			}
		}
		for _, t := range funcs {
			if strings.Contains(title, strings.ToLower(t.name)) {
				return t.label
			}
		}
		return fileLabel
	}

	groups := make(map[string][]types.AnalysisItem)
	var order []string
	for _, item := range res.Items {
		label := infer(item)
		if _, ok := groups[label]; !ok {
			order = append(order, label)
		}
		groups[label] = append(groups[label], item)
	}
	return groups, order
}

// appendMarkdown writes one file's section: a heading per file, a
// subsection per target, items in canonical field order.
func (w *Writer) appendMarkdown(res types.FileAnalysisResult, byTarget map[string][]types.AnalysisItem, order []string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "## File: %s\n\n", res.FilePath)

	for _, label := range order {
		fmt.Fprintf(&b, "### Target: %s\n\n", label)
		for _, item := range byTarget[label] {
			fmt.Fprintf(&b, "TITLE: %s\n", item.Title)
			fmt.Fprintf(&b, "DESCRIPTION: %s\n", item.Description)
			fmt.Fprintf(&b, "SOURCE: %s\n", w.sourceLink(item.Source))
			fmt.Fprintf(&b, "SEARCH_TARGET: %s\n\n", label)
			fmt.Fprintf(&b, "LANGUAGE: %s\n", item.Language)
			fmt.Fprintf(&b, "CODE:\n```\n%s\n```\n\n", item.Code)
			b.WriteString("----------------------------------------\n\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	return appendFile(w.mdPath, b.String())
}

// sourceLink rewrites a "path:start-end" locator into a repository blob
// link when a repository URL is configured.
func (w *Writer) sourceLink(source string) string {
	if w.repoURL == "" {
		return source
	}
	idx := strings.LastIndex(source, ":")
	if idx < 0 {
		return fmt.Sprintf("%s/blob/main/%s", w.repoURL, source)
	}
	path, lines := source[:idx], source[idx+1:]
	if start, end, ok := strings.Cut(lines, "-"); ok {
		return fmt.Sprintf("%s/blob/main/%s#L%s-L%s", w.repoURL, path, start, end)
	}
	return fmt.Sprintf("%s/blob/main/%s#L%s", w.repoURL, path, lines)
}
