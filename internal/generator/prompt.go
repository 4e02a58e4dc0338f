package generator

import (
	"fmt"
	"strings"

	"github.com/dshills/docforge/pkg/types"
)

// BuildPrompt combines file content and retrieval context into one
// generation request demanding strict JSON output.
func BuildPrompt(file types.SourceFile, retrievalContext string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a code analysis expert. Analyze the following %s source file and produce professional technical documentation for each significant function, class, and code fragment.\n\n", file.Language)
	fmt.Fprintf(&b, "File path: %s\n", file.Path)
	fmt.Fprintf(&b, "Language: %s\n", file.Language)

	if retrievalContext != "" {
		fmt.Fprintf(&b, "\nRelated context:\n%s\n", retrievalContext)
	}

	fmt.Fprintf(&b, "\nFile content:\n```%s\n%s\n```\n", file.Language, file.Content)

	fmt.Fprintf(&b, `
Return the analysis as strict JSON with this exact shape:

{
    "analysis_items": [
        {
            "title": "concise element title (e.g. Parser class, load_config function)",
            "description": "detailed technical description: purpose, implementation approach, design patterns, parameters and return values (3-5 sentences)",
            "source": "%s:startLine-endLine",
            "language": "%s",
            "code": "the complete code of the element"
        }
    ]
}

Requirements:
1. "source" must follow the exact format "%s:startLine-endLine".
2. Cover class definitions, significant functions and methods, configuration and constants, and core logic.
3. Skip trivial getters/setters, empty placeholders, and simple assignments.
4. Return only the JSON document, no surrounding prose.
`, file.Path, file.Language, file.Path)

	return b.String()
}
