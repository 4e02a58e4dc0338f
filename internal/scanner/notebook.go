package scanner

import (
	"encoding/json"
	"fmt"
	"strings"
)

// notebook mirrors the subset of the Jupyter notebook format we read.
type notebook struct {
	Cells []notebookCell `json:"cells"`
}

type notebookCell struct {
	CellType string          `json:"cell_type"`
	Source   json.RawMessage `json:"source"`
}

// cellSource joins a notebook cell source, which may be a string or a list
// of strings.
func cellSource(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return strings.Join(lines, "")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

// FlattenNotebook converts a Jupyter notebook into pseudo-source: code
// cells are kept verbatim under a "# Cell N" header, markdown cells become
// comment-prefixed lines under a "# Markdown Cell N" header. An empty
// notebook yields the empty string.
func FlattenNotebook(name string, data []byte) (string, error) {
	var nb notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return "", fmt.Errorf("decode notebook: %w", err)
	}

	var cells []string
	index := 1
	for _, cell := range nb.Cells {
		source := cellSource(cell.Source)
		if strings.TrimSpace(source) == "" {
			continue
		}

		switch cell.CellType {
		case "code":
			cells = append(cells, fmt.Sprintf("# Cell %d\n%s\n", index, source))
			index++
		case "markdown":
			var commented []string
			for _, line := range strings.Split(source, "\n") {
				if strings.TrimSpace(line) == "" {
					commented = append(commented, "#")
				} else {
					commented = append(commented, "# "+line)
				}
			}
			cells = append(cells, fmt.Sprintf("# Markdown Cell %d\n%s\n", index, strings.Join(commented, "\n")))
			index++
		}
	}

	if len(cells) == 0 {
		return "", nil
	}
	return fmt.Sprintf("# Jupyter Notebook: %s\n\n%s", name, strings.Join(cells, "\n")), nil
}
