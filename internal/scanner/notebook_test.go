package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenNotebookCodeAndMarkdown(t *testing.T) {
	data := []byte(`{
		"cells": [
			{"cell_type": "markdown", "source": ["# Intro\n", "Some prose."]},
			{"cell_type": "code", "source": ["import os\n", "print(os.getcwd())"]},
			{"cell_type": "code", "source": "x = 1"}
		]
	}`)

	out, err := FlattenNotebook("demo.ipynb", data)
	require.NoError(t, err)

	assert.Contains(t, out, "# Jupyter Notebook: demo.ipynb")
	assert.Contains(t, out, "# Markdown Cell 1")
	assert.Contains(t, out, "# # Intro")
	assert.Contains(t, out, "# Some prose.")
	assert.Contains(t, out, "# Cell 2")
	assert.Contains(t, out, "import os\nprint(os.getcwd())")
	assert.Contains(t, out, "# Cell 3")
	assert.Contains(t, out, "x = 1")
}

func TestFlattenNotebookSkipsBlankCells(t *testing.T) {
	data := []byte(`{
		"cells": [
			{"cell_type": "code", "source": ["   \n"]},
			{"cell_type": "code", "source": ["y = 2"]}
		]
	}`)

	out, err := FlattenNotebook("nb.ipynb", data)
	require.NoError(t, err)

	// Blank cell is skipped entirely; numbering starts at the first real cell.
	assert.Contains(t, out, "# Cell 1\ny = 2")
	assert.NotContains(t, out, "# Cell 2")
}

func TestFlattenNotebookEmpty(t *testing.T) {
	out, err := FlattenNotebook("empty.ipynb", []byte(`{"cells": []}`))
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestFlattenNotebookInvalidJSON(t *testing.T) {
	_, err := FlattenNotebook("broken.ipynb", []byte("not json"))
	assert.Error(t, err)
}

func TestFlattenNotebookUnknownCellTypesIgnored(t *testing.T) {
	data := []byte(`{
		"cells": [
			{"cell_type": "raw", "source": ["raw stuff"]},
			{"cell_type": "code", "source": ["z = 3"]}
		]
	}`)

	out, err := FlattenNotebook("nb.ipynb", data)
	require.NoError(t, err)
	assert.Contains(t, out, "z = 3")
	assert.NotContains(t, out, "raw stuff")
}
