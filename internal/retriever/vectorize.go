package retriever

import (
	"context"
	"fmt"

	"github.com/dshills/docforge/pkg/types"
)

// maxDocumentContent caps per-document content submitted for indexing.
const maxDocumentContent = 8000

// BuildIndexDocuments converts scanned files into the documents submitted
// when vectorizing a repository into a knowledge index.
func BuildIndexDocuments(files []types.SourceFile) []IndexDocument {
	docs := make([]IndexDocument, 0, len(files))
	for _, f := range files {
		content := f.Content
		if len(content) > maxDocumentContent {
			content = content[:maxDocumentContent]
		}
		docs = append(docs, IndexDocument{
			Title:    f.Path,
			Content:  content,
			File:     f.Path,
			Category: "code",
			Language: f.Language,
		})
	}
	return docs
}

// Vectorize probes the service health once, then builds a knowledge index
// from the scanned files and returns its name. The health probe runs
// before the vectorization run, not before every query.
func Vectorize(ctx context.Context, client Client, files []types.SourceFile) (string, error) {
	if err := client.Health(ctx); err != nil {
		return "", fmt.Errorf("retrieval service health check: %w", err)
	}
	index, err := client.CreateIndex(ctx, BuildIndexDocuments(files))
	if err != nil {
		return "", fmt.Errorf("create knowledge index: %w", err)
	}
	return index, nil
}
