package retriever

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/docforge/internal/extractor"
	"github.com/dshills/docforge/pkg/types"
)

const (
	// MaxPassagesPerTarget bounds how many passages render per target.
	MaxPassagesPerTarget = 3
	// MaxPassagesTotal bounds how many passages render in one context.
	MaxPassagesTotal = 15
	// SnippetLimit truncates passage content in the rendered block.
	SnippetLimit = 400
	// queryCacheSize bounds the query→passages LRU cache.
	queryCacheSize = 1000
)

// BuildQueries derives the retrieval queries for one file: one for the
// file itself, one per class, one per independent function. Methods are
// never queried independently.
func BuildQueries(file types.SourceFile, st extractor.Structure) []types.RetrievalQuery {
	queries := []types.RetrievalQuery{{
		Target: types.StructuralTarget{Kind: types.TargetFile, FilePath: file.Path},
		Text:   fmt.Sprintf("%s %s file", file.Path, file.Language),
	}}

	for _, class := range sortedKeys(st.Classes) {
		queries = append(queries, types.RetrievalQuery{
			Target: types.StructuralTarget{Kind: types.TargetClass, Name: class, FilePath: file.Path},
			Text:   fmt.Sprintf("%s class %s", class, file.Language),
		})
	}
	for _, fn := range st.Functions {
		queries = append(queries, types.RetrievalQuery{
			Target: types.StructuralTarget{Kind: types.TargetFunction, Name: fn, FilePath: file.Path},
			Text:   fmt.Sprintf("%s function %s", fn, file.Language),
		})
	}
	return queries
}

// Context is the assembled retrieval context for one file: deduplicated
// passages grouped by the target whose query surfaced them.
type Context struct {
	Passages []types.Passage
	// Targets preserves query order for rendering and reporting.
	Targets []string
}

// Retriever executes per-target queries against a named knowledge index
// and assembles the bounded context block.
type Retriever struct {
	client Client
	index  string
	topK   int
	cache  *lru.Cache[string, []types.Passage]
}

// New creates a Retriever bound to one knowledge index.
func New(client Client, index string, topK int) (*Retriever, error) {
	if index == "" {
		return nil, ErrIndexRequired
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	cache, err := lru.New[string, []types.Passage](queryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create query cache: %w", err)
	}
	return &Retriever{client: client, index: index, topK: topK, cache: cache}, nil
}

// Index returns the knowledge index this retriever is bound to.
func (r *Retriever) Index() string { return r.index }

// Retrieve runs every query for the file sequentially, deduplicates
// passages by content hash, and groups them by target label. A failed
// query is logged and skipped; retrieval never fails the file, the context
// just degrades (possibly to empty).
func (r *Retriever) Retrieve(ctx context.Context, file types.SourceFile, st extractor.Structure) *Context {
	queries := BuildQueries(file, st)

	rc := &Context{}
	seen := make(map[[32]byte]struct{})

	for i, q := range queries {
		label := q.Target.Label()
		rc.Targets = append(rc.Targets, label)

		passages, err := r.search(ctx, q.Text)
		if err != nil {
			log.Printf("warning: [%d/%d] retrieval failed for %s: %v", i+1, len(queries), label, err)
			continue
		}

		for _, p := range passages {
			p.TargetLabel = label
			hash := p.ContentHash()
			if _, dup := seen[hash]; dup {
				continue
			}
			seen[hash] = struct{}{}
			rc.Passages = append(rc.Passages, p)
		}
	}

	return rc
}

// search issues one query, consulting the LRU cache first.
func (r *Retriever) search(ctx context.Context, query string) ([]types.Passage, error) {
	if cached, ok := r.cache.Get(query); ok {
		return cached, nil
	}
	passages, err := r.client.Search(ctx, query, r.index, r.topK)
	if err != nil {
		return nil, err
	}
	r.cache.Add(query, passages)
	return passages, nil
}

// Render produces the labeled text block included in the generation
// prompt: passages grouped by target, capped per target and in total.
// Returns the empty string when nothing was retrieved.
func (c *Context) Render() string {
	if len(c.Passages) == 0 {
		return ""
	}

	byTarget := make(map[string][]types.Passage)
	var order []string
	total := 0
	for _, p := range c.Passages {
		if total >= MaxPassagesTotal {
			break
		}
		if _, ok := byTarget[p.TargetLabel]; !ok {
			order = append(order, p.TargetLabel)
		}
		byTarget[p.TargetLabel] = append(byTarget[p.TargetLabel], p)
		total++
	}

	var b strings.Builder
	b.WriteString("=== Retrieved Context ===")
	for _, label := range order {
		fmt.Fprintf(&b, "\n\n--- Target: %s ---", label)
		for i, p := range byTarget[label] {
			if i >= MaxPassagesPerTarget {
				break
			}
			snippet := p.Content
			if len(snippet) > SnippetLimit {
				cut := SnippetLimit
				// Never split a multi-byte rune at the boundary.
				for cut > 0 && !utf8.RuneStart(snippet[cut]) {
					cut--
				}
				snippet = snippet[:cut] + "..."
			}
			fmt.Fprintf(&b, "\n  %d. %s (%s)", i+1, p.Title, p.Category)
			if p.File != "" {
				fmt.Fprintf(&b, "\n     file: %s", p.File)
			}
			fmt.Fprintf(&b, "\n     %s\n", snippet)
		}
	}
	return b.String()
}

// sortedKeys returns map keys in sorted order so query order is
// deterministic across runs.
func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
