// Package extractor derives the structural targets of a source file: the
// class→methods map and the independent-function list that drive
// per-target retrieval.
package extractor

import (
	"errors"
	"log"
	"sort"
	"strings"
)

// ErrParseFailed is returned by grammar-aware extractors when the source
// cannot be parsed; the registry falls back to the heuristic extractor.
var ErrParseFailed = errors.New("structural parse failed")

// MaxIndependentFunctions caps the independent-function list per file.
const MaxIndependentFunctions = 10

// reservedMethods are dunder methods excluded from class method lists.
var reservedMethods = map[string]struct{}{
	"__str__":  {},
	"__repr__": {},
	"__eq__":   {},
	"__hash__": {},
}

// functionStoplist removes generic names from the independent-function
// list before capping.
var functionStoplist = map[string]struct{}{
	"main":     {},
	"init":     {},
	"test":     {},
	"setup":    {},
	"teardown": {},
	"get":      {},
	"set":      {},
	"new":      {},
	"create":   {},
	"update":   {},
	"delete":   {},
	"__init__": {},
	"__main__": {},
}

// Structure is the extracted shape of one source file.
type Structure struct {
	// Classes maps class name to its method names.
	Classes map[string][]string
	// Functions lists module-level functions not claimed by any class.
	Functions []string
}

// Extractor derives structure from source content for one language family.
type Extractor interface {
	// Language returns the language tag this extractor serves.
	Language() string
	// Extract parses content and returns its structure. An error means the
	// grammar-aware parse failed and the caller should fall back.
	Extract(content string) (Structure, error)
}

// Registry selects an extractor by language tag, falling back to the
// heuristic extractor for unknown languages or failed parses.
type Registry struct {
	byLang   map[string]Extractor
	fallback *Heuristic
}

// NewRegistry returns a registry with the grammar-aware extractors
// registered and the heuristic extractor as default.
func NewRegistry() *Registry {
	r := &Registry{
		byLang:   make(map[string]Extractor),
		fallback: NewHeuristic(),
	}
	r.Register(newPythonExtractor())
	r.Register(newJavaScriptExtractor())
	return r
}

// Register adds or replaces the extractor for its language tag.
func (r *Registry) Register(e Extractor) {
	r.byLang[e.Language()] = e
}

// Extract derives the structure of content in the given language. It never
// fails: a panicking or erroring grammar parse degrades to the heuristic
// extractor, which always produces a (possibly empty) result.
func (r *Registry) Extract(language, content string) Structure {
	if e, ok := r.byLang[language]; ok {
		if st, err := safeExtract(e, content); err == nil {
			return filter(st)
		} else {
			log.Printf("warning: %s extraction failed, using heuristic fallback: %v", language, err)
		}
	}
	st, _ := r.fallback.Extract(content)
	return filter(st)
}

// safeExtract runs an extractor, converting panics into ErrParseFailed.
func safeExtract(e Extractor, content string) (st Structure, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = ErrParseFailed
		}
	}()
	return e.Extract(content)
}

// filter applies the reserved-method exclusion, the function stoplist, and
// the independent-function cap.
func filter(st Structure) Structure {
	out := Structure{Classes: make(map[string][]string, len(st.Classes))}

	claimed := make(map[string]struct{})
	for class, methods := range st.Classes {
		kept := make([]string, 0, len(methods))
		for _, m := range methods {
			claimed[m] = struct{}{}
			if _, reserved := reservedMethods[m]; reserved {
				continue
			}
			kept = append(kept, m)
		}
		out.Classes[class] = kept
	}

	seen := make(map[string]struct{})
	for _, fn := range st.Functions {
		if _, dup := seen[fn]; dup {
			continue
		}
		seen[fn] = struct{}{}
		if strings.HasPrefix(fn, "_") {
			continue
		}
		if _, claimedByClass := claimed[fn]; claimedByClass {
			continue
		}
		if _, stopped := functionStoplist[strings.ToLower(fn)]; stopped {
			continue
		}
		if len(fn) <= 2 {
			continue
		}
		out.Functions = append(out.Functions, fn)
	}

	sort.Strings(out.Functions)
	if len(out.Functions) > MaxIndependentFunctions {
		out.Functions = out.Functions[:MaxIndependentFunctions]
	}
	return out
}
