package types

import (
	"fmt"
	"regexp"
)

// sourceLocator matches "path:startLine-endLine" (end line optional).
var sourceLocator = regexp.MustCompile(`^.+:\d+(-\d+)?$`)

// AnalysisItem is the atomic documentation unit produced for one code
// element. Every item belongs to exactly one FileAnalysisResult.
type AnalysisItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Source      string `json:"source"` // "path:startLine-endLine"
	Language    string `json:"language"`
	Code        string `json:"code"`
}

// Validate checks that all required fields are present and the source
// locator has the expected shape.
func (it *AnalysisItem) Validate() error {
	if it.Title == "" {
		return fmt.Errorf("%w: title", ErrMissingItemField)
	}
	if it.Description == "" {
		return fmt.Errorf("%w: description", ErrMissingItemField)
	}
	if it.Source == "" {
		return fmt.Errorf("%w: source", ErrMissingItemField)
	}
	if it.Language == "" {
		return fmt.Errorf("%w: language", ErrMissingItemField)
	}
	if it.Code == "" {
		return fmt.Errorf("%w: code", ErrMissingItemField)
	}
	if !sourceLocator.MatchString(it.Source) {
		return fmt.Errorf("%w: %q", ErrInvalidSourceLocator, it.Source)
	}
	return nil
}

// FileAnalysisResult is the terminal state of one file's trip through the
// pipeline: either a list of validated items, or an empty list plus an
// error string after retries were exhausted.
type FileAnalysisResult struct {
	FilePath string
	Language string
	Items    []AnalysisItem
	Targets  []string // labels of the structural targets queried for this file
	Err      string   // empty on success
}

// Failed reports whether the file's analysis ended in a terminal failure.
func (r *FileAnalysisResult) Failed() bool {
	return r.Err != ""
}
