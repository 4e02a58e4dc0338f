package types

import "errors"

// SourceFile is a single scanned source file. Created once by the scanner
// and never mutated afterwards.
type SourceFile struct {
	// Path is relative to the scan root, always forward-slash separated.
	Path     string
	Language string
	Content  string
	Size     int64
}

// Validate checks that the source file carries the fields every downstream
// stage depends on.
func (f *SourceFile) Validate() error {
	if f.Path == "" {
		return errors.New("source file path is required")
	}
	if f.Language == "" {
		return errors.New("source file language is required")
	}
	return nil
}
