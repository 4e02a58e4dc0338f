package types

import (
	"errors"
	"fmt"
)

// TargetKind represents the grain of a structural target
type TargetKind string

const (
	TargetFile     TargetKind = "file"
	TargetClass    TargetKind = "class"
	TargetFunction TargetKind = "function"
)

// StructuralTarget is a named unit of a source file (the file itself, a
// class, or an independent function) used as a distinct retrieval and
// reporting grain. Derived once per file; immutable.
type StructuralTarget struct {
	Kind     TargetKind
	Name     string // empty for file targets
	FilePath string
}

// Label renders the target's attribution label used to group retrieved
// passages and report items.
func (t StructuralTarget) Label() string {
	switch t.Kind {
	case TargetClass:
		return fmt.Sprintf("class(%s)", t.Name)
	case TargetFunction:
		return fmt.Sprintf("function(%s)", t.Name)
	default:
		return "file-" + t.FilePath
	}
}

// ValidateKind checks if the target kind is valid
func (t StructuralTarget) ValidateKind() error {
	switch t.Kind {
	case TargetFile, TargetClass, TargetFunction:
		return nil
	default:
		return errors.New("invalid target kind")
	}
}

// Validate performs comprehensive validation of the target
func (t StructuralTarget) Validate() error {
	if err := t.ValidateKind(); err != nil {
		return err
	}
	if t.FilePath == "" {
		return errors.New("target file path is required")
	}
	if t.Kind != TargetFile && t.Name == "" {
		return errors.New("target name is required for class and function targets")
	}
	return nil
}

// RetrievalQuery is one knowledge-index query built for a structural
// target. Ephemeral: one per target plus one for the file itself.
type RetrievalQuery struct {
	Target StructuralTarget
	Text   string
}
