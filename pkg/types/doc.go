// Package types provides shared type definitions for the docforge
// analysis pipeline.
//
// This package defines the domain records that flow between pipeline
// stages: scanned source files, structural targets, retrieved passages,
// and analysis results.
//
// # Core Types
//
// SourceFile represents one scanned file with its language tag and
// content:
//
//	file := types.SourceFile{
//	    Path:     "src/parser.py",
//	    Language: "python",
//	    Content:  content,
//	}
//
// StructuralTarget is a named unit (file, class, or independent function)
// used as a distinct retrieval and reporting grain:
//
//	target := types.StructuralTarget{
//	    Kind:     types.TargetClass,
//	    Name:     "Parser",
//	    FilePath: "src/parser.py",
//	}
//	target.Label() // "class(Parser)"
//
// AnalysisItem is the atomic output unit of a generation call. Every item
// traces to exactly one FileAnalysisResult, and its Source field follows
// the "path:startLine-endLine" locator format.
//
// # Validation
//
// Domain types implement validation methods to ensure data integrity:
//
//	if err := item.Validate(); err != nil {
//	    // item is dropped, never fatal
//	}
package types
