package types

import "crypto/sha256"

// Passage is one retrieved knowledge-index document attributed to the
// structural target whose query surfaced it.
type Passage struct {
	Title       string
	Content     string
	File        string // origin file in the knowledge index
	Category    string
	TargetLabel string
}

// ContentHash returns the SHA-256 hash of the passage content, used to
// deduplicate passages across a file's queries.
func (p *Passage) ContentHash() [32]byte {
	return sha256.Sum256([]byte(p.Content))
}
