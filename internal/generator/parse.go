package generator

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/dshills/docforge/pkg/types"
)

// stripFences removes an optional fenced code block (``` or ```json)
// wrapping a generation response.
func stripFences(s string) string {
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "```json"); start != -1 {
		rest := s[start+len("```json"):]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
	}
	if start := strings.Index(s, "```"); start != -1 {
		rest := s[start+len("```"):]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
	}
	return s
}

// ParseItems decodes a generation response into validated analysis items.
// Items missing a required field are dropped with a warning, never fatal;
// an undecodable response is an error so the caller can retry.
func ParseItems(response, filePath string) ([]types.AnalysisItem, error) {
	clean := stripFences(response)

	var decoded struct {
		AnalysisItems []types.AnalysisItem `json:"analysis_items"`
	}
	if err := json.Unmarshal([]byte(clean), &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	items := make([]types.AnalysisItem, 0, len(decoded.AnalysisItems))
	for _, item := range decoded.AnalysisItems {
		if err := item.Validate(); err != nil {
			log.Printf("warning: dropping analysis item in %s: %v", filePath, err)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}
