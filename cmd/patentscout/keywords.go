package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// readKeywords loads search keywords from a CSV file, one keyword per row
// (first column). Keywords are lowercased and deduplicated, preserving
// first-seen order. maxKeywords caps the result; 0 means no cap.
func readKeywords(path string, maxKeywords int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	seen := make(map[string]bool)
	var keywords []string
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		keyword := strings.ToLower(strings.TrimSpace(row[0]))
		if keyword == "" || seen[keyword] {
			continue
		}
		seen[keyword] = true
		keywords = append(keywords, keyword)
		if maxKeywords > 0 && len(keywords) == maxKeywords {
			break
		}
	}
	return keywords, nil
}
