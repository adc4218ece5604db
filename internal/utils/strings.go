// Package utils holds small helpers shared across the service.
package utils

import "strings"

// ParseCSV reads a comma-separated environment value such as CORS_ORIGINS
// into its entries. Blank entries are dropped, so "a, ,b," yields [a b].
// An unset or blank value yields nil, which callers treat as "not configured".
func ParseCSV(s string) []string {
	var entries []string
	for _, field := range strings.Split(s, ",") {
		if entry := strings.TrimSpace(field); entry != "" {
			entries = append(entries, entry)
		}
	}
	return entries
}
