package utils

import "strings"

// NormalizeAssetID lowercases and trims an asset identifier
func NormalizeAssetID(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
