package repository

import "encoding/json"

// encodeStringList marshals a string slice for a jsonb column. A nil slice is
// stored as an empty array, not NULL.
func encodeStringList(items []string) []byte {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		// A []string cannot fail to marshal; keep the column valid regardless.
		return []byte("[]")
	}
	return b
}
