package api

import (
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// parseIDList parses a comma-separated list of numeric ids, as used by
// the tags and ingredients list filters. An empty string means no filter.
func parseIDList(param, raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, huma.Error400BadRequest(param + " must be a comma-separated list of numeric ids")
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// parseAssignedOnly parses the assigned_only flag. Only "0" and "1" are
// accepted; an empty value means false.
func parseAssignedOnly(raw string) (bool, error) {
	switch strings.TrimSpace(raw) {
	case "", "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, huma.Error400BadRequest("assigned_only must be 0 or 1")
	}
}
