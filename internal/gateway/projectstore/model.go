package projectstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"poassistant/internal/types"
	"poassistant/internal/util/jsonutil"
)

// Encode serializes projects in the durable layout: a JSON array of project objects
// with HTML left unescaped.
func Encode(projects []types.Project) ([]byte, error) {
	if projects == nil {
		projects = []types.Project{}
	}
	return jsonutil.MarshalNoEscapeIndent(projects, "  ")
}

// Decode parses a durable record. Records without an id and repeated ids are
// dropped; the number dropped is returned so callers can log it.
func Decode(data []byte) ([]types.Project, int, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []types.Project{}, 0, nil
	}
	var rows []types.Project
	if err := json.Unmarshal(trimmed, &rows); err != nil {
		return nil, 0, fmt.Errorf("decode project list: %w", err)
	}
	out := make([]types.Project, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	dropped := 0
	for _, p := range rows {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			dropped++
			continue
		}
		if _, dup := seen[id]; dup {
			dropped++
			continue
		}
		seen[id] = struct{}{}
		p.ID = id
		out = append(out, p)
	}
	return out, dropped, nil
}
