package docstore

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Document states reported by Scan.
const (
	DocOK      = "OK"
	DocEmpty   = "EMPTY"
	DocCorrupt = "CORRUPT"
)

// ScanResult classifies one JSON file found by Scan.
type ScanResult struct {
	Path  string `json:"path"`
	State string `json:"state"`
	// Detail carries the parser diagnostic for CORRUPT files.
	Detail string `json:"detail,omitempty"`
}

// Scan walks dir non-recursively and classifies every *.json file as OK,
// EMPTY or CORRUPT. This is the one flow that keeps empty and corrupt
// documents distinct instead of folding both into "recreatable".
func (s *Store) Scan(dir string) ([]ScanResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []ScanResult
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		res := ScanResult{Path: path, State: DocOK}
		var v any
		if err := s.ReadInto(path, &v); err != nil {
			switch {
			case IsEmptyDocument(err):
				res.State = DocEmpty
			case IsParseError(err):
				var pe ParseError
				if errors.As(err, &pe) {
					res.Detail = pe.Diagnostic
				}
				res.State = DocCorrupt
			default:
				return nil, err
			}
		}
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
