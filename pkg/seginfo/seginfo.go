// Package seginfo manages the naming convention for segment files in the
// store directory.
//
// Filename Format: <id>-log.json
//
// Where:
//   - id: a non-negative integer segment identifier, assigned monotonically.
//   - "-log.json": a fixed suffix.
//
// Example filenames:
//
//	0-log.json
//	1-log.json
//	17-log.json
//
// Identifiers are not zero-padded, so ordering comes from numeric parsing
// rather than lexicographic filename sorting. Files in the store directory
// that don't match the pattern are ignored entirely; the directory holds no
// other store state.
package seginfo

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/emberkv/ember/pkg/filesys"
)

// Suffix is the fixed tail of every segment filename.
const Suffix = "-log.json"

// GenerateName creates the filename for the segment with the given identifier.
func GenerateName(id uint64) string {
	return fmt.Sprintf("%d%s", id, Suffix)
}

// ParseID extracts the segment identifier from a segment file path.
// It returns an error if the filename doesn't follow the <id>-log.json
// convention or the identifier isn't a non-negative integer.
func ParseID(path string) (uint64, error) {
	_, filename := filepath.Split(path)

	if !strings.HasSuffix(filename, Suffix) {
		return 0, fmt.Errorf("filename %s does not end with expected suffix %s", filename, Suffix)
	}

	idStr := strings.TrimSuffix(filename, Suffix)
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse segment ID %q as integer: %w", idStr, err)
	}

	return id, nil
}

// List discovers every segment file in the store directory and returns their
// identifiers in ascending order. Files whose names don't parse as segment
// names are skipped rather than treated as errors, because the directory may
// legitimately contain unrelated files.
func List(dir string) ([]uint64, error) {
	pattern := filepath.Join(dir, "*"+Suffix)

	matches, err := filesys.ReadDir(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to read store directory with pattern %s: %w", pattern, err)
	}

	ids := make([]uint64, 0, len(matches))
	for _, match := range matches {
		id, err := ParseID(match)
		if err != nil {
			// Not a segment file: e.g. "notes-log.json". Ignore it.
			continue
		}
		ids = append(ids, id)
	}

	// Numeric sort; glob order is lexicographic and would put 10 before 2.
	slices.Sort(ids)
	return ids, nil
}

// Path returns the full path of the segment with the given identifier
// inside the store directory.
func Path(dir string, id uint64) string {
	return filepath.Join(dir, GenerateName(id))
}
