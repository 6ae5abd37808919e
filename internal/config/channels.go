package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadChannelIDs reads one channel ID per line. Blank lines, "#" comments and
// repeated IDs are skipped; order is preserved.
func LoadChannelIDs(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open channels file %s: %w", path, err)
	}
	defer file.Close()

	ids := make([]string, 0)
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		id := strings.TrimSpace(line)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read channels file %s: %w", path, err)
	}

	return ids, nil
}
