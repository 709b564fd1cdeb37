package classifier

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Labels is the ordered class list; index i names output i of the model.
type Labels []string

// ParseLabel removes one leading ordinal token ("3 glass" -> "glass").
// Lines without a numeric prefix are returned trimmed but otherwise unchanged.
func ParseLabel(line string) string {
	line = strings.TrimSpace(line)
	head, rest, found := strings.Cut(line, " ")
	if !found || !isOrdinal(head) {
		return line
	}
	return strings.TrimSpace(rest)
}

func isOrdinal(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseLabels reads one label per line, skipping blank lines.
func ParseLabels(r io.Reader) (Labels, error) {
	var labels Labels
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		labels = append(labels, ParseLabel(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("label list is empty")
	}
	return labels, nil
}

func LoadLabels(path string) (Labels, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open labels: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()
	return ParseLabels(file)
}
