package board

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

const (
	mcuSuffix  = ".build.mcu"
	maxSimilar = 5
)

var (
	// ErrNotFound is returned when no line matches the board tag.
	ErrNotFound = errors.New("board not found")
	// ErrAmbiguous is returned when the database lists the board tag more than once.
	ErrAmbiguous = errors.New("board listed more than once")
)

type entry struct {
	key   string
	value string
	line  int
}

// Registry is a read-only view of a key=value hardware database.
type Registry struct {
	source  string
	entries []entry
}

// Open reads the hardware database at path.
func Open(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hardware database: %w", err)
	}
	defer f.Close()

	reg, err := Parse(f)
	if err != nil {
		return nil, err
	}
	reg.source = path
	return reg, nil
}

// Parse reads key=value lines from r. Blank lines, comments and lines
// without '=' are skipped.
func Parse(r io.Reader) (*Registry, error) {
	reg := &Registry{source: "<reader>"}

	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		reg.entries = append(reg.entries, entry{key: key, value: value, line: n})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read hardware database: %w", err)
	}

	return reg, nil
}

// Resolve returns the chip identifier for boardTag. The key must equal
// "<boardTag>.build.mcu" exactly; a tag that prefixes another board's tag
// never matches that board.
func (r *Registry) Resolve(boardTag string) (string, error) {
	if boardTag == "" {
		return "", fmt.Errorf("%w: empty board tag", ErrNotFound)
	}

	key := boardTag + mcuSuffix
	var matches []entry
	for _, e := range r.entries {
		if e.key != key {
			continue
		}
		value := strings.TrimSpace(e.value)
		if value == "" || strings.ContainsAny(value, " \t") {
			continue
		}
		matches = append(matches, entry{key: e.key, value: value, line: e.line})
	}

	switch len(matches) {
	case 0:
		if similar := r.similar(boardTag); len(similar) > 0 {
			return "", fmt.Errorf("%w: %s (similar: %s)", ErrNotFound, boardTag, strings.Join(similar, ", "))
		}
		return "", fmt.Errorf("%w: %s", ErrNotFound, boardTag)
	case 1:
		return matches[0].value, nil
	default:
		lines := make([]string, len(matches))
		for i, m := range matches {
			lines[i] = fmt.Sprintf("%d", m.line)
		}
		return "", fmt.Errorf("%w: %q in %s (lines %s)", ErrAmbiguous, boardTag, r.source, strings.Join(lines, ", "))
	}
}

// Boards returns every board tag that declares a chip, in file order.
func (r *Registry) Boards() []string {
	var tags []string
	for _, e := range r.entries {
		if tag, ok := strings.CutSuffix(e.key, mcuSuffix); ok && tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// similar returns up to maxSimilar known tags that extend boardTag or that
// boardTag extends.
func (r *Registry) similar(boardTag string) []string {
	var tags []string
	for _, tag := range r.Boards() {
		if len(tags) == maxSimilar {
			break
		}
		if slices.Contains(tags, tag) {
			continue
		}
		if strings.HasPrefix(tag, boardTag) || strings.HasPrefix(boardTag, tag) {
			tags = append(tags, tag)
		}
	}
	return tags
}
