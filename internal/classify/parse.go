package classify

import "strings"

var preambles = []string{"Here", "I see", "Based on", "Sure"}

// ParseLine parses one "name | category" line. Lines without a separator are
// treated as commentary and yield nil.
func ParseLine(line string) *Suggestion {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "-*• ")
	if line == "" || !strings.Contains(line, "|") {
		return nil
	}
	for _, p := range preambles {
		if strings.HasPrefix(line, p) {
			return nil
		}
	}

	parts := strings.SplitN(line, "|", 3)
	s := &Suggestion{
		Name:     strings.TrimSpace(parts[0]),
		Category: strings.TrimSpace(parts[1]),
	}
	if s.Name == "" {
		return nil
	}
	return s
}

// ParseResponse parses a whole model reply, one suggestion per line.
func ParseResponse(raw string) []Suggestion {
	items := make([]Suggestion, 0)
	for _, line := range strings.Split(raw, "\n") {
		if s := ParseLine(line); s != nil {
			items = append(items, *s)
		}
	}
	return items
}
