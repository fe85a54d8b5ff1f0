package domain

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
)

var (
	// task-12 - Some-title.md, task-3.1 - Subtask.md
	taskFileRegex = regexp.MustCompile(`(?i)^(task-[0-9]+(?:\.[0-9]+)*) - .+\.md$`)
	taskIDRegex   = regexp.MustCompile(`(?i)^task-[0-9]+(?:\.[0-9]+)*$`)
)

// TaskIDFromFilename extracts the task ID from a task file path.
// Returns false for files that are not task files.
func TaskIDFromFilename(filePath string) (string, bool) {
	matches := taskFileRegex.FindStringSubmatch(path.Base(filePath))
	if matches == nil {
		return "", false
	}
	return strings.ToLower(matches[1]), true
}

// NormalizeTaskID accepts "task-7", "TASK-7" or "7" and returns "task-7"
func NormalizeTaskID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" || strings.HasPrefix(id, "task-") {
		return id
	}
	return "task-" + id
}

// ValidateTaskID checks if a string is a well-formed task ID
func ValidateTaskID(id string) error {
	if !taskIDRegex.MatchString(id) {
		return fmt.Errorf("invalid task ID: %s", id)
	}
	return nil
}

// TaskFilename builds the canonical file name for a task
func TaskFilename(id, slug string) string {
	if slug == "" {
		slug = "untitled"
	}
	return fmt.Sprintf("%s - %s.md", id, slug)
}

// CompareTaskIDs orders IDs so that numeric runs compare by value:
// task-2 < task-10 and task-1.2 < task-1.10. Non-numeric runs compare
// lexically.
func CompareTaskIDs(a, b string) int {
	ac, bc := idChunks(a), idChunks(b)
	for i := 0; i < len(ac) && i < len(bc); i++ {
		x, y := ac[i], bc[i]
		xn, xErr := strconv.ParseUint(x, 10, 64)
		yn, yErr := strconv.ParseUint(y, 10, 64)
		if xErr == nil && yErr == nil {
			if xn != yn {
				if xn < yn {
					return -1
				}
				return 1
			}
			continue
		}
		if c := strings.Compare(x, y); c != 0 {
			return c
		}
	}
	switch {
	case len(ac) < len(bc):
		return -1
	case len(ac) > len(bc):
		return 1
	}
	return strings.Compare(a, b)
}

// idChunks splits s into alternating digit and non-digit runs
func idChunks(s string) []string {
	var chunks []string
	start := 0
	for i := 1; i <= len(s); i++ {
		if i == len(s) || isDigit(s[i]) != isDigit(s[start]) {
			chunks = append(chunks, s[start:i])
			start = i
		}
	}
	return chunks
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
