package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"backlog/internal/domain"
)

const delimiter = "---"

// ErrNoFrontmatter is returned for files that do not open with a --- block
var ErrNoFrontmatter = errors.New("missing frontmatter")

var dateLayouts = []string{
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Parser implements ports.TaskParser for markdown files with YAML frontmatter
type Parser struct{}

// NewParser creates a new frontmatter parser
func NewParser() *Parser {
	return &Parser{}
}

type frontmatter struct {
	ID           string     `yaml:"id"`
	Title        string     `yaml:"title"`
	Status       string     `yaml:"status"`
	Assignee     stringList `yaml:"assignee"`
	CreatedDate  dateValue  `yaml:"created_date,omitempty"`
	UpdatedDate  dateValue  `yaml:"updated_date,omitempty"`
	Labels       stringList `yaml:"labels"`
	Dependencies stringList `yaml:"dependencies"`
	Ordinal      *float64   `yaml:"ordinal,omitempty"`
}

// Parse splits the frontmatter from the body and decodes it
func (p *Parser) Parse(raw string) (domain.Task, error) {
	head, body, err := split(raw)
	if err != nil {
		return domain.Task{}, err
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(head), &fm); err != nil {
		return domain.Task{}, fmt.Errorf("decode frontmatter: %w", err)
	}

	task := domain.Task{
		ID:          domain.NormalizeTaskID(fm.ID),
		Title:       strings.TrimSpace(fm.Title),
		Status:      strings.TrimSpace(fm.Status),
		Assignee:    []string(fm.Assignee),
		Labels:      []string(fm.Labels),
		CreatedDate: fm.CreatedDate.Time,
		Ordinal:     fm.Ordinal,
		Body:        body,
	}
	if !fm.UpdatedDate.IsZero() {
		updated := fm.UpdatedDate.Time
		task.UpdatedDate = &updated
	}
	task.Dependencies = make([]string, 0, len(fm.Dependencies))
	for _, dep := range fm.Dependencies {
		if id := domain.NormalizeTaskID(dep); id != "" {
			task.Dependencies = append(task.Dependencies, id)
		}
	}
	return task, nil
}

// Serialize writes the task back in the same layout
func (p *Parser) Serialize(task domain.Task) (string, error) {
	fm := frontmatter{
		ID:           task.ID,
		Title:        task.Title,
		Status:       task.Status,
		Assignee:     nonNil(task.Assignee),
		CreatedDate:  dateValue{Time: task.CreatedDate},
		Labels:       nonNil(task.Labels),
		Dependencies: nonNil(task.Dependencies),
		Ordinal:      task.Ordinal,
	}
	if task.UpdatedDate != nil {
		fm.UpdatedDate = dateValue{Time: *task.UpdatedDate}
	}

	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	buf.WriteString(delimiter + "\n")

	if body := strings.TrimLeft(task.Body, "\n"); body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			buf.WriteString("\n")
		}
	}
	return buf.String(), nil
}

// split returns the frontmatter text and the body after the closing line
func split(raw string) (string, string, error) {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.TrimPrefix(raw, "\ufeff")
	if !strings.HasPrefix(raw, delimiter+"\n") {
		return "", "", ErrNoFrontmatter
	}
	rest := raw[len(delimiter)+1:]

	var head, body string
	switch {
	case strings.HasPrefix(rest, delimiter+"\n") || rest == delimiter:
		head, body = "", strings.TrimPrefix(rest, delimiter)
	default:
		end := strings.Index(rest, "\n"+delimiter+"\n")
		if end < 0 {
			if !strings.HasSuffix(rest, "\n"+delimiter) {
				return "", "", fmt.Errorf("%w: no closing %s", ErrNoFrontmatter, delimiter)
			}
			end = len(rest) - len(delimiter) - 1
		}
		head = rest[:end]
		body = rest[min(len(rest), end+len(delimiter)+1):]
	}

	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimPrefix(body, "\n")
	return head, body, nil
}

func nonNil(s []string) stringList {
	if s == nil {
		return stringList{}
	}
	return stringList(s)
}

// stringList accepts either a YAML sequence or a single scalar
type stringList []string

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if v := strings.TrimSpace(node.Value); v != "" && node.Tag != "!!null" {
			*l = stringList{v}
		} else {
			*l = stringList{}
		}
		return nil
	case yaml.SequenceNode:
		out := make(stringList, 0, len(node.Content))
		for _, item := range node.Content {
			if v := strings.TrimSpace(item.Value); v != "" {
				out = append(out, v)
			}
		}
		*l = out
		return nil
	}
	return fmt.Errorf("line %d: expected a list", node.Line)
}

// dateValue reads the dates Backlog files use, quoted or not
type dateValue struct {
	time.Time
}

func (d *dateValue) UnmarshalYAML(node *yaml.Node) error {
	v := strings.TrimSpace(node.Value)
	if v == "" || node.Tag == "!!null" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("line %d: unrecognised date %q", node.Line, v)
}

func (d dateValue) MarshalYAML() (any, error) {
	if d.Time.IsZero() {
		return nil, nil
	}
	// Zone-less layouts are read back in the local zone.
	t := d.Time.In(time.Local)
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02"), nil
	}
	return t.Format("2006-01-02 15:04"), nil
}

// IsZero lets omitempty drop unset dates
func (d dateValue) IsZero() bool {
	return d.Time.IsZero()
}
