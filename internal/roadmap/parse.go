// Package roadmap reads checklist-style roadmap markdown.
//
// The dialect is one task per line:
//
//	- [ ] Title [P1] due: 2025-09-01 #tag
//	- [x] Finished task
//
// Anything else in the document is ignored.
package roadmap

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/randalmurphal/trackr/internal/task"
)

// Item is one parsed checklist entry.
type Item struct {
	Title    string        `json:"title"`
	Status   task.Status   `json:"status"`
	Priority task.Priority `json:"priority"`
	DueDate  *time.Time    `json:"due_date"`
	Tags     []string      `json:"tags"`
}

var (
	checkboxRe = regexp.MustCompile(`^- \[( |x)\] (.+)$`)
	priorityRe = regexp.MustCompile(`\[(P[1-3])\]`)
	dueRe      = regexp.MustCompile(`due:\s*(\d{4}-\d{2}-\d{2})`)
	tagRe      = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
)

var priorityTokens = map[string]task.Priority{
	"P1": task.PriorityHigh,
	"P2": task.PriorityMedium,
	"P3": task.PriorityLow,
}

// Parse extracts checklist items from markdown in input order.
// Lines that are not checklist items are skipped.
func Parse(markdown string) []Item {
	var items []Item
	for _, line := range strings.Split(markdown, "\n") {
		if item, ok := parseLine(line); ok {
			items = append(items, item)
		}
	}
	return items
}

func parseLine(line string) (Item, bool) {
	m := checkboxRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Item{}, false
	}
	rest := m[2]

	item := Item{
		Status:   task.StatusTodo,
		Priority: task.PriorityMedium,
		Tags:     []string{},
	}
	if m[1] == "x" {
		item.Status = task.StatusDone
	}

	if pm := priorityRe.FindStringSubmatch(rest); pm != nil {
		item.Priority = priorityTokens[pm[1]]
	}

	if dm := dueRe.FindStringSubmatch(rest); dm != nil {
		if d, err := time.Parse(task.DateLayout, dm[1]); err == nil {
			item.DueDate = &d
		}
	}

	for _, tm := range tagRe.FindAllStringSubmatch(rest, -1) {
		item.Tags = append(item.Tags, tm[1])
	}

	item.Title = strings.Trim(strings.TrimSpace(stripTokens(rest)), "- ")

	return item, true
}

// stripTokens removes priority, due and tag tokens until none remain.
// Removing one token can join its neighbours into another.
func stripTokens(s string) string {
	for {
		next := priorityRe.ReplaceAllString(s, "")
		next = dueRe.ReplaceAllString(next, "")
		next = tagRe.ReplaceAllString(next, "")
		if next == s {
			return s
		}
		s = next
	}
}

// String renders the item back into the checklist dialect.
func (i Item) String() string {
	var b strings.Builder
	if i.Status == task.StatusDone {
		b.WriteString("- [x] ")
	} else {
		b.WriteString("- [ ] ")
	}
	b.WriteString(i.Title)

	switch i.Priority {
	case task.PriorityHigh:
		b.WriteString(" [P1]")
	case task.PriorityLow:
		b.WriteString(" [P3]")
	default:
		b.WriteString(" [P2]")
	}

	if i.DueDate != nil {
		fmt.Fprintf(&b, " due: %s", i.DueDate.Format(task.DateLayout))
	}
	for _, tag := range i.Tags {
		b.WriteString(" #")
		b.WriteString(tag)
	}
	return b.String()
}

// FilterChecklistLines returns the lines whose trimmed form starts with "- [".
func FilterChecklistLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "- [") {
			lines = append(lines, strings.TrimRight(line, "\r"))
		}
	}
	return lines
}
