package session

import (
	"strings"
	"time"
)

// Entry is one question/answer pair.
type Entry struct {
	Time     string `json:"time"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

const (
	questionPrefix = "## Question ("
	answerHeading  = "## Answer"
)

// parseEntries splits session markdown on its level-two headings. Text
// before the first question (the session header) is skipped.
func parseEntries(content string) []Entry {
	var (
		entries []Entry
		cur     *Entry
		inQ     bool
		body    []string
	)
	flush := func() {
		if cur == nil {
			return
		}
		text := strings.TrimSpace(strings.Join(body, "\n"))
		if inQ {
			cur.Question = text
		} else {
			cur.Answer = text
		}
		body = body[:0]
	}

	for _, line := range strings.Split(content, "\n") {
		switch {
		case isQuestionHeading(line):
			flush()
			if cur != nil {
				entries = append(entries, *cur)
			}
			ts := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(line), questionPrefix), ")")
			cur = &Entry{Time: ts}
			inQ = true
		case cur != nil && inQ && strings.TrimSpace(line) == answerHeading:
			flush()
			inQ = false
		default:
			if cur != nil {
				body = append(body, line)
			}
		}
	}
	flush()
	if cur != nil {
		entries = append(entries, *cur)
	}
	return entries
}

// isQuestionHeading matches "## Question (<TimeLayout>)" exactly, so answer
// text that merely starts with "## Question (" stays in the answer.
func isQuestionHeading(line string) bool {
	line = strings.TrimRight(line, " \t\r")
	if !strings.HasPrefix(line, questionPrefix) || !strings.HasSuffix(line, ")") {
		return false
	}
	ts := line[len(questionPrefix) : len(line)-1]
	_, err := time.Parse(TimeLayout, ts)
	return err == nil
}
