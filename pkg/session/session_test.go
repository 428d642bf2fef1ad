package session

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(time.Second)
	return now
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)}
}

func TestAddInteractionFormat(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(Config{Directory: dir, Now: newClock().Now})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ai_assistant_session.md"), m.Path())

	require.NoError(t, m.AddInteraction("What is this?", "A window."))
	require.NoError(t, m.AddInteraction("And now?", "Another window."))

	data, err := os.ReadFile(m.Path())
	require.NoError(t, err)

	want := "# AI Assistant Session\n\nStarted: 2024-03-09 14:05:07" +
		"\n\n## Question (2024-03-09 14:05:08)\n\nWhat is this?\n\n## Answer\n\nA window." +
		"\n\n## Question (2024-03-09 14:05:09)\n\nAnd now?\n\n## Answer\n\nAnother window."
	assert.Equal(t, want, string(data))
}

func TestNewOnStartupUsesTimestampedFile(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(Config{Directory: dir, NewOnStartup: true, Now: newClock().Now})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "session_20240309_140507.md"), m.Path())
}

func TestHistoryMissingFile(t *testing.T) {
	m, err := NewManager(Config{Directory: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "", m.History(5))
	assert.Equal(t, "", m.History(0))
}

func TestHistoryLimitsEntries(t *testing.T) {
	m, err := NewManager(Config{Directory: t.TempDir(), Now: newClock().Now})
	require.NoError(t, err)
	for _, q := range []string{"one", "two", "three"} {
		require.NoError(t, m.AddInteraction(q, "answer "+q))
	}

	h := m.History(2)
	assert.NotContains(t, h, "one")
	assert.Contains(t, h, "## Question (2024-03-09 14:05:09)\n\ntwo\n\n## Answer\n\nanswer two")
	assert.True(t, strings.HasSuffix(h, "answer three"))

	full := m.History(0)
	assert.True(t, strings.HasPrefix(full, "# AI Assistant Session"))
	assert.Contains(t, full, "one")
}

func TestEntriesMultilineAnswer(t *testing.T) {
	m, err := NewManager(Config{Directory: t.TempDir(), Now: newClock().Now})
	require.NoError(t, err)
	require.NoError(t, m.AddInteraction("list?", "```json\n{\"speech\": \"a\"}\n```\n\nline two"))

	entries, err := m.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "list?", entries[0].Question)
	assert.Equal(t, "```json\n{\"speech\": \"a\"}\n```\n\nline two", entries[0].Answer)
	assert.Equal(t, "2024-03-09 14:05:08", entries[0].Time)
}

func TestEntriesAnswerWithQuestionLikeHeading(t *testing.T) {
	m, err := NewManager(Config{Directory: t.TempDir(), Now: newClock().Now})
	require.NoError(t, err)
	answer := "Use this template:\n\n## Question (fill in)\n\n## Question (2024-03-09)\n\ndone"
	require.NoError(t, m.AddInteraction("template?", answer))
	require.NoError(t, m.AddInteraction("next?", "ok"))

	entries, err := m.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, answer, entries[0].Answer)
	assert.Equal(t, "next?", entries[1].Question)
	assert.Equal(t, "2024-03-09 14:05:09", entries[1].Time)
}

func TestIsQuestionHeading(t *testing.T) {
	assert.True(t, isQuestionHeading("## Question (2024-03-09 14:05:08)"))
	assert.True(t, isQuestionHeading("## Question (2024-03-09 14:05:08)  \r"))
	assert.False(t, isQuestionHeading("## Question (fill in)"))
	assert.False(t, isQuestionHeading("## Question (2024-03-09)"))
	assert.False(t, isQuestionHeading("## Question (2024-03-09 14:05:08) extra"))
	assert.False(t, isQuestionHeading("## Questions (2024-03-09 14:05:08)"))
}

func TestNewSessionIsResumed(t *testing.T) {
	dir := t.TempDir()
	clock := newClock()
	m, err := NewManager(Config{Directory: dir, Now: clock.Now})
	require.NoError(t, err)

	path, err := m.NewSession()
	require.NoError(t, err)
	assert.Equal(t, path, m.Path())
	_, err = os.Stat(path)
	require.NoError(t, err, "header written immediately")

	again, err := NewManager(Config{Directory: dir, Now: clock.Now})
	require.NoError(t, err)
	assert.Equal(t, path, again.Path())
}

func TestConcurrentAppends(t *testing.T) {
	m, err := NewManager(Config{Directory: t.TempDir()})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.AddInteraction("q", "a"))
		}()
	}
	wg.Wait()

	entries, err := m.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}
