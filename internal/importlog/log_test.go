package importlog_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bahaibot/internal/importlog"
)

func TestAppendAndLines(t *testing.T) {
	log, err := importlog.Open(filepath.Join(t.TempDir(), "nested", "needed-books.txt"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, importlog.Created("Some Book", "Q5")))
	require.NoError(t, log.Append(ctx, importlog.CreatedKind("author", "Jane Doe", "Q6")))

	lines, err := log.Lines()
	require.NoError(t, err)
	assert.Equal(t, []string{"Created Some Book (Q5)", "Created author Jane Doe (Q6)"}, lines)
}

func TestConcurrentAppendsDoNotInterleave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	first, err := importlog.Open(path)
	require.NoError(t, err)
	second, err := importlog.Open(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); assert.NoError(t, first.Append(context.Background(), "first writer line")) }()
		go func() { defer wg.Done(); assert.NoError(t, second.Append(context.Background(), "second writer line")) }()
	}
	wg.Wait()

	lines, err := importlog.ReadLines(path)
	require.NoError(t, err)
	assert.Len(t, lines, 40)
	for _, line := range lines {
		assert.Contains(t, []string{"first writer line", "second writer line"}, line)
	}
}

func TestRemoveDropsOneOccurrencePerLine(t *testing.T) {
	log, err := importlog.Open(filepath.Join(t.TempDir(), "log.txt"))
	require.NoError(t, err)
	ctx := context.Background()
	for _, line := range []string{"Created A (Q1)", "Created B (Q2)", "garbage", "Created A (Q1)"} {
		require.NoError(t, log.Append(ctx, line))
	}

	require.NoError(t, log.Remove(ctx, []string{"Created A (Q1)", "Created C (Q3)"}))

	lines, err := log.Lines()
	require.NoError(t, err)
	assert.Equal(t, []string{"Created B (Q2)", "garbage", "Created A (Q1)"}, lines)
}

func TestRemoveKeepsLinesAppendedAfterRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	reader, err := importlog.Open(path)
	require.NoError(t, err)
	writer, err := importlog.Open(path)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, writer.Append(ctx, "Created A (Q1)"))

	snapshot, err := reader.Lines()
	require.NoError(t, err)
	require.NoError(t, writer.Append(ctx, "Created B (Q2)"))
	require.NoError(t, reader.Remove(ctx, snapshot))

	lines, err := reader.Lines()
	require.NoError(t, err)
	assert.Equal(t, []string{"Created B (Q2)"}, lines)
}

func TestMissingFileHasNoLines(t *testing.T) {
	lines, err := importlog.ReadLines(filepath.Join(t.TempDir(), "absent.txt"))
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestLineFormats(t *testing.T) {
	assert.Equal(t, "Success: Updated Jane Doe (Q9)", importlog.Updated("Jane Doe", "Q9"))
	assert.Equal(t, "FATAL ERROR on row 3 ('Jane Doe'): boom", importlog.Fatal(3, "Jane Doe", errors.New("boom")))
	assert.Equal(t, "Failed X: boom", importlog.Failed("X", errors.New("boom")))
}

func TestParseCreated(t *testing.T) {
	entry, ok := importlog.ParseCreated("Created author Jane Doe (Q12)", "author")
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", entry.Label)
	assert.Equal(t, "Q12", entry.ID)

	entry, ok = importlog.ParseCreated("Created The Hidden Words (Q40)", "")
	require.True(t, ok)
	assert.Equal(t, "The Hidden Words", entry.Label)

	_, ok = importlog.ParseCreated("Created The Hidden Words (Q40)", "author")
	assert.False(t, ok)
	_, ok = importlog.ParseCreated("Success: Updated X (Q1)", "")
	assert.False(t, ok)
}

func TestParseAllSeparatesUnparsed(t *testing.T) {
	entries, unparsed := importlog.ParseAll([]string{"Created A (Q1)", "noise", "Created B (Q2)"}, "")
	assert.Len(t, entries, 2)
	assert.Equal(t, []string{"noise"}, unparsed)
}
