package sitelinks_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bahaibot/internal/importlog"
	"bahaibot/internal/kb"
	"bahaibot/internal/logging"
	"bahaibot/internal/services"
	"bahaibot/internal/sitelinks"
	"bahaibot/internal/testsupport"
)

func openLog(t *testing.T, lines ...string) *importlog.Log {
	t.Helper()
	path := filepath.Join(t.TempDir(), "needed-authors.txt")
	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	testsupport.WriteFile(t, path, content)
	log, err := importlog.Open(path)
	require.NoError(t, err)
	return log
}

func TestAuthorsLinkAndRewrite(t *testing.T) {
	store := kb.NewMemStore()
	first := store.Seed("Everett Tabor Gamage")
	second := store.Seed("A. G. B.")
	log := openLog(t,
		"Created author Everett Tabor Gamage ("+first+")",
		"Created publisher Some Press (Q900)",
		"Created author A. G. B. ("+second+")",
		"Created author Ghost (Q999)",
	)

	linker := &sitelinks.Linker{Store: store, Log: log, Site: "works", Logger: logging.NewNop()}
	result, err := linker.Run(context.Background(), sitelinks.Authors)
	require.NoError(t, err)

	assert.Len(t, result.Linked, 2)
	assert.Len(t, result.Failed, 1)
	assert.ErrorIs(t, result.Failed[0].Err, services.ErrNotFound)
	assert.Equal(t, 1, result.Unparsed)

	got, err := store.Get(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, "Author:Everett Tabor Gamage", got.Sitelinks["works"])

	lines, err := log.Lines()
	require.NoError(t, err)
	assert.Equal(t, []string{"Created publisher Some Press (Q900)", "Created author Ghost (Q999)"}, lines)
}

func TestTitlesUsePlainLabel(t *testing.T) {
	store := kb.NewMemStore()
	book := store.Seed("239 Days")
	log := openLog(t, "Created 239 Days ("+book+")")

	linker := &sitelinks.Linker{Store: store, Log: log, Site: "works"}
	result, err := linker.Run(context.Background(), sitelinks.Titles)
	require.NoError(t, err)
	require.Len(t, result.Linked, 1)

	got, err := store.Get(context.Background(), book)
	require.NoError(t, err)
	assert.Equal(t, "239 Days", got.Sitelinks["works"])

	lines, err := log.Lines()
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestRerunIsResumable(t *testing.T) {
	store := kb.NewMemStore()
	id := store.Seed("Philip Nash")
	log := openLog(t, "Created author Philip Nash ("+id+")")
	store.FailNext("sitelink", errors.New("connection reset"))
	linker := &sitelinks.Linker{Store: store, Log: log, Site: "works"}

	result, err := linker.Run(context.Background(), sitelinks.Authors)
	require.NoError(t, err)
	assert.Len(t, result.Failed, 1)
	lines, err := log.Lines()
	require.NoError(t, err)
	assert.Len(t, lines, 1, "failed line stays for the next run")

	result, err = linker.Run(context.Background(), sitelinks.Authors)
	require.NoError(t, err)
	assert.Len(t, result.Linked, 1)
	lines, err = log.Lines()
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestKeepLeavesLogAlone(t *testing.T) {
	store := kb.NewMemStore()
	id := store.Seed("Philip Nash")
	log := openLog(t, "Created author Philip Nash ("+id+")")

	linker := &sitelinks.Linker{Store: store, Log: log, Site: "works", Keep: true}
	_, err := linker.Run(context.Background(), sitelinks.Authors)
	require.NoError(t, err)

	lines, err := log.Lines()
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestRunRequiresEntriesAndSite(t *testing.T) {
	store := kb.NewMemStore()

	_, err := (&sitelinks.Linker{Store: store, Log: openLog(t, "Created X (Q1)")}).Run(context.Background(), sitelinks.Titles)
	assert.ErrorIs(t, err, services.ErrConfiguration)

	empty, err := importlog.Open(filepath.Join(t.TempDir(), "empty.txt"))
	require.NoError(t, err)
	_, err = (&sitelinks.Linker{Store: store, Log: empty, Site: "works"}).Run(context.Background(), sitelinks.Titles)
	assert.ErrorIs(t, err, services.ErrUsage)
}

func TestCancelledRunKeepsRemainingLines(t *testing.T) {
	store := kb.NewMemStore()
	id := store.Seed("Philip Nash")
	log := openLog(t, "Created author Philip Nash ("+id+")")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := (&sitelinks.Linker{Store: store, Log: log, Site: "works"}).Run(ctx, sitelinks.Authors)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, result.Linked)
	lines, err := log.Lines()
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

// appendingSetter writes to the audit log through a second handle while the
// linker is mid-pass, the way a concurrent import would.
type appendingSetter struct {
	kb.SitelinkSetter
	other *importlog.Log
	line  string
}

func (a *appendingSetter) SetSitelink(ctx context.Context, id, site, title string) error {
	if a.line != "" {
		if err := a.other.Append(ctx, a.line); err != nil {
			return err
		}
		a.line = ""
	}
	return a.SitelinkSetter.SetSitelink(ctx, id, site, title)
}

func TestLinesAppendedDuringRunSurvive(t *testing.T) {
	store := kb.NewMemStore()
	first := store.Seed("Everett Tabor Gamage")
	log := openLog(t, "Created author Everett Tabor Gamage ("+first+")")
	other, err := importlog.Open(log.Path())
	require.NoError(t, err)
	appended := importlog.CreatedKind("author", "Jane Doe", "Q77")

	setter := &appendingSetter{SitelinkSetter: store, other: other, line: appended}
	linker := &sitelinks.Linker{Store: setter, Log: log, Site: "works"}
	result, err := linker.Run(context.Background(), sitelinks.Authors)
	require.NoError(t, err)
	require.Len(t, result.Linked, 1)

	lines, err := log.Lines()
	require.NoError(t, err)
	assert.Equal(t, []string{appended}, lines)
}
