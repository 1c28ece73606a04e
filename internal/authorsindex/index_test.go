package authorsindex_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bahaibot/internal/authorsindex"
	"bahaibot/internal/mediawiki"
	"bahaibot/internal/services"
	"bahaibot/internal/testsupport"
)

func TestSortName(t *testing.T) {
	cases := map[string]string{
		"Shoghi Effendi":              "Effendi, Shoghi",
		"John Ebenezer Esslemont":     "Esslemont, John Ebenezer",
		"Hand of the Cause Zikrullah": "Zikrullah, Hand of the Cause",
		"Adib Taherzadeh":             "Taherzadeh, Adib",
		"Ludwig van Beethoven":        "van Beethoven, Ludwig",
		"Horace Holley Jr.":           "Holley Jr., Horace",
		"William Sears III":           "Sears III, William",
		"Nabíl-i-Zarandí":             "Nabíl-i-Zarandí",
		"de Bons":                     "de Bons",
		"  Marzieh   Gail ":           "Gail, Marzieh",
		"":                            "",
	}
	for name, want := range cases {
		assert.Equal(t, want, authorsindex.SortName(name), name)
	}
}

func TestLetters(t *testing.T) {
	all, err := authorsindex.Letters("")
	require.NoError(t, err)
	assert.Len(t, all, 26)
	assert.Equal(t, "A", all[0])
	assert.Equal(t, "Z", all[25])

	one, err := authorsindex.Letters("h")
	require.NoError(t, err)
	assert.Equal(t, []string{"H"}, one)

	for _, bad := range []string{"HB", "7", "é"} {
		_, err := authorsindex.Letters(bad)
		assert.ErrorIs(t, err, services.ErrUsage, bad)
	}
}

func TestLoadExclusions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclusions.txt")
	require.NoError(t, os.WriteFile(path, []byte("Author:Anonymous\n\n  Author:Various  \n"), 0o644))

	exclude, found, err := authorsindex.LoadExclusions(path)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, map[string]bool{"Author:Anonymous": true, "Author:Various": true}, exclude)

	exclude, found, err = authorsindex.LoadExclusions(filepath.Join(t.TempDir(), "missing.txt"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, exclude)
}

func TestCollectAndRender(t *testing.T) {
	wiki := testsupport.NewFakeWiki(t)
	wiki.AddCategoryMember("Category:Authors-E", "Author:John Ebenezer Esslemont")
	wiki.AddCategoryMember("Category:Authors-E", "Author:Shoghi Effendi")
	wiki.AddCategoryMember("Category:Authors-A", "Author:Anonymous")
	session, err := mediawiki.Dial(context.Background(), mediawiki.Options{APIURL: wiki.URL()})
	require.NoError(t, err)

	exclude := map[string]bool{"Author:Anonymous": true}
	index := authorsindex.Index{Wiki: session, Exclude: exclude}
	letters, err := index.Collect(context.Background(), []string{"A", "B", "E"})
	require.NoError(t, err)
	require.Len(t, letters, 3)
	assert.Equal(t, "Category:Authors-A", letters[0].Category)
	assert.Equal(t, 1, letters[0].Excluded)
	assert.Empty(t, letters[1].Members)

	formatted := authorsindex.Render(letters, exclude, false)
	assert.Equal(t, "==== A ====\n\n\n"+
		"==== E ====\n"+
		"* [[Author:John Ebenezer Esslemont|Esslemont, John Ebenezer]]\n"+
		"* [[Author:Shoghi Effendi|Effendi, Shoghi]]\n\n\n", formatted)

	plain := authorsindex.Render(letters, exclude, true)
	assert.Equal(t, "Author:John Ebenezer Esslemont\nAuthor:Shoghi Effendi\n", plain)
}

type failingLister struct{ failed string }

func (f failingLister) CategoryMembers(_ context.Context, category, _ string) ([]string, error) {
	if category == f.failed {
		return nil, errors.New("connection reset")
	}
	return []string{"Author:" + category[len(category)-1:] + " Person"}, nil
}

func TestCollectContinuesAfterFailedCategory(t *testing.T) {
	index := authorsindex.Index{Wiki: failingLister{failed: "Category:Authors-B"}}
	letters, err := index.Collect(context.Background(), []string{"A", "B", "C"})
	require.NoError(t, err)
	require.Len(t, letters, 3)
	assert.Error(t, letters[1].Err)
	assert.NoError(t, letters[2].Err)

	out := authorsindex.Render(letters, nil, true)
	assert.Equal(t, "Author:A Person\nAuthor:C Person\n", out)
}

func TestCollectStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	letters, err := authorsindex.Index{Wiki: failingLister{}}.Collect(ctx, []string{"A"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, letters)
}
