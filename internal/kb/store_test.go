package kb_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bahaibot/internal/kb"
	"bahaibot/internal/kb/sqlitekb"
	"bahaibot/internal/services"
	"bahaibot/internal/wbtime"
)

type testStore interface {
	kb.Store
	kb.SitelinkSetter
}

type storeFactory func(t *testing.T) testStore

// runTestsForAllStores runs testFn against MemStore and the SQLite store.
func runTestsForAllStores(t *testing.T, testName string, testFn func(t *testing.T, store testStore)) {
	factories := map[string]storeFactory{
		"MemStore": func(*testing.T) testStore { return kb.NewMemStore() },
		"SQLite": func(t *testing.T) testStore {
			s, err := sqlitekb.OpenPath(filepath.Join(t.TempDir(), "kb.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
	for name, factory := range factories {
		t.Run(name+"/"+testName, func(t *testing.T) {
			testFn(t, factory(t))
		})
	}
}

func TestStoreCreateAssignsSequentialIDs(t *testing.T) {
	runTestsForAllStores(t, "SequentialIDs", func(t *testing.T, store testStore) {
		ctx := context.Background()
		first, err := store.Create(ctx, "Jane Doe")
		require.NoError(t, err)
		second, err := store.Create(ctx, "John Roe")
		require.NoError(t, err)

		assert.Equal(t, "Q1", first)
		assert.Equal(t, "Q2", second)
	})
}

func TestStoreCreateRejectsEmptyLabel(t *testing.T) {
	runTestsForAllStores(t, "EmptyLabel", func(t *testing.T, store testStore) {
		_, err := store.Create(context.Background(), "   ")
		assert.ErrorIs(t, err, services.ErrValidation)
	})
}

func TestStoreFindPrefersExactThenOldestPrefix(t *testing.T) {
	runTestsForAllStores(t, "Find", func(t *testing.T, store testStore) {
		ctx := context.Background()
		long, err := store.Create(ctx, "Jane Doe Smith")
		require.NoError(t, err)
		exact, err := store.Create(ctx, "Jane Doe")
		require.NoError(t, err)

		id, found, err := store.Find(ctx, "jane doe")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, exact, id)

		id, found, err = store.Find(ctx, "Jane")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, long, id, "first hit is accepted without disambiguation")

		_, found, err = store.Find(ctx, "Nobody")
		require.NoError(t, err)
		assert.False(t, found)

		_, found, err = store.Find(ctx, "")
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestStoreCreateWithClaimsAndGet(t *testing.T) {
	runTestsForAllStores(t, "CreateWithClaims", func(t *testing.T, store testStore) {
		ctx := context.Background()
		date := wbtime.MustParse("PUBYEAR", "1985")
		id, err := store.Create(ctx, "The Book",
			kb.NewClaim("P12", kb.ItemValue("Q4581")),
			kb.NewClaim("P47", kb.MonolingualValue("The Book: Full", "en")),
			kb.NewClaim("P29", kb.TimeValue(date)),
		)
		require.NoError(t, err)

		entity, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "The Book", entity.Label)
		assert.True(t, entity.HasValue("P12", kb.ItemValue("Q4581")))
		assert.True(t, entity.HasValue("P47", kb.MonolingualValue("The Book: Full", "en")))
		assert.True(t, entity.HasValue("P29", kb.TimeValue(date)))
		for _, c := range entity.Claims["P12"] {
			assert.True(t, strings.HasPrefix(c.ID, id+"$"), "claim id %q", c.ID)
		}
	})
}

func TestStoreGetMissingIsNotFound(t *testing.T) {
	runTestsForAllStores(t, "GetMissing", func(t *testing.T, store testStore) {
		_, err := store.Get(context.Background(), "Q404")
		assert.ErrorIs(t, err, services.ErrNotFound)

		err = store.AddClaims(context.Background(), "Q404", kb.Append(kb.NewClaim("P11", kb.ItemValue("Q1"))))
		assert.ErrorIs(t, err, services.ErrNotFound)
	})
}

func TestStoreAddClaimsAppliesPolicies(t *testing.T) {
	runTestsForAllStores(t, "Policies", func(t *testing.T, store testStore) {
		ctx := context.Background()
		id, err := store.Create(ctx, "Person", kb.NewClaim("P35", kb.StringValue("old.jpg")))
		require.NoError(t, err)

		require.NoError(t, store.AddClaims(ctx, id,
			kb.Replace(kb.NewClaim("P35", kb.StringValue("new.jpg"))),
			kb.Append(kb.NewClaim("P11", kb.ItemValue("Q50"))),
		))
		require.NoError(t, store.AddClaims(ctx, id, kb.Append(kb.NewClaim("P11", kb.ItemValue("Q51")))))
		require.NoError(t, store.AddClaims(ctx, id, kb.Append(kb.NewClaim("P11", kb.ItemValue("Q50")))))

		entity, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []kb.Value{kb.StringValue("new.jpg")}, entity.Values("P35"))
		assert.Equal(t, []kb.Value{kb.ItemValue("Q50"), kb.ItemValue("Q51")}, entity.Values("P11"))
	})
}

func TestStoreQualifiersRoundTrip(t *testing.T) {
	runTestsForAllStores(t, "Qualifiers", func(t *testing.T, store testStore) {
		ctx := context.Background()
		id, err := store.Create(ctx, "Person")
		require.NoError(t, err)
		start := kb.Snak{Property: "P56", Value: kb.TimeValue(wbtime.MustParse("pos1_start", "1963-04-21"))}
		end := kb.Snak{Property: "P57", Value: kb.TimeValue(wbtime.MustParse("pos1_end", "1968"))}

		require.NoError(t, store.AddClaims(ctx, id, kb.Append(kb.NewClaim("P55", kb.ItemValue("Q9"), start, end))))

		entity, err := store.Get(ctx, id)
		require.NoError(t, err)
		require.Len(t, entity.Claims["P55"], 1)
		assert.ElementsMatch(t, []kb.Snak{start, end}, entity.Claims["P55"][0].Qualifiers)
	})
}

func TestStoreSetSitelink(t *testing.T) {
	runTestsForAllStores(t, "Sitelink", func(t *testing.T, store testStore) {
		ctx := context.Background()
		id, err := store.Create(ctx, "Jane Doe")
		require.NoError(t, err)

		require.NoError(t, store.SetSitelink(ctx, id, "works", "Author:Jane Doe"))
		require.NoError(t, store.SetSitelink(ctx, id, "works", "Author:Jane M. Doe"))

		entity, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"works": "Author:Jane M. Doe"}, entity.Sitelinks)

		err = store.SetSitelink(ctx, "Q999", "works", "X")
		assert.ErrorIs(t, err, services.ErrNotFound)
	})
}

func TestMemStoreFailNextAndCounters(t *testing.T) {
	store := kb.NewMemStore()
	boom := errors.New("boom")
	store.FailNext("create", boom)

	_, err := store.Create(context.Background(), "X")
	assert.ErrorIs(t, err, boom)
	_, err = store.Create(context.Background(), "X")
	assert.NoError(t, err)

	calls := store.Calls()
	assert.Equal(t, 2, calls.Create)
	assert.Equal(t, 1, store.Len())
}

func TestMemStoreGetReturnsCopy(t *testing.T) {
	store := kb.NewMemStore()
	id := store.Seed("X", kb.NewClaim("P12", kb.ItemValue("Q100")))

	entity, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	entity.Claims["P12"] = nil

	again, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, again.Claims["P12"], 1)
}
