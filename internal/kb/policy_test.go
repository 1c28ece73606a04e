package kb

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bahaibot/internal/wbtime"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("Q1$%d", n)
	}
}

func TestApplyEditsReplaceAllLeavesSingleValue(t *testing.T) {
	e := &Entity{ID: "Q1"}
	ids := sequentialIDs()
	ApplyEdits(e, ids,
		ClaimEdit{Claim: NewClaim("P35", StringValue("a.jpg")), Policy: ForceAppend},
		ClaimEdit{Claim: NewClaim("P35", StringValue("b.jpg")), Policy: ForceAppend},
	)
	require.Len(t, e.Claims["P35"], 2)

	changes := ApplyEdits(e, ids, Replace(NewClaim("P35", StringValue("c.jpg"))))

	require.Len(t, e.Claims["P35"], 1)
	assert.Equal(t, "c.jpg", e.Claims["P35"][0].Value.Text)
	assert.ElementsMatch(t, []string{"Q1$1", "Q1$2"}, changes.Removed)
	assert.Len(t, changes.Upserts, 1)
}

func TestApplyEditsReplaceAllSameValueIsNoop(t *testing.T) {
	e := &Entity{ID: "Q1"}
	ids := sequentialIDs()
	ApplyEdits(e, ids, Replace(NewClaim("P16", TimeValue(wbtime.MustParse("birth date", "1900")))))

	changes := ApplyEdits(e, ids, Replace(NewClaim("P16", TimeValue(wbtime.MustParse("birth date", "1900")))))

	assert.True(t, changes.Empty())
	assert.Equal(t, "Q1$1", e.Claims["P16"][0].ID)
}

func TestApplyEditsAppendOrReplaceNeverShrinks(t *testing.T) {
	e := &Entity{ID: "Q1"}
	ids := sequentialIDs()
	ApplyEdits(e, ids, Append(NewClaim("P10", ItemValue("Q7"))), Append(NewClaim("P10", ItemValue("Q8"))))

	ApplyEdits(e, ids, Append(NewClaim("P10", ItemValue("Q7"))))
	assert.Len(t, e.Claims["P10"], 2)

	ApplyEdits(e, ids, Append(NewClaim("P10", ItemValue("Q9"))))
	assert.Equal(t, []Value{ItemValue("Q7"), ItemValue("Q8"), ItemValue("Q9")}, e.Values("P10"))
}

func TestApplyEditsAppendOrReplaceKeepsDifferentQualifiers(t *testing.T) {
	e := &Entity{ID: "Q1"}
	ids := sequentialIDs()
	ApplyEdits(e, ids, Append(NewClaim("P55", ItemValue("Q20"))))

	start := Snak{Property: "P56", Value: TimeValue(wbtime.MustParse("pos1_start", "1950"))}
	changes := ApplyEdits(e, ids, Append(NewClaim("P55", ItemValue("Q20"), start)))

	require.Len(t, e.Claims["P55"], 2)
	assert.Equal(t, []Snak{start}, e.Claims["P55"][1].Qualifiers)
	require.Len(t, changes.Upserts, 1)
	assert.Empty(t, changes.Removed)

	again := ApplyEdits(e, ids, Append(NewClaim("P55", ItemValue("Q20"), start)))
	assert.True(t, again.Empty())
	assert.Len(t, e.Claims["P55"], 2)
}

func TestApplyEditsForceAppendDuplicates(t *testing.T) {
	e := &Entity{ID: "Q1"}
	ids := sequentialIDs()
	ApplyEdits(e, ids,
		ClaimEdit{Claim: NewClaim("P11", ItemValue("Q5")), Policy: ForceAppend},
		ClaimEdit{Claim: NewClaim("P11", ItemValue("Q5")), Policy: ForceAppend},
	)
	assert.Len(t, e.Claims["P11"], 2)
}

func TestValueEqual(t *testing.T) {
	assert.True(t, MonolingualValue("Title", "en").Equal(MonolingualValue("Title", "en")))
	assert.False(t, MonolingualValue("Title", "en").Equal(MonolingualValue("Title", "fr")))
	assert.False(t, StringValue("Q1").Equal(ItemValue("Q1")))
	assert.False(t, TimeValue(wbtime.MustParse("d", "1900")).Equal(TimeValue(wbtime.MustParse("d", "1900-01-01"))))
}

func TestEntityCloneIsDeep(t *testing.T) {
	e := &Entity{ID: "Q1", Label: "x"}
	ApplyEdits(e, sequentialIDs(), Append(NewClaim("P55", ItemValue("Q2"), Snak{Property: "P56", Value: StringValue("s")})))
	e.Sitelinks = map[string]string{"works": "X"}

	clone := e.Clone()
	clone.Claims["P55"][0].Qualifiers[0].Property = "P99"
	clone.Sitelinks["works"] = "Y"

	assert.Equal(t, "P56", e.Claims["P55"][0].Qualifiers[0].Property)
	assert.Equal(t, "X", e.Sitelinks["works"])
}

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "jane doe", NormalizeLabel("  Jane   DOE "))
}
