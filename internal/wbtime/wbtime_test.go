package wbtime_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bahaibot/internal/services"
	"bahaibot/internal/wbtime"
)

func TestParseYear(t *testing.T) {
	got, ok, err := wbtime.Parse("PUBYEAR", "1982")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "+1982-00-00T00:00:00Z", got.Value)
	assert.Equal(t, wbtime.PrecisionYear, got.Precision)
	assert.Equal(t, 1982, got.Year())
}

func TestParseDayFormats(t *testing.T) {
	cases := map[string]string{
		"May 18, 1982": "+1982-05-18T00:00:00Z",
		"1963-04-23":   "+1963-04-23T00:00:00Z",
	}
	for input, want := range cases {
		got, ok, err := wbtime.Parse("birth date", input)
		require.NoError(t, err, input)
		require.True(t, ok, input)
		assert.Equal(t, want, got.Value, input)
		assert.Equal(t, wbtime.PrecisionDay, got.Precision, input)
	}
}

func TestParseBlankIsAbsent(t *testing.T) {
	_, ok, err := wbtime.Parse("death date", "   ")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, input := range []string{"not-a-date", "12345", "19"} {
		_, ok, err := wbtime.Parse("birth date", input)
		require.Error(t, err, input)
		assert.False(t, ok)

		var formatErr *wbtime.FormatError
		require.True(t, errors.As(err, &formatErr))
		assert.Equal(t, "birth date", formatErr.Field)
		assert.Equal(t, input, formatErr.Input)
		assert.ErrorIs(t, err, services.ErrValidation)
	}

	_, _, err := wbtime.Parse("birth date", "not-a-date")
	assert.EqualError(t, err, "Invalid format for 'birth date': 'not-a-date'")
}

func TestPrecisionString(t *testing.T) {
	assert.Equal(t, "year", wbtime.PrecisionYear.String())
	assert.Equal(t, "day", wbtime.PrecisionDay.String())
}
