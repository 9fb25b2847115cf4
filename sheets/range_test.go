package sheets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetbridge/apierr"
)

func TestColumnIndex(t *testing.T) {
	cases := map[string]int64{
		"A":   0,
		"B":   1,
		"Z":   25,
		"AA":  26,
		"AZ":  51,
		"BA":  52,
		"ZZ":  701,
		"AAA": 702,
	}
	for letters, want := range cases {
		assert.Equal(t, want, ColumnIndex(letters), "ColumnIndex(%q)", letters)
	}
}

func TestColumnIndexStrictlyIncreasing(t *testing.T) {
	// Enumerate every column name of length 1-3 in spreadsheet order and
	// check the codec is monotonic and round-trips.
	var names []string
	for a := 'A'; a <= 'Z'; a++ {
		names = append(names, string(a))
	}
	for a := 'A'; a <= 'Z'; a++ {
		for b := 'A'; b <= 'Z'; b++ {
			names = append(names, string(a)+string(b))
		}
	}
	for a := 'A'; a <= 'Z'; a++ {
		for b := 'A'; b <= 'Z'; b++ {
			for c := 'A'; c <= 'Z'; c++ {
				names = append(names, string(a)+string(b)+string(c))
			}
		}
	}

	prev := int64(-1)
	for _, name := range names {
		index := ColumnIndex(name)
		require.Greater(t, index, prev, "ColumnIndex(%q) must exceed its predecessor", name)
		require.Equal(t, name, ColumnLetters(index), "round trip for %q", name)
		prev = index
	}
}

func TestColumnLetters(t *testing.T) {
	assert.Equal(t, "A", ColumnLetters(0))
	assert.Equal(t, "Z", ColumnLetters(25))
	assert.Equal(t, "AA", ColumnLetters(26))
	assert.Equal(t, "BA", ColumnLetters(52))
}

// staticLookup resolves sheet titles from a fixed table.
func staticLookup(ids map[string]int64) SheetLookup {
	return func(ctx context.Context, spreadsheetID, title string) (int64, error) {
		id, ok := ids[title]
		if !ok {
			return 0, apierr.SheetNotFound(title)
		}
		return id, nil
	}
}

func TestParseRange(t *testing.T) {
	ctx := context.Background()
	lookup := staticLookup(map[string]int64{
		"Sheet1":   0,
		"My Sheet": 42,
	})

	t.Run("basic", func(t *testing.T) {
		got, err := parseRange(ctx, "sid", "Sheet1!A1:B2", lookup)
		require.NoError(t, err)
		assert.Equal(t, int64(0), got.SheetId)
		assert.Equal(t, int64(0), got.StartRowIndex)
		assert.Equal(t, int64(2), got.EndRowIndex)
		assert.Equal(t, int64(0), got.StartColumnIndex)
		assert.Equal(t, int64(2), got.EndColumnIndex)
	})

	t.Run("quoted sheet name single cell", func(t *testing.T) {
		got, err := parseRange(ctx, "sid", "'My Sheet'!C3:C3", lookup)
		require.NoError(t, err)
		assert.Equal(t, int64(42), got.SheetId)
		assert.Equal(t, int64(2), got.StartRowIndex)
		assert.Equal(t, int64(3), got.EndRowIndex)
		assert.Equal(t, int64(2), got.StartColumnIndex)
		assert.Equal(t, int64(3), got.EndColumnIndex)
	})

	t.Run("span is uppercased", func(t *testing.T) {
		got, err := parseRange(ctx, "sid", "Sheet1!a1:b2", lookup)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.EndColumnIndex)
	})

	t.Run("multi letter columns", func(t *testing.T) {
		got, err := parseRange(ctx, "sid", "Sheet1!AA1:AB2", lookup)
		require.NoError(t, err)
		assert.Equal(t, int64(26), got.StartColumnIndex)
		assert.Equal(t, int64(28), got.EndColumnIndex)
	})

	t.Run("inverted range passes through", func(t *testing.T) {
		got, err := parseRange(ctx, "sid", "Sheet1!B2:A1", lookup)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.StartRowIndex)
		assert.Equal(t, int64(1), got.EndRowIndex)
		assert.Equal(t, int64(1), got.StartColumnIndex)
		assert.Equal(t, int64(1), got.EndColumnIndex)
	})

	t.Run("missing sheet name", func(t *testing.T) {
		_, err := parseRange(ctx, "sid", "A1:B2", lookup)
		require.Error(t, err)
		assert.Equal(t, apierr.KindMalformedRange, apierr.KindOf(err))
		assert.EqualError(t, err, "range must include sheet name")
	})

	t.Run("open ended spans rejected", func(t *testing.T) {
		for _, reference := range []string{
			"Sheet1!A:A",
			"Sheet1!1:5",
			"Sheet1!A1",
			"Sheet1!A1:B",
			"Sheet1!:B2",
			"Sheet1!",
		} {
			_, err := parseRange(ctx, "sid", reference, lookup)
			require.Error(t, err, "reference %q", reference)
			assert.Equal(t, apierr.KindMalformedRange, apierr.KindOf(err), "reference %q", reference)
			assert.EqualError(t, err, "range must be like A1:B2", "reference %q", reference)
		}
	})

	t.Run("unknown sheet", func(t *testing.T) {
		_, err := parseRange(ctx, "sid", "Nope!A1:B2", lookup)
		require.Error(t, err)
		assert.Equal(t, apierr.KindSheetNotFound, apierr.KindOf(err))
	})
}
