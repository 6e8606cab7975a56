package readinglists

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip_Name(t *testing.T) {
	in := Cursor{By: SortByName, Name: "dogs & cats | 100%", ID: 42}
	out, err := DecodeCursor(in.Encode())
	require.NoError(t, err)
	assert.Equal(t, in.By, out.By)
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.ID, out.ID)
}

func TestCursorRoundTrip_Updated(t *testing.T) {
	ts := time.Date(2026, 8, 30, 12, 34, 56, 789000000, time.UTC)
	in := Cursor{By: SortByUpdated, Updated: ts, ID: 7}
	out, err := DecodeCursor(in.Encode())
	require.NoError(t, err)
	assert.Equal(t, SortByUpdated, out.By)
	assert.True(t, out.Updated.Equal(ts))
	assert.Equal(t, int64(7), out.ID)
}

func TestCursorRoundTrip_PlainID(t *testing.T) {
	in := Cursor{ID: 99}
	out, err := DecodeCursor(in.Encode())
	require.NoError(t, err)
	assert.Empty(t, out.By)
	assert.Equal(t, int64(99), out.ID)
}

func TestDecodeCursor_Malformed(t *testing.T) {
	cases := []string{
		"",
		"!!!not base64!!!",
		"aGVsbG8",           // valid base64, unknown payload
		"bmFtZXxvbmx5",      // name tag with missing id field
		"aWR8Tm90QU51bWJlcg", // id tag with non-numeric id
	}
	for _, token := range cases {
		_, err := DecodeCursor(token)
		assert.ErrorIs(t, err, ErrBadCursor, "token %q", token)
	}
}

func TestParseSortBy(t *testing.T) {
	by, err := ParseSortBy("")
	require.NoError(t, err)
	assert.Equal(t, SortByName, by)

	by, err = ParseSortBy("updated")
	require.NoError(t, err)
	assert.Equal(t, SortByUpdated, by)

	_, err = ParseSortBy("size")
	assert.Error(t, err)
}

func TestParseDirection(t *testing.T) {
	dir, err := ParseDirection("")
	require.NoError(t, err)
	assert.Equal(t, Ascending, dir)

	dir, err = ParseDirection("desc")
	require.NoError(t, err)
	assert.Equal(t, Descending, dir)

	_, err = ParseDirection("down")
	assert.Error(t, err)
}

func TestPageOptionsLimit(t *testing.T) {
	assert.Equal(t, DefaultPageLimit, PageOptions{}.limit())
	assert.Equal(t, DefaultPageLimit, PageOptions{Limit: -1}.limit())
	assert.Equal(t, 25, PageOptions{Limit: 25}.limit())
	assert.Equal(t, MaxPageLimit, PageOptions{Limit: MaxPageLimit + 1}.limit())
}
