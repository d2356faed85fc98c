package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_EmptyIsFirstPage(t *testing.T) {
	c, err := Decode("")
	require.NoError(t, err)
	assert.True(t, c.IsZero())
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode("%%%not-base64")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = Decode("bm90IGpzb24") // "not json"
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCursor_PositionSurvivesToken(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 30, 0, 123_000_000, time.UTC)
	token, err := Encode(Cursor{SwiperID: "0b6f", CreatedUnix: at.UnixMilli()})
	require.NoError(t, err)

	c, err := Decode(token)
	require.NoError(t, err)
	assert.False(t, c.IsZero())
	assert.Equal(t, "0b6f", c.SwiperID)
	assert.True(t, c.CreatedAt().Equal(at))
	assert.Equal(t, time.UTC, c.CreatedAt().Location())
}
