package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTimeInstant(t *testing.T) {
	want := time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC)

	for _, et := range []EventTime{
		{DateTime: "2024-03-05T10:00:00.000+09:00"},
		{DateTime: "2024-03-05T01:00:00Z"},
		{DateTime: "2024-03-05T10:00:00", TimeZone: "Asia/Seoul"},
		{DateTime: "2024-03-05T01:00:00"},
	} {
		got, err := et.Instant()
		require.NoError(t, err, et.DateTime)
		assert.True(t, want.Equal(got), "%s => %s", et.DateTime, got)
	}

	_, err := EventTime{DateTime: "2024-03-05T10:00:00", TimeZone: "Mars/Olympus"}.Instant()
	assert.Error(t, err)
	_, err = EventTime{DateTime: "tomorrow"}.Instant()
	assert.Error(t, err)
}

func TestEventTimeDay(t *testing.T) {
	et := EventTime{Date: "2024-03-01"}
	assert.True(t, et.AllDay())
	assert.Equal(t, "2024-03-01", et.String())

	d, err := et.Day()
	require.NoError(t, err)
	assert.Equal(t, time.March, d.Month())
	assert.Equal(t, 1, d.Day())
}

func TestStr(t *testing.T) {
	assert.Nil(t, Str(""))
	require.NotNil(t, Str("x"))
	assert.Equal(t, "x", *Str("x"))
}
