package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2026, time.March, 1), d)
	assert.Equal(t, "2026-03-01", d.String())

	_, err = ParseDate("01.03.2026")
	assert.ErrorIs(t, err, ErrInvalidDateFormat)
}

func TestDateOfDropsTimeAndZone(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	d := DateOf(time.Date(2026, time.March, 1, 23, 59, 0, 0, loc))

	assert.Equal(t, NewDate(2026, time.March, 1), d)
}

func TestDatesInRange(t *testing.T) {
	start := NewDate(2026, time.February, 27)
	end := NewDate(2026, time.March, 2)

	dates := DatesInRange(start, end)
	require.Len(t, dates, 4)
	assert.Equal(t, start, dates[0])
	assert.Equal(t, NewDate(2026, time.February, 28), dates[1])
	assert.Equal(t, NewDate(2026, time.March, 1), dates[2])
	assert.Equal(t, end, dates[3])

	assert.Len(t, DatesInRange(start, start), 1)
	assert.Empty(t, DatesInRange(end, start))
}

func TestDateScan(t *testing.T) {
	var d Date

	require.NoError(t, d.Scan(time.Date(2026, time.May, 9, 0, 0, 0, 0, time.Local)))
	assert.Equal(t, NewDate(2026, time.May, 9), d)

	require.NoError(t, d.Scan([]byte("2026-05-10")))
	assert.Equal(t, NewDate(2026, time.May, 10), d)

	assert.ErrorIs(t, d.Scan(42), ErrUnsupportedScanType)
}

func TestDateJSON(t *testing.T) {
	payload := struct {
		Date Date `json:"date"`
	}{Date: NewDate(2026, time.March, 3)}

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2026-03-03"}`, string(data))

	var decoded struct {
		Date Date `json:"date"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, payload.Date, decoded.Date)
}
