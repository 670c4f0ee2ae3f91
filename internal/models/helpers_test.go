package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339", `"2025-03-01T10:00:00Z"`, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"offset", `"2025-03-01T12:00:00+02:00"`, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"naive iso", `"2025-03-01T10:00:00.123456"`, time.Date(2025, 3, 1, 10, 0, 0, 123456000, time.UTC)},
		{"space separated", `"2025-03-01 10:00:00"`, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"epoch millis", `1740823200000`, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"null", `null`, time.Time{}},
		{"empty", `""`, time.Time{}},
		{"garbage", `"yesterday"`, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.in), &ts))
			assert.True(t, tt.want.Equal(ts.Time), "got %v want %v", ts.Time, tt.want)
		})
	}
}

func TestTimestampFormat(t *testing.T) {
	assert.Equal(t, "N/A", Timestamp{}.Format())
	ts := NewTimestamp(time.Date(2025, 3, 1, 10, 0, 0, 500_000_000, time.UTC))
	assert.Equal(t, "2025-03-01T10:00:00Z", ts.Format())
}

func TestDatasetDecodeToleratesMissingDates(t *testing.T) {
	body := `[{"id":"d1","name":"main_dataset","createdAt":"2025-01-01T00:00:00Z","updatedAt":null}]`

	var datasets []Dataset
	require.NoError(t, json.Unmarshal([]byte(body), &datasets))
	require.Len(t, datasets, 1)
	assert.Equal(t, "main_dataset", datasets[0].Name)
	assert.True(t, datasets[0].UpdatedAt.IsZero())
}

func TestSortDatasetsByRecency(t *testing.T) {
	day := func(d int) Timestamp { return NewTimestamp(time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)) }
	datasets := []Dataset{
		{ID: "old", UpdatedAt: day(1)},
		{ID: "none"},
		{ID: "new", UpdatedAt: day(9)},
		{ID: "mid", UpdatedAt: day(5)},
	}

	SortDatasetsByRecency(datasets)

	var ids []string
	for _, d := range datasets {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"new", "mid", "old", "none"}, ids)
}

func TestFindDatasetByName(t *testing.T) {
	datasets := []Dataset{{ID: "a", Name: "notes"}, {ID: "b", Name: "main_dataset"}}

	d, ok := FindDatasetByName(datasets, "main_dataset")
	require.True(t, ok)
	assert.Equal(t, "b", d.ID)

	_, ok = FindDatasetByName(datasets, "Main_Dataset")
	assert.False(t, ok, "name match is exact")
}

func TestDataItemTitle(t *testing.T) {
	assert.Equal(t, "doc.txt", DataItem{Name: "doc.txt", Label: "x"}.Title())
	assert.Equal(t, "label", DataItem{Label: "label"}.Title())
	assert.Equal(t, "N/A", DataItem{}.Title())
}
