package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/macrolens/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadObservations(t *testing.T) {
	in := `Date,Indicator,Value,Unit
2024-01-01,gdp,2.1,%
2024-02-01,gdp,,%
2024-02-01,base_rate,3.5,%
2024-03,consumer_price,NaN,
`
	obs, err := ReadObservations(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, obs, 2)

	assert.Equal(t, "gdp", obs[0].Indicator)
	assert.Equal(t, 2.1, obs[0].Value)
	assert.Equal(t, "%", obs[0].Unit)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), obs[0].Date)
	assert.Equal(t, "base_rate", obs[1].Indicator)
}

func TestReadObservations_ColumnOrder(t *testing.T) {
	in := "value,indicator,date\n1.5,fx,2024-01-31T00:00:00Z\n"
	obs, err := ReadObservations(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, "fx", obs[0].Indicator)
	assert.Equal(t, 31, obs[0].Date.Day())
}

func TestReadObservations_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"missing column", "date,value\n2024-01-01,1\n"},
		{"bad date", "date,indicator,value\nyesterday,gdp,1\n"},
		{"bad value", "date,indicator,value\n2024-01-01,gdp,one\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadObservations(strings.NewReader(tt.in))
			assert.True(t, errors.Is(err, core.ErrInputInvalid), "expected ErrInputInvalid, got %v", err)
		})
	}
}

func TestReadObservations_ErrorLine(t *testing.T) {
	in := "date,indicator,value\n2024-01-01,gdp,1\n2024-02-01,gdp,x\n"
	_, err := ReadObservations(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestReadBars(t *testing.T) {
	in := `date,symbol,open,high,low,close,volume
2024-01-02,SP500,4700,4750,4690,4742.8,1200000
2024-01-03,sp500,,,,4704.8,
2024-01-04,vix,,,,,
`
	bars, err := ReadBars(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, "SP500", bars[0].Symbol)
	assert.Equal(t, 4742.8, bars[0].Close)
	assert.Equal(t, 4700.0, bars[0].Open)
	assert.Equal(t, int64(1200000), bars[0].Volume)
	assert.Equal(t, "1d", bars[0].Interval)
	assert.Zero(t, bars[1].Open)
	assert.True(t, bars[1].IsValid())
}

func TestLoadSnapshotJSON(t *testing.T) {
	path := writeFile(t, "snap.json", `{
  "observations": [{"date": "2024-01-01T00:00:00Z", "indicator": "gdp", "value": 2.0}],
  "bars": [{"symbol": "sp500", "close": 4700, "time": "2024-01-02T00:00:00Z"}]
}`)

	snap, err := LoadSnapshotJSON(path)
	require.NoError(t, err)
	assert.Len(t, snap.Observations, 1)
	assert.Len(t, snap.Bars, 1)
	assert.Equal(t, "sp500", snap.Bars[0].Symbol)
}

func TestLoadSnapshotJSON_Invalid(t *testing.T) {
	path := writeFile(t, "snap.json", `{"observations": [], "extra": 1}`)

	_, err := LoadSnapshotJSON(path)
	assert.True(t, errors.Is(err, core.ErrInputInvalid))
}

func TestFiles_Load(t *testing.T) {
	files := Files{
		Snapshot:     writeFile(t, "snap.json", `{"observations": [{"date": "2024-01-01T00:00:00Z", "indicator": "gdp", "value": 2.0}]}`),
		Observations: writeFile(t, "obs.csv", "date,indicator,value\n2024-02-01,gdp,2.2\n"),
		Bars:         writeFile(t, "bars.csv", "date,symbol,close\n2024-02-01,vix,14.2\n"),
	}

	snap, err := files.Load()
	require.NoError(t, err)
	assert.Len(t, snap.Observations, 2)
	assert.Len(t, snap.Bars, 1)
}

func TestFiles_LoadEmpty(t *testing.T) {
	_, err := Files{}.Load()
	assert.True(t, errors.Is(err, core.ErrNoData))
}

func TestFiles_LoadMissingFile(t *testing.T) {
	_, err := Files{Bars: filepath.Join(t.TempDir(), "missing.csv")}.Load()
	assert.Error(t, err)
}
