package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignal(t *testing.T) {
	// Act
	s, err := parseSignal("ORD-1, sunflower ,450,2026-05-04")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", s.OrderID)
	assert.Equal(t, "sunflower", s.VarietyID)
	assert.Equal(t, 450.0, s.QuantityGrams)
	assert.True(t, s.HarvestDate.Equal(time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)))
}

func TestParseSignal_RejectsMalformedInput(t *testing.T) {
	for _, raw := range []string{"ORD-1,sunflower,450", "ORD-1,sunflower,lots,2026-05-04", "ORD-1,sunflower,450,04/05/2026"} {
		_, err := parseSignal(raw)
		assert.Error(t, err, raw)
	}
}

func TestLoadSignals_MergesFileAndFlags(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	file := filepath.Join(dir, "demand.json")
	require.NoError(t, os.WriteFile(file, []byte(`[{"order_id":"ORD-9","variety_id":"pea","quantity_grams":200,"harvest_date":"2026-05-04T00:00:00Z"}]`), 0644))

	// Act
	signals, err := loadSignals([]string{"ORD-1,sunflower,450,2026-05-04"}, file)

	// Assert
	require.NoError(t, err)
	require.Len(t, signals, 2)
	assert.Equal(t, "pea", signals[0].VarietyID)
	assert.Equal(t, "sunflower", signals[1].VarietyID)
}

func TestLoadSignals_RequiresDemand(t *testing.T) {
	_, err := loadSignals(nil, "")
	assert.Error(t, err)
}

func TestMaskPassword(t *testing.T) {
	masked := maskPassword("postgres://greens:secret@db:5432/greens")
	assert.NotContains(t, masked, "secret")
	assert.Contains(t, masked, "@db:5432/greens")
}
