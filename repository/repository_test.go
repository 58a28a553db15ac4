package repository

import (
	"testing"
	"time"

	"github.com/cepro/homebess/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAndRetrieveBessReadings(t *testing.T) {
	repo, err := New(":memory:")
	require.NoError(t, err)

	reading := telemetry.BessReading{
		ReadingMeta: telemetry.ReadingMeta{ID: uuid.New(), DeviceID: uuid.New(), Time: time.Now()},
		Soe:         12.5,
		SocPct:      42,
	}
	require.NoError(t, repo.StoreReadings([]telemetry.BessReading{reading}))

	stored, err := repo.GetBessReadings(10, 5)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, reading.ID, stored[0].ID)
	assert.Equal(t, uint(0), stored[0].UploadAttemptCount)
}

func TestGetBessReadingsExcludesExhaustedAttempts(t *testing.T) {
	repo, err := New(":memory:")
	require.NoError(t, err)

	reading := telemetry.BessReading{ReadingMeta: telemetry.ReadingMeta{ID: uuid.New(), DeviceID: uuid.New(), Time: time.Now()}}
	require.NoError(t, repo.StoreReadings([]telemetry.BessReading{reading}))

	stored, err := repo.GetBessReadings(10, 5)
	require.NoError(t, err)
	require.NoError(t, repo.IncrementUploadAttemptCount(stored))
	stored, err = repo.GetBessReadings(10, 5)
	require.NoError(t, err)
	require.NoError(t, repo.IncrementUploadAttemptCount(stored))

	remaining, err := repo.GetBessReadings(10, 2)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestDeleteReadingsRemovesRow(t *testing.T) {
	repo, err := New(":memory:")
	require.NoError(t, err)

	reading := telemetry.MeterReading{ReadingMeta: telemetry.ReadingMeta{ID: uuid.New(), DeviceID: uuid.New(), Time: time.Now()}}
	require.NoError(t, repo.StoreReadings([]telemetry.MeterReading{reading}))

	stored, err := repo.GetMeterReadings(10, 5)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	require.NoError(t, repo.DeleteReadings(stored))

	remaining, err := repo.GetMeterReadings(10, 5)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestConvertStoredToReadingsRoundTrips(t *testing.T) {
	repo, err := New(":memory:")
	require.NoError(t, err)

	original := []telemetry.BessReading{{ReadingMeta: telemetry.ReadingMeta{ID: uuid.New()}, Soe: 3.2}}
	require.NoError(t, repo.StoreReadings(original))

	stored, err := repo.GetBessReadings(10, 5)
	require.NoError(t, err)

	converted := repo.ConvertStoredToReadings(stored).([]telemetry.BessReading)
	require.Len(t, converted, 1)
	assert.Equal(t, original[0].ID, converted[0].ID)
	assert.Equal(t, original[0].Soe, converted[0].Soe)
}
