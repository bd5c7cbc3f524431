package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal(t *testing.T) {
	ctx := context.Background()

	j, err := Open("")
	require.NoError(t, err)
	defer func() {
		_ = j.Close()
	}()

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, j.Record(ctx, &Event{
		Time:           start.Add(time.Minute),
		Device:         "/dev/nst0",
		Action:         ACTION_STATUS,
		Mode:           "on",
		AlgorithmIndex: 1,
		KeyInstance:    4294967295,
		KeyDescription: "Hello world!",
	}))
	require.NoError(t, j.Record(ctx, &Event{
		Time:   start,
		Device: "/dev/nst0",
		Action: ACTION_SET,
		Mode:   "on",
	}))
	require.NoError(t, j.Record(ctx, &Event{
		Time:   start,
		Device: "/dev/nst1",
		Action: ACTION_SET,
		Mode:   "off",
	}))

	events, err := j.List(ctx, "/dev/nst0")
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, ACTION_SET, events[0].Action)
	assert.True(t, start.Equal(events[0].Time))

	assert.Equal(t, ACTION_STATUS, events[1].Action)
	assert.Equal(t, uint8(1), events[1].AlgorithmIndex)
	assert.Equal(t, uint32(4294967295), events[1].KeyInstance)
	assert.Equal(t, "Hello world!", events[1].KeyDescription)

	events, err = j.List(ctx, "/dev/nst9")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestJournalPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.duckdb")

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(ctx, &Event{Device: "/dev/sg1", Action: ACTION_SET, Mode: "mixed"}))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer func() {
		_ = j.Close()
	}()

	events, err := j.List(ctx, "/dev/sg1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "mixed", events[0].Mode)
	assert.False(t, events[0].Time.IsZero())
}

func TestJournalUnsignedColumns(t *testing.T) {
	ctx := context.Background()

	j, err := Open("")
	require.NoError(t, err)
	defer func() {
		_ = j.Close()
	}()

	for column, expected := range map[string]string{
		"algorithm":    "UTINYINT",
		"key_instance": "UINTEGER",
	} {
		var dataType string
		err = j.db.QueryRowContext(ctx,
			"SELECT data_type FROM information_schema.columns WHERE table_name = 'events' AND column_name = ?",
			column,
		).Scan(&dataType)
		require.NoError(t, err)
		assert.Equal(t, expected, dataType, column)
	}

	require.NoError(t, j.Record(ctx, &Event{
		Device:         "/dev/nst0",
		Action:         ACTION_SET,
		Mode:           "on",
		AlgorithmIndex: 255,
		KeyInstance:    1 << 31,
	}))

	events, err := j.List(ctx, "/dev/nst0")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, uint8(255), events[0].AlgorithmIndex)
	assert.Equal(t, uint32(1<<31), events[0].KeyInstance)
}
