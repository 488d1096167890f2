package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskDataScanValue(t *testing.T) {
	src := TaskData{"status": "todo", "savedHrs": float64(10)}
	v, err := src.Value()
	require.NoError(t, err)

	var dst TaskData
	require.NoError(t, dst.Scan(v))
	assert.Equal(t, "todo", dst.String("status", DefaultStatus))
	assert.Equal(t, float64(10), dst.Float("savedHrs"))

	// Postgres drivers may return string instead of []byte
	var fromString TaskData
	require.NoError(t, fromString.Scan(`{"priority":"high"}`))
	assert.Equal(t, "high", fromString.String("priority", DefaultPriority))

	var fromNil TaskData
	require.NoError(t, fromNil.Scan(nil))
	assert.NotNil(t, fromNil)
	assert.Empty(t, fromNil)
}

func TestTaskDataMerge(t *testing.T) {
	base := TaskData{
		"status":   "todo",
		"owner":    "alice",
		"savedHrs": float64(5),
	}

	merged := base.Merge(TaskData{
		"status":   "in-progress",
		"owner":    nil, // null удаляет ключ
		"teamName": "platform",
	})

	assert.Equal(t, "in-progress", merged.String("status", DefaultStatus))
	assert.Equal(t, "platform", merged.String("teamName", ""))
	_, hasOwner := merged["owner"]
	assert.False(t, hasOwner)
	assert.Equal(t, float64(5), merged.Float("savedHrs"))

	// Исходный документ не должен меняться
	assert.Equal(t, "todo", base.String("status", DefaultStatus))
	assert.Equal(t, "alice", base.String("owner", ""))
}

func TestTaskDataDefaults(t *testing.T) {
	d := TaskData{"status": ""}
	assert.Equal(t, DefaultStatus, d.String("status", DefaultStatus))
	assert.Equal(t, DefaultPriority, d.String("priority", DefaultPriority))
	assert.Zero(t, d.Float("workedHrs"))
	assert.Nil(t, d.Strings("tools"))
}

func TestTaskDataStrings(t *testing.T) {
	d := TaskData{"tools": []interface{}{"Python", "SQL", 42}}
	assert.Equal(t, []string{"Python", "SQL"}, d.Strings("tools"))
}

func TestTaskDataTime(t *testing.T) {
	d := TaskData{"completionDate": "2024-03-15"}
	tm := d.Time("completionDate")
	require.NotNil(t, tm)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *tm)

	d["completionDate"] = "2024-03-15T12:30:00Z"
	tm = d.Time("completionDate")
	require.NotNil(t, tm)
	assert.Equal(t, 12, tm.Hour())

	assert.Nil(t, TaskData{}.Time("completionDate"))
}

func TestIsTerminalStatus(t *testing.T) {
	assert.True(t, IsTerminalStatus(StatusCompleted))
	assert.True(t, IsTerminalStatus(StatusDone))
	assert.False(t, IsTerminalStatus(StatusTodo))
	assert.False(t, IsTerminalStatus(StatusBlocked))
}
