package queue

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anuncia/anuncia/internal/queue/handlers"
	"github.com/anuncia/anuncia/internal/usecase"
)

func TestNewTask(t *testing.T) {
	id := uuid.New()

	task, err := newTask(id, usecase.JobTypeStorageAudit, nil)
	require.NoError(t, err)
	assert.Equal(t, "storage:audit", task.Type())

	var p handlers.TaskPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, id.String(), p.JobID)
	assert.Equal(t, usecase.JobTypeStorageAudit, p.Type)
	assert.Empty(t, p.Payload)
}
