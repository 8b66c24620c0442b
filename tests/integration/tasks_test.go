//go:build integration

package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskCRUD(t *testing.T) {
	env := SetupTestEnv(t)
	ResetTasks(t, env)

	RegisterUser(t, env, "task-crud@example.com", "password123")
	token := LoginUser(t, env, "task-crud@example.com", "password123")

	due := time.Now().UTC().Add(2 * time.Hour).Truncate(time.Second)
	var taskID string

	t.Run("create task", func(t *testing.T) {
		body := map[string]any{
			"description": "water the plants",
			"due_date":    due.Format(time.RFC3339),
			"priority":    "priority-high",
		}
		resp := DoRequest(t, env, "POST", "/api/v1/tasks", body, token)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		data := ParseResponse(t, resp)["data"].(map[string]any)
		assert.NotEmpty(t, data["id"])
		assert.Equal(t, "water the plants", data["description"])
		assert.Equal(t, "priority-high", data["priority"])
		taskID = data["id"].(string)
	})

	t.Run("description over 150 chars rejected", func(t *testing.T) {
		long := make([]byte, 151)
		for i := range long {
			long[i] = 'x'
		}
		body := map[string]any{
			"description": string(long),
			"due_date":    due.Format(time.RFC3339),
		}
		resp := DoRequest(t, env, "POST", "/api/v1/tasks", body, token)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("list for day", func(t *testing.T) {
		resp := DoRequest(t, env, "GET", "/api/v1/tasks?date="+due.Format("2006-01-02"), nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		data := ParseResponse(t, resp)["data"].([]any)
		require.Len(t, data, 1)
	})

	t.Run("update task", func(t *testing.T) {
		body := map[string]any{"description": "water all the plants"}
		resp := DoRequest(t, env, "PUT", "/api/v1/tasks/"+taskID, body, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		data := ParseResponse(t, resp)["data"].(map[string]any)
		assert.Equal(t, "water all the plants", data["description"])
	})

	t.Run("snooze from now", func(t *testing.T) {
		body := map[string]any{"duration": "1h"}
		resp := DoRequest(t, env, "POST", "/api/v1/tasks/"+taskID+"/snooze", body, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		data := ParseResponse(t, resp)["data"].(map[string]any)
		newDue, err := time.Parse(time.RFC3339, data["due_date"].(string))
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), newDue, 30*time.Second)
	})

	t.Run("invalid snooze duration rejected", func(t *testing.T) {
		body := map[string]any{"duration": "2h"}
		resp := DoRequest(t, env, "POST", "/api/v1/tasks/"+taskID+"/snooze", body, token)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("complete is idempotent", func(t *testing.T) {
		resp := DoRequest(t, env, "POST", "/api/v1/tasks/"+taskID+"/complete", nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = DoRequest(t, env, "POST", "/api/v1/tasks/"+taskID+"/complete", nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		result := ParseResponse(t, resp)
		assert.Equal(t, "task already completed", result["message"])
	})

	t.Run("soft delete and restore", func(t *testing.T) {
		resp := DoRequest(t, env, "DELETE", "/api/v1/tasks/"+taskID, nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = DoRequest(t, env, "GET", "/api/v1/tasks/deleted", nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		deleted := ParseResponse(t, resp)["data"].([]any)
		require.Len(t, deleted, 1)

		resp = DoRequest(t, env, "POST", "/api/v1/tasks/deleted/"+taskID+"/restore", nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		data := ParseResponse(t, resp)["data"].(map[string]any)

		// Restore also clears completion.
		assert.Equal(t, false, data["completed"])
	})

	t.Run("purge", func(t *testing.T) {
		resp := DoRequest(t, env, "DELETE", "/api/v1/tasks/"+taskID, nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = DoRequest(t, env, "DELETE", "/api/v1/tasks/deleted/"+taskID, nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = DoRequest(t, env, "GET", "/api/v1/tasks/deleted", nil, token)
		deleted := ParseResponse(t, resp)["data"]
		assert.Nil(t, deleted)
	})

	t.Run("invalid task id", func(t *testing.T) {
		resp := DoRequest(t, env, "DELETE", "/api/v1/tasks/not-a-uuid", nil, token)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestCompletedBulkDelete(t *testing.T) {
	env := SetupTestEnv(t)
	ResetTasks(t, env)

	RegisterUser(t, env, "task-bulk@example.com", "password123")
	token := LoginUser(t, env, "task-bulk@example.com", "password123")

	due := time.Now().UTC().Add(time.Hour)
	for _, desc := range []string{"one", "two", "three"} {
		body := map[string]any{"description": desc, "due_date": due.Format(time.RFC3339)}
		resp := DoRequest(t, env, "POST", "/api/v1/tasks", body, token)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		if desc != "three" {
			id := ParseResponse(t, resp)["data"].(map[string]any)["id"].(string)
			resp = DoRequest(t, env, "POST", "/api/v1/tasks/"+id+"/complete", nil, token)
			require.Equal(t, http.StatusOK, resp.StatusCode)
		}
	}

	resp := DoRequest(t, env, "DELETE", "/api/v1/tasks/completed", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := ParseResponse(t, resp)["data"].(map[string]any)
	assert.Equal(t, float64(2), data["deleted"])

	resp = DoRequest(t, env, "GET", "/api/v1/tasks/all", nil, token)
	active := ParseResponse(t, resp)["data"].([]any)
	assert.Len(t, active, 1)
}
