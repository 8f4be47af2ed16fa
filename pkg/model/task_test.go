package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskJSON(t *testing.T) {
	input := `{"content":"Buy milk","deadline":1893456000,"priority":"High","completed":false}`

	var task Task
	require.NoError(t, json.Unmarshal([]byte(input), &task))
	assert.Equal(t, "Buy milk", task.Content)
	assert.Equal(t, uint64(1893456000), task.Deadline)
	assert.Equal(t, High, task.Priority)
	assert.Empty(t, task.ID)
	assert.True(t, task.Pending())
}

func TestTaskJSONRejectsBadFields(t *testing.T) {
	cases := map[string]string{
		"unknown priority":  `{"content":"x","deadline":1,"priority":"Urgent"}`,
		"negative deadline": `{"content":"x","deadline":-5,"priority":"Low"}`,
		"numeric priority":  `{"content":"x","deadline":1,"priority":2}`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			var task Task
			assert.Error(t, json.Unmarshal([]byte(input), &task))
		})
	}
}

func TestNotifiedOmittedUntilSet(t *testing.T) {
	b, err := json.Marshal(Task{Content: "x", Deadline: 10, Priority: Low})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "notified")
	assert.Contains(t, string(b), `"completed":false`)

	b, err = json.Marshal(Task{Content: "x", Deadline: 10, Priority: Low, Notified: true})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"notified":true`)
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("high")
	require.NoError(t, err)
	assert.Equal(t, High, p)

	_, err = ParsePriority("urgent")
	assert.Error(t, err)
}
