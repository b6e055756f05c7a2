package client_test

import (
	"testing"
	"valentine_week_backend/pkg/client"

	"github.com/stretchr/testify/assert"
)

// 调用方只依赖 client 包即可构造和判断进度
func TestExportedProgressTypes(t *testing.T) {
	p := &client.UserProgress{
		UserID: "alice",
		Days: []client.DayProgress{
			{DayNumber: 1, DayName: "Rose Day", IsUnlocked: true, IsCompleted: true},
			{DayNumber: 2, DayName: "Propose Day"},
			{DayNumber: 3, DayName: "Chocolate Day"},
		},
	}
	assert.True(t, client.IsUnlocked(p, 2))
	assert.False(t, client.IsUnlocked(p, 3))
	assert.False(t, client.IsUnlocked(p, 9))

	var days []client.ValentineDay
	var events []client.CompletionEvent
	assert.Empty(t, days)
	assert.Empty(t, events)
}
