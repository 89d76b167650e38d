package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/community-cli/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2026, 6, 15, 10, 30, 0, 0, time.UTC)
	finished := now.Add(2 * time.Minute)
	runs := []model.Run{
		{
			ID:         "abc12345-6789-0000-0000-000000000000",
			Status:     model.RunStatusComplete,
			StartedAt:  now,
			FinishedAt: &finished,
			Report: &model.RunReport{
				Incidents: []model.Incident{{Kind: model.IncidentMissingField}, {Kind: model.IncidentValidation}},
				Dropped:   3,
			},
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Status:    model.RunStatusRunning,
			DryRun:    true,
			StartedAt: now.Add(-time.Hour),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "STATUS")
	assert.Contains(t, output, "INCIDENTS")
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-6789")
	assert.Contains(t, output, "complete")
	assert.Contains(t, output, "running")
	assert.Contains(t, output, "2026-06-15 10:30")
	assert.Contains(t, output, "2m0s")
	assert.Contains(t, output, "5")
	assert.Contains(t, output, "true")
}

func TestFormatRunsList_Empty(t *testing.T) {
	var buf bytes.Buffer
	formatRunsList(&buf, nil)
	assert.Equal(t, "No runs found.\n", buf.String())
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789"))
	assert.Equal(t, "short", truncateID("short"))
}
