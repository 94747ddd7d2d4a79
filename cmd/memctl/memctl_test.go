package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/buddy"
)

func TestInfoCommand(t *testing.T) {
	resetFlags(t)

	output, err := captureOutput(t, runInfo)
	require.NoError(t, err)
	assert.Contains(t, output, "Backend:    guest")
	assert.Contains(t, output, "Base:       0x10000")
	assert.Contains(t, output, "Committed:  65536 bytes")
	assert.Contains(t, output, "Reserved:   64.0 MiB")

	jsonOut = true
	output, err = captureOutput(t, runInfo)
	require.NoError(t, err)
	var info HeapInfo
	require.NoError(t, json.Unmarshal([]byte(output), &info))
	assert.Equal(t, "guest", info.Backend)
	assert.Equal(t, 6, info.MinOrder)
	assert.Equal(t, 26, info.MaxOrder)
	assert.Equal(t, int64(65536), info.FreeBytes)
}

func TestInfoCommand_UnknownBackend(t *testing.T) {
	resetFlags(t)
	backend = "tape"

	_, err := captureOutput(t, runInfo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestStatsCommand(t *testing.T) {
	resetFlags(t)
	statsOps, statsSeed, statsMaxSize, statsKeep = 2000, 7, 8192, false

	output, err := captureOutput(t, runStats)
	require.NoError(t, err)
	assert.Contains(t, output, "BUDDY ALLOCATOR STATISTICS")
	assert.Contains(t, output, "In use:             0 bytes")

	jsonOut = true
	statsKeep = true
	output, err = captureOutput(t, runStats)
	require.NoError(t, err)
	var s buddy.Stats
	require.NoError(t, json.Unmarshal([]byte(output), &s))
	assert.Positive(t, s.AllocCalls)
	assert.Positive(t, s.BytesInUse)
	assert.Equal(t, int64(s.HeapSize), s.BytesInUse+s.FreeBytes)
}

func TestScenarioCommand(t *testing.T) {
	resetFlags(t)
	scenarioRounds, scenarioChunkSize = 3, 4096
	jsonOut = true

	output, err := captureOutput(t, runScenario)
	require.NoError(t, err)

	var report ScenarioReport
	require.NoError(t, json.Unmarshal([]byte(output), &report))
	require.Len(t, report.Rounds, 3)
	assert.Equal(t, 65536, report.InitialHeap)
	assert.True(t, report.Reused)
	assert.Equal(t, int64(1), report.Rounds[0].BuddyAllocs)
	assert.Equal(t, 262144, report.Rounds[0].HeapSize)
	for _, r := range report.Rounds[1:] {
		assert.Zero(t, r.BuddyAllocs, "round %d", r.Round)
		assert.Equal(t, 2, r.Chunks)
	}

	jsonOut = false
	output, err = captureOutput(t, runScenario)
	require.NoError(t, err)
	assert.Contains(t, output, "✓ Chunks reused after reset")
}

func TestScenarioCommand_BadRounds(t *testing.T) {
	resetFlags(t)
	scenarioRounds = 0
	_, err := captureOutput(t, runScenario)
	require.Error(t, err)
}

func TestQuietSuppressesText(t *testing.T) {
	resetFlags(t)
	quiet = true
	output, err := captureOutput(t, runInfo)
	require.NoError(t, err)
	assert.Empty(t, output)
}
