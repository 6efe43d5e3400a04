package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	corrections "github.com/anniinakinnunen/MuonCorrections/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDimuonFile(t *testing.T, filename string) {
	t.Helper()
	writer, err := corrections.CreateHDF5EventWriter(filename, "Events")
	require.NoError(t, err)
	events := []corrections.Event{
		{Number: 1, Particles: []corrections.Particle{
			{Pt: 30, Eta: 0.1, Phi: 0.2, Mass: 0.1057, Charge: 1},
			{Pt: 35, Eta: -0.4, Phi: 2.9, Mass: 0.1057, Charge: -1},
		}},
		{Number: 2, Particles: []corrections.Particle{
			{Pt: 8, Eta: 1.1, Phi: -1, Mass: 0.1057, Charge: 1},
		}},
	}
	for _, event := range events {
		require.NoError(t, writer.WriteEvent(event))
	}
	require.NoError(t, writer.Close())
}

func TestRunAll(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "dimuons.h5")
	writeDimuonFile(t, input)

	config := corrections.Configuration{
		NumWorkers: 2,
		Qter:       1,
		Runs: []corrections.DatasetConfig{
			{Name: "selected", FileIn: input, Tree: "Events", IsData: true},
			{Name: "all", FileIn: input, Tree: "Events", CorrectAll: true},
			{Name: "missing", FileIn: filepath.Join(dir, "missing.h5"), Tree: "Events"},
		},
	}

	results := runAll(context.Background(), config, corrections.IdentityCorrector{}, false)
	require.Len(t, results, 3)

	byName := make(map[string]RunResult)
	for _, result := range results {
		assert.NotEmpty(t, result.RunID)
		byName[result.Dataset.Name] = result
	}

	require.NoError(t, byName["selected"].Err)
	assert.Equal(t, corrections.Summary{Read: 2, Emitted: 1, Skipped: 1}, byName["selected"].Summary)
	assert.FileExists(t, filepath.Join(dir, "selected_Cor.h5"))

	require.NoError(t, byName["all"].Err)
	assert.Equal(t, corrections.Summary{Read: 2, Emitted: 2, Skipped: 0}, byName["all"].Summary)
	assert.FileExists(t, filepath.Join(dir, "all_Cor.h5"))

	assert.ErrorIs(t, byName["missing"].Err, corrections.ErrSourceUnavailable)
}

func TestRunAllDryRun(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "dimuons.h5")
	writeDimuonFile(t, input)

	config := corrections.Configuration{
		Runs: []corrections.DatasetConfig{{Name: "dry", FileIn: input, Tree: "Events"}},
	}
	results := runAll(context.Background(), config, corrections.IdentityCorrector{}, true)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, 1, results[0].Summary.Emitted)

	_, err := os.Stat(filepath.Join(dir, "dry_Cor.h5"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunAllNoRuns(t *testing.T) {
	assert.Empty(t, runAll(context.Background(), corrections.Configuration{}, corrections.IdentityCorrector{}, false))
}

func TestLoadCorrector(t *testing.T) {
	corrector, err := loadCorrector(corrections.CalibrationConfig{})
	require.NoError(t, err)
	assert.Equal(t, corrections.IdentityCorrector{}, corrector)

	_, err = loadCorrector(corrections.CalibrationConfig{Driver: "postgres"})
	assert.Error(t, err)

	_, err = loadCorrector(corrections.CalibrationConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "empty.sqlite")})
	assert.Error(t, err)
}
