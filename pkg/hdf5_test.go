package corrections

import (
	"context"
	"path/filepath"
	"testing"

	hdf5 "github.com/jmbenlloch/go-hdf5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInputHDF5(t *testing.T, filename string, events []Event) {
	t.Helper()
	writer, err := CreateHDF5EventWriter(filename, "Events")
	require.NoError(t, err)
	for _, event := range events {
		require.NoError(t, writer.WriteEvent(event))
	}
	require.NoError(t, writer.Close())
}

func sampleEvents() []Event {
	m := 0.1057
	return []Event{
		{Number: 7, Particles: []Particle{
			{Pt: 40.5, Eta: 0.5, Phi: 0.125, Mass: float64(float32(m)), Charge: -1},
			{Pt: 44.75, Eta: -0.25, Phi: -3, Mass: float64(float32(m)), Charge: 1},
		}},
		{Number: 8},
		{Number: 9, Particles: []Particle{
			{Pt: 12.5, Eta: 1.5, Phi: 1, Mass: float64(float32(m)), Charge: 1},
		}},
	}
}

func TestHDF5SourceReadsWhatWasWritten(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "input.h5")
	events := sampleEvents()
	writeInputHDF5(t, filename, events)

	source, err := OpenHDF5Source(filename, "Events")
	require.NoError(t, err)
	defer source.Close()
	assert.Equal(t, 3, source.NumEvents())

	var read []Event
	require.NoError(t, source.Scan(func(event Event) error {
		read = append(read, event)
		return nil
	}))
	require.Len(t, read, 3)
	for i, event := range read {
		assert.Equal(t, int64(i), event.Entry)
		assert.Equal(t, events[i].Number, event.Number)
		assert.Equal(t, events[i].N(), event.N())
		for j, p := range event.Particles {
			assert.Equal(t, events[i].Particles[j], p)
		}
	}
}

func TestHDF5SourceErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := OpenHDF5Source(filepath.Join(dir, "missing.h5"), "Events")
	assert.ErrorIs(t, err, ErrSourceUnavailable)

	filename := filepath.Join(dir, "input.h5")
	writeInputHDF5(t, filename, sampleEvents())
	_, err = OpenHDF5Source(filename, "Muons")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestHDF5SourceMalformed(t *testing.T) {
	events := []EventRowHDF5{{evt_number: 1, nMuon: 2}, {evt_number: 2, nMuon: 3}}
	tests := []struct {
		name  string
		muons int
	}{
		{name: "missing muon rows", muons: 4},
		{name: "extra muon rows", muons: 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &HDF5Source{events: events, muons: make([]MuonRowHDF5, tt.muons)}
			calls := 0
			err := source.Scan(func(event Event) error {
				calls++
				return nil
			})
			assert.ErrorIs(t, err, ErrMalformedEvent)
			assert.Equal(t, 0, calls)
		})
	}

	source := &HDF5Source{events: events, muons: make([]MuonRowHDF5, 5)}
	calls := 0
	require.NoError(t, source.Scan(func(event Event) error {
		calls++
		return nil
	}))
	assert.Equal(t, 2, calls)
}

func TestCorrectDatasetHDF5(t *testing.T) {
	dir := t.TempDir()
	dataset := DatasetConfig{
		Name:   "dimuons",
		FileIn: filepath.Join(dir, "input.h5"),
		Tree:   "Events",
		IsData: true,
	}
	writeInputHDF5(t, dataset.FileIn, sampleEvents())
	assert.Equal(t, filepath.Join(dir, "dimuons_Cor.h5"), dataset.OutputFilename())

	corrector := CorrectorFuncs{Data: func(p Particle, runOpt, qter float64) Particle {
		p.Pt *= 2
		return p
	}}
	processor, err := NewProcessor(ProcessingConfig{Name: dataset.Name, DataMode: true}, corrector)
	require.NoError(t, err)

	summary, err := CorrectDataset(context.Background(), dataset, processor, nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{Read: 3, Emitted: 1, Skipped: 2}, summary)

	f, err := hdf5.OpenFile(dataset.OutputFilename(), hdf5.F_ACC_RDONLY)
	require.NoError(t, err)
	defer f.Close()
	group, err := f.OpenGroup("Events")
	require.NoError(t, err)
	defer group.Close()

	events, err := readTable[EventRowHDF5](group, "Events", EVENTS_TABLE)
	require.NoError(t, err)
	assert.Equal(t, []EventRowHDF5{{evt_number: 7, nMuon: 2}}, events)

	corrected, err := readTable[CorrectedMuonHDF5](group, "Events", CORRECTED_TABLE)
	require.NoError(t, err)
	require.Len(t, corrected, 2)
	assert.Equal(t, float32(81), corrected[0].pt)
	assert.Equal(t, float32(89.5), corrected[1].pt)

	dimuon, err := readTable[DimuonHDF5](group, "Events", DIMUON_TABLE)
	require.NoError(t, err)
	require.Len(t, dimuon, 1)
	input := sampleEvents()[0].Particles
	assert.InDelta(t, InvariantMass(input[0], input[1]), dimuon[0].dimuon_mass, 1e-3)
	doubled := []Particle{input[0], input[1]}
	doubled[0].Pt *= 2
	doubled[1].Pt *= 2
	assert.InDelta(t, InvariantMass(doubled[0], doubled[1]), dimuon[0].dimuon_mass_cor, 1e-3)
	assert.Equal(t, float32(-0.25), dimuon[0].eta_pos)
	assert.Equal(t, float32(0.5), dimuon[0].eta_neg)
}

func TestCorrectDatasetBulkHasNoDimuonTable(t *testing.T) {
	dir := t.TempDir()
	dataset := DatasetConfig{
		Name:       "all",
		FileIn:     filepath.Join(dir, "input.h5"),
		FileOut:    filepath.Join(dir, "output.h5"),
		Tree:       "Events",
		CorrectAll: true,
	}
	writeInputHDF5(t, dataset.FileIn, sampleEvents())

	processor, err := NewProcessor(ProcessingConfig{CorrectAll: true}, IdentityCorrector{})
	require.NoError(t, err)
	summary, err := CorrectDataset(context.Background(), dataset, processor, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Emitted)

	f, err := hdf5.OpenFile(dataset.FileOut, hdf5.F_ACC_RDONLY)
	require.NoError(t, err)
	defer f.Close()
	group, err := f.OpenGroup("Events")
	require.NoError(t, err)
	defer group.Close()

	corrected, err := readTable[CorrectedMuonHDF5](group, "Events", CORRECTED_TABLE)
	require.NoError(t, err)
	assert.Len(t, corrected, 3)
	_, err = readTable[DimuonHDF5](group, "Events", DIMUON_TABLE)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestCreateSinkROOTNeedsROOTSource(t *testing.T) {
	_, err := CreateSink(FormatROOT, filepath.Join(t.TempDir(), "out.root"), &MemorySource{}, BulkMode)
	assert.ErrorIs(t, err, ErrSinkUnavailable)
}

func TestFormatFromFilename(t *testing.T) {
	assert.Equal(t, FormatROOT, FormatFromFilename("/data/Run2012B_DoubleMuParked.root"))
	assert.Equal(t, FormatROOT, FormatFromFilename("SIM.ROOT"))
	assert.Equal(t, FormatHDF5, FormatFromFilename("events.h5"))

	dataset := DatasetConfig{Name: "Run2012B", FileIn: "/data/nano.root"}
	assert.Equal(t, "/data/Run2012B_Cor.root", dataset.OutputFilename())
}

func TestCorrectDatasetRemovesFailedOutput(t *testing.T) {
	dir := t.TempDir()
	dataset := DatasetConfig{
		Name:       "overflow",
		FileIn:     filepath.Join(dir, "input.h5"),
		Tree:       "Events",
		CorrectAll: true,
	}
	writeInputHDF5(t, dataset.FileIn, sampleEvents())

	processor, err := NewProcessor(ProcessingConfig{CorrectAll: true, MaxParticles: 1}, IdentityCorrector{})
	require.NoError(t, err)
	_, err = CorrectDataset(context.Background(), dataset, processor, nil)
	assert.ErrorIs(t, err, ErrMalformedEvent)
	assert.NoFileExists(t, dataset.OutputFilename())

	// The input is still readable
	source, err := OpenHDF5Source(dataset.FileIn, "Events")
	require.NoError(t, err)
	assert.NoError(t, source.Close())
}

func TestOutputFormatFollowsFileOut(t *testing.T) {
	dataset := DatasetConfig{Name: "Run2012B", FileIn: "/data/nano.root"}
	assert.Equal(t, FormatROOT, dataset.outputFormat())

	dataset.FileOut = "/out/Run2012B.h5"
	assert.Equal(t, FormatROOT, dataset.format())
	assert.Equal(t, FormatHDF5, dataset.outputFormat())
}
