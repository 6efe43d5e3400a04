package corrections

import (
	"errors"
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// HDF5Sink writes the input tables of the emitted events followed by the
// extension tables of the run mode.
type HDF5Sink struct {
	File      *hdf5.File
	Filename  string
	Group     *hdf5.Group
	Events    *table
	Muons     *table
	Corrected *table
	Dimuon    *table
	Fields    []Field
	closed    bool
}

func CreateHDF5Sink(filename string, groupName string, mode Mode) (*HDF5Sink, error) {
	return newHDF5Sink(filename, groupName, OutputFields(mode))
}

// CreateHDF5EventWriter creates a file with the input layout only.
func CreateHDF5EventWriter(filename string, groupName string) (*HDF5Sink, error) {
	return newHDF5Sink(filename, groupName, nil)
}

func newHDF5Sink(filename string, groupName string, fields []Field) (*HDF5Sink, error) {
	logger.Info(fmt.Sprintf("Creating file: %s", filename), "hdf5writer")
	hdf5Mutex.Lock()
	defer hdf5Mutex.Unlock()
	file, err := openFile(filename)
	if err != nil {
		return nil, err
	}
	w := &HDF5Sink{File: file, Filename: filename, Fields: fields}

	fail := func(err error) (*HDF5Sink, error) {
		w.close()
		return nil, fmt.Errorf("%w: %w", ErrSinkUnavailable, err)
	}

	if w.Group, err = createGroup(file, groupName); err != nil {
		return fail(err)
	}
	if w.Events, err = createTable(w.Group, EVENTS_TABLE, EventRowHDF5{}); err != nil {
		return fail(err)
	}
	if w.Muons, err = createTable(w.Group, MUONS_TABLE, MuonRowHDF5{}); err != nil {
		return fail(err)
	}

	declared := make(map[FieldKind]bool)
	for _, field := range fields {
		declared[field.Kind] = true
	}
	if declared[PerParticle] {
		if w.Corrected, err = createTable(w.Group, CORRECTED_TABLE, CorrectedMuonHDF5{}); err != nil {
			return fail(err)
		}
	}
	if declared[Scalar] {
		if w.Dimuon, err = createTable(w.Group, DIMUON_TABLE, DimuonHDF5{}); err != nil {
			return fail(err)
		}
	}
	return w, nil
}

// WriteEvent copies the input fields of an event.
func (w *HDF5Sink) WriteEvent(event Event) error {
	if w.closed {
		return errSinkClosed
	}
	hdf5Mutex.Lock()
	defer hdf5Mutex.Unlock()
	return w.writeEvent(event)
}

func (w *HDF5Sink) writeEvent(event Event) error {
	err := appendRow(w.Events, EventRowHDF5{
		evt_number: event.Number,
		nMuon:      uint32(event.N()),
	})
	if err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrSinkUnavailable, EVENTS_TABLE, err)
	}

	muons := make([]MuonRowHDF5, event.N())
	for i, p := range event.Particles {
		muons[i] = MuonRowHDF5{
			pt:     float32(p.Pt),
			eta:    float32(p.Eta),
			phi:    float32(p.Phi),
			mass:   float32(p.Mass),
			charge: p.Charge,
		}
	}
	if err := appendRows(w.Muons, &muons); err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrSinkUnavailable, MUONS_TABLE, err)
	}
	return nil
}

func (w *HDF5Sink) Write(event *CorrectedEvent) error {
	if w.closed {
		return errSinkClosed
	}
	hdf5Mutex.Lock()
	defer hdf5Mutex.Unlock()

	if err := w.writeEvent(event.Event); err != nil {
		return err
	}

	if w.Corrected != nil {
		corrected := make([]CorrectedMuonHDF5, len(event.Corrected))
		for i, p := range event.Corrected {
			corrected[i] = CorrectedMuonHDF5{
				pt:   float32(p.Pt),
				eta:  float32(p.Eta),
				phi:  float32(p.Phi),
				mass: float32(p.Mass),
			}
		}
		if err := appendRows(w.Corrected, &corrected); err != nil {
			return fmt.Errorf("%w: writing %s: %w", ErrSinkUnavailable, CORRECTED_TABLE, err)
		}
	}

	if w.Dimuon != nil {
		if event.Dimuon == nil {
			return fmt.Errorf("event %d has no dimuon values", event.Entry)
		}
		err := appendRow(w.Dimuon, DimuonHDF5{
			dimuon_mass:     float32(event.Dimuon.Mass),
			dimuon_mass_cor: float32(event.Dimuon.MassCorrected),
			eta_pos:         float32(event.Dimuon.EtaPositive),
			eta_neg:         float32(event.Dimuon.EtaNegative),
		})
		if err != nil {
			return fmt.Errorf("%w: writing %s: %w", ErrSinkUnavailable, DIMUON_TABLE, err)
		}
	}
	return nil
}

func (w *HDF5Sink) Close() error {
	if w.closed {
		return errSinkClosed
	}
	logger.Info(fmt.Sprintf("Closing file hdf writer %s", w.Filename), "hdf5writer")
	hdf5Mutex.Lock()
	defer hdf5Mutex.Unlock()
	return w.close()
}

func (w *HDF5Sink) close() error {
	w.closed = true
	var errs []error

	tables := []struct {
		name  string
		table *table
	}{
		{EVENTS_TABLE, w.Events},
		{MUONS_TABLE, w.Muons},
		{CORRECTED_TABLE, w.Corrected},
		{DIMUON_TABLE, w.Dimuon},
	}
	for _, t := range tables {
		if t.table == nil {
			continue
		}
		if err := t.table.dataset.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s table: %w", t.name, err))
		}
	}
	if w.Group != nil {
		if err := w.Group.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing group: %w", err))
		}
	}
	if err := w.File.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrSinkUnavailable, errors.Join(errs...))
	}
	return nil
}
