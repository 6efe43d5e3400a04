package corrections

import (
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// HDF5Source reads events from the events/muons tables of a group.
// The whole group is loaded when the source is opened.
type HDF5Source struct {
	Filename string
	Group    string
	file     *hdf5.File
	events   []EventRowHDF5
	muons    []MuonRowHDF5
}

func OpenHDF5Source(filename string, groupName string) (*HDF5Source, error) {
	hdf5Mutex.Lock()
	defer hdf5Mutex.Unlock()

	f, err := hdf5.OpenFile(filename, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	source := &HDF5Source{Filename: filename, Group: groupName, file: f}

	group, err := f.OpenGroup(groupName)
	if err != nil {
		f.Close()
		return nil, &ErrRecordGroup{GroupName: groupName, Err: err}
	}
	defer group.Close()

	source.events, err = readTable[EventRowHDF5](group, groupName, EVENTS_TABLE)
	if err != nil {
		f.Close()
		return nil, err
	}
	source.muons, err = readTable[MuonRowHDF5](group, groupName, MUONS_TABLE)
	if err != nil {
		f.Close()
		return nil, err
	}
	logger.Info(fmt.Sprintf("%s: %d events, %d muons in group %s",
		filename, len(source.events), len(source.muons), groupName), "hdf5Reader")
	return source, nil
}

func (s *HDF5Source) NumEvents() int {
	return len(s.events)
}

func (s *HDF5Source) Scan(fn func(event Event) error) error {
	// Every row of the muons table belongs to exactly one event
	total := 0
	for _, row := range s.events {
		total += int(row.nMuon)
	}
	if total != len(s.muons) {
		return fmt.Errorf("%w: events add up to %d muons, %s table has %d rows",
			ErrMalformedEvent, total, MUONS_TABLE, len(s.muons))
	}

	position := 0
	for i, row := range s.events {
		n := int(row.nMuon)
		event := Event{
			Entry:     int64(i),
			Number:    row.evt_number,
			Particles: make([]Particle, n),
		}
		for j, muon := range s.muons[position : position+n] {
			event.Particles[j] = Particle{
				Pt:     float64(muon.pt),
				Eta:    float64(muon.eta),
				Phi:    float64(muon.phi),
				Mass:   float64(muon.mass),
				Charge: muon.charge,
			}
		}
		position += n
		if err := fn(event); err != nil {
			return err
		}
	}
	return nil
}

func (s *HDF5Source) Close() error {
	if s.file == nil {
		return nil
	}
	hdf5Mutex.Lock()
	defer hdf5Mutex.Unlock()
	err := s.file.Close()
	s.file = nil
	return err
}
