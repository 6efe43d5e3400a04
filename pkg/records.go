package corrections

import (
	"errors"
)

// RecordSource feeds events to the processor in file order.
// Scan stops at the first error returned by fn and returns it.
type RecordSource interface {
	Scan(fn func(event Event) error) error
	Close() error
}

// RecordSink receives the corrected events in call order. Close finalizes
// the output and must be called once. An output whose Close was not called
// or failed is not valid.
type RecordSink interface {
	Write(event *CorrectedEvent) error
	Close() error
}

type FieldKind int

const (
	// One value per muon, sized by nMuon
	PerParticle FieldKind = iota
	// One value per event
	Scalar
)

type Field struct {
	Name string
	Kind FieldKind
}

var particleFields = []Field{
	{Name: "Muon_pt_cor", Kind: PerParticle},
	{Name: "Muon_eta_cor", Kind: PerParticle},
	{Name: "Muon_phi_cor", Kind: PerParticle},
	{Name: "Muon_mass_cor", Kind: PerParticle},
}

var dimuonFields = []Field{
	{Name: "Dimuon_mass", Kind: Scalar},
	{Name: "Dimuon_mass_cor", Kind: Scalar},
	{Name: "Muon_eta_pos", Kind: Scalar},
	{Name: "Muon_eta_neg", Kind: Scalar},
}

// OutputFields returns the fields a sink adds to the source schema.
func OutputFields(mode Mode) []Field {
	fields := make([]Field, 0, len(particleFields)+len(dimuonFields))
	fields = append(fields, particleFields...)
	if mode == SelectionMode {
		fields = append(fields, dimuonFields...)
	}
	return fields
}

// fieldValues returns the values of the extension fields of an event, keyed
// by field name. Per-particle fields are float32 slices and scalars float32,
// the types used in the output files.
func fieldValues(event *CorrectedEvent) map[string]any {
	n := len(event.Corrected)
	pt := make([]float32, n)
	eta := make([]float32, n)
	phi := make([]float32, n)
	mass := make([]float32, n)
	for i, p := range event.Corrected {
		pt[i] = float32(p.Pt)
		eta[i] = float32(p.Eta)
		phi[i] = float32(p.Phi)
		mass[i] = float32(p.Mass)
	}
	values := map[string]any{
		"Muon_pt_cor":   pt,
		"Muon_eta_cor":  eta,
		"Muon_phi_cor":  phi,
		"Muon_mass_cor": mass,
	}
	if event.Dimuon != nil {
		values["Dimuon_mass"] = float32(event.Dimuon.Mass)
		values["Dimuon_mass_cor"] = float32(event.Dimuon.MassCorrected)
		values["Muon_eta_pos"] = float32(event.Dimuon.EtaPositive)
		values["Muon_eta_neg"] = float32(event.Dimuon.EtaNegative)
	}
	return values
}

var errSinkClosed = errors.New("sink already closed")

// MemorySink keeps every written event. Used for dry runs and tests.
type MemorySink struct {
	Events []CorrectedEvent
	Closed bool
}

func NewMemorySink() *MemorySink {
	return &MemorySink{Events: make([]CorrectedEvent, 0)}
}

func (s *MemorySink) Write(event *CorrectedEvent) error {
	if s.Closed {
		return errSinkClosed
	}
	s.Events = append(s.Events, *event)
	return nil
}

func (s *MemorySink) Close() error {
	if s.Closed {
		return errSinkClosed
	}
	s.Closed = true
	return nil
}

// MemorySource serves events from a slice.
type MemorySource struct {
	Events []Event
}

func (s *MemorySource) Scan(fn func(event Event) error) error {
	for i, event := range s.Events {
		event.Entry = int64(i)
		if err := fn(event); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemorySource) Close() error {
	return nil
}
