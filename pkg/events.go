package corrections

// Upper bound of muons per event. Same size as the buffers of the
// NanoAOD readers.
const MAX_PARTICLES = 1000

type Particle struct {
	Pt     float64
	Eta    float64
	Phi    float64
	Mass   float64
	Charge int32
}

type Event struct {
	// Position of the event in the source
	Entry int64
	// Event number stored in the source, Entry if the source has none
	Number    int64
	Particles []Particle
}

func (e Event) N() int {
	return len(e.Particles)
}

type DimuonScalars struct {
	Mass          float64
	MassCorrected float64
	EtaPositive   float64
	EtaNegative   float64
}

// CorrectedEvent is what the processor hands to a sink. Corrected has the
// same length as Event.Particles. Dimuon is only set in selection mode.
type CorrectedEvent struct {
	Event
	Corrected []Particle
	Dimuon    *DimuonScalars
}
