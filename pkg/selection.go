package corrections

// DimuonPair holds the indices of the positive and the negative muon
// of an accepted event.
type DimuonPair struct {
	Positive int
	Negative int
}

// SelectDimuon accepts events with exactly two muons of opposite charge.
func SelectDimuon(event Event) (DimuonPair, bool) {
	if event.N() != 2 {
		return DimuonPair{}, false
	}
	q0 := event.Particles[0].Charge
	q1 := event.Particles[1].Charge
	if int64(q0)*int64(q1) >= 0 {
		return DimuonPair{}, false
	}
	if q0 > 0 {
		return DimuonPair{Positive: 0, Negative: 1}, true
	}
	return DimuonPair{Positive: 1, Negative: 0}, true
}
