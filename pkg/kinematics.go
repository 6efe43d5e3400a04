package corrections

import (
	"go-hep.org/x/hep/fmom"
)

func FourMomentum(p Particle) fmom.PtEtaPhiM {
	return fmom.NewPtEtaPhiM(p.Pt, p.Eta, p.Phi, p.Mass)
}

func FromFourMomentum(p4 fmom.P4, charge int32) Particle {
	return Particle{
		Pt:     p4.Pt(),
		Eta:    p4.Eta(),
		Phi:    p4.Phi(),
		Mass:   p4.M(),
		Charge: charge,
	}
}

// InvariantMass returns the mass of the system made of two particles.
// Both four-vectors are summed in cartesian coordinates, so the result does
// not depend on the order of the arguments.
func InvariantMass(p1 Particle, p2 Particle) float64 {
	m1 := FourMomentum(p1)
	m2 := FourMomentum(p2)
	return fmom.Add(&m1, &m2).M()
}
