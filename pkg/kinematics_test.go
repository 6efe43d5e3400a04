package corrections_test

import (
	"math"
	"testing"

	corrections "github.com/anniinakinnunen/MuonCorrections/pkg"
	"github.com/stretchr/testify/assert"
)

const muonMass = 0.1056583745

// dimuonMass is the textbook formula m² = m1² + m2² + 2(E1E2 - p1·p2).
func dimuonMass(a, b corrections.Particle) float64 {
	cartesian := func(p corrections.Particle) (float64, float64, float64, float64) {
		px := p.Pt * math.Cos(p.Phi)
		py := p.Pt * math.Sin(p.Phi)
		pz := p.Pt * math.Sinh(p.Eta)
		e := math.Sqrt(px*px + py*py + pz*pz + p.Mass*p.Mass)
		return px, py, pz, e
	}
	ax, ay, az, ae := cartesian(a)
	bx, by, bz, be := cartesian(b)
	m2 := a.Mass*a.Mass + b.Mass*b.Mass + 2*(ae*be-ax*bx-ay*by-az*bz)
	return math.Sqrt(m2)
}

func TestInvariantMassClosedForm(t *testing.T) {
	tests := []struct {
		name     string
		p1, p2   corrections.Particle
		expected float64
	}{
		{
			name:     "back to back massless",
			p1:       corrections.Particle{Pt: 45, Eta: 0, Phi: 0},
			p2:       corrections.Particle{Pt: 45, Eta: 0, Phi: math.Pi},
			expected: 90,
		},
		{
			name:     "perpendicular massless",
			p1:       corrections.Particle{Pt: 10, Eta: 0, Phi: 0},
			p2:       corrections.Particle{Pt: 10, Eta: 0, Phi: math.Pi / 2},
			expected: 10 * math.Sqrt2,
		},
		{
			name:     "collinear massless",
			p1:       corrections.Particle{Pt: 10, Eta: 0, Phi: 0},
			p2:       corrections.Particle{Pt: 10, Eta: 0, Phi: 0},
			expected: 0,
		},
		{
			name:     "both at rest",
			p1:       corrections.Particle{Pt: 0, Eta: 0, Phi: 0, Mass: muonMass},
			p2:       corrections.Particle{Pt: 0, Eta: 0, Phi: 0, Mass: muonMass},
			expected: 2 * muonMass,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, corrections.InvariantMass(tt.p1, tt.p2), 1e-9)
		})
	}
}

func TestInvariantMassMatchesFormula(t *testing.T) {
	mu1 := corrections.Particle{Pt: 40.2, Eta: 0.51, Phi: 0.13, Mass: muonMass, Charge: 1}
	mu2 := corrections.Particle{Pt: 44.7, Eta: -0.32, Phi: -2.95, Mass: muonMass, Charge: -1}

	assert.InDelta(t, dimuonMass(mu1, mu2), corrections.InvariantMass(mu1, mu2), 1e-9)
}

func TestInvariantMassCommutative(t *testing.T) {
	muons := []corrections.Particle{
		{Pt: 3.2, Eta: 2.3, Phi: -3.1, Mass: muonMass},
		{Pt: 25.0, Eta: -1.1, Phi: 0.4, Mass: muonMass},
		{Pt: 61.7, Eta: 0.02, Phi: 1.9, Mass: muonMass},
		{Pt: 120.5, Eta: -2.4, Phi: -0.7, Mass: 0},
		{Pt: 7.7, Eta: 1.2, Phi: 2.6, Mass: 0.5},
	}
	for _, a := range muons {
		for _, b := range muons {
			assert.Equal(t, corrections.InvariantMass(a, b), corrections.InvariantMass(b, a))
		}
	}
}
