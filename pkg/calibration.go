package corrections

import (
	"sort"

	"go-hep.org/x/hep/fmom"
)

// ScaleBin is one cell of the momentum scale calibration.
type ScaleBin struct {
	EtaMin float64 `db:"EtaMin"`
	EtaMax float64 `db:"EtaMax"`
	PhiMin float64 `db:"PhiMin"`
	PhiMax float64 `db:"PhiMax"`
	Scale  float64 `db:"Scale"`
	Shift  float64 `db:"Shift"`
}

func (b ScaleBin) contains(eta float64, phi float64) bool {
	return eta >= b.EtaMin && eta < b.EtaMax && phi >= b.PhiMin && phi < b.PhiMax
}

// ScaleCorrector corrects the curvature of the muon track:
//
//	k = 1/pt
//	k' = k*Scale + charge*Shift*qter
//
// Eta, phi and mass are kept. Muons outside every bin are not corrected.
type ScaleCorrector struct {
	Data []ScaleBin
	MC   []ScaleBin
}

func NewScaleCorrector(data []ScaleBin, mc []ScaleBin) *ScaleCorrector {
	return &ScaleCorrector{
		Data: sortBins(data),
		MC:   sortBins(mc),
	}
}

func sortBins(bins []ScaleBin) []ScaleBin {
	sorted := make([]ScaleBin, len(bins))
	copy(sorted, bins)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].EtaMin != sorted[j].EtaMin {
			return sorted[i].EtaMin < sorted[j].EtaMin
		}
		return sorted[i].PhiMin < sorted[j].PhiMin
	})
	return sorted
}

func (c *ScaleCorrector) CorrectData(p Particle, runOpt float64, qter float64) Particle {
	return applyScale(c.Data, p, qter)
}

// nTrk is not used by the scale-only calibration.
func (c *ScaleCorrector) CorrectMC(p Particle, nTrk float64, qter float64) Particle {
	return applyScale(c.MC, p, qter)
}

func applyScale(bins []ScaleBin, p Particle, qter float64) Particle {
	if p.Pt <= 0 {
		return p
	}
	for _, bin := range bins {
		if !bin.contains(p.Eta, p.Phi) {
			continue
		}
		curvature := 1.0/p.Pt*bin.Scale + float64(p.Charge)*bin.Shift*qter
		if curvature <= 0 {
			return p
		}
		p4 := fmom.NewPtEtaPhiM(1.0/curvature, p.Eta, p.Phi, p.Mass)
		return FromFourMomentum(&p4, p.Charge)
	}
	return p
}
