package corrections

// Corrector applies the muon momentum corrections. Real data and simulation
// use different calibrations, so there is one method for each.
//
// runOpt selects the run period of the data calibration, nTrk is the number
// of tracker layers used for the extra smearing in simulation and qter is the
// handle used to propagate the correction uncertainty.
type Corrector interface {
	CorrectData(p Particle, runOpt float64, qter float64) Particle
	CorrectMC(p Particle, nTrk float64, qter float64) Particle
}

// CorrectionParams are the extra arguments given to the corrector.
// They are fixed for the whole run.
type CorrectionParams struct {
	NTrk   float64 `json:"ntrk"`
	RunOpt float64 `json:"run_opt"`
	Qter   float64 `json:"qter"`
}

func DefaultCorrectionParams() CorrectionParams {
	// No run dependence for 2012 data
	return CorrectionParams{
		NTrk:   0,
		RunOpt: 0,
		Qter:   1.0,
	}
}

// CorrectorFuncs adapts a pair of functions to the Corrector interface.
// A nil function leaves the particle untouched.
type CorrectorFuncs struct {
	Data func(p Particle, runOpt float64, qter float64) Particle
	MC   func(p Particle, nTrk float64, qter float64) Particle
}

func (c CorrectorFuncs) CorrectData(p Particle, runOpt float64, qter float64) Particle {
	if c.Data == nil {
		return p
	}
	return c.Data(p, runOpt, qter)
}

func (c CorrectorFuncs) CorrectMC(p Particle, nTrk float64, qter float64) Particle {
	if c.MC == nil {
		return p
	}
	return c.MC(p, nTrk, qter)
}

// IdentityCorrector returns every particle unchanged.
type IdentityCorrector struct{}

func (IdentityCorrector) CorrectData(p Particle, runOpt float64, qter float64) Particle {
	return p
}

func (IdentityCorrector) CorrectMC(p Particle, nTrk float64, qter float64) Particle {
	return p
}

// bindCorrector picks the data or simulation variant once for the run.
func bindCorrector(c Corrector, isData bool, params CorrectionParams) func(Particle) Particle {
	if isData {
		return func(p Particle) Particle {
			return c.CorrectData(p, params.RunOpt, params.Qter)
		}
	}
	return func(p Particle) Particle {
		return c.CorrectMC(p, params.NTrk, params.Qter)
	}
}
