package corrections

type CalibrationConfig struct {
	// mysql or sqlite. Empty means no calibration.
	Driver    string `json:"driver"`
	Host      string `json:"host"`
	User      string `json:"user"`
	Passwd    string `json:"pass"`
	DBName    string `json:"dbname"`
	Path      string `json:"path"`
	RunNumber int    `json:"run_number"`
}

// DatasetConfig describes one dataset to correct.
type DatasetConfig struct {
	Name       string `json:"name"`
	FileIn     string `json:"file_in"`
	Tree       string `json:"tree"`
	FileOut    string `json:"file_out"`
	Format     Format `json:"format"`
	IsData     bool   `json:"is_data"`
	CorrectAll bool   `json:"correct_all"`
}

type Configuration struct {
	Verbosity    int               `json:"verbosity"`
	NumWorkers   int               `json:"num_workers"`
	MaxParticles int               `json:"max_particles"`
	NTrk         float64           `json:"ntrk"`
	RunOpt       float64           `json:"run_opt"`
	Qter         float64           `json:"qter"`
	Calibration  CalibrationConfig `json:"calibration"`
	Runs         []DatasetConfig   `json:"runs"`
}

func (c Configuration) Params() CorrectionParams {
	return CorrectionParams{
		NTrk:   c.NTrk,
		RunOpt: c.RunOpt,
		Qter:   c.Qter,
	}
}

// ProcessingConfig returns the processor settings of one dataset.
func (c Configuration) ProcessingConfig(run DatasetConfig) ProcessingConfig {
	return ProcessingConfig{
		Name:         run.Name,
		DataMode:     run.IsData,
		CorrectAll:   run.CorrectAll,
		Params:       c.Params(),
		MaxParticles: c.MaxParticles,
	}
}
