package corrections

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

type Mode int

const (
	// Every muon of every non-empty event is corrected
	BulkMode Mode = iota
	// Only events with two opposite-charge muons are corrected
	SelectionMode
)

func (m Mode) String() string {
	switch m {
	case BulkMode:
		return "bulk"
	case SelectionMode:
		return "selection"
	default:
		return "unknown"
	}
}

type ProcessingConfig struct {
	// Name used in logs and metrics
	Name string
	// Real data if true, simulation otherwise
	DataMode bool
	// Bulk mode if true, selection mode otherwise
	CorrectAll   bool
	Params       CorrectionParams
	MaxParticles int
}

func (c ProcessingConfig) Mode() Mode {
	if c.CorrectAll {
		return BulkMode
	}
	return SelectionMode
}

type Summary struct {
	Read    int
	Emitted int
	Skipped int
}

type Processor struct {
	config   ProcessingConfig
	correct  func(Particle) Particle
	handle   func(event Event) *CorrectedEvent
	counters *eventCounters
}

type ProcessorOption func(*Processor) error

// WithMeter records the event counters with the given meter instead of the
// global one.
func WithMeter(meter metric.Meter) ProcessorOption {
	return func(p *Processor) error {
		c, err := newEventCounters(meter)
		if err != nil {
			return err
		}
		p.counters = c
		return nil
	}
}

func NewProcessor(config ProcessingConfig, corrector Corrector, opts ...ProcessorOption) (*Processor, error) {
	if corrector == nil {
		return nil, fmt.Errorf("processor %q: nil corrector", config.Name)
	}
	if config.MaxParticles <= 0 {
		config.MaxParticles = MAX_PARTICLES
	}
	p := &Processor{
		config:  config,
		correct: bindCorrector(corrector, config.DataMode, config.Params),
	}
	switch config.Mode() {
	case BulkMode:
		p.handle = p.correctAll
	case SelectionMode:
		p.handle = p.correctDimuon
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if p.counters == nil {
		c, err := getCounters()
		if err != nil {
			logger.Error(fmt.Sprintf("metrics disabled: %v", err))
		}
		p.counters = c
	}
	return p, nil
}

func (p *Processor) Config() ProcessingConfig {
	return p.config
}

// Process corrects one event. It returns nil if the event is skipped.
func (p *Processor) Process(event Event) (*CorrectedEvent, error) {
	if event.N() > p.config.MaxParticles {
		return nil, &ErrTooManyParticles{Entry: event.Entry, N: event.N(), Max: p.config.MaxParticles}
	}
	return p.handle(event), nil
}

func (p *Processor) correctAll(event Event) *CorrectedEvent {
	if event.N() == 0 {
		return nil
	}
	corrected := make([]Particle, event.N())
	for i, muon := range event.Particles {
		corrected[i] = p.correct(muon)
	}
	return &CorrectedEvent{Event: event, Corrected: corrected}
}

func (p *Processor) correctDimuon(event Event) *CorrectedEvent {
	pair, ok := SelectDimuon(event)
	if !ok {
		return nil
	}
	muons := event.Particles
	dimuon := &DimuonScalars{
		Mass:        InvariantMass(muons[0], muons[1]),
		EtaPositive: muons[pair.Positive].Eta,
		EtaNegative: muons[pair.Negative].Eta,
	}

	corrected := make([]Particle, 2)
	for i, muon := range muons {
		corrected[i] = p.correct(muon)
	}
	dimuon.MassCorrected = InvariantMass(corrected[0], corrected[1])

	return &CorrectedEvent{Event: event, Corrected: corrected, Dimuon: dimuon}
}

// Run reads every event of the source, corrects it and writes the accepted
// ones to the sink. The sink is closed at the end of a successful run; on
// error it is left open and its content must be discarded.
func (p *Processor) Run(ctx context.Context, source RecordSource, sink RecordSink) (Summary, error) {
	var summary Summary
	module := "processor"
	logger.Info(fmt.Sprintf("[%s] Looping over events (%s mode, data: %t)",
		p.config.Name, p.config.Mode(), p.config.DataMode), module)

	err := source.Scan(func(event Event) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		summary.Read++
		corrected, err := p.Process(event)
		if err != nil {
			return err
		}
		if corrected == nil {
			summary.Skipped++
			p.counters.record(ctx, p.config.Name, false)
			return nil
		}
		if err := sink.Write(corrected); err != nil {
			return fmt.Errorf("error writing event %d: %w", event.Entry, err)
		}
		summary.Emitted++
		p.counters.record(ctx, p.config.Name, true)
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("run %q: %w", p.config.Name, err)
	}

	logger.Info(fmt.Sprintf("[%s] Writing output: %d events read, %d written, %d skipped",
		p.config.Name, summary.Read, summary.Emitted, summary.Skipped), module)
	if err := sink.Close(); err != nil {
		return summary, fmt.Errorf("run %q: error closing output: %w", p.config.Name, err)
	}
	return summary, nil
}
