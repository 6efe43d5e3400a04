package corrections_test

import (
	"testing"

	corrections "github.com/anniinakinnunen/MuonCorrections/pkg"
	"github.com/stretchr/testify/assert"
)

func eventWithCharges(charges ...int32) corrections.Event {
	event := corrections.Event{Particles: make([]corrections.Particle, len(charges))}
	for i, q := range charges {
		event.Particles[i] = corrections.Particle{Pt: 10 + float64(i), Eta: float64(i) * 0.5, Charge: q}
	}
	return event
}

func TestSelectDimuon(t *testing.T) {
	tests := []struct {
		name     string
		charges  []int32
		accepted bool
		pair     corrections.DimuonPair
	}{
		{name: "no muons", charges: nil},
		{name: "one muon", charges: []int32{1}},
		{name: "three muons", charges: []int32{1, -1, 1}},
		{name: "three muons opposite pair first", charges: []int32{-1, 1, -1}},
		{name: "two positive", charges: []int32{1, 1}},
		{name: "two negative", charges: []int32{-1, -1}},
		{name: "neutral", charges: []int32{0, 1}},
		{name: "positive first", charges: []int32{1, -1}, accepted: true,
			pair: corrections.DimuonPair{Positive: 0, Negative: 1}},
		{name: "negative first", charges: []int32{-1, 1}, accepted: true,
			pair: corrections.DimuonPair{Positive: 1, Negative: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair, ok := corrections.SelectDimuon(eventWithCharges(tt.charges...))
			assert.Equal(t, tt.accepted, ok)
			if tt.accepted {
				assert.Equal(t, tt.pair, pair)
			}
		})
	}
}
