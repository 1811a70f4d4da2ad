package embedding

import (
	"testing"
	"time"
)

func TestStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusPending, false},
		{StatusProcessing, false},
		{StatusComplete, true},
		{StatusFailed, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}

func TestStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusComplete, true},
		{StatusProcessing, StatusComplete, true},
		{StatusProcessing, StatusFailed, true},
		{StatusComplete, StatusProcessing, false},
		{StatusComplete, StatusFailed, false},
		{StatusFailed, StatusComplete, false},
		{StatusProcessing, StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.ok {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.ok)
			}
		})
	}
}

func TestNewEmbedding(t *testing.T) {
	vector := []float64{0.1, 0.2, 0.3}
	e := NewEmbedding(1, 2, "test-model", vector)

	if e.Status() != StatusComplete {
		t.Errorf("Status() = %v, want %v", e.Status(), StatusComplete)
	}
	if e.Dimension() != 3 {
		t.Errorf("Dimension() = %d, want 3", e.Dimension())
	}

	vector[0] = 99
	if e.Vector()[0] != 0.1 {
		t.Error("NewEmbedding must copy the input vector")
	}

	got := e.Vector()
	got[0] = 99
	if e.Vector()[0] != 0.1 {
		t.Error("Vector() must return a copy")
	}
}

func TestEmbedding_Validate(t *testing.T) {
	tests := []struct {
		name      string
		embedding Embedding
		wantErr   bool
	}{
		{"valid", NewEmbedding(1, 2, "m", []float64{1}), false},
		{"missing file", NewEmbedding(0, 2, "m", []float64{1}), true},
		{"missing row", NewEmbedding(1, 0, "m", []float64{1}), true},
		{"missing model", NewEmbedding(1, 2, "", []float64{1}), true},
		{"complete without vector", NewEmbedding(1, 2, "m", nil), true},
		{"failed without vector", ReconstructEmbedding(3, 1, 2, "m", StatusFailed, nil, time.Time{}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.embedding.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
