package models

import "time"

// DatasetRecord is one labeled training row on the wire. Fingerprint pins
// the feature layout the row was extracted with; a trainer must refuse to
// mix rows with different fingerprints.
type DatasetRecord struct {
	Symbol      string    `json:"symbol"`
	Timeframe   string    `json:"timeframe"`
	Fingerprint string    `json:"fingerprint"`
	Bucket      time.Time `json:"bucket"`
	Values      []float64 `json:"values"`
	Label       int       `json:"label"` // Down=0, Flat=1, Up=2
}

// Dataset is the matrix-shaped (X, y) view handed to the model-training
// collaborator.
type Dataset struct {
	Symbol      string      `json:"symbol"`
	Timeframe   string      `json:"timeframe"`
	Fingerprint string      `json:"fingerprint"`
	Names       []string    `json:"names"`
	X           [][]float64 `json:"x"`
	Y           []int       `json:"y"`
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return len(d.Y) }

// LabelCounts returns sample counts per class, indexed by Label.
func (d *Dataset) LabelCounts() [3]int {
	var counts [3]int
	for _, y := range d.Y {
		if y >= 0 && y < 3 {
			counts[y]++
		}
	}
	return counts
}
