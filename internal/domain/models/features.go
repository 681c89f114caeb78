package models

import "time"

// FeatureVector is a fixed-order vector of named scalars produced per
// extraction call. Order and count are the serving contract between the
// engine and any trained model; see features.Config.Fingerprint.
type FeatureVector struct {
	Values []float64
	Names  []string
}

func (v FeatureVector) Len() int { return len(v.Values) }

// Label is the discretized future-return class.
// The numeric encoding (Down=0, Flat=1, Up=2) is part of the training wire
// format and must not be reordered.
type Label int

const (
	LabelDown Label = iota
	LabelFlat
	LabelUp
)

func (l Label) String() string {
	switch l {
	case LabelDown:
		return "down"
	case LabelUp:
		return "up"
	default:
		return "flat"
	}
}

// LabelForReturn discretizes a forward return. Values at exactly +-threshold
// are Flat; only strict exceedance moves the class.
func LabelForReturn(forwardReturn, threshold float64) Label {
	switch {
	case forwardReturn > threshold:
		return LabelUp
	case forwardReturn < -threshold:
		return LabelDown
	default:
		return LabelFlat
	}
}

// LabeledSample pairs a feature vector with its future-return label.
// Bucket is the timestamp of the window's last candle.
type LabeledSample struct {
	Features FeatureVector
	Label    Label
	Bucket   time.Time
}
