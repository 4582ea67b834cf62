package model

import (
	"errors"
	"fmt"
)

// Label is the forecast signal attached to one period.
type Label int8

const (
	LabelCharge    Label = -1
	LabelHold      Label = 0
	LabelDischarge Label = 1
)

// ErrInvalidLabel is returned when a raw value is not one of -1, 0 or 1.
var ErrInvalidLabel = errors.New("invalid forecast label")

func (l Label) String() string {
	switch l {
	case LabelCharge:
		return "charge"
	case LabelDischarge:
		return "discharge"
	case LabelHold:
		return "hold"
	default:
		return fmt.Sprintf("label(%d)", int8(l))
	}
}

// LabelsFromInts converts raw integer signals, rejecting anything outside {-1,0,1}.
func LabelsFromInts(raw []int) ([]Label, error) {
	out := make([]Label, len(raw))
	for i, v := range raw {
		if v < -1 || v > 1 {
			return nil, fmt.Errorf("period %d value %d: %w", i, v, ErrInvalidLabel)
		}
		out[i] = Label(v)
	}
	return out, nil
}

// LabelsToInts is the inverse of LabelsFromInts.
func LabelsToInts(labels []Label) []int {
	out := make([]int, len(labels))
	for i, l := range labels {
		out[i] = int(l)
	}
	return out
}

// ErrLengthMismatch is returned when a label series is not aligned with its price series.
var ErrLengthMismatch = errors.New("label series length does not match price series")

// CheckAligned rejects label series whose length differs from the price series.
func CheckAligned(prices []float64, labels []Label) error {
	if len(prices) != len(labels) {
		return fmt.Errorf("%w: %d prices, %d labels", ErrLengthMismatch, len(prices), len(labels))
	}
	return nil
}
