package model

import "encoding/json"

// ROI is a return-on-investment ratio that may be undefined. A zero-cost
// intervention has no meaningful ratio: it is represented as Undefined
// rather than +Inf so that aggregate sums never see a non-finite float.
// Undefined ranks ahead of every finite ratio and counts as positive.
type ROI struct {
	ratio   float64
	defined bool
}

func FiniteROI(ratio float64) ROI {
	return ROI{ratio: ratio, defined: true}
}

func UndefinedROI() ROI {
	return ROI{}
}

func (r ROI) Defined() bool {
	return r.defined
}

// Ratio returns the finite ratio and whether it is defined.
func (r ROI) Ratio() (float64, bool) {
	return r.ratio, r.defined
}

// Positive reports whether the ROI clears the selection bar. An undefined
// ROI is a free intervention and is always worth taking.
func (r ROI) Positive() bool {
	if !r.defined {
		return true
	}
	return r.ratio > 0
}

// Better reports whether r ranks ahead of other in descending-ROI order.
// Undefined never compares: it sorts first and ties with itself.
func (r ROI) Better(other ROI) bool {
	if !r.defined {
		return other.defined
	}
	if !other.defined {
		return false
	}
	return r.ratio > other.ratio
}

type roiJSON struct {
	Ratio   *float64 `json:"ratio"`
	Defined bool     `json:"defined"`
}

func (r ROI) MarshalJSON() ([]byte, error) {
	out := roiJSON{Defined: r.defined}
	if r.defined {
		v := r.ratio
		out.Ratio = &v
	}
	return json.Marshal(out)
}

func (r *ROI) UnmarshalJSON(data []byte) error {
	var in roiJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Defined && in.Ratio != nil {
		*r = FiniteROI(*in.Ratio)
		return nil
	}
	*r = UndefinedROI()
	return nil
}
