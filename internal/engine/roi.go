package engine

import "vitalsched/internal/model"

// InterventionROI computes the expected return of a single intervention.
// The intervention recovers a fraction of the at-risk probability mass:
// new attendance = (1-s) + s*e, so the expected value increase is
// s*e*appointmentValue. A zero-cost intervention has no ratio and yields
// the undefined ROI.
func (e *Engine) InterventionROI(riskScore float64, iv model.InterventionType, appointmentValue float64) model.ROI {
	if iv.Cost <= 0 {
		return model.UndefinedROI()
	}
	valueIncrease := riskScore * iv.Effectiveness * appointmentValue
	return model.FiniteROI((valueIncrease - iv.Cost) / iv.Cost)
}
