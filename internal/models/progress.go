package models

import "math"

// ProgressPercentage returns the key result's progress. Percentage results
// are not clamped, number results are capped at 100 and boolean results are
// either 0 or 100. A zero target yields a non-finite value; see FiniteOrZero.
func (k *KeyResult) ProgressPercentage() float64 {
	switch k.Type {
	case KeyResultTypeBoolean:
		if k.CurrentValue == k.TargetValue {
			return 100
		}
		return 0
	case KeyResultTypeNumber:
		return math.Min(k.CurrentValue/k.TargetValue*100, 100)
	default:
		return k.CurrentValue / k.TargetValue * 100
	}
}

// ProgressPercentage returns the mean key result progress clamped to [0, 100].
// An objective without key results has progress 0.
func (o *Objective) ProgressPercentage() float64 {
	return AggregateProgress(o.KeyResults)
}

// AggregateProgress averages the progress of krs and clamps it to [0, 100].
// NaN propagates; callers coalesce with FiniteOrZero.
func AggregateProgress(krs []KeyResult) float64 {
	if len(krs) == 0 {
		return 0
	}

	var sum float64
	for i := range krs {
		sum += krs[i].ProgressPercentage()
	}
	avg := sum / float64(len(krs))

	return math.Max(math.Min(avg, 100), 0)
}

// FiniteOrZero maps NaN and ±Inf to 0.
func FiniteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
