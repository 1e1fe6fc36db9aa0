package main

import "testing"

// TestParamBoundsArePlayable verifies every tunable range is well-formed and
// that the break threshold stays below the tension meter's ceiling, so the
// optimizer can never emit a config in which the line cannot break.
func TestParamBoundsArePlayable(t *testing.T) {
	pv := NewParamVector()
	for _, spec := range pv.Specs {
		if spec.Min >= spec.Max {
			t.Errorf("%s: min %.2f must be below max %.2f", spec.Name, spec.Min, spec.Max)
		}
		if spec.Default < spec.Min || spec.Default > spec.Max {
			t.Errorf("%s: default %.2f outside [%.2f, %.2f]", spec.Name, spec.Default, spec.Min, spec.Max)
		}
		if spec.Name == "break_threshold" && spec.Max >= 100 {
			t.Errorf("break_threshold max %.2f must stay below 100", spec.Max)
		}
	}
}
