// ABOUTME: LocalRunner: the documented fallback strategy used when no agent credentials are configured.
// ABOUTME: Implements the same StepRunner contract with deterministic, fallback-sourced results.

package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalRunner executes steps without the remote agent. Every surfaced field
// is tagged SourceFallback so consumers can tell synthesized data from
// agent-reported data.
type LocalRunner struct {
	// Now is the clock used for synthesized times. Nil means time.Now.
	Now func() time.Time
}

// RunStep produces a deterministic successful result for the step. The
// instruction is still rendered so derived inputs (and their provenance)
// flow exactly as they would on the agent-backed path.
func (r *LocalRunner) RunStep(ctx context.Context, def StepDef, p Params, prior Prior, slog *StateLog) StepResult {
	derived := NewDerivedInputs()
	_ = def.Instruction(p, prior, derived)

	result := StepResult{Step: def.Name, Success: true}
	for name, value := range r.localFields(def.Name, p) {
		result.SetField(name, value, SourceFallback)
	}
	for name, value := range derived.fields {
		result.SetField(name, value, derived.sources[name])
	}

	slog.Append(StateEntry{
		Step:     fmt.Sprintf("Local %s", def.Title),
		Success:  true,
		Attempts: 1,
	})
	return result
}

// localFields synthesizes plausible per-step values. Confirmation numbers
// are unique per run; times are fixed so dependent steps behave the same on
// every local run.
func (r *LocalRunner) localFields(step string, p Params) map[string]any {
	conf := "LOCAL-" + strings.ToUpper(uuid.NewString()[:8])
	switch step {
	case StepBuyFlight:
		return map[string]any{
			"confirmation_number": conf,
			"flight_number":       "FU-1492",
			"departure_time":      "13:30",
			"arrival_time":        "16:45",
			"price":               199.0 * float64(p.NumTravelers),
		}
	case StepOrderRide:
		return map[string]any{
			"confirmation_number": conf,
			"driver_name":         "Standby Driver",
			"eta":                 "10 min",
			"price":               32.0,
		}
	case StepBookMeal:
		fields := map[string]any{
			"confirmation_number": conf,
			"restaurant":          "The Fallback Table",
		}
		if p.EatMode == EatIn {
			fields["delivery_time"] = "19:30"
		} else {
			fields["reservation_time"] = "19:30"
		}
		return fields
	case StepBookLodging:
		property := "Staynb Loft"
		if p.Lodging == LodgingMarriott {
			property = "Marrisuite Downtown"
		}
		return map[string]any{
			"confirmation_number": conf,
			"property_name":       property,
			"check_in":            p.DepartDate,
			"check_out":           p.ReturnDate,
		}
	case StepUpdateCalendar:
		return map[string]any{
			"confirmation_number": conf,
			"events_created":      4.0,
		}
	default:
		return map[string]any{"confirmation_number": conf}
	}
}
