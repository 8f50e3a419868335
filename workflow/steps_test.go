// ABOUTME: Tests for step definitions: instruction rendering, JSON contract text, and arrival parsing.
// ABOUTME: Also covers the eat-mode and lodging branches and the field extractor.

package workflow

import (
	"strings"
	"testing"
)

func TestFlightInstructionEmbedsEndpointAndContract(t *testing.T) {
	def := flightStep(DefaultEndpoints())
	msg := def.Instruction(testParams(), Prior{}, NewDerivedInputs())

	for _, want := range []string{
		"https://real-flyunified.vercel.app/api/book",
		"From: JFK",
		"To: SFO",
		"Departure date: 2024-07-19",
		"Number of passengers: 2",
		"confirmation_number",
		"arrival_time",
		"Return JSON only",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("flight instruction missing %q:\n%s", want, msg)
		}
	}
}

func TestFlightInstructionIncludesReturnDateWhenSet(t *testing.T) {
	p := testParams()
	p.ReturnDate = "2024-07-22"
	def := flightStep(DefaultEndpoints())

	msg := def.Instruction(p, Prior{}, NewDerivedInputs())

	if !strings.Contains(msg, "Return date: 2024-07-22") {
		t.Errorf("expected return date in instruction:\n%s", msg)
	}
}

func TestMealInstructionSelectsProviderByEatMode(t *testing.T) {
	def := mealStep(DefaultEndpoints())

	out := def.Instruction(testParams(), Prior{}, NewDerivedInputs())
	if !strings.Contains(out, "real-opendining") || !strings.Contains(out, "reservation") {
		t.Errorf("eat-out should target the dining provider:\n%s", out)
	}

	p := testParams()
	p.EatMode = EatIn
	in := def.Instruction(p, Prior{}, NewDerivedInputs())
	if !strings.Contains(in, "real-dashdish") || !strings.Contains(in, "delivery") {
		t.Errorf("eat-in should target the food provider:\n%s", in)
	}
}

func TestLodgingInstructionSelectsProviderByPreference(t *testing.T) {
	def := lodgingStep(DefaultEndpoints())

	airbnb := def.Instruction(testParams(), Prior{}, NewDerivedInputs())
	if !strings.Contains(airbnb, "real-staynb") {
		t.Errorf("airbnb preference should target staynb:\n%s", airbnb)
	}

	p := testParams()
	p.Lodging = LodgingMarriott
	marriott := def.Instruction(p, Prior{}, NewDerivedInputs())
	if !strings.Contains(marriott, "real-marrisuite") {
		t.Errorf("marriott preference should target marrisuite:\n%s", marriott)
	}
}

func TestCalendarInstructionListsPriorConfirmations(t *testing.T) {
	def := calendarStep(DefaultEndpoints())
	prior := Prior{}
	flight := StepResult{Step: StepBuyFlight, Success: true}
	flight.SetField("confirmation_number", "FL99", SourceAgent)
	prior[StepBuyFlight] = flight
	prior[StepOrderRide] = Failure(StepOrderRide, "no drivers")

	msg := def.Instruction(testParams(), prior, NewDerivedInputs())

	if !strings.Contains(msg, "FL99") {
		t.Errorf("expected flight confirmation in calendar instruction:\n%s", msg)
	}
	if strings.Contains(msg, StepOrderRide) {
		t.Errorf("failed steps should not appear in calendar instruction:\n%s", msg)
	}
}

func TestParseArrivalTimeLayouts(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"16:45", true},
		{"4:45 PM", true},
		{"4:45PM", true},
		{"2024-07-19T16:45:00Z", true},
		{"2024-07-19 16:45", true},
		{"  16:45 ", true},
		{"around four", false},
		{"", false},
	}

	for _, tt := range tests {
		if _, ok := parseArrivalTime(tt.value); ok != tt.ok {
			t.Errorf("parseArrivalTime(%q): expected ok=%v", tt.value, tt.ok)
		}
	}
}

func TestExtractFieldsSkipsMissingKeys(t *testing.T) {
	extract := extractFields("a", "b")
	fields := extract(map[string]any{"a": 1.0, "c": "ignored"})

	if len(fields) != 1 || fields["a"] != 1.0 {
		t.Errorf("expected only present keys extracted, got %v", fields)
	}
}

func TestDefaultStepsOrder(t *testing.T) {
	steps := DefaultSteps(DefaultEndpoints())
	want := []string{StepBuyFlight, StepOrderRide, StepBookMeal, StepBookLodging, StepUpdateCalendar}
	if len(steps) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(steps))
	}
	for i, name := range want {
		if steps[i].Name != name {
			t.Errorf("steps[%d]: expected %q, got %q", i, name, steps[i].Name)
		}
	}
}
