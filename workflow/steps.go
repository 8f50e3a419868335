// ABOUTME: The five concrete step definitions: flight, ride, meal, lodging, calendar.
// ABOUTME: Instruction templates embed provider URLs and the JSON contract the agent must return.

package workflow

import (
	"fmt"
	"strings"
	"time"
)

// Step names, in pipeline order.
const (
	StepBuyFlight      = "buy_flight"
	StepOrderRide      = "order_ride"
	StepBookMeal       = "book_meal"
	StepBookLodging    = "book_lodging"
	StepUpdateCalendar = "update_calendar"
)

// fallbackPickupTime is substituted when the flight step produced no
// parseable arrival time. Deterministic so reruns are comparable.
const fallbackPickupTime = "18:00"

// pickupLeadTime is how long after landing the ride is scheduled.
const pickupLeadTime = 45 * time.Minute

// DefaultSteps returns the ordered step definitions for the fly-out
// workflow against the given provider catalog.
func DefaultSteps(e Endpoints) []StepDef {
	return []StepDef{
		flightStep(e),
		rideStep(e),
		mealStep(e),
		lodgingStep(e),
		calendarStep(e),
	}
}

func flightStep(e Endpoints) StepDef {
	return StepDef{
		Name:  StepBuyFlight,
		Title: "Flight",
		Instruction: func(p Params, _ Prior, _ *DerivedInputs) string {
			var b strings.Builder
			fmt.Fprintf(&b, "Go to %s and book a flight with:\n", e.Flight)
			fmt.Fprintf(&b, "- From: %s\n", p.From)
			fmt.Fprintf(&b, "- To: %s\n", p.To)
			fmt.Fprintf(&b, "- Departure date: %s\n", p.DepartDate)
			if p.ReturnDate != "" {
				fmt.Fprintf(&b, "- Return date: %s\n", p.ReturnDate)
			}
			fmt.Fprintf(&b, "- Number of passengers: %d\n\n", p.NumTravelers)
			b.WriteString("Return JSON only, with keys: success, confirmation_number, " +
				"departure_time, arrival_time, flight_number, price, status, details. " +
				"If failed, set success:false and include error.")
			return b.String()
		},
		Extract: extractFields("confirmation_number", "arrival_time", "departure_time", "flight_number", "price"),
	}
}

func rideStep(e Endpoints) StepDef {
	return StepDef{
		Name:  StepOrderRide,
		Title: "Ride",
		Instruction: func(p Params, prior Prior, derived *DerivedInputs) string {
			pickup := derivePickupTime(prior, derived)
			var b strings.Builder
			fmt.Fprintf(&b, "Go to %s and order a ride with:\n", e.Ride)
			fmt.Fprintf(&b, "- Pickup location: %s airport\n", p.To)
			fmt.Fprintf(&b, "- Pickup time: %s on %s\n", pickup, p.DepartDate)
			fmt.Fprintf(&b, "- Passengers: %d\n\n", p.NumTravelers)
			b.WriteString("Return JSON only, with keys: success, confirmation_number, " +
				"driver_name, pickup_time, eta, price. " +
				"If failed, set success:false and include error.")
			return b.String()
		},
		Extract: extractFields("confirmation_number", "driver_name", "eta", "price"),
	}
}

func mealStep(e Endpoints) StepDef {
	return StepDef{
		Name:  StepBookMeal,
		Title: "Meal",
		Instruction: func(p Params, _ Prior, _ *DerivedInputs) string {
			var b strings.Builder
			if p.EatMode == EatIn {
				fmt.Fprintf(&b, "Go to %s and order food delivery with:\n", e.Food)
				fmt.Fprintf(&b, "- Delivery date: %s evening\n", p.DepartDate)
				fmt.Fprintf(&b, "- People: %d\n\n", p.NumTravelers)
				b.WriteString("Return JSON only, with keys: success, confirmation_number, " +
					"restaurant, delivery_time, total_price. " +
					"If failed, set success:false and include error.")
			} else {
				fmt.Fprintf(&b, "Go to %s and book a dinner reservation with:\n", e.Dining)
				fmt.Fprintf(&b, "- Date: %s\n", p.DepartDate)
				fmt.Fprintf(&b, "- Party size: %d\n\n", p.NumTravelers)
				b.WriteString("Return JSON only, with keys: success, confirmation_number, " +
					"restaurant, reservation_time. " +
					"If failed, set success:false and include error.")
			}
			return b.String()
		},
		Extract: extractFields("confirmation_number", "restaurant", "reservation_time", "delivery_time"),
	}
}

func lodgingStep(e Endpoints) StepDef {
	return StepDef{
		Name:  StepBookLodging,
		Title: "Lodging",
		Instruction: func(p Params, _ Prior, _ *DerivedInputs) string {
			endpoint := e.Airbnb
			if p.Lodging == LodgingMarriott {
				endpoint = e.Marriott
			}
			checkout := p.ReturnDate
			if checkout == "" {
				checkout = "open-ended, book one night"
			}
			var b strings.Builder
			fmt.Fprintf(&b, "Go to %s and book lodging with:\n", endpoint)
			fmt.Fprintf(&b, "- Location: %s\n", p.To)
			fmt.Fprintf(&b, "- Check-in: %s\n", p.DepartDate)
			fmt.Fprintf(&b, "- Check-out: %s\n", checkout)
			fmt.Fprintf(&b, "- Guests: %d\n\n", p.NumTravelers)
			b.WriteString("Return JSON only, with keys: success, confirmation_number, " +
				"property_name, check_in, check_out, total_price. " +
				"If failed, set success:false and include error.")
			return b.String()
		},
		Extract: extractFields("confirmation_number", "property_name", "check_in", "check_out", "total_price"),
	}
}

func calendarStep(e Endpoints) StepDef {
	return StepDef{
		Name:  StepUpdateCalendar,
		Title: "Calendar",
		Instruction: func(p Params, prior Prior, derived *DerivedInputs) string {
			var b strings.Builder
			fmt.Fprintf(&b, "Go to %s and add calendar events for a trip on %s:\n", e.Calendar, p.DepartDate)
			for _, dep := range []string{StepBuyFlight, StepOrderRide, StepBookMeal, StepBookLodging} {
				res, ok := prior.Result(dep)
				if !ok || !res.Success {
					continue
				}
				if conf := res.StringField("confirmation_number"); conf != "" {
					fmt.Fprintf(&b, "- %s (confirmation %s)\n", res.Step, conf)
				} else {
					fmt.Fprintf(&b, "- %s\n", res.Step)
				}
			}
			b.WriteString("\nReturn JSON only, with keys: success, events_created. " +
				"If failed, set success:false and include error.")
			return b.String()
		},
		Extract: extractFields("events_created"),
	}
}

// extractFields returns an extractor that surfaces the named payload keys
// when present.
func extractFields(names ...string) func(map[string]any) map[string]any {
	return func(payload map[string]any) map[string]any {
		fields := make(map[string]any)
		for _, name := range names {
			if value, ok := payload[name]; ok && value != nil {
				fields[name] = value
			}
		}
		return fields
	}
}

// derivePickupTime computes the ride pickup from the flight step's arrival
// time when present and parseable, otherwise substitutes the deterministic
// fallback. The chosen value and its provenance are recorded in derived; a
// pickup derived from a fallback-sourced arrival stays fallback-sourced.
func derivePickupTime(prior Prior, derived *DerivedInputs) string {
	if flight, ok := prior.Result(StepBuyFlight); ok && flight.Success {
		if arrival := flight.StringField("arrival_time"); arrival != "" {
			if t, ok := parseArrivalTime(arrival); ok {
				pickup := t.Add(pickupLeadTime).Format("15:04")
				source := flight.Sources["arrival_time"]
				if source == "" {
					source = SourceAgent
				}
				derived.Set("pickup_time", pickup, source)
				return pickup
			}
		}
	}
	derived.Set("pickup_time", fallbackPickupTime, SourceFallback)
	return fallbackPickupTime
}

// arrivalLayouts are the clock formats agents have been observed to return.
var arrivalLayouts = []string{
	"15:04",
	"3:04 PM",
	"3:04PM",
	time.RFC3339,
	"2006-01-02 15:04",
}

// parseArrivalTime tries the known arrival-time layouts in order.
func parseArrivalTime(value string) (time.Time, bool) {
	for _, layout := range arrivalLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(value)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
