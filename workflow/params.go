// ABOUTME: Workflow parameters with validation/defaults, and the provider endpoint catalog.
// ABOUTME: Endpoints default to the known provider URLs and can be overridden from a YAML file.

package workflow

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Eat modes and lodging preferences accepted in workflow parameters.
const (
	EatOut = "out" // reserve a table
	EatIn  = "in"  // order delivery

	LodgingAirbnb   = "airbnb"
	LodgingMarriott = "marriott"
)

// Params are the inputs for one workflow run. One Params value is shared by
// every step of the run; steps never mutate it.
type Params struct {
	From         string `json:"from"`
	To           string `json:"to"`
	DepartDate   string `json:"depart_date"`           // YYYY-MM-DD
	ReturnDate   string `json:"return_date,omitempty"` // YYYY-MM-DD, optional
	EatMode      string `json:"eat_mode"`
	Lodging      string `json:"lodging"`
	NumTravelers int    `json:"num_travelers"`
}

// Normalize fills defaults and validates the parameters. Returns an error
// describing the first invalid field.
func (p *Params) Normalize() error {
	if p.From == "" {
		return fmt.Errorf("missing from")
	}
	if p.To == "" {
		p.To = "SFO"
	}
	if p.DepartDate == "" {
		return fmt.Errorf("missing depart_date")
	}
	if _, err := time.Parse("2006-01-02", p.DepartDate); err != nil {
		return fmt.Errorf("invalid depart_date %q, use YYYY-MM-DD", p.DepartDate)
	}
	if p.ReturnDate != "" {
		if _, err := time.Parse("2006-01-02", p.ReturnDate); err != nil {
			return fmt.Errorf("invalid return_date %q, use YYYY-MM-DD", p.ReturnDate)
		}
	}
	switch p.EatMode {
	case EatIn, EatOut:
	case "":
		p.EatMode = EatOut
	default:
		return fmt.Errorf("invalid eat_mode %q, use %q or %q", p.EatMode, EatIn, EatOut)
	}
	switch p.Lodging {
	case LodgingAirbnb, LodgingMarriott:
	case "":
		p.Lodging = LodgingAirbnb
	default:
		return fmt.Errorf("invalid lodging %q, use %q or %q", p.Lodging, LodgingAirbnb, LodgingMarriott)
	}
	if p.NumTravelers <= 0 {
		p.NumTravelers = 1
	}
	return nil
}

// Endpoints is the catalog of booking provider URLs embedded into step
// instructions. The orchestrator never calls these directly; the agent does.
type Endpoints struct {
	Flight   string `yaml:"flight"`
	Ride     string `yaml:"ride"`
	Dining   string `yaml:"dining"`
	Food     string `yaml:"food"`
	Airbnb   string `yaml:"airbnb"`
	Marriott string `yaml:"marriott"`
	Calendar string `yaml:"calendar"`
}

// DefaultEndpoints returns the standard provider catalog.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Flight:   "https://real-flyunified.vercel.app/api/book",
		Ride:     "https://real-udriver.vercel.app/api/order",
		Dining:   "https://real-opendining.vercel.app/api/book",
		Food:     "https://real-dashdish.vercel.app/api/order",
		Airbnb:   "https://real-staynb.vercel.app/api/book",
		Marriott: "https://real-marrisuite.vercel.app/api/book",
		Calendar: "https://real-gocalendar.vercel.app/calendar/api/events",
	}
}

// LoadEndpoints reads a YAML endpoint catalog and overlays it on the
// defaults, so a partial file only overrides the entries it names.
func LoadEndpoints(path string) (Endpoints, error) {
	endpoints := DefaultEndpoints()
	data, err := os.ReadFile(path)
	if err != nil {
		return endpoints, fmt.Errorf("read endpoints file: %w", err)
	}
	if err := yaml.Unmarshal(data, &endpoints); err != nil {
		return DefaultEndpoints(), fmt.Errorf("parse endpoints file: %w", err)
	}
	return endpoints, nil
}
