package catalog

import (
	"fmt"

	"vitalsched/internal/model"
)

// Well-known intervention ids referenced by the matching rules.
const (
	StandardReminder     = "standard_reminder"
	PersonalizedSMS      = "personalized_sms"
	PhoneCall            = "phone_call"
	TransportationAssist = "transportation_assistance"
	IncentiveOffer       = "incentive_offer"
	FlexibleScheduling   = "flexible_scheduling"
)

// Catalog is an ordered, immutable registry of intervention types. It is
// built once at startup and shared read-only by every engine call; past
// decisions are only reproducible if the catalogue never changes underneath
// them, so there is no mutation path after construction.
type Catalog struct {
	ordered []model.InterventionType
	byID    map[string]model.InterventionType
}

// New validates the entries and builds a catalogue preserving their order.
func New(entries []model.InterventionType) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog requires at least one intervention")
	}
	c := &Catalog{
		ordered: make([]model.InterventionType, 0, len(entries)),
		byID:    make(map[string]model.InterventionType, len(entries)),
	}
	for _, entry := range entries {
		if entry.ID == "" {
			return nil, fmt.Errorf("catalog entry missing id")
		}
		if _, exists := c.byID[entry.ID]; exists {
			return nil, fmt.Errorf("duplicate catalog entry %q", entry.ID)
		}
		if entry.Effectiveness <= 0 || entry.Effectiveness > 1 {
			return nil, fmt.Errorf("catalog entry %q: effectiveness %v outside (0,1]", entry.ID, entry.Effectiveness)
		}
		if entry.Cost < 0 {
			return nil, fmt.Errorf("catalog entry %q: negative cost %v", entry.ID, entry.Cost)
		}
		c.ordered = append(c.ordered, entry)
		c.byID[entry.ID] = entry
	}
	return c, nil
}

// Default returns the standard intervention catalogue.
func Default() *Catalog {
	c, err := New(DefaultEntries())
	if err != nil {
		panic("catalog: invalid default entries: " + err.Error())
	}
	return c
}

// DefaultEntries lists the built-in intervention types in catalogue order.
func DefaultEntries() []model.InterventionType {
	return []model.InterventionType{
		{ID: StandardReminder, Description: "Standard automated reminder", Effectiveness: 0.10, Cost: 0.5},
		{ID: PersonalizedSMS, Description: "Personalized SMS reminder", Effectiveness: 0.15, Cost: 1.0},
		{ID: PhoneCall, Description: "Personal phone call", Effectiveness: 0.30, Cost: 5.0},
		{ID: TransportationAssist, Description: "Offer transportation assistance", Effectiveness: 0.40, Cost: 12.0},
		{ID: IncentiveOffer, Description: "Offer small incentive for attendance", Effectiveness: 0.25, Cost: 10.0},
		{ID: FlexibleScheduling, Description: "Offer flexible time window", Effectiveness: 0.20, Cost: 2.0},
	}
}

func (c *Catalog) Get(id string) (model.InterventionType, bool) {
	iv, ok := c.byID[id]
	return iv, ok
}

// List returns the catalogue entries in order. The slice is a copy.
func (c *Catalog) List() []model.InterventionType {
	out := make([]model.InterventionType, len(c.ordered))
	copy(out, c.ordered)
	return out
}

func (c *Catalog) Len() int {
	return len(c.ordered)
}
