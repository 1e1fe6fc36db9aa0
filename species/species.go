// Package species resolves catalog trait records and diet relationships.
package species

import (
	"log/slog"

	"github.com/pelagic-games/strike/config"
)

// Category is a diet category bitmask.
type Category uint16

const (
	Plankton Category = 1 << iota // background food tier
	Baitfish                      // small schooling forage
	Panfish                       // mid-tier schooling eaters
	Gamefish                      // apex lure-chasing predators
)

// Has checks if a category set contains a category.
func (c Category) Has(other Category) bool {
	return c&other != 0
}

// Add adds a category to the set.
func (c Category) Add(other Category) Category {
	return c | other
}

// BehaviorStyle determines decision-engine parameter defaults for a species.
type BehaviorStyle uint8

const (
	StyleOpportunist BehaviorStyle = iota
	StyleAmbush                    // holds position, explosive strike burst
	StylePursuit                   // closes distance immediately
	StyleSchooling                 // schooling-only, never chases the lure
)

// String returns the style name.
func (s BehaviorStyle) String() string {
	switch s {
	case StyleAmbush:
		return "ambush"
	case StylePursuit:
		return "pursuit"
	case StyleSchooling:
		return "schooling"
	default:
		return "opportunist"
	}
}

// StaminaClass buckets fight capacity.
type StaminaClass uint8

const (
	StaminaLow StaminaClass = iota
	StaminaMedium
	StaminaHigh
	StaminaVeryHigh
)

// Multiplier returns the stamina pool multiplier for the class.
func (s StaminaClass) Multiplier() float32 {
	switch s {
	case StaminaLow:
		return 0.6
	case StaminaHigh:
		return 1.4
	case StaminaVeryHigh:
		return 1.8
	default:
		return 1.0
	}
}

// String returns the class name.
func (s StaminaClass) String() string {
	switch s {
	case StaminaLow:
		return "low"
	case StaminaHigh:
		return "high"
	case StaminaVeryHigh:
		return "very_high"
	default:
		return "medium"
	}
}

// Schooling holds per-species flocking parameters.
type Schooling struct {
	Enabled          bool
	SeparationRadius float32
	AlignmentRadius  float32
	CohesionRadius   float32
	SeparationWeight float32
	AlignmentWeight  float32
	CohesionWeight   float32
	FoodWeight       float32
	PanicRadius      float32
	PanicSpeedMult   float32
}

// Species is a resolved trait record as used by the simulation systems.
type Species struct {
	Name              string
	Category          Category
	Style             BehaviorStyle
	Stamina           StaminaClass
	CruiseSpeed       float32
	BurstSpeed        float32
	DetectRange       float32 // horizontal detection envelope
	DetectVertical    float32 // vertical detection envelope
	Aggressiveness    float32 // 0..1
	OptimalLureSpeed  float32
	StrikeDistance    float32
	InterestThreshold float32
	NutritionValue    float32 // hunger reduction granted to an eater
	ConsumptionRange  float32
	DepthMin          float32
	DepthMax          float32
	DepthBonus        float32 // interest bonus when the lure runs in the depth band
	BaseWeight        float32 // kg at medium size class
	Eats              Category
	EatenBy           Category
	Schooling         Schooling
}

// Fallback returns the conservative default record substituted for
// malformed or missing catalog entries: low aggressiveness, moderate speed,
// no schooling.
func Fallback() Species {
	return Species{
		Name:              "unknown",
		Category:          Gamefish,
		Style:             StyleOpportunist,
		Stamina:           StaminaMedium,
		CruiseSpeed:       35,
		BurstSpeed:        70,
		DetectRange:       80,
		DetectVertical:    12,
		Aggressiveness:    0.2,
		OptimalLureSpeed:  45,
		StrikeDistance:    6,
		InterestThreshold: 3.0,
		NutritionValue:    20,
		ConsumptionRange:  5,
		DepthMin:          0,
		DepthMax:          20,
		DepthBonus:        0.2,
		BaseWeight:        1.0,
		Eats:              Baitfish,
		EatenBy:           0,
	}
}

// Catalog holds resolved species records with stable index lookup.
type Catalog struct {
	records []Species
	byName  map[string]uint8
}

// NewCatalog resolves the configured species list into a catalog.
// Malformed entries are replaced by the fallback record and logged.
func NewCatalog(cfgs []config.SpeciesConfig) *Catalog {
	c := &Catalog{
		records: make([]Species, 0, len(cfgs)),
		byName:  make(map[string]uint8, len(cfgs)),
	}
	for i, sc := range cfgs {
		sp, ok := resolve(&sc)
		if !ok {
			slog.Warn("species_fallback",
				"index", i,
				"name", sc.Name,
				"reason", "malformed trait record",
			)
			sp = Fallback()
			if sc.Name != "" {
				sp.Name = sc.Name
			}
		}
		c.byName[sp.Name] = uint8(len(c.records))
		c.records = append(c.records, sp)
	}
	return c
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.records)
}

// Get returns the species record at the given index, or the fallback record
// for out-of-range indices.
func (c *Catalog) Get(id uint8) *Species {
	if int(id) >= len(c.records) {
		fb := Fallback()
		return &fb
	}
	return &c.records[id]
}

// IndexOf returns the catalog index for a species name.
func (c *Catalog) IndexOf(name string) (uint8, bool) {
	id, ok := c.byName[name]
	return id, ok
}

// CanEat reports whether eater may consume prey. The relationship is
// symmetric truth: it holds if either side declares it.
func (c *Catalog) CanEat(eater, prey *Species) bool {
	return eater.Eats.Has(prey.Category) || prey.EatenBy.Has(eater.Category)
}

// CanEatCategory reports whether eater may consume anything of the given
// category (used for the background food tier, which has no species record).
func (c *Catalog) CanEatCategory(eater *Species, cat Category) bool {
	return eater.Eats.Has(cat)
}

// resolve converts a config record to a Species, reporting false when the
// record is too malformed to trust.
func resolve(sc *config.SpeciesConfig) (Species, bool) {
	cat, ok := parseCategory(sc.Category)
	if !ok || sc.Name == "" || sc.CruiseSpeed <= 0 || sc.DetectRange <= 0 {
		return Species{}, false
	}

	sp := Species{
		Name:              sc.Name,
		Category:          cat,
		Style:             parseStyle(sc.Style),
		Stamina:           parseStamina(sc.StaminaClass),
		CruiseSpeed:       float32(sc.CruiseSpeed),
		BurstSpeed:        float32(sc.BurstSpeed),
		DetectRange:       float32(sc.DetectRange),
		DetectVertical:    float32(sc.DetectVertical),
		Aggressiveness:    float32(sc.Aggressiveness),
		OptimalLureSpeed:  float32(sc.OptimalLureSpeed),
		StrikeDistance:    float32(sc.StrikeDistance),
		InterestThreshold: float32(sc.InterestThreshold),
		NutritionValue:    float32(sc.NutritionValue),
		ConsumptionRange:  float32(sc.ConsumptionRange),
		DepthMin:          float32(sc.DepthMin),
		DepthMax:          float32(sc.DepthMax),
		DepthBonus:        float32(sc.DepthBonus),
		BaseWeight:        float32(sc.BaseWeight),
	}

	if sp.BurstSpeed < sp.CruiseSpeed {
		sp.BurstSpeed = sp.CruiseSpeed
	}

	for _, name := range sc.Eats {
		if c, ok := parseCategory(name); ok {
			sp.Eats = sp.Eats.Add(c)
		}
	}
	for _, name := range sc.EatenBy {
		if c, ok := parseCategory(name); ok {
			sp.EatenBy = sp.EatenBy.Add(c)
		}
	}

	sch := &sc.Schooling
	sp.Schooling = Schooling{
		Enabled:          sch.Enabled,
		SeparationRadius: float32(sch.SeparationRadius),
		AlignmentRadius:  float32(sch.AlignmentRadius),
		CohesionRadius:   float32(sch.CohesionRadius),
		SeparationWeight: float32(sch.SeparationWeight),
		AlignmentWeight:  float32(sch.AlignmentWeight),
		CohesionWeight:   float32(sch.CohesionWeight),
		FoodWeight:       float32(sch.FoodWeight),
		PanicRadius:      float32(sch.PanicRadius),
		PanicSpeedMult:   float32(sch.PanicSpeedMult),
	}
	if sp.Schooling.Enabled && sp.Schooling.CohesionRadius <= 0 {
		return Species{}, false
	}
	if sp.Schooling.PanicSpeedMult <= 0 {
		sp.Schooling.PanicSpeedMult = 1.0
	}

	return sp, true
}

func parseCategory(name string) (Category, bool) {
	switch name {
	case "plankton":
		return Plankton, true
	case "baitfish":
		return Baitfish, true
	case "panfish":
		return Panfish, true
	case "gamefish":
		return Gamefish, true
	default:
		return 0, false
	}
}

func parseStyle(name string) BehaviorStyle {
	switch name {
	case "ambush":
		return StyleAmbush
	case "pursuit":
		return StylePursuit
	case "schooling":
		return StyleSchooling
	default:
		return StyleOpportunist
	}
}

func parseStamina(name string) StaminaClass {
	switch name {
	case "low":
		return StaminaLow
	case "high":
		return StaminaHigh
	case "very_high":
		return StaminaVeryHigh
	default:
		return StaminaMedium
	}
}
