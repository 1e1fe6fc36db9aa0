// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Population PopulationConfig `yaml:"population"`
	Behavior   BehaviorConfig   `yaml:"behavior"`
	Flock      FlockConfig      `yaml:"flock"`
	Fight      FightConfig      `yaml:"fight"`
	Food       FoodConfig       `yaml:"food"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Species    []SpeciesConfig  `yaml:"species"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds the playable lake dimensions in world units.
// Depth runs from 0 (surface) down to FloorDepth.
type WorldConfig struct {
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	FloorDepth float64 `yaml:"floor_depth"`
}

// PhysicsConfig holds simulation stepping parameters.
type PhysicsConfig struct {
	DT           float64 `yaml:"dt"`             // seconds per tick
	GridCellSize float64 `yaml:"grid_cell_size"` // spatial hash cell size
}

// PopulationConfig holds population caps. Spawn requests beyond a cap are
// dropped silently.
type PopulationConfig struct {
	MaxPredators     int `yaml:"max_predators"`
	MaxSchoolMembers int `yaml:"max_school_members"`
	MaxFood          int `yaml:"max_food"`
}

// BehaviorConfig holds decision-engine tuning shared across species.
type BehaviorConfig struct {
	FeedingThreshold     float64 `yaml:"feeding_threshold"`      // hunger must exceed this (strictly) to hunt
	HungerRate           float64 `yaml:"hunger_rate"`            // hunger gained per simulated second (metabolic cost)
	CommitTicks          int32   `yaml:"commit_ticks"`           // minimum hunting commitment per target school
	AbandonCooldownTicks int32   `yaml:"abandon_cooldown_ticks"` // ticks before re-targeting an abandoned school
	MigrationTimeout     int32   `yaml:"migration_timeout"`      // ticks without a prey sighting before migrating
	MigrationSpeedMult   float64 `yaml:"migration_speed_mult"`   // burst speed multiplier while migrating
	FeedingTicks         int32   `yaml:"feeding_ticks"`          // ticks spent in the feeding state after a consumption
	StrikeWindowTicks    int32   `yaml:"strike_window_ticks"`    // hookset timing window while striking
	WaryTicks            int32   `yaml:"wary_ticks"`             // post-escape wariness duration
	WaryStrikePenalty    float64 `yaml:"wary_strike_penalty"`    // strike distance multiplier while wary (< 1)
	AmbushStrikeBonus    float64 `yaml:"ambush_strike_bonus"`    // strike distance multiplier for ambush species (> 1)
	InterestSpeedWeight  float64 `yaml:"interest_speed_weight"`  // lure speed match contribution
	InterestDepthWeight  float64 `yaml:"interest_depth_weight"`  // depth-zone bonus contribution
	InterestRandomWeight float64 `yaml:"interest_random_weight"` // random draw contribution
	InterestDecay        float64 `yaml:"interest_decay"`         // per-tick decay when the lure is unconvincing
}

// FlockConfig holds flocking controller parameters shared across species.
// Per-species radii and weights live in SchoolingConfig.
type FlockConfig struct {
	SteerIntervalTicks int32   `yaml:"steer_interval_ticks"` // recompute steering every N ticks per member
	PanicSepMult       float64 `yaml:"panic_sep_mult"`       // separation weight multiplier while panicking
	PanicCohMult       float64 `yaml:"panic_coh_mult"`       // cohesion weight multiplier while panicking
	PanicFleeWeight    float64 `yaml:"panic_flee_weight"`    // weight of the flee-from-predator vector
	PanicHoldTicks     int32   `yaml:"panic_hold_ticks"`     // ticks panic persists after the threat leaves
}

// FightConfig holds the tension/stamina contest parameters.
type FightConfig struct {
	ReelTension          float64 `yaml:"reel_tension"`            // tension added per accepted reel action
	ResistanceScale      float64 `yaml:"resistance_scale"`        // fish resistance tension per tick at full stamina
	TensionDecay         float64 `yaml:"tension_decay"`           // tension shed per tick when not reeling
	BreakThreshold       float64 `yaml:"break_threshold"`         // tension at or above this breaks the line
	ReelMinIntervalTicks int32   `yaml:"reel_min_interval_ticks"` // reel actions closer than this are ignored
	StaminaDrainScale    float64 `yaml:"stamina_drain_scale"`     // stamina lost per unit tension per second
}

// FoodConfig holds background food resource parameters.
type FoodConfig struct {
	ClusterSize        int     `yaml:"cluster_size"`
	ClusterRadius      float64 `yaml:"cluster_radius"`
	LifespanTicks      int32   `yaml:"lifespan_ticks"`
	SpawnIntervalTicks int32   `yaml:"spawn_interval_ticks"` // 0 disables automatic cluster spawning
	NutritionValue     float64 `yaml:"nutrition_value"`
	ConsumptionRange   float64 `yaml:"consumption_range"`
	AttractionRange    float64 `yaml:"attraction_range"` // schools sense food within this range
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // window duration in simulation seconds
}

// SchoolingConfig holds per-species flocking parameters.
type SchoolingConfig struct {
	Enabled          bool    `yaml:"enabled"`
	SeparationRadius float64 `yaml:"separation_radius"`
	AlignmentRadius  float64 `yaml:"alignment_radius"`
	CohesionRadius   float64 `yaml:"cohesion_radius"`
	SeparationWeight float64 `yaml:"separation_weight"`
	AlignmentWeight  float64 `yaml:"alignment_weight"`
	CohesionWeight   float64 `yaml:"cohesion_weight"`
	FoodWeight       float64 `yaml:"food_weight"`
	PanicRadius      float64 `yaml:"panic_radius"`
	PanicSpeedMult   float64 `yaml:"panic_speed_mult"`
}

// SpeciesConfig defines one species trait record in the catalog.
// Categories, style, and stamina are parsed by the species package; unknown
// or missing values fall back to a conservative default record there.
type SpeciesConfig struct {
	Name              string          `yaml:"name"`
	Category          string          `yaml:"category"` // plankton, baitfish, panfish, gamefish
	Style             string          `yaml:"style"`    // ambush, pursuit, opportunist, schooling
	StaminaClass      string          `yaml:"stamina_class"`
	CruiseSpeed       float64         `yaml:"cruise_speed"`
	BurstSpeed        float64         `yaml:"burst_speed"`
	DetectRange       float64         `yaml:"detect_range"`
	DetectVertical    float64         `yaml:"detect_vertical"`
	Aggressiveness    float64         `yaml:"aggressiveness"`
	OptimalLureSpeed  float64         `yaml:"optimal_lure_speed"`
	StrikeDistance    float64         `yaml:"strike_distance"`
	InterestThreshold float64         `yaml:"interest_threshold"`
	NutritionValue    float64         `yaml:"nutrition_value"`
	ConsumptionRange  float64         `yaml:"consumption_range"`
	DepthMin          float64         `yaml:"depth_min"`
	DepthMax          float64         `yaml:"depth_max"`
	DepthBonus        float64         `yaml:"depth_bonus"`
	BaseWeight        float64         `yaml:"base_weight"` // kg at medium size class
	Eats              []string        `yaml:"eats"`
	EatenBy           []string        `yaml:"eaten_by"`
	Schooling         SchoolingConfig `yaml:"schooling"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32         float32
	TicksPerSec  int32
	WorldW32     float32
	WorldH32     float32
	Floor32      float32
	SpeciesIndex map[string]uint8 // name -> index into Species
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if
// path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
	if c.Physics.DT > 0 {
		c.Derived.TicksPerSec = int32(1.0/c.Physics.DT + 0.5)
	}
	c.Derived.WorldW32 = float32(c.World.Width)
	c.Derived.WorldH32 = float32(c.World.Height)
	c.Derived.Floor32 = float32(c.World.FloorDepth)

	c.Derived.SpeciesIndex = make(map[string]uint8, len(c.Species))
	for i, sp := range c.Species {
		c.Derived.SpeciesIndex[sp.Name] = uint8(i)
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
