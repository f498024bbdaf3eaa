// Package config defines the simulation configuration, its JSON schema
// validation, and the conversion from configured seconds to simulation
// ticks. The schema file next to this package is generated by cmd/schema
// and embedded at build time.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"hunt-and-hide/sim/internal/agent"
	"hunt-and-hide/sim/internal/group"
	"hunt-and-hide/sim/internal/sense"
)

//go:embed config.schema.json
var schemaJSON string

// SimulationConfig is the root of a simulation config file.
type SimulationConfig struct {
	Seed   string      `json:"seed"`
	World  WorldConfig `json:"world"`
	Agents AgentConfig `json:"agents"`
	Groups GroupConfig `json:"groups"`
}

// WorldConfig shapes the generated demo world.
type WorldConfig struct {
	Width         float64 `json:"width"`
	Depth         float64 `json:"depth"`
	ObstacleCount int     `json:"obstacleCount"`
	AgentCount    int     `json:"agentCount"`
	WeakRatio     float64 `json:"weakRatio"`
}

// AgentConfig holds per-agent behavior and perception tunables. Durations
// are in seconds and converted to ticks at world construction.
type AgentConfig struct {
	BaseSpeed            float64 `json:"baseSpeed"`
	ChaseSpeedMultiplier float64 `json:"chaseSpeedMultiplier"`
	FleeSpeedMultiplier  float64 `json:"fleeSpeedMultiplier"`

	IdleSeconds             float64 `json:"idleSeconds"`
	PatrolWaitMinSeconds    float64 `json:"patrolWaitMinSeconds"`
	PatrolWaitMaxSeconds    float64 `json:"patrolWaitMaxSeconds"`
	ChaseLostTimeoutSeconds float64 `json:"chaseLostTimeoutSeconds"`

	SearchPointCount      int     `json:"searchPointCount"`
	SearchRadius          float64 `json:"searchRadius"`
	SearchDurationSeconds float64 `json:"searchDurationSeconds"`
	SampleAttempts        int     `json:"sampleAttempts"`

	FleeDistance float64 `json:"fleeDistance"`

	VisionRange              float64 `json:"visionRange"`
	VisionAngleDeg           float64 `json:"visionAngleDeg"`
	HearingRange             float64 `json:"hearingRange"`
	DetectionIntervalSeconds float64 `json:"detectionIntervalSeconds"`
	EyeHeight                float64 `json:"eyeHeight"`
}

// GroupConfig holds the steering tunables applied to spawned groups.
type GroupConfig struct {
	SeparationWeight   float64 `json:"separationWeight"`
	AlignmentWeight    float64 `json:"alignmentWeight"`
	CohesionWeight     float64 `json:"cohesionWeight"`
	SeparationDistance float64 `json:"separationDistance"`
	NeighborDistance   float64 `json:"neighborDistance"`

	Formation             string  `json:"formation"`
	Spacing               float64 `json:"spacing"`
	Looseness             float64 `json:"looseness"`
	ObstacleCheckDistance float64 `json:"obstacleCheckDistance"`
}

// Default returns the demo scenario configuration.
func Default() SimulationConfig {
	return SimulationConfig{
		Seed: "hunt-and-hide",
		World: WorldConfig{
			Width:         120,
			Depth:         120,
			ObstacleCount: 10,
			AgentCount:    6,
			WeakRatio:     0.33,
		},
		Agents: AgentConfig{
			BaseSpeed:                3.5,
			ChaseSpeedMultiplier:     1.6,
			FleeSpeedMultiplier:      1.8,
			IdleSeconds:              2,
			PatrolWaitMinSeconds:     1,
			PatrolWaitMaxSeconds:     3,
			ChaseLostTimeoutSeconds:  5,
			SearchPointCount:         4,
			SearchRadius:             8,
			SearchDurationSeconds:    15,
			SampleAttempts:           5,
			FleeDistance:             12,
			VisionRange:              18,
			VisionAngleDeg:           110,
			HearingRange:             15,
			DetectionIntervalSeconds: 0.2,
			EyeHeight:                1.6,
		},
		Groups: GroupConfig{
			SeparationWeight:      1.5,
			AlignmentWeight:       1.0,
			CohesionWeight:        1.0,
			SeparationDistance:    2.5,
			NeighborDistance:      10,
			Formation:             "v-formation",
			Spacing:               3,
			Looseness:             0.2,
			ObstacleCheckDistance: 6,
		},
	}
}

// TicksFromSeconds converts a configured duration to whole ticks, rounding
// up so short positive durations never collapse to zero.
func TicksFromSeconds(seconds float64, tickRate int) uint64 {
	if seconds <= 0 {
		return 0
	}
	return uint64(math.Ceil(seconds * float64(tickRate)))
}

// AgentBehavior converts the agent tunables into the tick-based form the
// FSM consumes.
func (c SimulationConfig) AgentBehavior(tickRate int) agent.Config {
	a := c.Agents
	return agent.Config{
		BaseSpeed:             a.BaseSpeed,
		ChaseSpeedMultiplier:  a.ChaseSpeedMultiplier,
		FleeSpeedMultiplier:   a.FleeSpeedMultiplier,
		IdleTicks:             TicksFromSeconds(a.IdleSeconds, tickRate),
		PatrolWaitMinTicks:    TicksFromSeconds(a.PatrolWaitMinSeconds, tickRate),
		PatrolWaitMaxTicks:    TicksFromSeconds(a.PatrolWaitMaxSeconds, tickRate),
		ChaseLostTimeoutTicks: TicksFromSeconds(a.ChaseLostTimeoutSeconds, tickRate),
		SearchPointCount:      a.SearchPointCount,
		SearchRadius:          a.SearchRadius,
		SearchDurationTicks:   TicksFromSeconds(a.SearchDurationSeconds, tickRate),
		SampleAttempts:        a.SampleAttempts,
		FleeDistance:          a.FleeDistance,
	}
}

// SensorSettings converts the perception tunables into the tick-based form
// sensors consume.
func (c SimulationConfig) SensorSettings(tickRate int) sense.Config {
	a := c.Agents
	interval := TicksFromSeconds(a.DetectionIntervalSeconds, tickRate)
	if interval == 0 {
		interval = 1
	}
	return sense.Config{
		VisionRange:            a.VisionRange,
		VisionAngleDeg:         a.VisionAngleDeg,
		HearingRange:           a.HearingRange,
		DetectionIntervalTicks: interval,
		EyeHeight:              a.EyeHeight,
	}
}

// GroupSettings converts the steering tunables into group.Config.
func (c SimulationConfig) GroupSettings() group.Config {
	g := c.Groups
	return group.Config{
		SeparationWeight:      g.SeparationWeight,
		AlignmentWeight:       g.AlignmentWeight,
		CohesionWeight:        g.CohesionWeight,
		SeparationDistance:    g.SeparationDistance,
		NeighborDistance:      g.NeighborDistance,
		Formation:             ParseFormation(g.Formation),
		Spacing:               g.Spacing,
		Looseness:             g.Looseness,
		ObstacleCheckDistance: g.ObstacleCheckDistance,
		SteerThreshold:        0.05,
	}
}

// ParseFormation maps a config string onto a formation kind, defaulting to
// line for unknown values.
func ParseFormation(name string) group.FormationKind {
	switch name {
	case "v-formation":
		return group.VFormation
	case "column":
		return group.Column
	case "wedge":
		return group.Wedge
	default:
		return group.Line
	}
}

// Load reads a config file, validates it against the embedded schema, and
// unmarshals it over the defaults so partial files stay usable after a
// schema change.
func Load(path string) (SimulationConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := Validate(raw); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks a raw config document against the embedded schema.
func Validate(raw []byte) error {
	schema, err := jsonschema.CompileString("config.schema.json", schemaJSON)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var doc any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}
