package swarm

import (
	"fmt"
	"time"
)

// Config holds the coordinator's operating parameters
type Config struct {
	MinAgents               int             `yaml:"min_agents"`
	MaxAgents               int             `yaml:"max_agents"`
	UpdateRateHz            float64         `yaml:"update_rate_hz"`
	AgentTimeout            time.Duration   `yaml:"agent_timeout"`
	EnableAdaptiveFormation bool            `yaml:"enable_adaptive_formation"`
	Formation               FormationParams `yaml:"formation"`
}

// DefaultConfig returns the standard coordinator configuration
func DefaultConfig() Config {
	return Config{
		MinAgents:               2,
		MaxAgents:               100,
		UpdateRateHz:            10.0,
		AgentTimeout:            5 * time.Second,
		EnableAdaptiveFormation: true,
		Formation:               DefaultFormationParams(),
	}
}

// Validate checks the configuration for invalid values
func (c Config) Validate() error {
	if c.MinAgents < 1 {
		return fmt.Errorf("min_agents must be at least 1, got %d", c.MinAgents)
	}
	if c.MaxAgents < c.MinAgents {
		return fmt.Errorf("max_agents (%d) must be >= min_agents (%d)", c.MaxAgents, c.MinAgents)
	}
	if c.UpdateRateHz <= 0 {
		return fmt.Errorf("update_rate_hz must be positive, got %f", c.UpdateRateHz)
	}
	if c.AgentTimeout <= 0 {
		return fmt.Errorf("agent_timeout must be positive, got %s", c.AgentTimeout)
	}
	if c.Formation.Spacing <= 0 {
		return fmt.Errorf("formation spacing must be positive, got %f", c.Formation.Spacing)
	}
	if c.Formation.CollisionRadius < 0 {
		return fmt.Errorf("formation collision_radius must be non-negative, got %f", c.Formation.CollisionRadius)
	}
	if c.Formation.MaxVelocity <= 0 {
		return fmt.Errorf("formation max_velocity must be positive, got %f", c.Formation.MaxVelocity)
	}
	if c.Formation.MaxAcceleration <= 0 {
		return fmt.Errorf("formation max_acceleration must be positive, got %f", c.Formation.MaxAcceleration)
	}
	return nil
}
