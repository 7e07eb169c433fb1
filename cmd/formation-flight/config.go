package formationflight

import (
	"fmt"
	"time"

	"github.com/openfleet/swarmctl/pkg/swarm"
)

// Config holds the configuration for the formation flight scenario
type Config struct {
	NumAgents    int
	Formation    swarm.FormationType
	Spacing      float64
	UpdateRateHz float64
	Duration     time.Duration
	MissionType  swarm.MissionType
}

// DefaultConfig returns the scenario defaults
func DefaultConfig() Config {
	return Config{
		NumAgents:    6,
		Formation:    swarm.FormationWedge,
		Spacing:      5.0,
		UpdateRateHz: 10.0,
		Duration:     2 * time.Minute,
		MissionType:  swarm.MissionPatrol,
	}
}

// ValidateAndParse validates and parses the raw parameters into a Config
func ValidateAndParse(params map[string]interface{}) (*Config, error) {
	config := DefaultConfig()

	if v, ok := params["num_agents"]; ok {
		switch val := v.(type) {
		case int:
			config.NumAgents = val
		case float64:
			config.NumAgents = int(val)
		default:
			return nil, fmt.Errorf("num_agents must be an integer")
		}
	}
	if config.NumAgents < 2 || config.NumAgents > 50 {
		return nil, fmt.Errorf("num_agents must be between 2 and 50")
	}

	if v, ok := params["formation"]; ok {
		formation, err := swarm.ParseFormationType(fmt.Sprintf("%v", v))
		if err != nil {
			return nil, err
		}
		config.Formation = formation
	}

	if v, ok := params["spacing"]; ok {
		switch val := v.(type) {
		case float64:
			config.Spacing = val
		case int:
			config.Spacing = float64(val)
		default:
			return nil, fmt.Errorf("spacing must be a number")
		}
	}
	if config.Spacing < 1.0 || config.Spacing > 100.0 {
		return nil, fmt.Errorf("spacing must be between 1 and 100 meters")
	}

	if v, ok := params["update_rate_hz"]; ok {
		switch val := v.(type) {
		case float64:
			config.UpdateRateHz = val
		case int:
			config.UpdateRateHz = float64(val)
		default:
			return nil, fmt.Errorf("update_rate_hz must be a number")
		}
	}
	if config.UpdateRateHz < 1.0 || config.UpdateRateHz > 100.0 {
		return nil, fmt.Errorf("update_rate_hz must be between 1 and 100")
	}

	if v, ok := params["duration"]; ok {
		switch val := v.(type) {
		case time.Duration:
			config.Duration = val
		default:
			duration, err := time.ParseDuration(fmt.Sprintf("%v", v))
			if err != nil {
				return nil, fmt.Errorf("invalid duration format: %w", err)
			}
			config.Duration = duration
		}
	}
	if config.Duration < 10*time.Second {
		return nil, fmt.Errorf("duration must be at least 10 seconds")
	}

	if v, ok := params["mission_type"]; ok {
		missionType, ok := swarm.ParseMissionType(fmt.Sprintf("%v", v))
		if !ok {
			return nil, fmt.Errorf("unknown mission type: %v", v)
		}
		config.MissionType = missionType
	}

	return &config, nil
}

// SwarmConfig derives the coordinator configuration from the scenario config
func (c Config) SwarmConfig() swarm.Config {
	cfg := swarm.DefaultConfig()
	cfg.MaxAgents = c.NumAgents + 10
	cfg.UpdateRateHz = c.UpdateRateHz
	cfg.Formation.Type = c.Formation
	cfg.Formation.Spacing = c.Spacing
	return cfg
}
