package formationflight

import (
	"testing"
	"time"

	"github.com/openfleet/swarmctl/pkg/swarm"
)

func TestValidateAndParseDefaults(t *testing.T) {
	config, err := ValidateAndParse(map[string]interface{}{})
	if err != nil {
		t.Fatalf("empty params should use defaults: %v", err)
	}

	want := DefaultConfig()
	if config.NumAgents != want.NumAgents {
		t.Errorf("NumAgents = %d, want %d", config.NumAgents, want.NumAgents)
	}
	if config.Formation != want.Formation {
		t.Errorf("Formation = %v, want %v", config.Formation, want.Formation)
	}
	if config.Duration != want.Duration {
		t.Errorf("Duration = %v, want %v", config.Duration, want.Duration)
	}
}

func TestValidateAndParse(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]interface{}
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "full valid set",
			params: map[string]interface{}{
				"num_agents":     8,
				"formation":      "diamond",
				"spacing":        7.5,
				"update_rate_hz": 20.0,
				"duration":       "1m",
				"mission_type":   "surveillance",
			},
			check: func(t *testing.T, c *Config) {
				if c.NumAgents != 8 {
					t.Errorf("NumAgents = %d, want 8", c.NumAgents)
				}
				if c.Formation != swarm.FormationDiamond {
					t.Errorf("Formation = %v, want diamond", c.Formation)
				}
				if c.Spacing != 7.5 {
					t.Errorf("Spacing = %v, want 7.5", c.Spacing)
				}
				if c.Duration != time.Minute {
					t.Errorf("Duration = %v, want 1m", c.Duration)
				}
				if c.MissionType != swarm.MissionSurveillance {
					t.Errorf("MissionType = %v, want surveillance", c.MissionType)
				}
			},
		},
		{
			name:   "num_agents as float from prompt",
			params: map[string]interface{}{"num_agents": 4.0},
			check: func(t *testing.T, c *Config) {
				if c.NumAgents != 4 {
					t.Errorf("NumAgents = %d, want 4", c.NumAgents)
				}
			},
		},
		{
			name:   "duration as time.Duration from env",
			params: map[string]interface{}{"duration": 90 * time.Second},
			check: func(t *testing.T, c *Config) {
				if c.Duration != 90*time.Second {
					t.Errorf("Duration = %v, want 90s", c.Duration)
				}
			},
		},
		{
			name:    "too few agents",
			params:  map[string]interface{}{"num_agents": 1},
			wantErr: true,
		},
		{
			name:    "too many agents",
			params:  map[string]interface{}{"num_agents": 500},
			wantErr: true,
		},
		{
			name:    "unknown formation",
			params:  map[string]interface{}{"formation": "spiral"},
			wantErr: true,
		},
		{
			name:    "spacing out of range",
			params:  map[string]interface{}{"spacing": 0.1},
			wantErr: true,
		},
		{
			name:    "update rate out of range",
			params:  map[string]interface{}{"update_rate_hz": 500},
			wantErr: true,
		},
		{
			name:    "duration too short",
			params:  map[string]interface{}{"duration": "2s"},
			wantErr: true,
		},
		{
			name:    "bad duration format",
			params:  map[string]interface{}{"duration": "soon"},
			wantErr: true,
		},
		{
			name:    "unknown mission type",
			params:  map[string]interface{}{"mission_type": "conquest"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := ValidateAndParse(tt.params)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.check != nil {
				tt.check(t, config)
			}
		})
	}
}

func TestSwarmConfigDerivation(t *testing.T) {
	config := DefaultConfig()
	config.NumAgents = 12
	config.Spacing = 8.0
	config.Formation = swarm.FormationCircle

	cfg := config.SwarmConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("derived config invalid: %v", err)
	}
	if cfg.MaxAgents < config.NumAgents {
		t.Errorf("MaxAgents = %d, must fit %d agents", cfg.MaxAgents, config.NumAgents)
	}
	if cfg.Formation.Type != swarm.FormationCircle {
		t.Errorf("Formation.Type = %v, want circle", cfg.Formation.Type)
	}
	if cfg.Formation.Spacing != 8.0 {
		t.Errorf("Formation.Spacing = %v, want 8", cfg.Formation.Spacing)
	}
}
