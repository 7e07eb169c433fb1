package swarm

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	if cfg.MinAgents != 2 {
		t.Errorf("MinAgents = %d, want 2", cfg.MinAgents)
	}
	if cfg.MaxAgents != 100 {
		t.Errorf("MaxAgents = %d, want 100", cfg.MaxAgents)
	}
	if cfg.UpdateRateHz != 10.0 {
		t.Errorf("UpdateRateHz = %v, want 10", cfg.UpdateRateHz)
	}
	if cfg.AgentTimeout != 5*time.Second {
		t.Errorf("AgentTimeout = %v, want 5s", cfg.AgentTimeout)
	}
	if !cfg.EnableAdaptiveFormation {
		t.Error("EnableAdaptiveFormation should default to true")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "zero min agents",
			mutate:  func(c *Config) { c.MinAgents = 0 },
			wantErr: true,
		},
		{
			name:    "max below min",
			mutate:  func(c *Config) { c.MinAgents = 10; c.MaxAgents = 5 },
			wantErr: true,
		},
		{
			name:    "zero update rate",
			mutate:  func(c *Config) { c.UpdateRateHz = 0 },
			wantErr: true,
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.AgentTimeout = -time.Second },
			wantErr: true,
		},
		{
			name:    "zero spacing",
			mutate:  func(c *Config) { c.Formation.Spacing = 0 },
			wantErr: true,
		},
		{
			name:    "negative collision radius",
			mutate:  func(c *Config) { c.Formation.CollisionRadius = -1 },
			wantErr: true,
		},
		{
			name:    "zero max velocity",
			mutate:  func(c *Config) { c.Formation.MaxVelocity = 0 },
			wantErr: true,
		},
		{
			name:    "zero max acceleration",
			mutate:  func(c *Config) { c.Formation.MaxAcceleration = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultFormationParams(t *testing.T) {
	p := DefaultFormationParams()
	if p.Spacing != 5.0 {
		t.Errorf("Spacing = %v, want 5", p.Spacing)
	}
	if p.CollisionRadius != 2.0 {
		t.Errorf("CollisionRadius = %v, want 2", p.CollisionRadius)
	}
	if p.MaxVelocity != 10.0 {
		t.Errorf("MaxVelocity = %v, want 10", p.MaxVelocity)
	}
	if p.MaxAcceleration != 5.0 {
		t.Errorf("MaxAcceleration = %v, want 5", p.MaxAcceleration)
	}
	if p.FormationRadius != 10.0 {
		t.Errorf("FormationRadius = %v, want 10", p.FormationRadius)
	}
}
