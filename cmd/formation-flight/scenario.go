// Package formationflight runs a self-contained swarm scenario: agents spawn
// on a ring, fly a formation behind a leader and work through a patrol
// mission while the coordinator ticks at the configured rate.
package formationflight

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/openfleet/swarmctl/cmd/formation-flight/reporting"
	"github.com/openfleet/swarmctl/pkg/contextdir"
	"github.com/openfleet/swarmctl/pkg/decision"
	"github.com/openfleet/swarmctl/pkg/logger"
	"github.com/openfleet/swarmctl/pkg/messaging"
	"github.com/openfleet/swarmctl/pkg/scenario"
	"github.com/openfleet/swarmctl/pkg/swarm"
)

// energyDrainPerSecond models battery consumption while flying
const energyDrainPerSecond = 0.002

// FormationFlightScenario implements the formation flight demo
type FormationFlightScenario struct {
	config *Config
	coord  *swarm.Coordinator
	events *reporting.EventLog

	stopOnce sync.Once
	stopChan chan struct{}
}

// New creates a new instance of the formation flight scenario
func New() scenario.Scenario {
	return &FormationFlightScenario{
		stopChan: make(chan struct{}),
	}
}

// Name returns the scenario name
func (s *FormationFlightScenario) Name() string {
	return "Formation Flight"
}

// Description returns the scenario description
func (s *FormationFlightScenario) Description() string {
	return "Agents hold a formation behind a leader while executing a patrol mission"
}

// Configure sets up the scenario with provided parameters
func (s *FormationFlightScenario) Configure(params map[string]interface{}) error {
	config, err := ValidateAndParse(params)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	s.config = config
	return nil
}

// Run executes the scenario until the mission completes, the duration
// elapses or the context is cancelled
func (s *FormationFlightScenario) Run(ctx context.Context) error {
	if s.config == nil {
		return fmt.Errorf("scenario not configured")
	}

	s.events = reporting.NewEventLog()

	s.coord = swarm.NewCoordinator(
		decision.New(decision.DefaultConfig()),
		messaging.New(messaging.DefaultConfig()),
		contextdir.New(contextdir.DefaultConfig()),
	)
	if err := s.coord.Initialize(s.config.SwarmConfig()); err != nil {
		return fmt.Errorf("failed to initialize coordinator: %w", err)
	}
	if err := s.coord.Start(); err != nil {
		return fmt.Errorf("failed to start coordinator: %w", err)
	}
	defer s.coord.Stop()

	leaderID, err := s.spawnAgents()
	if err != nil {
		return err
	}

	s.coord.SetFormation(s.config.Formation)
	s.coord.SetFormationSpacing(s.config.Spacing)
	if !s.coord.SetFormationLeader(leaderID) {
		return fmt.Errorf("failed to set formation leader %s", leaderID)
	}
	s.events.LogFormation(s.config.Formation, leaderID, s.config.Spacing)

	s.coord.EnableCollectiveDecisionMaking(true)
	s.coord.EnableEmergentBehaviors(true)
	s.coord.EnableDynamicRoleAssignment(false)

	missionID := s.coord.CreateMission(s.buildMission())
	if missionID == "" {
		return fmt.Errorf("failed to create mission")
	}
	if !s.coord.StartMission(missionID) {
		return fmt.Errorf("failed to start mission %s", missionID)
	}
	s.coord.BroadcastMessage(leaderID, "mission started: "+missionID)
	logger.Infof("Mission %s started with %d agents", missionID, s.coord.AgentCount())

	return s.tickLoop(ctx, missionID)
}

// Stop gracefully shuts down the scenario
func (s *FormationFlightScenario) Stop() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	return nil
}

// spawnAgents places agents evenly on a ring and registers them. The first
// agent becomes the formation leader.
func (s *FormationFlightScenario) spawnAgents() (string, error) {
	n := s.config.NumAgents
	radius := math.Max(2*s.config.Spacing, s.config.Spacing*float64(n)/(2*math.Pi))

	leaderID := ""
	for i := 0; i < n; i++ {
		agentID := fmt.Sprintf("agent-%02d", i+1)
		angle := 2 * math.Pi * float64(i) / float64(n)

		role := swarm.RoleWorker
		if i == 0 {
			role = swarm.RoleLeader
			leaderID = agentID
		}

		state := swarm.AgentState{
			Role:        role,
			Position:    swarm.Vector3{X: radius * math.Cos(angle), Y: radius * math.Sin(angle), Z: -20},
			Orientation: swarm.IdentityQuaternion(),
			EnergyLevel: 1.0,
			Capabilities: map[string]float64{
				"flight":     0.9,
				"navigation": 0.8,
				"sensing":    0.6,
			},
		}

		if !s.coord.AddAgent(agentID, state) {
			return "", fmt.Errorf("failed to add agent %s", agentID)
		}
		s.events.LogSpawn(agentID, role, state.Position)
	}

	return leaderID, nil
}

// buildMission creates a patrol mission with one waypoint task per leg.
// Task durations are sized so the mission can finish within the run.
func (s *FormationFlightScenario) buildMission() swarm.Mission {
	legDuration := s.config.Duration / 8
	waypoints := []swarm.Vector3{
		{X: 100, Y: 0, Z: -20},
		{X: 100, Y: 100, Z: -20},
		{X: 0, Y: 100, Z: -20},
		{X: 0, Y: 0, Z: -20},
	}

	tasks := make([]swarm.Task, len(waypoints))
	for i, wp := range waypoints {
		tasks[i] = swarm.Task{
			Description:          fmt.Sprintf("patrol leg %d", i+1),
			Location:             wp,
			Priority:             1.0,
			EstimatedDuration:    legDuration,
			RequiredCapabilities: []string{"flight", "navigation"},
		}
	}

	return swarm.Mission{
		Type:        s.config.MissionType,
		Description: "perimeter patrol in formation",
		Target:      waypoints[len(waypoints)-1],
		Tasks:       tasks,
		Priority:    1.0,
		Deadline:    time.Now().Add(s.config.Duration),
	}
}

// tickLoop drives the coordinator and the simulated vehicle dynamics
func (s *FormationFlightScenario) tickLoop(ctx context.Context, missionID string) error {
	dt := 1.0 / s.config.UpdateRateHz
	ticker := time.NewTicker(time.Duration(dt * float64(time.Second)))
	defer ticker.Stop()

	timeout := time.After(s.config.Duration)
	statusInterval := int(2 * s.config.UpdateRateHz) // status every ~2s
	tickCount := 0
	prevState := s.coord.SwarmState()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopChan:
			logger.Info("Scenario stopped by user")
			s.events.Summary()
			return nil
		case <-timeout:
			logger.Infof("Scenario completed after %s", s.config.Duration)
			s.events.Summary()
			return nil
		case <-ticker.C:
			s.coord.Update(dt)
			s.applyFormationCommands(dt)

			state := s.coord.SwarmState()
			if state != prevState {
				s.reportStateChange(prevState, state)
				prevState = state
			}

			tickCount++
			if tickCount%statusInterval == 0 {
				s.events.LogStatus(state, s.coord.SwarmCohesion(), s.coord.SwarmDispersion(), s.coord.EmergentBehaviors())
			}

			if mission, ok := s.coord.GetMission(missionID); ok && mission.State == swarm.StateCompleted {
				s.events.LogMission(missionID, mission.State, mission.Progress)
				s.events.Summary()
				return nil
			}
		}
	}
}

// applyFormationCommands integrates each agent one step along its commanded
// velocity and reports the new state back to the coordinator
func (s *FormationFlightScenario) applyFormationCommands(dt float64) {
	commands := s.coord.FormationCommands()
	if commands == nil {
		return
	}

	for _, agent := range s.coord.AllAgents() {
		cmd, ok := commands[agent.ID]
		if !ok {
			continue
		}

		state := agent.State
		state.Position = state.Position.Add(cmd.DesiredVelocity.Scale(dt))
		state.Velocity = cmd.DesiredVelocity
		state.Orientation = cmd.DesiredOrientation
		state.EnergyLevel = math.Max(0, state.EnergyLevel-energyDrainPerSecond*dt)

		s.coord.UpdateAgent(agent.ID, state)
	}
}

// reportStateChange logs swarm state transitions, with emergency detail
func (s *FormationFlightScenario) reportStateChange(from, to swarm.SwarmState) {
	if to == swarm.StateEmergency {
		lowEnergy := 0
		agents := s.coord.AllAgents()
		for _, a := range agents {
			if a.State.EnergyLevel < 0.2 {
				lowEnergy++
			}
		}
		s.events.LogEmergency(true, len(agents), lowEnergy)
		return
	}
	if from == swarm.StateEmergency {
		s.events.LogEmergency(false, s.coord.AgentCount(), 0)
		return
	}
	logger.Infof("Swarm state: %s -> %s", from, to)
}

// init registers the scenario
func init() {
	if err := scenario.DefaultRegistry.Register("Formation Flight", New); err != nil {
		logger.Errorf("Failed to register scenario: %v", err)
	}
}
