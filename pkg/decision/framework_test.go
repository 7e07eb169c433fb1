package decision

import (
	"math"
	"testing"
	"time"

	"github.com/openfleet/swarmctl/pkg/swarm"
)

func startedFramework(t *testing.T) *Framework {
	t.Helper()
	f := New(DefaultConfig())
	if err := f.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return f
}

func agentAt(id string, pos swarm.Vector3, caps map[string]float64) swarm.AgentState {
	return swarm.AgentState{
		AgentID:      id,
		Position:     pos,
		EnergyLevel:  1.0,
		Capabilities: caps,
		Timestamp:    time.Now(),
	}
}

func TestRegisterAgent(t *testing.T) {
	f := startedFramework(t)

	if f.RegisterAgent(swarm.AgentState{}) {
		t.Error("empty agent id must be rejected")
	}
	if !f.RegisterAgent(agentAt("a1", swarm.Vector3{}, nil)) {
		t.Error("registration failed")
	}
	if f.RegisterAgent(agentAt("a1", swarm.Vector3{}, nil)) {
		t.Error("duplicate registration must be rejected")
	}

	if _, ok := f.AgentState("a1"); !ok {
		t.Error("registered agent not found")
	}
	if !f.UnregisterAgent("a1") {
		t.Error("unregister failed")
	}
	if f.UnregisterAgent("a1") {
		t.Error("unregistering twice must fail")
	}
}

func TestSwarmMetrics(t *testing.T) {
	f := startedFramework(t)

	t.Run("fewer than two agents", func(t *testing.T) {
		if f.SwarmCohesion() != 0 {
			t.Error("cohesion with no agents must be 0")
		}
		f.RegisterAgent(agentAt("solo", swarm.Vector3{X: 3}, nil))
		if f.SwarmCohesion() != 0 || f.SwarmDispersion() != 0 {
			t.Error("metrics with one agent must be 0")
		}
		f.UnregisterAgent("solo")
	})

	f.RegisterAgent(agentAt("a1", swarm.Vector3{}, nil))
	f.RegisterAgent(agentAt("a2", swarm.Vector3{X: 10}, nil))

	centroid := f.SwarmCentroid()
	if math.Abs(centroid.X-5) > 1e-9 {
		t.Errorf("centroid = %v, want (5,0,0)", centroid)
	}

	// avg distance to centroid is 5: cohesion = 1/(1+0.5)
	cohesion := f.SwarmCohesion()
	if math.Abs(cohesion-1.0/1.5) > 1e-9 {
		t.Errorf("cohesion = %v, want %v", cohesion, 1.0/1.5)
	}

	// RMS distance is 5
	dispersion := f.SwarmDispersion()
	if math.Abs(dispersion-5.0) > 1e-9 {
		t.Errorf("dispersion = %v, want 5", dispersion)
	}
}

func TestTaskAllocationByCapability(t *testing.T) {
	f := startedFramework(t)

	f.RegisterAgent(agentAt("scout", swarm.Vector3{}, map[string]float64{"sensing": 0.9}))
	f.RegisterAgent(agentAt("hauler", swarm.Vector3{}, map[string]float64{"cargo": 0.8}))

	taskID := f.CreateTask(swarm.Task{
		Description:          "survey the ridge",
		EstimatedDuration:    time.Minute,
		RequiredCapabilities: []string{"sensing"},
	})

	f.Update(0.1)

	task, ok := f.Task(taskID)
	if !ok {
		t.Fatal("task not found")
	}
	if task.Status != swarm.TaskInProgress && task.Status != swarm.TaskAssigned {
		t.Fatalf("task status = %q, want assigned or in progress", task.Status)
	}
	if len(task.AssignedAgents) != 1 || task.AssignedAgents[0] != "scout" {
		t.Errorf("assigned to %v, want scout", task.AssignedAgents)
	}

	scout, _ := f.AgentState("scout")
	if len(scout.AssignedTasks) != 1 {
		t.Errorf("scout assignments = %v, want the task", scout.AssignedTasks)
	}
}

func TestTaskRemainsPendingWithoutCapableAgent(t *testing.T) {
	f := startedFramework(t)
	f.RegisterAgent(agentAt("a1", swarm.Vector3{}, map[string]float64{"cargo": 0.5}))

	taskID := f.CreateTask(swarm.Task{
		RequiredCapabilities: []string{"sensing"},
		EstimatedDuration:    time.Minute,
	})
	f.Update(0.1)

	task, _ := f.Task(taskID)
	if task.Status != swarm.TaskPending {
		t.Errorf("status = %q, want pending", task.Status)
	}
}

func TestTaskProgressAndCompletion(t *testing.T) {
	f := startedFramework(t)
	f.RegisterAgent(agentAt("a1", swarm.Vector3{}, map[string]float64{"work": 1.0}))

	taskID := f.CreateTask(swarm.Task{
		RequiredCapabilities: []string{"work"},
		EstimatedDuration:    10 * time.Second,
	})

	f.Update(0.1) // allocate
	f.Update(0.1) // assigned -> in progress
	f.Update(5.0) // halfway

	task, _ := f.Task(taskID)
	if task.Status != swarm.TaskInProgress {
		t.Fatalf("status = %q, want in progress", task.Status)
	}
	if task.Completion < 0.45 || task.Completion > 0.55 {
		t.Errorf("completion = %v, want ~0.5", task.Completion)
	}

	f.Update(6.0)
	task, _ = f.Task(taskID)
	if task.Status != swarm.TaskCompleted {
		t.Fatalf("status = %q, want completed", task.Status)
	}
	if task.Completion != 1.0 {
		t.Errorf("completion = %v, want 1", task.Completion)
	}

	// Completion releases the agent's assignment
	a1, _ := f.AgentState("a1")
	if len(a1.AssignedTasks) != 0 {
		t.Errorf("assignments = %v, want released", a1.AssignedTasks)
	}
}

func TestEmergentBehaviorsGated(t *testing.T) {
	f := startedFramework(t)
	f.RegisterAgent(agentAt("a1", swarm.Vector3{}, nil))
	f.RegisterAgent(agentAt("a2", swarm.Vector3{X: 2}, nil))

	if got := f.DetectEmergentBehaviors(); got != nil {
		t.Errorf("detection disabled, got %v", got)
	}

	f.SetEmergentBehaviorsEnabled(true)
	behaviors := f.DetectEmergentBehaviors()
	if len(behaviors) == 0 {
		t.Fatal("tight swarm should exhibit emergent behaviors")
	}

	names := make(map[string]float64)
	for _, b := range behaviors {
		names[b.Name] = b.Strength
	}
	if _, ok := names["aggregation"]; !ok {
		t.Error("expected aggregation for dispersion < 10")
	}
	if _, ok := names["formation_flight"]; !ok {
		t.Error("expected formation flight for cohesion > 0.7")
	}
	for name, strength := range names {
		if strength < 0 || strength > 1 {
			t.Errorf("%s strength = %v, want [0,1]", name, strength)
		}
	}
}

func TestAssessSwarmCapabilities(t *testing.T) {
	f := startedFramework(t)
	f.RegisterAgent(agentAt("a1", swarm.Vector3{}, map[string]float64{"flight": 0.8, "sensing": 0.6}))
	f.RegisterAgent(agentAt("a2", swarm.Vector3{}, map[string]float64{"flight": 0.4}))

	caps := f.AssessSwarmCapabilities()
	if math.Abs(caps["flight"]-0.6) > 1e-9 {
		t.Errorf("flight = %v, want 0.6", caps["flight"])
	}
	if math.Abs(caps["sensing"]-0.6) > 1e-9 {
		t.Errorf("sensing = %v, want 0.6", caps["sensing"])
	}
}

func TestUnregisterReleasesTasks(t *testing.T) {
	f := startedFramework(t)
	f.RegisterAgent(agentAt("a1", swarm.Vector3{}, map[string]float64{"work": 1.0}))

	taskID := f.CreateTask(swarm.Task{
		RequiredCapabilities: []string{"work"},
		EstimatedDuration:    time.Hour,
	})
	f.Update(0.1)

	f.UnregisterAgent("a1")
	task, _ := f.Task(taskID)
	if task.Status != swarm.TaskPending {
		t.Errorf("status = %q, want pending after agent loss", task.Status)
	}
	if len(task.AssignedAgents) != 0 {
		t.Errorf("assigned agents = %v, want none", task.AssignedAgents)
	}
}
