// Package decision provides an in-memory decision framework: it tracks agent
// and task state, allocates tasks by capability fitness, advances task
// progress and computes swarm-level metrics.
package decision

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openfleet/swarmctl/pkg/swarm"
)

// Detection thresholds for emergent group behaviors
const (
	aggregationDispersionLimit = 10.0
	formationCohesionFloor     = 0.7
)

// Config holds the framework's tunables
type Config struct {
	// MaxTasksPerAgent caps concurrent assignments per agent
	MaxTasksPerAgent int `yaml:"max_tasks_per_agent"`
}

// DefaultConfig returns the standard framework configuration
func DefaultConfig() Config {
	return Config{MaxTasksPerAgent: 3}
}

// Framework is an in-memory implementation of swarm.DecisionFramework
type Framework struct {
	mu sync.RWMutex

	cfg     Config
	running bool

	mode            swarm.DecisionMode
	emergentEnabled bool
	dynamicRoles    bool

	agents map[string]swarm.AgentState
	tasks  map[string]swarm.Task
}

// New creates a framework with the given configuration
func New(cfg Config) *Framework {
	return &Framework{
		cfg:    cfg,
		agents: make(map[string]swarm.AgentState),
		tasks:  make(map[string]swarm.Task),
	}
}

// Start begins decision processing
func (f *Framework) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = true
	return nil
}

// Stop halts decision processing; state is retained
func (f *Framework) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
}

// Reset clears all agents and tasks
func (f *Framework) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agents = make(map[string]swarm.AgentState)
	f.tasks = make(map[string]swarm.Task)
	f.running = false
}

// Update allocates pending tasks and advances in-progress ones by deltaTime
// seconds. A no-op when stopped.
func (f *Framework) Update(deltaTime float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return
	}

	f.allocateTasks()
	f.advanceTasks(deltaTime)
	if f.dynamicRoles {
		f.reassignRoles()
	}
}

// RegisterAgent adds an agent. Returns false for empty or duplicate ids.
func (f *Framework) RegisterAgent(state swarm.AgentState) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if state.AgentID == "" {
		return false
	}
	if _, exists := f.agents[state.AgentID]; exists {
		return false
	}
	f.agents[state.AgentID] = state
	return true
}

// UnregisterAgent removes an agent and releases its assignments back to
// pending. Returns false when unknown.
func (f *Framework) UnregisterAgent(agentID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.agents[agentID]; !exists {
		return false
	}
	delete(f.agents, agentID)

	for id, task := range f.tasks {
		remaining := task.AssignedAgents[:0]
		for _, a := range task.AssignedAgents {
			if a != agentID {
				remaining = append(remaining, a)
			}
		}
		task.AssignedAgents = remaining
		if len(remaining) == 0 && (task.Status == swarm.TaskAssigned || task.Status == swarm.TaskInProgress) {
			task.Status = swarm.TaskPending
		}
		f.tasks[id] = task
	}
	return true
}

// UpdateAgentState replaces an agent's state. Returns false when unknown.
func (f *Framework) UpdateAgentState(state swarm.AgentState) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	existing, exists := f.agents[state.AgentID]
	if !exists {
		return false
	}
	// Assignments are owned by the framework, not the reporting agent.
	state.AssignedTasks = existing.AssignedTasks
	state.Role = existing.Role
	f.agents[state.AgentID] = state
	return true
}

// AgentState returns one agent's state
func (f *Framework) AgentState(agentID string) (swarm.AgentState, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	state, exists := f.agents[agentID]
	return state, exists
}

// CreateTask registers a task, assigning an id when absent, and returns the id
func (f *Framework) CreateTask(task swarm.Task) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if task.TaskID == "" {
		task.TaskID = "task_" + uuid.NewString()
	}
	if task.Status == "" {
		task.Status = swarm.TaskPending
	}
	f.tasks[task.TaskID] = task
	return task.TaskID
}

// Task returns one task
func (f *Framework) Task(taskID string) (swarm.Task, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	task, exists := f.tasks[taskID]
	return task, exists
}

// SwarmCentroid returns the mean agent position
func (f *Framework) SwarmCentroid() swarm.Vector3 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.agents) == 0 {
		return swarm.Vector3{}
	}
	var sum swarm.Vector3
	for _, a := range f.agents {
		sum = sum.Add(a.Position)
	}
	return sum.Scale(1.0 / float64(len(f.agents)))
}

// SwarmCohesion returns 1/(1 + 0.1·avgDist) where avgDist is the mean
// distance to the centroid. Zero with fewer than two agents.
func (f *Framework) SwarmCohesion() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.agents) < 2 {
		return 0
	}
	centroid := f.centroidLocked()
	var total float64
	for _, a := range f.agents {
		total += a.Position.DistanceTo(centroid)
	}
	avg := total / float64(len(f.agents))
	return 1.0 / (1.0 + 0.1*avg)
}

// SwarmDispersion returns the RMS distance to the centroid. Zero with fewer
// than two agents.
func (f *Framework) SwarmDispersion() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.agents) < 2 {
		return 0
	}
	centroid := f.centroidLocked()
	var sumSq float64
	for _, a := range f.agents {
		d := a.Position.DistanceTo(centroid)
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(f.agents)))
}

func (f *Framework) centroidLocked() swarm.Vector3 {
	var sum swarm.Vector3
	for _, a := range f.agents {
		sum = sum.Add(a.Position)
	}
	return sum.Scale(1.0 / float64(len(f.agents)))
}

// DetectEmergentBehaviors reports group-level patterns: aggregation when
// dispersion is tight, formation flight when cohesion is high. Empty when
// detection is disabled.
func (f *Framework) DetectEmergentBehaviors() []swarm.EmergentBehavior {
	f.mu.RLock()
	enabled := f.emergentEnabled
	agentIDs := make([]string, 0, len(f.agents))
	for id := range f.agents {
		agentIDs = append(agentIDs, id)
	}
	f.mu.RUnlock()

	if !enabled || len(agentIDs) < 2 {
		return nil
	}

	dispersion := f.SwarmDispersion()
	cohesion := f.SwarmCohesion()
	now := time.Now()

	var behaviors []swarm.EmergentBehavior
	if dispersion < aggregationDispersionLimit {
		behaviors = append(behaviors, swarm.EmergentBehavior{
			BehaviorID:       "behavior_" + uuid.NewString(),
			Name:             "aggregation",
			TriggeringAgents: agentIDs,
			Strength:         1.0 - dispersion/aggregationDispersionLimit,
			StartedAt:        now,
		})
	}
	if cohesion > formationCohesionFloor {
		behaviors = append(behaviors, swarm.EmergentBehavior{
			BehaviorID:       "behavior_" + uuid.NewString(),
			Name:             "formation_flight",
			TriggeringAgents: agentIDs,
			Strength:         cohesion,
			StartedAt:        now,
		})
	}
	return behaviors
}

// AssessSwarmCapabilities returns the mean proficiency per capability across
// all agents that declare it
func (f *Framework) AssessSwarmCapabilities() map[string]float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, a := range f.agents {
		for name, level := range a.Capabilities {
			sums[name] += level
			counts[name]++
		}
	}

	out := make(map[string]float64, len(sums))
	for name, sum := range sums {
		out[name] = sum / float64(counts[name])
	}
	return out
}

// SetDecisionMode selects centralized or consensus decision making
func (f *Framework) SetDecisionMode(mode swarm.DecisionMode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = mode
}

// DecisionMode returns the active decision mode
func (f *Framework) DecisionMode() swarm.DecisionMode {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.mode
}

// SetEmergentBehaviorsEnabled toggles emergent behavior detection
func (f *Framework) SetEmergentBehaviorsEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emergentEnabled = enabled
}

// SetDynamicRolesEnabled toggles energy-based role reassignment
func (f *Framework) SetDynamicRolesEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dynamicRoles = enabled
}

// allocateTasks assigns each pending task to the agent with the best
// capability fitness that still has assignment headroom. Callers hold mu.
func (f *Framework) allocateTasks() {
	for id, task := range f.tasks {
		if task.Status != swarm.TaskPending {
			continue
		}

		bestID := ""
		bestFitness := 0.0
		for agentID, agent := range f.agents {
			if len(agent.AssignedTasks) >= f.cfg.MaxTasksPerAgent {
				continue
			}
			fitness := capabilityFitness(agent, task)
			if fitness > bestFitness {
				bestFitness = fitness
				bestID = agentID
			}
		}
		if bestID == "" {
			continue
		}

		task.AssignedAgents = []string{bestID}
		task.Status = swarm.TaskAssigned
		f.tasks[id] = task

		agent := f.agents[bestID]
		agent.AssignedTasks = append(agent.AssignedTasks, id)
		f.agents[bestID] = agent
	}
}

// capabilityFitness scores an agent against a task as the mean of its levels
// over the required capabilities, zero when any requirement is missing
func capabilityFitness(agent swarm.AgentState, task swarm.Task) float64 {
	if len(task.RequiredCapabilities) == 0 {
		return 0.5
	}
	var sum float64
	for _, name := range task.RequiredCapabilities {
		level, ok := agent.Capabilities[name]
		if !ok {
			return 0
		}
		sum += level
	}
	return sum / float64(len(task.RequiredCapabilities))
}

// advanceTasks moves assigned tasks into progress and advances completion
// proportionally to elapsed time over the estimated duration. Callers hold mu.
func (f *Framework) advanceTasks(deltaTime float64) {
	for id, task := range f.tasks {
		switch task.Status {
		case swarm.TaskAssigned:
			task.Status = swarm.TaskInProgress
		case swarm.TaskInProgress:
			duration := task.EstimatedDuration.Seconds()
			if duration <= 0 {
				task.Completion = 1.0
			} else {
				task.Completion += deltaTime / duration
			}
			if task.Completion >= 1.0 {
				task.Completion = 1.0
				task.Status = swarm.TaskCompleted
				f.releaseAssignments(task)
			}
		default:
			continue
		}
		f.tasks[id] = task
	}
}

// releaseAssignments removes a finished task from its agents' assignment
// lists. Callers hold mu.
func (f *Framework) releaseAssignments(task swarm.Task) {
	for _, agentID := range task.AssignedAgents {
		agent, exists := f.agents[agentID]
		if !exists {
			continue
		}
		remaining := agent.AssignedTasks[:0]
		for _, t := range agent.AssignedTasks {
			if t != task.TaskID {
				remaining = append(remaining, t)
			}
		}
		agent.AssignedTasks = remaining
		f.agents[agentID] = agent
	}
}

// reassignRoles promotes the highest-energy agent to leader and demotes any
// other leader to worker. Callers hold mu.
func (f *Framework) reassignRoles() {
	bestID := ""
	bestEnergy := -1.0
	for id, a := range f.agents {
		if a.EnergyLevel > bestEnergy {
			bestEnergy = a.EnergyLevel
			bestID = id
		}
	}
	if bestID == "" {
		return
	}

	for id, a := range f.agents {
		switch {
		case id == bestID && a.Role == swarm.RoleWorker:
			a.Role = swarm.RoleLeader
		case id != bestID && a.Role == swarm.RoleLeader:
			a.Role = swarm.RoleWorker
		default:
			continue
		}
		f.agents[id] = a
	}
}
