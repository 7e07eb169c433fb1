package swarm

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// lowEnergyThreshold is the energy level below which an agent counts toward
// the emergency condition
const lowEnergyThreshold = 0.2

// Coordinator orchestrates a swarm of agents: registry, mission lifecycle,
// formation control and health monitoring, delegating collective intelligence
// to a DecisionFramework, transport to a MessagingBus and shared state to a
// ContextDirectory.
//
// Three mutexes guard three independent concerns. Methods that need more than
// one acquire them in the fixed order agents, missions, state; most acquire
// them sequentially rather than nested.
type Coordinator struct {
	decisions DecisionFramework
	bus       MessagingBus
	contexts  ContextDirectory

	agentsMu     sync.RWMutex
	agents       map[string]*Agent
	leaderID     string
	engine       *FormationEngine
	lastCommands map[string]FormationCommand

	missionsMu sync.RWMutex
	missions   map[string]*Mission

	stateMu     sync.RWMutex
	cfg         Config
	state       SwarmState
	resumeState SwarmState
	running     bool
	initialized bool
}

// NewCoordinator creates a coordinator wired to the given collaborators.
// Initialize must be called before Start.
func NewCoordinator(decisions DecisionFramework, bus MessagingBus, contexts ContextDirectory) *Coordinator {
	return &Coordinator{
		decisions: decisions,
		bus:       bus,
		contexts:  contexts,
		agents:    make(map[string]*Agent),
		missions:  make(map[string]*Mission),
		engine:    NewFormationEngine(DefaultFormationParams()),
	}
}

// Initialize validates and applies the configuration, clears both registries
// and resets the collaborators. It may be called repeatedly while stopped.
func (c *Coordinator) Initialize(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid swarm config: %w", err)
	}

	c.stateMu.Lock()
	if c.running {
		c.stateMu.Unlock()
		return fmt.Errorf("cannot initialize a running coordinator")
	}
	c.cfg = cfg
	c.state = StateIdle
	c.resumeState = StateIdle
	c.initialized = true
	c.stateMu.Unlock()

	c.agentsMu.Lock()
	c.agents = make(map[string]*Agent)
	c.leaderID = ""
	c.engine = NewFormationEngine(cfg.Formation)
	c.lastCommands = nil
	c.agentsMu.Unlock()

	c.missionsMu.Lock()
	c.missions = make(map[string]*Mission)
	c.missionsMu.Unlock()

	c.decisions.Reset()
	c.bus.Reset()
	c.contexts.Reset()

	return nil
}

// Start begins coordination. Returns an error if Initialize has not run;
// starting an already running coordinator is a no-op.
func (c *Coordinator) Start() error {
	c.stateMu.Lock()
	if !c.initialized {
		c.stateMu.Unlock()
		return fmt.Errorf("coordinator not initialized")
	}
	if c.running {
		c.stateMu.Unlock()
		return nil
	}
	c.running = true
	c.stateMu.Unlock()

	if err := c.decisions.Start(); err != nil {
		c.Stop()
		return fmt.Errorf("starting decision framework: %w", err)
	}
	if err := c.bus.Start(); err != nil {
		c.Stop()
		return fmt.Errorf("starting messaging bus: %w", err)
	}
	if err := c.contexts.Start(); err != nil {
		c.Stop()
		return fmt.Errorf("starting context directory: %w", err)
	}
	return nil
}

// Stop halts coordination cooperatively: the running flag drops immediately
// and in-flight Update calls finish their tick.
func (c *Coordinator) Stop() {
	c.stateMu.Lock()
	wasRunning := c.running
	c.running = false
	c.stateMu.Unlock()

	if wasRunning {
		c.decisions.Stop()
		c.bus.Stop()
		c.contexts.Stop()
	}
}

// Reset stops the coordinator and clears all agents, missions and formation
// state. The configuration is kept; Start may be called again directly.
func (c *Coordinator) Reset() {
	c.Stop()

	c.agentsMu.Lock()
	c.agents = make(map[string]*Agent)
	c.leaderID = ""
	c.engine.Reset()
	c.lastCommands = nil
	c.agentsMu.Unlock()

	c.missionsMu.Lock()
	c.missions = make(map[string]*Mission)
	c.missionsMu.Unlock()

	c.stateMu.Lock()
	c.state = StateIdle
	c.resumeState = StateIdle
	c.stateMu.Unlock()

	c.decisions.Reset()
	c.bus.Reset()
	c.contexts.Reset()
}

// Update advances the swarm by deltaTime seconds. A no-op when stopped.
func (c *Coordinator) Update(deltaTime float64) {
	if !c.IsRunning() {
		return
	}

	c.synchronizeAgents()
	c.decisions.Update(deltaTime)
	c.updateFormations()
	c.updateMissions()
	c.checkAgentHealth()
	c.handleEmergencies()
}

// IsRunning reports whether the coordinator is between Start and Stop
func (c *Coordinator) IsRunning() bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.running
}

// SwarmState returns the global swarm state
func (c *Coordinator) SwarmState() SwarmState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// Config returns the active configuration
func (c *Coordinator) Config() Config {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.cfg
}

// ---- agent registry ----

// AddAgent registers an agent, overwriting any existing entry with the same
// id. Returns false when the coordinator is not running, the id is empty, or
// a new id would exceed capacity.
func (c *Coordinator) AddAgent(agentID string, state AgentState) bool {
	c.stateMu.RLock()
	running, maxAgents := c.running, c.cfg.MaxAgents
	c.stateMu.RUnlock()
	if !running || agentID == "" {
		return false
	}

	c.agentsMu.Lock()
	defer c.agentsMu.Unlock()

	now := time.Now()
	state.AgentID = agentID
	state.Timestamp = now

	if existing, exists := c.agents[agentID]; exists {
		existing.State = state
		existing.LastUpdate = now
		c.decisions.UpdateAgentState(state)
		return true
	}
	if len(c.agents) >= maxAgents {
		return false
	}

	agent := &Agent{
		ID:         agentID,
		State:      state,
		LastUpdate: now,
	}

	c.decisions.RegisterAgent(state)
	agent.MessagingConnected = c.bus.RegisterEndpoint(agentID)
	agent.ContextConnected = c.contexts.PublishContext(ContextData{
		AgentID:   agentID,
		Kind:      "registration",
		Data:      map[string]string{"role": state.Role.String()},
		Timestamp: now,
	})

	c.agents[agentID] = agent
	return true
}

// RemoveAgent unregisters an agent. Returns false when unknown.
func (c *Coordinator) RemoveAgent(agentID string) bool {
	c.agentsMu.Lock()
	defer c.agentsMu.Unlock()

	if _, exists := c.agents[agentID]; !exists {
		return false
	}

	delete(c.agents, agentID)
	if c.leaderID == agentID {
		c.leaderID = ""
		c.lastCommands = nil
	}
	delete(c.lastCommands, agentID)

	c.decisions.UnregisterAgent(agentID)
	c.bus.UnregisterEndpoint(agentID)
	return true
}

// UpdateAgent replaces an agent's kinematic and capability state and stamps
// its liveness timestamp. Returns false when unknown.
func (c *Coordinator) UpdateAgent(agentID string, state AgentState) bool {
	c.agentsMu.Lock()
	defer c.agentsMu.Unlock()

	agent, exists := c.agents[agentID]
	if !exists {
		return false
	}

	now := time.Now()
	state.AgentID = agentID
	state.Timestamp = now
	agent.State = state
	agent.LastUpdate = now

	c.decisions.UpdateAgentState(state)
	return true
}

// GetAgent returns a snapshot of one agent
func (c *Coordinator) GetAgent(agentID string) (Agent, bool) {
	c.agentsMu.RLock()
	defer c.agentsMu.RUnlock()

	agent, exists := c.agents[agentID]
	if !exists {
		return Agent{}, false
	}
	return *agent, true
}

// AllAgents returns snapshots of every agent, ordered by id
func (c *Coordinator) AllAgents() []Agent {
	c.agentsMu.RLock()
	defer c.agentsMu.RUnlock()

	out := make([]Agent, 0, len(c.agents))
	for _, id := range c.sortedAgentIDs() {
		out = append(out, *c.agents[id])
	}
	return out
}

// AgentCount returns the number of registered agents
func (c *Coordinator) AgentCount() int {
	c.agentsMu.RLock()
	defer c.agentsMu.RUnlock()
	return len(c.agents)
}

// sortedAgentIDs returns agent ids in ascending order. Callers hold agentsMu.
func (c *Coordinator) sortedAgentIDs() []string {
	ids := make([]string, 0, len(c.agents))
	for id := range c.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ---- mission lifecycle ----

// CreateMission registers a mission, assigning an id when absent, and hands
// its tasks to the decision framework. Returns the mission id, or "" when the
// coordinator is not running.
func (c *Coordinator) CreateMission(mission Mission) string {
	if !c.IsRunning() {
		return ""
	}

	if mission.MissionID == "" {
		mission.MissionID = "mission_" + uuid.NewString()
	}
	mission.State = StatePlanning
	mission.Progress = 0
	mission.StartedAt = time.Now()

	for i := range mission.Tasks {
		task := &mission.Tasks[i]
		if task.TaskID == "" {
			task.TaskID = "task_" + uuid.NewString()
		}
		if task.Status == "" {
			task.Status = TaskPending
		}
		c.decisions.CreateTask(*task)
	}

	c.missionsMu.Lock()
	c.missions[mission.MissionID] = &mission
	c.missionsMu.Unlock()

	return mission.MissionID
}

// StartMission moves a planned mission to Executing and raises the global
// swarm state with it. Returns false for unknown missions or when stopped.
func (c *Coordinator) StartMission(missionID string) bool {
	if !c.IsRunning() {
		return false
	}

	c.missionsMu.Lock()
	mission, exists := c.missions[missionID]
	if !exists {
		c.missionsMu.Unlock()
		return false
	}
	mission.State = StateExecuting
	mission.StartedAt = time.Now()
	c.missionsMu.Unlock()

	c.stateMu.Lock()
	if c.state == StateEmergency {
		c.resumeState = StateExecuting
	} else {
		c.state = StateExecuting
	}
	c.stateMu.Unlock()
	return true
}

// PauseMission suspends an executing mission. Returns false when unknown.
func (c *Coordinator) PauseMission(missionID string) bool {
	c.missionsMu.Lock()
	defer c.missionsMu.Unlock()

	mission, exists := c.missions[missionID]
	if !exists {
		return false
	}
	mission.State = StateIdle
	return true
}

// ResumeMission restarts a paused mission. Only missions in the paused state
// resume; completed, failed or executing missions are left untouched.
func (c *Coordinator) ResumeMission(missionID string) bool {
	c.missionsMu.Lock()
	defer c.missionsMu.Unlock()

	mission, exists := c.missions[missionID]
	if !exists || mission.State != StateIdle {
		return false
	}
	mission.State = StateExecuting
	return true
}

// AbortMission marks a mission Failed regardless of its current state.
// Returns false when unknown.
func (c *Coordinator) AbortMission(missionID string) bool {
	c.missionsMu.Lock()
	defer c.missionsMu.Unlock()

	mission, exists := c.missions[missionID]
	if !exists {
		return false
	}
	mission.State = StateFailed
	return true
}

// GetMission returns a snapshot of one mission
func (c *Coordinator) GetMission(missionID string) (Mission, bool) {
	c.missionsMu.RLock()
	defer c.missionsMu.RUnlock()

	mission, exists := c.missions[missionID]
	if !exists {
		return Mission{}, false
	}
	return *mission, true
}

// ActiveMissions returns snapshots of missions still planning or executing,
// ordered by id
func (c *Coordinator) ActiveMissions() []Mission {
	c.missionsMu.RLock()
	defer c.missionsMu.RUnlock()

	ids := make([]string, 0, len(c.missions))
	for id, m := range c.missions {
		if m.Active() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]Mission, 0, len(ids))
	for _, id := range ids {
		out = append(out, *c.missions[id])
	}
	return out
}

// ---- formation control ----

// SetFormation switches the active formation geometry
func (c *Coordinator) SetFormation(t FormationType) {
	c.agentsMu.Lock()
	defer c.agentsMu.Unlock()
	c.engine.SetType(t)
}

// FormationType returns the active formation geometry
func (c *Coordinator) FormationType() FormationType {
	c.agentsMu.RLock()
	defer c.agentsMu.RUnlock()
	return c.engine.Type()
}

// SetCustomFormation installs explicit leader-frame offsets and switches the
// geometry to Custom
func (c *Coordinator) SetCustomFormation(offsets []Vector3) {
	c.agentsMu.Lock()
	defer c.agentsMu.Unlock()
	c.engine.SetCustomFormation(offsets)
}

// SetFormationSpacing adjusts inter-agent spacing
func (c *Coordinator) SetFormationSpacing(spacing float64) {
	c.agentsMu.Lock()
	defer c.agentsMu.Unlock()
	c.engine.SetSpacing(spacing)
}

// SetFormationLeader anchors the formation to the given agent. Returns false
// when the agent is unknown.
func (c *Coordinator) SetFormationLeader(agentID string) bool {
	c.agentsMu.Lock()
	defer c.agentsMu.Unlock()

	if _, exists := c.agents[agentID]; !exists {
		return false
	}
	c.leaderID = agentID
	return true
}

// FormationLeader returns the id of the current formation leader, or ""
func (c *Coordinator) FormationLeader() string {
	c.agentsMu.RLock()
	defer c.agentsMu.RUnlock()
	return c.leaderID
}

// FormationCommands returns the per-agent formation commands, keyed by agent
// id. After a tick it returns the commands from the most recent Update;
// before the first tick it computes them on demand. Nil when no leader is
// set.
func (c *Coordinator) FormationCommands() map[string]FormationCommand {
	c.agentsMu.RLock()
	defer c.agentsMu.RUnlock()

	if c.lastCommands != nil {
		out := make(map[string]FormationCommand, len(c.lastCommands))
		for id, cmd := range c.lastCommands {
			out[id] = cmd
		}
		return out
	}
	return c.computeFormationCommands()
}

// computeFormationCommands runs the formation engine over every agent.
// Engine indices are assigned by ascending agent id so results do not depend
// on map iteration order. Callers hold agentsMu.
func (c *Coordinator) computeFormationCommands() map[string]FormationCommand {
	leader, exists := c.agents[c.leaderID]
	if !exists || len(c.agents) == 0 {
		return nil
	}

	ids := c.sortedAgentIDs()
	states := make([]VehicleState, len(ids))
	for i, id := range ids {
		a := c.agents[id]
		states[i] = VehicleState{
			Position:    a.State.Position,
			Velocity:    a.State.Velocity,
			Orientation: a.State.Orientation,
			Index:       i,
		}
	}

	leaderState := VehicleState{
		Position:    leader.State.Position,
		Velocity:    leader.State.Velocity,
		Orientation: leader.State.Orientation,
	}

	commands := make(map[string]FormationCommand, len(ids))
	for i, id := range ids {
		commands[id] = c.engine.ComputeCommand(i, states[i], states, leaderState)
	}
	return commands
}

// ---- collective intelligence ----

// EnableCollectiveDecisionMaking switches the decision framework between
// consensus and centralized modes
func (c *Coordinator) EnableCollectiveDecisionMaking(enabled bool) {
	if enabled {
		c.decisions.SetDecisionMode(DecisionConsensus)
	} else {
		c.decisions.SetDecisionMode(DecisionCentralized)
	}
}

// EnableEmergentBehaviors toggles emergent behavior detection
func (c *Coordinator) EnableEmergentBehaviors(enabled bool) {
	c.decisions.SetEmergentBehaviorsEnabled(enabled)
}

// EnableDynamicRoleAssignment toggles dynamic role reassignment
func (c *Coordinator) EnableDynamicRoleAssignment(enabled bool) {
	c.decisions.SetDynamicRolesEnabled(enabled)
}

// EmergentBehaviors returns the currently detected group-level behaviors
func (c *Coordinator) EmergentBehaviors() []EmergentBehavior {
	return c.decisions.DetectEmergentBehaviors()
}

// AssessSwarmCapabilities returns the swarm's aggregate capability profile
func (c *Coordinator) AssessSwarmCapabilities() map[string]float64 {
	return c.decisions.AssessSwarmCapabilities()
}

// SwarmCentroid returns the mean agent position
func (c *Coordinator) SwarmCentroid() Vector3 {
	return c.decisions.SwarmCentroid()
}

// SwarmCohesion returns the cohesion metric in [0,1]
func (c *Coordinator) SwarmCohesion() float64 {
	return c.decisions.SwarmCohesion()
}

// SwarmDispersion returns the RMS distance to the centroid
func (c *Coordinator) SwarmDispersion() float64 {
	return c.decisions.SwarmDispersion()
}

// ---- messaging and context passthroughs ----

// BroadcastMessage sends a message to every registered endpoint. Returns
// false when the coordinator is not running.
func (c *Coordinator) BroadcastMessage(senderID, content string) bool {
	if !c.IsRunning() {
		return false
	}
	return c.bus.SendBroadcast(Message{
		MessageID: "broadcast_" + uuid.NewString(),
		SenderID:  senderID,
		Type:      MessageBroadcast,
		Content:   content,
		Timestamp: time.Now(),
	})
}

// SendAgentMessage sends a direct message. Returns false when the coordinator
// is not running or the receiver is unknown to the bus.
func (c *Coordinator) SendAgentMessage(senderID, receiverID, content string) bool {
	if !c.IsRunning() {
		return false
	}
	return c.bus.SendMessage(Message{
		MessageID:  "msg_" + uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Type:       MessageRequest,
		Content:    content,
		Timestamp:  time.Now(),
	})
}

// Messages drains and returns all queued bus messages
func (c *Coordinator) Messages() []Message {
	return c.bus.ReceiveMessages()
}

// PublishContext stores a context record in the directory
func (c *Coordinator) PublishContext(ctx ContextData) bool {
	return c.contexts.PublishContext(ctx)
}

// QueryContext returns all stored context records
func (c *Coordinator) QueryContext() []ContextData {
	return c.contexts.QueryContext()
}

// ---- tick phases ----

// synchronizeAgents pulls each agent's authoritative state from the decision
// framework and republishes context for context-connected agents.
// Collaborator reads happen outside agentsMu.
func (c *Coordinator) synchronizeAgents() {
	c.agentsMu.RLock()
	ids := c.sortedAgentIDs()
	c.agentsMu.RUnlock()

	fresh := make(map[string]AgentState, len(ids))
	for _, id := range ids {
		if state, ok := c.decisions.AgentState(id); ok {
			fresh[id] = state
		}
	}

	type publish struct {
		id    string
		state AgentState
	}
	var toPublish []publish

	c.agentsMu.Lock()
	for id, state := range fresh {
		agent, exists := c.agents[id]
		if !exists {
			continue
		}
		agent.State = state
		if agent.ContextConnected {
			toPublish = append(toPublish, publish{id: id, state: state})
		}
	}
	c.agentsMu.Unlock()

	for _, p := range toPublish {
		c.contexts.PublishContext(ContextData{
			AgentID: p.id,
			Kind:    "agent_state",
			Data: map[string]string{
				"x":      strconv.FormatFloat(p.state.Position.X, 'f', 2, 64),
				"y":      strconv.FormatFloat(p.state.Position.Y, 'f', 2, 64),
				"z":      strconv.FormatFloat(p.state.Position.Z, 'f', 2, 64),
				"energy": strconv.FormatFloat(p.state.EnergyLevel, 'f', 3, 64),
			},
			Timestamp: time.Now(),
		})
	}
}

// updateFormations recomputes formation commands when adaptive formation is
// enabled and a leader is anchored. Application of the commands belongs to
// the embedding vehicle layer; the latest set is cached for FormationCommands.
func (c *Coordinator) updateFormations() {
	c.stateMu.RLock()
	adaptive := c.cfg.EnableAdaptiveFormation
	c.stateMu.RUnlock()
	if !adaptive {
		return
	}

	c.agentsMu.Lock()
	defer c.agentsMu.Unlock()
	if c.leaderID == "" {
		c.lastCommands = nil
		return
	}
	c.lastCommands = c.computeFormationCommands()
}

// updateMissions refreshes mission progress from task completion and settles
// terminal and aggregate states. Task reads happen outside missionsMu.
func (c *Coordinator) updateMissions() {
	c.missionsMu.RLock()
	taskIDs := make(map[string][]string)
	for id, m := range c.missions {
		if m.State != StateExecuting {
			continue
		}
		ids := make([]string, len(m.Tasks))
		for i, t := range m.Tasks {
			ids[i] = t.TaskID
		}
		taskIDs[id] = ids
	}
	c.missionsMu.RUnlock()

	progress := make(map[string]float64, len(taskIDs))
	for missionID, ids := range taskIDs {
		if len(ids) == 0 {
			continue
		}
		var sum float64
		for _, taskID := range ids {
			if task, ok := c.decisions.Task(taskID); ok {
				sum += task.Completion
			}
		}
		progress[missionID] = sum / float64(len(ids))
	}

	c.missionsMu.Lock()
	anyActive := false
	for id, m := range c.missions {
		if p, ok := progress[id]; ok && m.State == StateExecuting {
			m.Progress = p
			if p >= 1.0 {
				m.State = StateCompleted
			}
		}
		if m.Active() {
			anyActive = true
		}
	}
	c.missionsMu.Unlock()

	// The global state is an aggregate: drop back to Idle when nothing is
	// executing or planning anymore.
	c.stateMu.Lock()
	if !anyActive {
		if c.state == StateExecuting {
			c.state = StateIdle
		}
		if c.state == StateEmergency && c.resumeState == StateExecuting {
			c.resumeState = StateIdle
		}
	}
	c.stateMu.Unlock()
}

// checkAgentHealth marks agents that have not reported within the configured
// timeout as disconnected. Agents are never removed by the health check.
func (c *Coordinator) checkAgentHealth() {
	c.stateMu.RLock()
	timeout := c.cfg.AgentTimeout
	c.stateMu.RUnlock()

	now := time.Now()
	c.agentsMu.Lock()
	defer c.agentsMu.Unlock()
	for _, agent := range c.agents {
		if now.Sub(agent.LastUpdate) > timeout {
			agent.MessagingConnected = false
			agent.ContextConnected = false
		}
	}
}

// handleEmergencies raises the Emergency state when the swarm is below
// minimum strength or more than half the agents are low on energy, and
// restores the prior state once both conditions clear.
func (c *Coordinator) handleEmergencies() {
	c.agentsMu.RLock()
	total := len(c.agents)
	lowEnergy := 0
	for _, agent := range c.agents {
		if agent.State.EnergyLevel < lowEnergyThreshold {
			lowEnergy++
		}
	}
	c.agentsMu.RUnlock()

	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	emergency := total < c.cfg.MinAgents || lowEnergy > total/2
	switch {
	case emergency && c.state != StateEmergency:
		c.resumeState = c.state
		c.state = StateEmergency
	case !emergency && c.state == StateEmergency:
		c.state = c.resumeState
		c.resumeState = StateIdle
	}
}
