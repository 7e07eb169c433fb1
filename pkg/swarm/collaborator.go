package swarm

import "time"

// AgentRole describes the function an agent currently serves in the swarm
type AgentRole int

const (
	RoleWorker AgentRole = iota
	RoleLeader
	RoleScout
	RoleGuardian
	RoleRelay
)

// String returns the lowercase role name
func (r AgentRole) String() string {
	switch r {
	case RoleWorker:
		return "worker"
	case RoleLeader:
		return "leader"
	case RoleScout:
		return "scout"
	case RoleGuardian:
		return "guardian"
	case RoleRelay:
		return "relay"
	default:
		return "unknown"
	}
}

// DecisionMode selects how the decision framework resolves swarm decisions
type DecisionMode int

const (
	// DecisionCentralized routes all decisions through the leader
	DecisionCentralized DecisionMode = iota
	// DecisionConsensus requires group agreement above a threshold
	DecisionConsensus
)

// Task status values used by the decision framework
const (
	TaskPending    = "pending"
	TaskAssigned   = "assigned"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
	TaskFailed     = "failed"
)

// AgentState is the decision framework's authoritative view of one agent
type AgentState struct {
	AgentID       string
	Role          AgentRole
	Position      Vector3
	Velocity      Vector3
	Orientation   Quaternion
	EnergyLevel   float64 // [0,1]
	Capabilities  map[string]float64
	AssignedTasks []string
	Timestamp     time.Time
}

// Task is a unit of mission work tracked by the decision framework
type Task struct {
	TaskID               string
	Description          string
	Location             Vector3
	Priority             float64
	EstimatedDuration    time.Duration
	RequiredCapabilities []string
	AssignedAgents       []string
	Status               string
	Completion           float64 // [0,1]
	Deadline             time.Time
}

// MessageType classifies bus traffic
type MessageType int

const (
	MessageBroadcast MessageType = iota
	MessageRequest
	MessageResponse
	MessageStatusUpdate
)

// Message is a unit of agent-to-agent or coordinator-to-swarm traffic
type Message struct {
	MessageID  string
	SenderID   string
	ReceiverID string // empty for broadcasts
	Type       MessageType
	Content    string
	Timestamp  time.Time
}

// ContextData is a shared-context record published to the context directory
type ContextData struct {
	ContextID string
	AgentID   string
	Kind      string
	Data      map[string]string
	Timestamp time.Time
}

// EmergentBehavior describes a group-level pattern detected by the decision
// framework
type EmergentBehavior struct {
	BehaviorID       string
	Name             string
	TriggeringAgents []string
	Strength         float64 // [0,1]
	StartedAt        time.Time
}

// DecisionFramework tracks per-agent capability and task state and computes
// swarm-level metrics. The coordinator consumes it through this narrow
// interface; implementations own their retry and consistency policies.
type DecisionFramework interface {
	Start() error
	Stop()
	Reset()

	// Update advances internal decision processing by deltaTime seconds.
	Update(deltaTime float64)

	RegisterAgent(state AgentState) bool
	UnregisterAgent(agentID string) bool
	UpdateAgentState(state AgentState) bool
	AgentState(agentID string) (AgentState, bool)

	CreateTask(task Task) string
	Task(taskID string) (Task, bool)

	SwarmCentroid() Vector3
	SwarmCohesion() float64
	SwarmDispersion() float64
	DetectEmergentBehaviors() []EmergentBehavior
	AssessSwarmCapabilities() map[string]float64

	SetDecisionMode(mode DecisionMode)
	SetEmergentBehaviorsEnabled(enabled bool)
	SetDynamicRolesEnabled(enabled bool)
}

// MessagingBus delivers broadcast and direct messages between agents
type MessagingBus interface {
	Start() error
	Stop()
	Reset()

	RegisterEndpoint(agentID string) bool
	UnregisterEndpoint(agentID string) bool

	SendBroadcast(msg Message) bool
	SendMessage(msg Message) bool

	// ReceiveMessages drains and returns all queued messages.
	ReceiveMessages() []Message
}

// ContextDirectory stores and serves shared context records
type ContextDirectory interface {
	Start() error
	Stop()
	Reset()

	PublishContext(ctx ContextData) bool
	QueryContext() []ContextData
}
