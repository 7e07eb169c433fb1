package swarm

import (
	"strings"
	"time"
)

// SwarmState is the lifecycle state of the swarm as a whole and of each
// mission
type SwarmState int

const (
	StateIdle SwarmState = iota
	StatePlanning
	StateExecuting
	StateCompleted
	StateFailed
	StateEmergency
)

// String returns the lowercase state name
func (s SwarmState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlanning:
		return "planning"
	case StateExecuting:
		return "executing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// MissionType classifies the objective of a mission
type MissionType int

const (
	MissionSearchAndRescue MissionType = iota
	MissionSurveillance
	MissionDelivery
	MissionMapping
	MissionPatrol
	MissionEscort
	MissionCustom
)

// String returns the lowercase mission type name
func (t MissionType) String() string {
	switch t {
	case MissionSearchAndRescue:
		return "search_and_rescue"
	case MissionSurveillance:
		return "surveillance"
	case MissionDelivery:
		return "delivery"
	case MissionMapping:
		return "mapping"
	case MissionPatrol:
		return "patrol"
	case MissionEscort:
		return "escort"
	case MissionCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// ParseMissionType parses a mission type name (case-insensitive)
func ParseMissionType(s string) (MissionType, bool) {
	switch strings.ToLower(s) {
	case "search_and_rescue":
		return MissionSearchAndRescue, true
	case "surveillance":
		return MissionSurveillance, true
	case "delivery":
		return MissionDelivery, true
	case "mapping":
		return MissionMapping, true
	case "patrol":
		return MissionPatrol, true
	case "escort":
		return MissionEscort, true
	case "custom":
		return MissionCustom, true
	default:
		return MissionCustom, false
	}
}

// Mission groups tasks under a shared objective. Progress is the mean task
// completion, recomputed each tick from the decision framework's task state.
type Mission struct {
	MissionID   string
	Type        MissionType
	Description string
	Target      Vector3
	Tasks       []Task
	Priority    float64
	Deadline    time.Time
	State       SwarmState
	Progress    float64 // [0,1]
	StartedAt   time.Time
	Parameters  map[string]string
}

// Active reports whether the mission still needs tick processing
func (m Mission) Active() bool {
	return m.State == StatePlanning || m.State == StateExecuting
}
