// Package reporting provides the colored event log used by the formation
// flight scenario.
package reporting

import (
	"fmt"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/openfleet/swarmctl/pkg/logger"
	"github.com/openfleet/swarmctl/pkg/swarm"
)

// Event types
const (
	EventTypeSpawn     = "spawn"
	EventTypeFormation = "formation"
	EventTypeMission   = "mission"
	EventTypeEmergency = "emergency"
	EventTypeStatus    = "status"
	EventTypeSystem    = "system"
)

// Severity constants
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

var (
	colorInfo     = color.New(color.FgCyan)
	colorWarning  = color.New(color.FgYellow)
	colorError    = color.New(color.FgRed)
	colorCritical = color.New(color.FgRed, color.Bold)
	colorSuccess  = color.New(color.FgGreen)
)

// Event is one logged scenario event
type Event struct {
	Timestamp time.Time
	Type      string
	Severity  string
	AgentID   string
	Message   string
	Details   map[string]interface{}
}

// EventLog records scenario events and prints them as they happen
type EventLog struct {
	runID     string
	startTime time.Time

	mu     sync.RWMutex
	events []Event
}

// NewEventLog creates an event log for one scenario run
func NewEventLog() *EventLog {
	el := &EventLog{
		runID:     "run_" + uuid.NewString(),
		startTime: time.Now(),
	}

	el.printColored(SeverityInfo, "Scenario Started",
		fmt.Sprintf("ID: %s | Time: %s", el.runID, el.startTime.Format("15:04:05")))
	return el
}

// RunID returns the identifier assigned to this run
func (el *EventLog) RunID() string { return el.runID }

// LogSpawn records an agent joining the swarm
func (el *EventLog) LogSpawn(agentID string, role swarm.AgentRole, position swarm.Vector3) {
	el.record(Event{
		Timestamp: time.Now(),
		Type:      EventTypeSpawn,
		Severity:  SeverityInfo,
		AgentID:   agentID,
		Message:   fmt.Sprintf("Agent spawned: %s (%s) at (%.1f, %.1f, %.1f)", agentID, role, position.X, position.Y, position.Z),
	})
}

// LogFormation records a formation change
func (el *EventLog) LogFormation(formation swarm.FormationType, leaderID string, spacing float64) {
	el.record(Event{
		Timestamp: time.Now(),
		Type:      EventTypeFormation,
		Severity:  SeverityInfo,
		AgentID:   leaderID,
		Message:   fmt.Sprintf("Formation set: %s, leader %s, spacing %.1fm", formation, leaderID, spacing),
		Details: map[string]interface{}{
			"formation": formation.String(),
			"spacing":   spacing,
		},
	})
	el.printColored(SeverityInfo, "✈️  Formation",
		fmt.Sprintf("%s | Leader: %s | Spacing: %.1fm", formation, leaderID, spacing))
}

// LogMission records a mission lifecycle change
func (el *EventLog) LogMission(missionID string, state swarm.SwarmState, progress float64) {
	el.record(Event{
		Timestamp: time.Now(),
		Type:      EventTypeMission,
		Severity:  SeverityInfo,
		Message:   fmt.Sprintf("Mission %s: %s (%.0f%%)", missionID, state, progress*100),
		Details: map[string]interface{}{
			"state":    state.String(),
			"progress": progress,
		},
	})

	switch state {
	case swarm.StateCompleted:
		el.printColored(SeverityInfo, colorSuccess.Sprint("🎯 Mission Completed"),
			fmt.Sprintf("ID: %s", shortID(missionID)))
	case swarm.StateFailed:
		el.printColored(SeverityError, "🎯 Mission Failed",
			fmt.Sprintf("ID: %s", shortID(missionID)))
	default:
		el.printColored(SeverityInfo, "🎯 Mission",
			fmt.Sprintf("ID: %s | State: %s | Progress: %.0f%%", shortID(missionID), state, progress*100))
	}
}

// LogEmergency records the swarm entering or leaving the emergency state
func (el *EventLog) LogEmergency(entered bool, agentCount, lowEnergy int) {
	if entered {
		el.record(Event{
			Timestamp: time.Now(),
			Type:      EventTypeEmergency,
			Severity:  SeverityCritical,
			Message:   fmt.Sprintf("Emergency: %d agents, %d low energy", agentCount, lowEnergy),
		})
		el.printColored(SeverityCritical, "🚨 EMERGENCY",
			fmt.Sprintf("Agents: %d | Low energy: %d", agentCount, lowEnergy))
		return
	}

	el.record(Event{
		Timestamp: time.Now(),
		Type:      EventTypeEmergency,
		Severity:  SeverityInfo,
		Message:   "Emergency cleared",
	})
	el.printColored(SeverityInfo, colorSuccess.Sprint("Emergency cleared"), "")
}

// LogStatus records a periodic swarm status snapshot
func (el *EventLog) LogStatus(state swarm.SwarmState, cohesion, dispersion float64, behaviors []swarm.EmergentBehavior) {
	names := make([]string, len(behaviors))
	for i, b := range behaviors {
		names[i] = fmt.Sprintf("%s(%.2f)", b.Name, b.Strength)
	}

	el.record(Event{
		Timestamp: time.Now(),
		Type:      EventTypeStatus,
		Severity:  SeverityInfo,
		Message:   fmt.Sprintf("State %s, cohesion %.2f, dispersion %.1fm", state, cohesion, dispersion),
		Details: map[string]interface{}{
			"cohesion":   cohesion,
			"dispersion": dispersion,
			"behaviors":  names,
		},
	})

	msg := fmt.Sprintf("State: %s | Cohesion: %.2f | Dispersion: %.1fm", state, cohesion, dispersion)
	if len(names) > 0 {
		msg += fmt.Sprintf(" | Behaviors: %v", names)
	}
	el.printColored(SeverityInfo, "📡 Status", msg)
}

// LogError records a scenario error
func (el *EventLog) LogError(message string, err error) {
	el.record(Event{
		Timestamp: time.Now(),
		Type:      EventTypeSystem,
		Severity:  SeverityError,
		Message:   fmt.Sprintf("%s: %v", message, err),
	})
	logger.Errorf("%s: %v", message, err)
}

// Events returns a snapshot of every recorded event
func (el *EventLog) Events() []Event {
	el.mu.RLock()
	defer el.mu.RUnlock()
	out := make([]Event, len(el.events))
	copy(out, el.events)
	return out
}

// Summary prints end-of-run totals per event type
func (el *EventLog) Summary() {
	el.mu.RLock()
	counts := make(map[string]int)
	for _, e := range el.events {
		counts[e.Type]++
	}
	elapsed := time.Since(el.startTime)
	el.mu.RUnlock()

	logger.LogSection("Run Summary")
	logger.LogKeyValue("Run ID", el.runID)
	logger.LogKeyValue("Elapsed", elapsed.Round(time.Second))
	for _, t := range []string{EventTypeSpawn, EventTypeFormation, EventTypeMission, EventTypeEmergency, EventTypeStatus} {
		if counts[t] > 0 {
			logger.LogKeyValue(t, counts[t])
		}
	}
}

func (el *EventLog) record(e Event) {
	el.mu.Lock()
	el.events = append(el.events, e)
	el.mu.Unlock()
}

func (el *EventLog) printColored(severity, title, message string) {
	c := colorInfo
	switch severity {
	case SeverityWarning:
		c = colorWarning
	case SeverityError:
		c = colorError
	case SeverityCritical:
		c = colorCritical
	}

	if message == "" {
		fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05"), c.Sprint(title))
		return
	}
	fmt.Printf("[%s] %s %s\n", time.Now().Format("15:04:05"), c.Sprint(title), message)
}

func shortID(id string) string {
	if len(id) > 16 {
		return id[:16]
	}
	return id
}
