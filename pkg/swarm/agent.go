package swarm

import "time"

// Agent is the coordinator's registry record for one swarm member. State is
// the last known kinematic and capability snapshot; the connectivity flags
// track whether the agent is reachable over the messaging bus and the context
// directory.
type Agent struct {
	ID                 string
	State              AgentState
	Context            ContextData
	MessagingConnected bool
	ContextConnected   bool
	LastUpdate         time.Time
}

// Connected reports whether the agent is reachable on both channels
func (a Agent) Connected() bool {
	return a.MessagingConnected && a.ContextConnected
}
