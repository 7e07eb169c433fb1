package swarm

import (
	"fmt"
	"math"
	"strings"
)

// FormationType selects the geometry used to place agents around the leader
type FormationType int

const (
	FormationLine    FormationType = iota // lateral line abreast
	FormationColumn                       // single file behind the leader
	FormationWedge                        // V-formation
	FormationDiamond                      // four cardinal slots, overflow on a circle
	FormationCircle                       // evenly spaced ring
	FormationBox                          // square grid
	FormationCustom                       // caller-supplied offsets
)

// String returns the lowercase name of the formation type
func (t FormationType) String() string {
	switch t {
	case FormationLine:
		return "line"
	case FormationColumn:
		return "column"
	case FormationWedge:
		return "wedge"
	case FormationDiamond:
		return "diamond"
	case FormationCircle:
		return "circle"
	case FormationBox:
		return "box"
	case FormationCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// ParseFormationType parses a formation type name (case-insensitive)
func ParseFormationType(s string) (FormationType, error) {
	switch strings.ToLower(s) {
	case "line":
		return FormationLine, nil
	case "column":
		return FormationColumn, nil
	case "wedge":
		return FormationWedge, nil
	case "diamond":
		return FormationDiamond, nil
	case "circle":
		return FormationCircle, nil
	case "box":
		return FormationBox, nil
	case "custom":
		return FormationCustom, nil
	default:
		return FormationLine, fmt.Errorf("unknown formation type: %s", s)
	}
}

// FormationParams holds the geometry selection, control gains and kinematic
// limits used by the formation engine
type FormationParams struct {
	Type FormationType `yaml:"-"`

	Spacing         float64 `yaml:"spacing"`          // [m] distance between vehicles
	CollisionRadius float64 `yaml:"collision_radius"` // [m] minimum separation distance
	MaxVelocity     float64 `yaml:"max_velocity"`     // [m/s]
	MaxAcceleration float64 `yaml:"max_acceleration"` // [m/s²]

	// Control gains
	KPosition   float64 `yaml:"k_position"`
	KVelocity   float64 `yaml:"k_velocity"`
	KSeparation float64 `yaml:"k_separation"`
	KCohesion   float64 `yaml:"k_cohesion"`
	KAlignment  float64 `yaml:"k_alignment"`

	// Formation-specific parameters
	FormationRadius float64 `yaml:"formation_radius"` // [m] radius for circular formations
	FormationAngle  float64 `yaml:"formation_angle"`  // [rad] half-angle for wedge formations
}

// DefaultFormationParams returns formation parameters suitable for small
// multirotor swarms
func DefaultFormationParams() FormationParams {
	return FormationParams{
		Type:            FormationLine,
		Spacing:         5.0,
		CollisionRadius: 2.0,
		MaxVelocity:     10.0,
		MaxAcceleration: 5.0,
		KPosition:       1.0,
		KVelocity:       0.5,
		KSeparation:     2.0,
		KCohesion:       0.3,
		KAlignment:      0.2,
		FormationRadius: 10.0,
		FormationAngle:  math.Pi / 6.0,
	}
}

// VehicleState is the kinematic snapshot of one vehicle in the formation
type VehicleState struct {
	Position    Vector3
	Velocity    Vector3
	Orientation Quaternion
	Index       int
}

// FormationCommand is the desired kinematic setpoint for one vehicle.
// Commands are ephemeral: recomputed on every call and never stored.
type FormationCommand struct {
	DesiredVelocity     Vector3
	DesiredAcceleration Vector3
	DesiredOrientation  Quaternion
}

// FormationEngine computes per-vehicle formation-keeping commands combining
// a leader-relative position law with flocking corrections (separation,
// cohesion, alignment) and saturation limits.
//
// The engine is a pure function of its inputs plus the configured params.
// Configuration setters are not individually thread-safe; callers serialize
// them through the coordinator's locking discipline.
type FormationEngine struct {
	params FormationParams
	custom []Vector3
}

// NewFormationEngine creates an engine with the given parameters
func NewFormationEngine(params FormationParams) *FormationEngine {
	return &FormationEngine{params: params}
}

// Reset clears the custom offset list, keeping the configured params
func (e *FormationEngine) Reset() {
	e.custom = nil
}

// Params returns the current parameters
func (e *FormationEngine) Params() FormationParams { return e.params }

// Type returns the current formation geometry
func (e *FormationEngine) Type() FormationType { return e.params.Type }

// SetParams replaces all parameters at once
func (e *FormationEngine) SetParams(params FormationParams) {
	e.params = params
	e.custom = nil
}

// SetType switches the formation geometry in place
func (e *FormationEngine) SetType(t FormationType) { e.params.Type = t }

// SetSpacing adjusts the inter-vehicle spacing in place
func (e *FormationEngine) SetSpacing(spacing float64) { e.params.Spacing = spacing }

// SetCustomFormation installs caller-supplied leader-frame offsets, indexed
// by vehicle index, and switches the geometry to Custom
func (e *FormationEngine) SetCustomFormation(offsets []Vector3) {
	e.custom = append([]Vector3(nil), offsets...)
	e.params.Type = FormationCustom
}

// ComputeCommand computes the formation command for the vehicle at the given
// index. allStates contains every vehicle in the formation, including the
// one being commanded; leader provides the pose the formation is anchored to.
func (e *FormationEngine) ComputeCommand(index int, current VehicleState, allStates []VehicleState, leader VehicleState) FormationCommand {
	if len(allStates) == 0 {
		return FormationCommand{DesiredOrientation: IdentityQuaternion()}
	}

	desiredPos := e.DesiredPosition(index, leader, len(allStates))

	posControl := desiredPos.Sub(current.Position).Scale(e.params.KPosition)
	velControl := leader.Velocity.Sub(current.Velocity).Scale(e.params.KVelocity)
	separation := e.separationForce(current, allStates).Scale(e.params.KSeparation)
	cohesion := e.cohesionForce(current, allStates).Scale(e.params.KCohesion)
	alignment := e.alignmentForce(current, allStates).Scale(e.params.KAlignment)

	totalForce := posControl.Add(velControl).Add(separation).Add(cohesion).Add(alignment)

	cmd := FormationCommand{
		DesiredVelocity:     current.Velocity.Add(totalForce).Saturate(e.params.MaxVelocity),
		DesiredAcceleration: totalForce.Saturate(e.params.MaxAcceleration),
	}

	// Point the nose along the commanded velocity; hold attitude when the
	// command is too slow to define a heading.
	if cmd.DesiredVelocity.Norm() > 0.1 {
		forward := cmd.DesiredVelocity.Normalize()
		right := forward.Cross(Vector3{Z: 1}).Normalize()
		up := right.Cross(forward).Normalize()
		cmd.DesiredOrientation = quaternionFromBasis(forward, right, up)
	} else {
		cmd.DesiredOrientation = current.Orientation
	}

	return cmd
}

// DesiredPosition returns the world-frame slot for the vehicle at the given
// index: the leader position plus the formation offset rotated into the
// leader's frame.
func (e *FormationEngine) DesiredPosition(index int, leader VehicleState, total int) Vector3 {
	var offset Vector3
	switch e.params.Type {
	case FormationLine:
		offset = e.lineOffset(index, total)
	case FormationColumn:
		offset = e.columnOffset(index)
	case FormationWedge:
		offset = e.wedgeOffset(index)
	case FormationDiamond:
		offset = e.diamondOffset(index, total)
	case FormationCircle:
		offset = e.circleOffset(index, total)
	case FormationBox:
		offset = e.boxOffset(index, total)
	case FormationCustom:
		if index >= 0 && index < len(e.custom) {
			offset = e.custom[index]
		}
	}

	return leader.Position.Add(leader.Orientation.Rotate(offset))
}

// lineOffset arranges vehicles laterally, centered on the leader axis
func (e *FormationEngine) lineOffset(index, total int) Vector3 {
	return Vector3{Y: (float64(index) - float64(total)/2.0) * e.params.Spacing}
}

// columnOffset arranges vehicles single file behind the leader
func (e *FormationEngine) columnOffset(index int) Vector3 {
	return Vector3{X: -float64(index) * e.params.Spacing}
}

// wedgeOffset arranges vehicles in a V with the leader at the apex.
// Followers alternate sides by index parity, one row deeper per pair.
func (e *FormationEngine) wedgeOffset(index int) Vector3 {
	if index == 0 {
		return Vector3{}
	}

	side := -1.0
	if index%2 == 0 {
		side = 1.0
	}
	row := float64((index + 1) / 2)

	return Vector3{
		X: -row * e.params.Spacing * math.Cos(e.params.FormationAngle),
		Y: side * row * e.params.Spacing * math.Sin(e.params.FormationAngle),
	}
}

// diamondOffset places the first four vehicles on the cardinal points.
// Fewer than four vehicles fall back to a box; additional vehicles fill a
// circle around the diamond.
func (e *FormationEngine) diamondOffset(index, total int) Vector3 {
	if total < 4 {
		return e.boxOffset(index, total)
	}

	switch index {
	case 0: // front
		return Vector3{X: e.params.Spacing}
	case 1: // right
		return Vector3{Y: e.params.Spacing}
	case 2: // back
		return Vector3{X: -e.params.Spacing}
	case 3: // left
		return Vector3{Y: -e.params.Spacing}
	default:
		return e.circleOffset(index-4, total-4)
	}
}

// circleOffset spaces vehicles evenly on a ring of FormationRadius
func (e *FormationEngine) circleOffset(index, total int) Vector3 {
	if total <= 1 {
		return Vector3{}
	}

	angle := 2.0 * math.Pi * float64(index) / float64(total)
	return Vector3{
		X: e.params.FormationRadius * math.Cos(angle),
		Y: e.params.FormationRadius * math.Sin(angle),
	}
}

// boxOffset fills a near-square grid centered on the leader
func (e *FormationEngine) boxOffset(index, total int) Vector3 {
	side := int(math.Ceil(math.Sqrt(float64(total))))
	row := index / side
	col := index % side

	return Vector3{
		X: (float64(row) - float64(side)/2.0) * e.params.Spacing,
		Y: (float64(col) - float64(side)/2.0) * e.params.Spacing,
	}
}

// separationForce repels the vehicle from neighbors inside the collision
// radius with an inverse-square falloff
func (e *FormationEngine) separationForce(vehicle VehicleState, neighbors []VehicleState) Vector3 {
	var separation Vector3

	for _, neighbor := range neighbors {
		if neighbor.Index == vehicle.Index {
			continue
		}

		diff := vehicle.Position.Sub(neighbor.Position)
		dist := diff.Norm()

		if dist < e.params.CollisionRadius && dist > 0.01 {
			separation = separation.Add(diff.Normalize().Scale(1.0 / (dist * dist)))
		}
	}

	return separation
}

// cohesionForce steers the vehicle toward the centroid of the other vehicles
func (e *FormationEngine) cohesionForce(vehicle VehicleState, neighbors []VehicleState) Vector3 {
	var center Vector3
	count := 0

	for _, neighbor := range neighbors {
		if neighbor.Index != vehicle.Index {
			center = center.Add(neighbor.Position)
			count++
		}
	}

	if count == 0 {
		return Vector3{}
	}

	return center.Scale(1.0 / float64(count)).Sub(vehicle.Position)
}

// alignmentForce steers the vehicle toward the mean velocity of the others
func (e *FormationEngine) alignmentForce(vehicle VehicleState, neighbors []VehicleState) Vector3 {
	var avgVelocity Vector3
	count := 0

	for _, neighbor := range neighbors {
		if neighbor.Index != vehicle.Index {
			avgVelocity = avgVelocity.Add(neighbor.Velocity)
			count++
		}
	}

	if count == 0 {
		return Vector3{}
	}

	return avgVelocity.Scale(1.0 / float64(count)).Sub(vehicle.Velocity)
}
