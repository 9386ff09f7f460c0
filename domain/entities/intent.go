package entities

import (
	"encoding/json"
	"fmt"
)

// MultiIntentType is the wire discriminator for a command batch.
const MultiIntentType = "multi"

// Point is a 3D battlefield coordinate.
type Point [3]float64

// Zone is a spherical area of effect.
type Zone struct {
	Type   string  `json:"type"`
	Center Point   `json:"center"`
	Radius float64 `json:"r"`
}

// IntentCommand is a single tactical order. Every field is optional; the
// model is free to emit a partial command and the engine fills in defaults.
// Keys this struct does not know about are preserved in Extra so evolving
// model vocabulary survives a round trip.
type IntentCommand struct {
	// Core targeting
	Targets []string

	// Action verb
	Action string

	// Movement and positioning
	Formation string
	Direction string
	Speed     *int
	Path      []Point
	Zone      *Zone

	// Deployment
	DeployCount     *int
	DeployFormation string

	// Waypoint navigation
	WaypointTargets []string
	CycleWaypoints  *bool
	PathCycle       *bool

	// Relative movement, either {x,y,z} or {direction,distance}
	RelativeMove     map[string]any
	RelativeMovement map[string]any

	// Help and rally
	HelpTarget  string
	TargetSquad string

	MaintainSpacing *bool

	// Unrecognized fields, kept verbatim
	Extra map[string]json.RawMessage
}

// MultiIntent is an ordered batch of commands.
type MultiIntent struct {
	Type     string          `json:"type"`
	Commands []IntentCommand `json:"commands"`
}

// Intent is either a single command or a multi-command batch.
type Intent struct {
	Single *IntentCommand
	Multi  *MultiIntent
}

// wireNames maps struct fields to their JSON keys, in the order the
// original command vocabulary defines them.
const (
	keyTargets          = "targets"
	keyAction           = "action"
	keyFormation        = "formation"
	keyDirection        = "direction"
	keySpeed            = "speed"
	keyPath             = "path"
	keyZone             = "zone"
	keyDeployCount      = "deployCount"
	keyDeployFormation  = "deployFormation"
	keyWaypointTargets  = "waypointTargets"
	keyCycleWaypoints   = "cycleWaypoints"
	keyPathCycle        = "pathCycle"
	keyRelativeMove     = "relativeMove"
	keyRelativeMovement = "relativeMovement"
	keyHelpTarget       = "helpTarget"
	keyTargetSquad      = "targetSquad"
	keyMaintainSpacing  = "maintainSpacing"
)

// UnmarshalJSON decodes a command permissively: known keys must match their
// declared types, anything else lands in Extra untouched.
func (c *IntentCommand) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*c = IntentCommand{}
	for key, raw := range fields {
		var err error
		switch key {
		case keyTargets:
			err = json.Unmarshal(raw, &c.Targets)
		case keyAction:
			err = json.Unmarshal(raw, &c.Action)
		case keyFormation:
			err = json.Unmarshal(raw, &c.Formation)
		case keyDirection:
			err = json.Unmarshal(raw, &c.Direction)
		case keySpeed:
			err = json.Unmarshal(raw, &c.Speed)
		case keyPath:
			err = json.Unmarshal(raw, &c.Path)
		case keyZone:
			err = json.Unmarshal(raw, &c.Zone)
		case keyDeployCount:
			err = json.Unmarshal(raw, &c.DeployCount)
		case keyDeployFormation:
			err = json.Unmarshal(raw, &c.DeployFormation)
		case keyWaypointTargets:
			err = json.Unmarshal(raw, &c.WaypointTargets)
		case keyCycleWaypoints:
			err = json.Unmarshal(raw, &c.CycleWaypoints)
		case keyPathCycle:
			err = json.Unmarshal(raw, &c.PathCycle)
		case keyRelativeMove:
			err = json.Unmarshal(raw, &c.RelativeMove)
		case keyRelativeMovement:
			err = json.Unmarshal(raw, &c.RelativeMovement)
		case keyHelpTarget:
			err = json.Unmarshal(raw, &c.HelpTarget)
		case keyTargetSquad:
			err = json.Unmarshal(raw, &c.TargetSquad)
		case keyMaintainSpacing:
			err = json.Unmarshal(raw, &c.MaintainSpacing)
		default:
			if c.Extra == nil {
				c.Extra = make(map[string]json.RawMessage)
			}
			c.Extra[key] = raw
			continue
		}
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
	}

	if c.Speed != nil && (*c.Speed < 0 || *c.Speed > 10) {
		return fmt.Errorf("field %q: %d out of range 0..10", keySpeed, *c.Speed)
	}
	if c.DeployCount != nil && *c.DeployCount < 1 {
		return fmt.Errorf("field %q: must be positive", keyDeployCount)
	}
	return nil
}

// MarshalJSON emits only the fields that are set, plus any preserved extras.
func (c IntentCommand) MarshalJSON() ([]byte, error) {
	out := make(map[string]any)
	if c.Targets != nil {
		out[keyTargets] = c.Targets
	}
	if c.Action != "" {
		out[keyAction] = c.Action
	}
	if c.Formation != "" {
		out[keyFormation] = c.Formation
	}
	if c.Direction != "" {
		out[keyDirection] = c.Direction
	}
	if c.Speed != nil {
		out[keySpeed] = *c.Speed
	}
	if c.Path != nil {
		out[keyPath] = c.Path
	}
	if c.Zone != nil {
		out[keyZone] = c.Zone
	}
	if c.DeployCount != nil {
		out[keyDeployCount] = *c.DeployCount
	}
	if c.DeployFormation != "" {
		out[keyDeployFormation] = c.DeployFormation
	}
	if c.WaypointTargets != nil {
		out[keyWaypointTargets] = c.WaypointTargets
	}
	if c.CycleWaypoints != nil {
		out[keyCycleWaypoints] = *c.CycleWaypoints
	}
	if c.PathCycle != nil {
		out[keyPathCycle] = *c.PathCycle
	}
	if c.RelativeMove != nil {
		out[keyRelativeMove] = c.RelativeMove
	}
	if c.RelativeMovement != nil {
		out[keyRelativeMovement] = c.RelativeMovement
	}
	if c.HelpTarget != "" {
		out[keyHelpTarget] = c.HelpTarget
	}
	if c.TargetSquad != "" {
		out[keyTargetSquad] = c.TargetSquad
	}
	if c.MaintainSpacing != nil {
		out[keyMaintainSpacing] = *c.MaintainSpacing
	}
	for key, raw := range c.Extra {
		out[key] = raw
	}
	return json.Marshal(out)
}

// MarshalJSON emits the wrapped command or batch directly, no envelope.
func (i Intent) MarshalJSON() ([]byte, error) {
	if i.Multi != nil {
		return json.Marshal(i.Multi)
	}
	if i.Single != nil {
		return json.Marshal(i.Single)
	}
	return json.Marshal(IntentCommand{})
}

// DecodeIntent parses raw model output into an Intent. An object carrying
// the multi discriminator is always treated as a batch, no matter how many
// commands it holds; anything else is a single command.
func DecodeIntent(raw []byte) (Intent, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Intent{}, err
	}

	// Only a string "multi" is the batch discriminator. A type value of any
	// other shape is just an unrecognized field on a single command.
	var kind string
	if t, ok := fields["type"]; ok {
		_ = json.Unmarshal(t, &kind)
	}

	if kind == MultiIntentType {
		var multi MultiIntent
		if err := json.Unmarshal(raw, &multi); err != nil {
			return Intent{}, err
		}
		if multi.Commands == nil {
			multi.Commands = []IntentCommand{}
		}
		return Intent{Multi: &multi}, nil
	}

	var single IntentCommand
	if err := json.Unmarshal(raw, &single); err != nil {
		return Intent{}, err
	}
	return Intent{Single: &single}, nil
}

// FallbackIntent is the safe default returned when permissive validation
// fails: an empty command the game engine treats as a no-op.
func FallbackIntent() Intent {
	return Intent{Single: &IntentCommand{}}
}
