package entities

import (
	"fmt"
	"strings"
)

// Closed vocabularies for strict validation. The permissive path accepts any
// string so the game client can experiment with new verbs without a server
// release; strict mode pins commands to what the engine actually executes.
var (
	KnownTargets = vocab(
		"alpha", "bravo", "charlie", "all", "carriers", "interceptors",
	)
	KnownActions = vocab(
		"flank", "pincer", "hold", "advance", "screen", "intercept",
		"retreat", "patrol", "rally", "escort", "attack", "defend",
		"regroup", "focus_fire", "deploy",
	)
	KnownFormations = vocab(
		"none", "wall", "wedge", "sphere", "swarm", "column", "line", "diamond",
	)
	KnownDirections = vocab(
		"left", "right", "center", "north", "south", "east", "west",
		"bearing", "vector", "none", "towards_enemies", "away_from_enemies",
	)
)

const maxDeployCount = 10

func vocab(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// FieldError reports one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors aggregates field errors for one intent.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return "invalid intent: " + strings.Join(msgs, "; ")
}

// ValidateStrict checks a command against the closed command vocabulary.
// Targeting, action, formation, direction and speed are mandatory in strict
// mode; optional fields are range-checked when present.
func (c *IntentCommand) ValidateStrict() ValidationErrors {
	var errs ValidationErrors

	if len(c.Targets) == 0 {
		errs = append(errs, FieldError{keyTargets, "at least one target is required"})
	}
	for _, t := range c.Targets {
		if !KnownTargets[t] {
			errs = append(errs, FieldError{keyTargets, fmt.Sprintf("unknown target %q", t)})
		}
	}
	if !KnownActions[c.Action] {
		errs = append(errs, FieldError{keyAction, fmt.Sprintf("unknown action %q", c.Action)})
	}
	if !KnownFormations[c.Formation] {
		errs = append(errs, FieldError{keyFormation, fmt.Sprintf("unknown formation %q", c.Formation)})
	}
	if !KnownDirections[c.Direction] {
		errs = append(errs, FieldError{keyDirection, fmt.Sprintf("unknown direction %q", c.Direction)})
	}
	if c.Speed == nil {
		errs = append(errs, FieldError{keySpeed, "speed is required"})
	} else if *c.Speed < 0 || *c.Speed > 10 {
		errs = append(errs, FieldError{keySpeed, fmt.Sprintf("%d out of range 0..10", *c.Speed)})
	}
	if c.Path != nil && len(c.Path) == 0 {
		errs = append(errs, FieldError{keyPath, "path cannot be empty when provided"})
	}
	if c.Zone != nil {
		if c.Zone.Type != "sphere" {
			errs = append(errs, FieldError{keyZone, fmt.Sprintf("unknown zone type %q", c.Zone.Type)})
		}
		if c.Zone.Radius <= 0 {
			errs = append(errs, FieldError{keyZone, "radius must be positive"})
		}
	}
	if c.DeployCount != nil && (*c.DeployCount < 1 || *c.DeployCount > maxDeployCount) {
		errs = append(errs, FieldError{keyDeployCount, fmt.Sprintf("%d out of range 1..%d", *c.DeployCount, maxDeployCount)})
	}
	return errs
}

// ValidateStrict validates a single command, or every command of a batch
// with the offending index in the field path.
func (i Intent) ValidateStrict() error {
	if i.Multi != nil {
		var errs ValidationErrors
		for n, cmd := range i.Multi.Commands {
			for _, fe := range cmd.ValidateStrict() {
				fe.Field = fmt.Sprintf("commands[%d].%s", n, fe.Field)
				errs = append(errs, fe)
			}
		}
		if len(errs) > 0 {
			return errs
		}
		return nil
	}
	if i.Single != nil {
		if errs := i.Single.ValidateStrict(); len(errs) > 0 {
			return errs
		}
	}
	return nil
}
