package usecase

// SchemaKind selects the target schema the generator asks the model for and
// validates against.
type SchemaKind int

const (
	// SchemaFlexible accepts partial commands and unknown fields; final
	// validation is the caller's job.
	SchemaFlexible SchemaKind = iota
	// SchemaStrict pins every enumerated field to the closed command
	// vocabulary and requires the core fields.
	SchemaStrict
)

// SchemaJSON returns the machine-readable schema description embedded in the
// prompts for the given kind.
func SchemaJSON(kind SchemaKind) string {
	if kind == SchemaStrict {
		return strictSchemaJSON
	}
	return flexibleSchemaJSON
}

const flexibleSchemaJSON = `{
  "description": "Flexible intent that can be single or multi-command",
  "anyOf": [
    {"$ref": "#/definitions/IntentCommand"},
    {"$ref": "#/definitions/MultiIntent"}
  ],
  "definitions": {
    "IntentCommand": {
      "type": "object",
      "properties": {
        "targets": {"type": "array", "items": {"type": "string"}},
        "action": {"type": "string"},
        "formation": {"type": "string"},
        "direction": {"type": "string"},
        "speed": {"type": "integer", "minimum": 0, "maximum": 10},
        "path": {"type": "array"},
        "zone": {"type": "object"},
        "deployCount": {"type": "integer", "minimum": 1},
        "deployFormation": {"type": "string"},
        "waypointTargets": {"type": "array", "items": {"type": "string"}},
        "cycleWaypoints": {"type": "boolean"},
        "pathCycle": {"type": "boolean"},
        "relativeMove": {"type": "object"},
        "relativeMovement": {"type": "object"},
        "helpTarget": {"type": "string"},
        "targetSquad": {"type": "string"},
        "maintainSpacing": {"type": "boolean"}
      }
    },
    "MultiIntent": {
      "type": "object",
      "properties": {
        "type": {"type": "string", "const": "multi"},
        "commands": {
          "type": "array",
          "items": {"$ref": "#/definitions/IntentCommand"}
        }
      },
      "required": ["type", "commands"]
    }
  }
}`

const strictSchemaJSON = `{
  "type": "object",
  "properties": {
    "targets": {
      "type": "array",
      "items": {"enum": ["alpha", "bravo", "charlie", "all", "carriers", "interceptors"]}
    },
    "action": {
      "enum": ["flank", "pincer", "hold", "advance", "screen", "intercept", "retreat",
               "patrol", "rally", "escort", "attack", "defend", "regroup", "focus_fire", "deploy"]
    },
    "formation": {
      "enum": ["none", "wall", "wedge", "sphere", "swarm", "column", "line", "diamond"]
    },
    "direction": {
      "enum": ["left", "right", "center", "north", "south", "east", "west", "bearing",
               "vector", "none", "towards_enemies", "away_from_enemies"]
    },
    "speed": {"type": "integer", "minimum": 0, "maximum": 10},
    "path": {
      "type": "array", "minItems": 1,
      "items": {"type": "array", "items": {"type": "number"}, "minItems": 3, "maxItems": 3}
    },
    "zone": {
      "type": "object",
      "properties": {
        "type": {"const": "sphere"},
        "center": {"type": "array", "items": {"type": "number"}, "minItems": 3, "maxItems": 3},
        "r": {"type": "number", "exclusiveMinimum": 0}
      }
    },
    "deployCount": {"type": "integer", "minimum": 1, "maximum": 10}
  },
  "required": ["targets", "action", "formation", "direction", "speed"]
}`
