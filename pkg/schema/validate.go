// Package schema validates desired-state payloads against the soundbar's
// state schema before they are turned into commands.
package schema

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// stateSchema describes every field a POST /state body may carry. Fields
// are optional; unknown keys are rejected so a typo never silently no-ops.
const stateSchema = `{
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"power":       {"type": "string", "enum": ["ON", "OFF"]},
		"muted":       {"type": "string", "enum": ["ON", "OFF"]},
		"volume":      {"type": "integer", "minimum": 0, "maximum": 50},
		"subwoofer":   {"type": "integer", "minimum": 0, "maximum": 32},
		"input":       {"type": "string", "enum": ["hdmi", "analog", "bluetooth", "tv"]},
		"surround":    {"type": "string", "enum": ["3d", "tv", "stereo", "movie", "music", "sports", "game"]},
		"clear_voice": {"type": "string", "enum": ["ON", "OFF"]},
		"bass_ext":    {"type": "string", "enum": ["ON", "OFF"]}
	}
}`

// StateValidator validates desired-state payloads. The schema is fixed, so
// it is compiled once on first use.
type StateValidator struct {
	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

// NewStateValidator creates an uncompiled validator.
func NewStateValidator() *StateValidator {
	return &StateValidator{}
}

// Validate checks payload against the state schema. Returns nil if valid,
// or an error describing the validation failures.
func (v *StateValidator) Validate(payload map[string]any) error {
	v.once.Do(v.compile)
	if v.err != nil {
		return fmt.Errorf("failed to compile state schema: %w", v.err)
	}
	return v.compiled.Validate(payload)
}

func (v *StateValidator) compile() {
	var schemaMap any
	if err := json.Unmarshal([]byte(stateSchema), &schemaMap); err != nil {
		v.err = err
		return
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("state.json", schemaMap); err != nil {
		v.err = err
		return
	}
	v.compiled, v.err = c.Compile("state.json")
}
