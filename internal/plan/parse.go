package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/twiced-technology-gmbh/taskplan/internal/clierr"
	"github.com/twiced-technology-gmbh/taskplan/internal/task"
)

// rawStep is the wire shape of a step as produced upstream.
type rawStep struct {
	Action   string      `json:"action"`
	DocID    string      `json:"docId"`
	Ref      string      `json:"ref"`
	Task     *task.Task  `json:"task"`
	Updates  *task.Patch `json:"updates"`
	Metadata struct {
		ExplicitDateOverride *DateOverride `json:"explicitDateOverride"`
	} `json:"metadata"`
}

// ReadFile parses the plan document at path.
func ReadFile(path string) (Plan, error) {
	data, err := os.ReadFile(path) //nolint:gosec // plan path supplied by the user
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	return Parse(data)
}

// Parse decodes a plan document. The document is JSON or YAML holding either
// a bare list of steps or an object with a "plan" list. A Create step without
// a reference is assigned "temp-<index>".
func Parse(data []byte) (Plan, error) {
	// YAML is a superset of JSON, so one decoder handles both. The generic
	// tree is re-encoded as JSON to reuse the payload types' JSON tags.
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, invalidPlan("decoding plan document: %v", err)
	}
	if m, ok := doc.(map[string]any); ok {
		inner, found := m["plan"]
		if !found {
			return nil, invalidPlan(`plan document must be a list of steps or contain a "plan" list`)
		}
		doc = inner
	}
	if _, ok := doc.([]any); !ok {
		return nil, invalidPlan("plan document must be a list of steps")
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, invalidPlan("re-encoding plan document: %v", err)
	}
	var raws []rawStep
	if err := json.Unmarshal(encoded, &raws); err != nil {
		return nil, invalidPlan("decoding plan steps: %v", err)
	}

	p := make(Plan, 0, len(raws))
	for i, r := range raws {
		step, err := r.toStep(i)
		if err != nil {
			return nil, err
		}
		p = append(p, step)
	}
	return p, nil
}

func (r rawStep) toStep(index int) (Step, error) {
	ref := r.DocID
	if ref == "" {
		ref = r.Ref
	}
	override := r.Metadata.ExplicitDateOverride

	switch Action(strings.ToLower(strings.TrimSpace(r.Action))) {
	case ActionCreate:
		c := Create{TempRef: ref, Override: override}
		if r.Task != nil {
			c.Task = *r.Task
		}
		if c.TempRef == "" {
			c.TempRef = TempPrefix + strconv.Itoa(index)
		}
		return c, nil
	case ActionUpdate:
		u := Update{Target: ref, Override: override}
		if r.Updates != nil {
			u.Patch = *r.Updates
		}
		return u, nil
	case ActionDelete:
		return Delete{Target: ref}, nil
	default:
		return nil, clierr.Newf(clierr.InvalidPlan, "step %d: unknown action %q", index, r.Action).
			WithDetails(map[string]any{"index": index, "action": r.Action})
	}
}

func invalidPlan(format string, args ...any) *clierr.Error {
	return clierr.Newf(clierr.InvalidPlan, format, args...)
}
