package plan

import (
	"testing"

	"github.com/twiced-technology-gmbh/taskplan/internal/clierr"
	"github.com/twiced-technology-gmbh/taskplan/internal/date"
	"github.com/twiced-technology-gmbh/taskplan/internal/task"
)

func TestParse_JSONEnvelope(t *testing.T) {
	doc := `{
  "plan": [
    {"action": "CREATE", "docId": "temp-1", "task": {"title": "Preparar informe", "plannedDate": "2025-10-01", "effort": "high", "dependsOn": ["abc"]},
     "metadata": {"explicitDateOverride": {"isoDate": "2025-10-03", "originalText": "3/10"}}},
    {"action": "update", "ref": "temp-1", "updates": {"status": "in_progress", "dueDate": "2025-10-10"}},
    {"action": "Delete", "docId": "old-task"}
  ]
}`
	p, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(p) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(p))
	}

	c, ok := p[0].(Create)
	if !ok {
		t.Fatalf("step 0 is %T, want Create", p[0])
	}
	if c.TempRef != "temp-1" || c.Task.Title != "Preparar informe" || c.Task.Effort != "high" {
		t.Errorf("unexpected create step %+v", c)
	}
	if c.Task.PlannedDate == nil || c.Task.PlannedDate.String() != "2025-10-01" {
		t.Errorf("planned date = %v", c.Task.PlannedDate)
	}
	if c.Override == nil || c.Override.ISODate != "2025-10-03" || c.Override.OriginalText != "3/10" {
		t.Errorf("override = %+v", c.Override)
	}
	if len(c.Task.DependsOn) != 1 || c.Task.DependsOn[0] != "abc" {
		t.Errorf("dependsOn = %v", c.Task.DependsOn)
	}

	u, ok := p[1].(Update)
	if !ok {
		t.Fatalf("step 1 is %T, want Update", p[1])
	}
	if u.Target != "temp-1" || u.Patch.Status == nil || *u.Patch.Status != "in_progress" {
		t.Errorf("unexpected update step %+v", u)
	}
	if u.Patch.DueDate == nil || u.Patch.DueDate.String() != "2025-10-10" {
		t.Errorf("due date = %v", u.Patch.DueDate)
	}
	if u.Patch.Title != nil {
		t.Error("absent field should stay nil in patch")
	}

	if d, ok := p[2].(Delete); !ok || d.Target != "old-task" {
		t.Errorf("step 2 = %#v, want Delete old-task", p[2])
	}
}

func TestParse_YAMLList(t *testing.T) {
	doc := `
- action: create
  task:
    title: Revisar presupuesto
    plannedDate: 2025-11-02
- action: create
  task:
    title: Enviar correo
`
	p, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(p) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(p))
	}
	c0 := p[0].(Create)
	if c0.TempRef != "temp-0" {
		t.Errorf("auto ref = %q, want temp-0", c0.TempRef)
	}
	if c0.Task.PlannedDate == nil || c0.Task.PlannedDate.String() != "2025-11-02" {
		t.Errorf("planned date = %v", c0.Task.PlannedDate)
	}
	if p[1].(Create).TempRef != "temp-1" {
		t.Errorf("auto ref = %q, want temp-1", p[1].(Create).TempRef)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "a: [1, 2"},
		{"object without plan", `{"steps": []}`},
		{"scalar", `"hello"`},
		{"unknown action", `[{"action": "archive", "docId": "a"}]`},
		{"bad date", `[{"action": "create", "task": {"title": "x", "dueDate": "10/03"}}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if !clierr.HasCode(err, clierr.InvalidPlan) {
				t.Errorf("err = %v, want INVALID_PLAN", err)
			}
		})
	}
}

func create(ref, title string) Create {
	return Create{TempRef: ref, Task: task.Task{Title: title}}
}

func TestValidate(t *testing.T) {
	deps := []string{"temp-9"}
	tests := []struct {
		name string
		plan Plan
		code string
	}{
		{"empty", Plan{}, clierr.InvalidPlan},
		{"missing title", Plan{create("temp-1", "")}, clierr.InvalidPlan},
		{"duplicate ref", Plan{create("temp-1", "a"), create("temp-1", "b")}, clierr.InvalidPlan},
		{"update without target", Plan{Update{}}, clierr.InvalidPlan},
		{"delete without target", Plan{Delete{}}, clierr.InvalidPlan},
		{"unknown temp ref", Plan{Update{Target: "temp-7"}}, clierr.UnknownReference},
		{"forward ref", Plan{Update{Target: "later"}, create("later", "a")}, clierr.UnknownReference},
		{"forward temp dependency", Plan{Update{Target: "t1", Patch: task.Patch{DependsOn: &deps}}}, clierr.UnknownReference},
		{"self dependency", Plan{Create{TempRef: "temp-9", Task: task.Task{Title: "a", DependsOn: deps}}}, clierr.UnknownReference},
		{"bad override", Plan{Create{TempRef: "temp-1", Task: task.Task{Title: "a"}, Override: &DateOverride{ISODate: "2025-13-01"}}}, clierr.InvalidPlan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.plan)
			if !clierr.HasCode(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestValidate_Accepts(t *testing.T) {
	deps := []string{"temp-1", "durable-id"}
	p := Plan{
		create("temp-1", "first"),
		Create{TempRef: "temp-2", Task: task.Task{Title: "second", DependsOn: []string{"temp-1"}}},
		Update{Target: "temp-2", Patch: task.Patch{DependsOn: &deps}},
		Update{Target: "existing-task"},
		Delete{Target: "temp-1"},
	}
	if err := Validate(p); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestAttachDateOverrides_ByText(t *testing.T) {
	title := "Mover revisión al 3/10"
	p := Plan{
		create("temp-1", "Llamar a Juan"),
		Update{Target: "abc", Patch: task.Patch{Title: &title}},
		create("temp-2", "Otra cosa"),
	}
	cands := []date.Candidate{{OriginalText: "3/10", ISODate: "2025-10-03"}}

	out := AttachDateOverrides(p, cands)
	if Override(out[0]) != nil || Override(out[2]) != nil {
		t.Error("override attached to a step that does not mention the date")
	}
	o := Override(out[1])
	if o == nil || o.ISODate != "2025-10-03" || o.OriginalText != "3/10" {
		t.Errorf("override = %+v", o)
	}
	if Override(p[1]) != nil {
		t.Error("input plan was mutated")
	}
}

func TestAttachDateOverrides_SingleCreateFallback(t *testing.T) {
	p := Plan{create("temp-1", "Preparar informe")}
	out := AttachDateOverrides(p, []date.Candidate{{OriginalText: "2025-10-03", ISODate: "2025-10-03"}})
	if o := Override(out[0]); o == nil || o.ISODate != "2025-10-03" {
		t.Errorf("override = %+v, want 2025-10-03", o)
	}
}

func TestAttachDateOverrides_KeepsExisting(t *testing.T) {
	existing := &DateOverride{ISODate: "2025-01-01", OriginalText: "1/1"}
	p := Plan{Create{TempRef: "temp-1", Task: task.Task{Title: "el 3/10"}, Override: existing}}
	out := AttachDateOverrides(p, []date.Candidate{{OriginalText: "3/10", ISODate: "2025-10-03"}})
	if Override(out[0]) != existing {
		t.Error("existing override replaced")
	}
}

func TestAttachDateOverrides_NoFallbackWithSeveralCreates(t *testing.T) {
	p := Plan{create("temp-1", "a"), create("temp-2", "b")}
	out := AttachDateOverrides(p, []date.Candidate{{OriginalText: "3/10", ISODate: "2025-10-03"}})
	for i, s := range out {
		if Override(s) != nil {
			t.Errorf("step %d received an override", i)
		}
	}
}
