package plan

import (
	"fmt"

	"github.com/twiced-technology-gmbh/taskplan/internal/clierr"
	"github.com/twiced-technology-gmbh/taskplan/internal/date"
)

// Validate checks a plan's structure before anything is executed.
//
// A reference is temporary when some Create step declares it or when it
// carries the temp- prefix. Every temporary reference, including those in
// dependsOn and blocks, must be declared by a Create step that comes
// earlier in the plan. Any other reference is taken as a durable task ID.
func Validate(p Plan) error {
	if len(p) == 0 {
		return clierr.New(clierr.InvalidPlan, "plan is empty")
	}

	declaredAt := make(map[string]int)
	for i, s := range p {
		c, ok := s.(Create)
		if !ok || c.TempRef == "" {
			continue
		}
		if prev, dup := declaredAt[c.TempRef]; dup {
			return stepError(clierr.InvalidPlan, i, "reference %q already declared by step %d", c.TempRef, prev)
		}
		declaredAt[c.TempRef] = i
	}

	checkRef := func(i int, ref string) error {
		at, declared := declaredAt[ref]
		if !declared && !IsTempRef(ref) {
			return nil
		}
		if !declared || at >= i {
			return stepError(clierr.UnknownReference, i, "reference %q is not created by an earlier step", ref).
				WithDetails(map[string]any{"index": i, "ref": ref})
		}
		return nil
	}

	for i, s := range p {
		var links []string
		switch st := s.(type) {
		case Create:
			if st.Task.Title == "" {
				return stepError(clierr.InvalidPlan, i, "create step has no title")
			}
			links = append(append(links, st.Task.DependsOn...), st.Task.Blocks...)
		case Update:
			if st.Target == "" {
				return stepError(clierr.InvalidPlan, i, "update step has no target")
			}
			if err := checkRef(i, st.Target); err != nil {
				return err
			}
			if st.Patch.DependsOn != nil {
				links = append(links, (*st.Patch.DependsOn)...)
			}
			if st.Patch.Blocks != nil {
				links = append(links, (*st.Patch.Blocks)...)
			}
		case Delete:
			if st.Target == "" {
				return stepError(clierr.InvalidPlan, i, "delete step has no target")
			}
			if err := checkRef(i, st.Target); err != nil {
				return err
			}
		}
		for _, ref := range links {
			if err := checkRef(i, ref); err != nil {
				return err
			}
		}
		if o := Override(s); o != nil {
			if _, err := date.Parse(o.ISODate); err != nil {
				return stepError(clierr.InvalidPlan, i, "explicitDateOverride: %v", err)
			}
		}
	}
	return nil
}

func stepError(code string, index int, format string, args ...any) *clierr.Error {
	return clierr.Newf(code, "step %d: %s", index, fmt.Sprintf(format, args...)).
		WithDetails(map[string]any{"index": index})
}
