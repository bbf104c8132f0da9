package plan

import (
	"strings"

	"github.com/twiced-technology-gmbh/taskplan/internal/date"
)

// AttachDateOverrides returns a copy of p in which explicit date mentions
// from the prompt are pinned to the steps they belong to.
//
// A candidate is attributed to the first Create or Update step without an
// override whose title or description contains the candidate's original
// text. When the prompt holds a single candidate and the plan a single
// Create step, that step receives it even without a textual match. Steps
// that already carry an override are never changed.
func AttachDateOverrides(p Plan, candidates []date.Candidate) Plan {
	out := make(Plan, len(p))
	copy(out, p)

	for _, c := range candidates {
		for i, s := range out {
			if Override(s) != nil || !mentions(s, c.OriginalText) {
				continue
			}
			out[i] = withOverride(s, c)
			break
		}
	}

	if len(candidates) == 1 {
		only := -1
		for i, s := range out {
			if _, ok := s.(Create); ok {
				if only >= 0 {
					only = -1
					break
				}
				only = i
			}
		}
		if only >= 0 && Override(out[only]) == nil {
			out[only] = withOverride(out[only], candidates[0])
		}
	}

	return out
}

func mentions(s Step, text string) bool {
	if text == "" {
		return false
	}
	switch st := s.(type) {
	case Create:
		return strings.Contains(st.Task.Title, text) || strings.Contains(st.Task.Body, text)
	case Update:
		if st.Patch.Title != nil && strings.Contains(*st.Patch.Title, text) {
			return true
		}
		return st.Patch.Description != nil && strings.Contains(*st.Patch.Description, text)
	}
	return false
}

func withOverride(s Step, c date.Candidate) Step {
	o := &DateOverride{ISODate: c.ISODate, OriginalText: c.OriginalText}
	switch st := s.(type) {
	case Create:
		st.Override = o
		return st
	case Update:
		st.Override = o
		return st
	}
	return s
}
