package services

import (
	"strings"

	"github.com/tilapp/til/internal/models"
)

// Reconcile computes which categories to attach and detach so that an acronym
// currently attached to existing ends up attached to exactly the desired names.
//
// Desired names are trimmed; blank names are dropped and repeated names count once.
// Names are compared exactly, so "Funny" and "funny" are different categories.
// The result preserves the order of desired (ToAttach) and existing (ToDetach).
func Reconcile(existing []models.Category, desired []string) models.CategoryPlan {
	wanted := make(map[string]struct{}, len(desired))
	ordered := make([]string, 0, len(desired))
	for _, name := range desired {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := wanted[name]; dup {
			continue
		}
		wanted[name] = struct{}{}
		ordered = append(ordered, name)
	}

	have := make(map[string]struct{}, len(existing))
	plan := models.CategoryPlan{}
	for _, category := range existing {
		have[category.Name] = struct{}{}
		if _, keep := wanted[category.Name]; !keep {
			plan.ToDetach = append(plan.ToDetach, category)
		}
	}

	for _, name := range ordered {
		if _, ok := have[name]; !ok {
			plan.ToAttach = append(plan.ToAttach, name)
		}
	}

	return plan
}
