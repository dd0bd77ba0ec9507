/*
readiness.go - System readiness check

PURPOSE:
  Answers "is this installation set up well enough to run the weekly
  ledger?". The check is advisory: it never blocks operations, it just
  lists what is missing and how to fix it.

CONDITIONS:
  - at least one admin family member
  - exactly one student
  - at least one active school
  - every required config entry has a value
*/
package catalog

import (
	"context"
	"fmt"
)

// Issue is one failed readiness condition with a fix hint.
type Issue struct {
	Check  string `json:"check"`
	Detail string `json:"detail"`
	Fix    string `json:"fix"`
}

// Readiness is the aggregate result.
type Readiness struct {
	Ready  bool    `json:"ready"`
	Issues []Issue `json:"issues"`
}

// CheckReadiness inspects the catalog and reports whether the system is
// ready for weekly operation.
func CheckReadiness(ctx context.Context, store Store) (*Readiness, error) {
	var issues []Issue

	members, err := store.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("readiness: list members: %w", err)
	}
	admins, students := 0, 0
	for _, m := range members {
		if m.IsAdmin {
			admins++
		}
		if m.IsStudent {
			students++
		}
	}
	if admins == 0 {
		issues = append(issues, Issue{
			Check:  "admin_member",
			Detail: "no family member is marked as admin",
			Fix:    "create a family member with is_admin set",
		})
	}
	if students != 1 {
		issues = append(issues, Issue{
			Check:  "single_student",
			Detail: fmt.Sprintf("expected exactly one student, found %d", students),
			Fix:    "mark exactly one family member with is_student",
		})
	}

	schools, err := store.ListSchools(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("readiness: list schools: %w", err)
	}
	if len(schools) == 0 {
		issues = append(issues, Issue{
			Check:  "active_school",
			Detail: "no active school is registered",
			Fix:    "create a school or activate an existing one",
		})
	}

	entries, err := store.ListConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("readiness: list config: %w", err)
	}
	for _, e := range entries {
		if e.IsRequired && (e.Value == nil || *e.Value == "") {
			issues = append(issues, Issue{
				Check:  "required_config",
				Detail: fmt.Sprintf("required config entry %q is not set", e.Key),
				Fix:    fmt.Sprintf("set a value for %q", e.Key),
			})
		}
	}

	return &Readiness{Ready: len(issues) == 0, Issues: issues}, nil
}
