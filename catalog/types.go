/*
Package catalog holds the supporting entities the ledger consumes: schools,
subjects, subject topics, family members, configuration entries, and sync
providers.

These are deliberately thin. The interesting behavior lives in the ledger
and syncfeed packages; catalog exists so grades have a subject to hang off,
topics have a subject, the feed has a provider record, and the readiness
check has something to inspect.
*/
package catalog

import "time"

// School is an institution grades and homeworks come from.
type School struct {
	ID        int64
	Code      string // unique
	Name      string
	Active    bool
	CreatedAt time.Time
}

// Subject is a school subject (math, history, ...).
type Subject struct {
	ID        int64
	SchoolID  int64
	Name      string
	CreatedAt time.Time
}

// SubjectTopic is a concrete topic within a subject. Grades, bonus tasks,
// and topic reviews attach here.
type SubjectTopic struct {
	ID          int64
	SubjectID   int64
	Description string
	CreatedAt   time.Time
}

// MemberRole classifies a family member.
type MemberRole string

const (
	RoleAdmin    MemberRole = "admin"
	RoleParent   MemberRole = "parent"
	RoleStudent  MemberRole = "student"
	RoleTutor    MemberRole = "tutor"
	RoleRelative MemberRole = "relative"
)

// FamilyMember is a person in the household. The system expects at least
// one admin and exactly one student.
type FamilyMember struct {
	ID        int64
	Name      string
	Role      MemberRole
	IsAdmin   bool
	IsStudent bool
	CreatedAt time.Time
}

// ConfigEntry is one persisted key/value setting. Value nil means unset;
// required entries that stay unset fail the readiness check.
type ConfigEntry struct {
	ID          int64
	Key         string // unique
	Value       *string
	Description string
	IsRequired  bool
	UpdatedAt   time.Time
}

// SyncProvider is a registered external feed. An active provider must be
// linked to a school.
type SyncProvider struct {
	ID        int64
	Code      string // unique
	SchoolID  *int64
	Active    bool
	CreatedAt time.Time
}
