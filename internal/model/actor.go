package model

import (
	"github.com/google/uuid"
)

// Role is the closed set of roles an authenticated user can hold.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// Capability is a named permission resolved from an actor's role set.
type Capability string

const (
	CapabilityBookAppointments   Capability = "book_appointments"
	CapabilityManageSchedules    Capability = "manage_schedules"
	CapabilityManageAppointments Capability = "manage_appointments"
	CapabilityManagePatients     Capability = "manage_patients"
	CapabilityManageDoctors      Capability = "manage_doctors"
	CapabilityManageUsers        Capability = "manage_users"
	CapabilityViewReports        Capability = "view_reports"
	CapabilityViewSchedules      Capability = "view_schedules"
)

// roleCapabilities maps each role to its capability set, resolved once at
// package load. Admins manage every resource but do not consume slots for
// themselves; doctors run their own schedules and appointments; patients
// book and view.
var roleCapabilities = map[Role]map[Capability]struct{}{
	RoleAdmin: capSet(
		CapabilityBookAppointments,
		CapabilityManageSchedules,
		CapabilityManageAppointments,
		CapabilityManagePatients,
		CapabilityManageDoctors,
		CapabilityManageUsers,
		CapabilityViewReports,
		CapabilityViewSchedules,
	),
	RoleDoctor: capSet(
		CapabilityManageSchedules,
		CapabilityManageAppointments,
		CapabilityManagePatients,
		CapabilityViewReports,
		CapabilityViewSchedules,
	),
	RolePatient: capSet(
		CapabilityBookAppointments,
		CapabilityViewSchedules,
	),
}

func capSet(caps ...Capability) map[Capability]struct{} {
	set := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Actor is the authenticated identity every operation receives. It is
// built from verified token claims by the auth middleware and passed
// explicitly; there is no ambient session state.
type Actor struct {
	ID    uuid.UUID `json:"id"`
	Roles []Role    `json:"roles"`
}

func (a *Actor) HasRole(role Role) bool {
	if a == nil {
		return false
	}
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (a *Actor) HasCapability(c Capability) bool {
	if a == nil {
		return false
	}
	for _, r := range a.Roles {
		if _, ok := roleCapabilities[r][c]; ok {
			return true
		}
	}
	return false
}
