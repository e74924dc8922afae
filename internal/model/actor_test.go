package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestHasCapability(t *testing.T) {
	tests := []struct {
		name       string
		roles      []Role
		capability Capability
		want       bool
	}{
		{"patient can book", []Role{RolePatient}, CapabilityBookAppointments, true},
		{"patient cannot manage schedules", []Role{RolePatient}, CapabilityManageSchedules, false},
		{"doctor manages schedules", []Role{RoleDoctor}, CapabilityManageSchedules, true},
		{"doctor cannot book", []Role{RoleDoctor}, CapabilityBookAppointments, false},
		{"admin books on behalf", []Role{RoleAdmin}, CapabilityBookAppointments, true},
		{"admin manages users", []Role{RoleAdmin}, CapabilityManageUsers, true},
		{"multi-role union", []Role{RoleDoctor, RolePatient}, CapabilityBookAppointments, true},
		{"no roles", nil, CapabilityViewSchedules, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := &Actor{ID: uuid.New(), Roles: tt.roles}
			assert.Equal(t, tt.want, actor.HasCapability(tt.capability))
		})
	}
}

func TestHasRoleNilActor(t *testing.T) {
	var actor *Actor
	assert.False(t, actor.HasRole(RoleAdmin))
	assert.False(t, actor.HasCapability(CapabilityViewReports))
}

func TestUserActorDropsUnknownRoles(t *testing.T) {
	u := &User{Roles: []string{"doctor", "superuser", "patient"}}
	actor := u.Actor()
	assert.Equal(t, []Role{RoleDoctor, RolePatient}, actor.Roles)
}
