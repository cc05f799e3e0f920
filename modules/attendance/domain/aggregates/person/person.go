package person

import (
	"errors"
	"strings"
)

var (
	ErrNotFound    = errors.New("person not found")
	ErrInvalidRole = errors.New("invalid role")
)

type Role string

const (
	RoleOverseer        Role = "overseer"
	RoleAreaCoordinator Role = "area_coordinator"
	RoleGroupLeader     Role = "group_leader"
	RoleMember          Role = "member"
	RoleVisitor         Role = "visitor"
)

// ParseRole accepts the canonical values plus the hyphenated and legacy spellings found in older exports.
func ParseRole(v string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "overseer", "pastor":
		return RoleOverseer, nil
	case "area_coordinator", "area-coordinator", "discipulador":
		return RoleAreaCoordinator, nil
	case "group_leader", "group-leader", "lider", "líder":
		return RoleGroupLeader, nil
	case "member":
		return RoleMember, nil
	case "visitor", "frequentador":
		return RoleVisitor, nil
	default:
		return "", ErrInvalidRole
	}
}

func (r Role) IsLeadership() bool {
	return r == RoleOverseer || r == RoleAreaCoordinator || r == RoleGroupLeader
}

type Person struct {
	id           string
	name         string
	role         Role
	supervisorID string
}

func New(id, name string, role Role, supervisorID string) Person {
	return Person{
		id:           strings.TrimSpace(id),
		name:         strings.TrimSpace(name),
		role:         role,
		supervisorID: strings.TrimSpace(supervisorID),
	}
}

func (p Person) ID() string           { return p.id }
func (p Person) Name() string         { return p.name }
func (p Person) Role() Role           { return p.role }
func (p Person) SupervisorID() string { return p.supervisorID }
func (p Person) HasSupervisor() bool  { return p.supervisorID != "" }
func (p Person) IsZero() bool         { return p.id == "" }
