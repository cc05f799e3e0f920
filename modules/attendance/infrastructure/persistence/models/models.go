package models

import "time"

type Person struct {
	ID           string
	Name         string
	Role         string
	SupervisorID string
}

type AttendanceReport struct {
	LeaderID        string
	WeekStart       time.Time
	MembersPresent  []byte
	VisitorsPresent []byte
	Phase           string
}

type RosterCount struct {
	LeaderID string
	Members  int
	Visitors int
}
