package persistence

import (
	"github.com/koinonia-app/koinonia/modules/attendance/domain/aggregates/person"
	"github.com/koinonia-app/koinonia/modules/attendance/domain/entities/report"
	"github.com/koinonia-app/koinonia/modules/attendance/infrastructure/persistence/models"
)

// ToDomainPerson keeps an unrecognised role as-is so it fails authorization instead of the query.
func ToDomainPerson(m models.Person) person.Person {
	role, err := person.ParseRole(m.Role)
	if err != nil {
		role = person.Role(m.Role)
	}
	return person.New(m.ID, m.Name, role, m.SupervisorID)
}

func ToDomainReport(m models.AttendanceReport) report.AttendanceReport {
	return report.New(
		m.LeaderID,
		m.WeekStart,
		report.ParsePresence(m.MembersPresent),
		report.ParsePresence(m.VisitorsPresent),
		m.Phase,
	)
}
