package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/koinonia-app/koinonia/modules/attendance/domain/aggregates/person"
	"github.com/koinonia-app/koinonia/modules/attendance/infrastructure/persistence/models"
)

const selectPeopleSQL = `
SELECT id, name, role, COALESCE(supervisor_id, '')
FROM attendance_people
WHERE tenant_id = $1`

var leadershipRoles = []string{
	string(person.RoleOverseer),
	string(person.RoleAreaCoordinator),
	string(person.RoleGroupLeader),
}

type PersonRepository struct{}

func NewPersonRepository() *PersonRepository {
	return &PersonRepository{}
}

func (r *PersonRepository) GetByID(ctx context.Context, id string) (person.Person, error) {
	tx, tenantID, err := session(ctx)
	if err != nil {
		return person.Person{}, err
	}
	var m models.Person
	err = tx.QueryRow(ctx, selectPeopleSQL+` AND id = $2`, tenantID, id).Scan(&m.ID, &m.Name, &m.Role, &m.SupervisorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return person.Person{}, person.ErrNotFound
		}
		return person.Person{}, errors.Wrap(err, "get attendance person")
	}
	return ToDomainPerson(m), nil
}

func (r *PersonRepository) FetchSubordinates(ctx context.Context, supervisorID string, role person.Role) ([]person.Person, error) {
	return r.list(ctx, selectPeopleSQL+` AND supervisor_id = $2 AND role = $3 ORDER BY id`, supervisorID, string(role))
}

func (r *PersonRepository) ListByRole(ctx context.Context, role person.Role) ([]person.Person, error) {
	return r.list(ctx, selectPeopleSQL+` AND role = $2 ORDER BY id`, string(role))
}

func (r *PersonRepository) FetchHierarchy(ctx context.Context) ([]person.Person, error) {
	return r.list(ctx, selectPeopleSQL+` AND role = ANY($2::text[]) ORDER BY id`, pgTextArray(leadershipRoles))
}

func (r *PersonRepository) list(ctx context.Context, sql string, args ...any) ([]person.Person, error) {
	tx, tenantID, err := session(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, sql, append([]any{tenantID}, args...)...)
	if err != nil {
		return nil, errors.Wrap(err, "query attendance people")
	}
	defer rows.Close()

	var out []person.Person
	for rows.Next() {
		var m models.Person
		if err := rows.Scan(&m.ID, &m.Name, &m.Role, &m.SupervisorID); err != nil {
			return nil, errors.Wrap(err, "scan attendance person")
		}
		out = append(out, ToDomainPerson(m))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate attendance people")
	}
	return out, nil
}
