package persistence

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/koinonia-app/koinonia/modules/attendance/infrastructure/persistence/models"
	"github.com/koinonia-app/koinonia/modules/attendance/services"
)

const fetchRosterCountsSQL = `
SELECT
	leader_id,
	COUNT(*) FILTER (WHERE kind = 'member')::int AS members,
	COUNT(*) FILTER (WHERE kind = 'visitor')::int AS visitors
FROM attendance_roster
WHERE tenant_id = $1
	AND active
	AND leader_id = ANY($2::text[])
GROUP BY leader_id`

type RosterRepository struct{}

func NewRosterRepository() *RosterRepository {
	return &RosterRepository{}
}

func (r *RosterRepository) FetchRosterCounts(ctx context.Context, leaderIDs []string) (map[string]services.RosterCounts, error) {
	out := make(map[string]services.RosterCounts, len(leaderIDs))
	if len(leaderIDs) == 0 {
		return out, nil
	}
	tx, tenantID, err := session(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, fetchRosterCountsSQL, tenantID, pgTextArray(leaderIDs))
	if err != nil {
		return nil, errors.Wrap(err, "query attendance roster")
	}
	defer rows.Close()

	for rows.Next() {
		var m models.RosterCount
		if err := rows.Scan(&m.LeaderID, &m.Members, &m.Visitors); err != nil {
			return nil, errors.Wrap(err, "scan attendance roster")
		}
		out[m.LeaderID] = services.RosterCounts{Members: m.Members, Visitors: m.Visitors}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate attendance roster")
	}
	return out, nil
}
