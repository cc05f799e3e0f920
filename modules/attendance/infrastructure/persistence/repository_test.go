package persistence

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/koinonia-app/koinonia/modules/attendance/domain/aggregates/person"
	"github.com/koinonia-app/koinonia/modules/attendance/domain/period"
	"github.com/koinonia-app/koinonia/pkg/composables"
)

func tenantCtx(tenantID uuid.UUID, tx composables.Tx) context.Context {
	return composables.WithTx(composables.WithTenantID(context.Background(), tenantID), tx)
}

func TestReportRepository_FetchReports_ParsesPresenceLeniently(t *testing.T) {
	tenantID := uuid.New()
	week := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tx := &stubTx{
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Contains(t, sql, "FROM attendance_reports")
			require.Equal(t, pgUUID(tenantID), args[0])
			require.Equal(t, pgtype.FlatArray[string]{"L1", "L2"}, args[1])
			require.Equal(t, pgDate(week), args[2])
			return &stubRows{data: [][]any{
				{"L1", week, []byte(`["m1","m2","m1"]`), []byte(`["v1"]`), "growth"},
				{"L2", week, []byte(`{"m1":true}`), []byte(nil), ""},
			}}, nil
		},
	}

	rng, err := period.New(week, week.AddDate(0, 0, 30))
	require.NoError(t, err)
	got, err := NewReportRepository().FetchReports(tenantCtx(tenantID, tx), []string{"L1", "L2"}, rng)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, 2, got[0].MembersPresent.Count())
	require.Equal(t, 1, got[0].VisitorsPresent.Count())
	require.Equal(t, "growth", got[0].Phase)

	require.False(t, got[1].MembersPresent.Valid())
	require.False(t, got[1].VisitorsPresent.Valid())
	require.Zero(t, got[1].Present())
}

func TestReportRepository_FetchReports_EmptyScopeSkipsQuery(t *testing.T) {
	tx := &stubTx{}
	rng, err := period.Parse("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	got, err := NewReportRepository().FetchReports(tenantCtx(uuid.New(), tx), nil, rng)
	require.NoError(t, err)
	require.Empty(t, got)
	require.Zero(t, tx.queries)
}

func TestReportRepository_RequiresTenant(t *testing.T) {
	rng, err := period.Parse("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	ctx := composables.WithTx(context.Background(), &stubTx{})
	_, err = NewReportRepository().FetchReports(ctx, []string{"L1"}, rng)
	require.ErrorIs(t, err, composables.ErrNoTenantID)
}

func TestReportRepository_FetchLatestReports(t *testing.T) {
	tenantID := uuid.New()
	tx := &stubTx{
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Contains(t, sql, "DISTINCT ON (leader_id)")
			require.Contains(t, sql, "week_start <= $3")
			require.Equal(t, pgDate(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)), args[2])
			return &stubRows{data: [][]any{
				{"L1", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), []byte(`["a"]`), []byte(`[]`), ""},
			}}, nil
		},
	}
	got, err := NewReportRepository().FetchLatestReports(tenantCtx(tenantID, tx), []string{"L1", "L2"}, time.Date(2024, 3, 10, 18, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 1, got["L1"].Present())
}

func TestReportRepository_WrapsDriverErrors(t *testing.T) {
	boom := errors.New("conn closed")
	tx := &stubTx{queryFunc: func(context.Context, string, ...any) (pgx.Rows, error) { return nil, boom }}
	rng, err := period.Parse("2024-01-01", "2024-01-31")
	require.NoError(t, err)

	_, err = NewReportRepository().FetchReports(tenantCtx(uuid.New(), tx), []string{"L1"}, rng)
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "query attendance reports")
}

func TestPersonRepository_GetByID(t *testing.T) {
	tenantID := uuid.New()
	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, "FROM attendance_people")
			require.Equal(t, "C1", args[1])
			return stubRow{scan: func(dest ...any) error {
				*dest[0].(*string) = "C1"
				*dest[1].(*string) = "Carlos"
				*dest[2].(*string) = "discipulador"
				*dest[3].(*string) = "O"
				return nil
			}}
		},
	}
	got, err := NewPersonRepository().GetByID(tenantCtx(tenantID, tx), "C1")
	require.NoError(t, err)
	require.Equal(t, person.RoleAreaCoordinator, got.Role())
	require.Equal(t, "O", got.SupervisorID())
}

func TestPersonRepository_GetByID_NotFound(t *testing.T) {
	tx := &stubTx{
		queryRowFunc: func(context.Context, string, ...any) pgx.Row {
			return stubRow{scan: func(...any) error { return pgx.ErrNoRows }}
		},
	}
	_, err := NewPersonRepository().GetByID(tenantCtx(uuid.New(), tx), "ghost")
	require.ErrorIs(t, err, person.ErrNotFound)
}

func TestPersonRepository_Lists(t *testing.T) {
	tenantID := uuid.New()
	tx := &stubTx{
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Equal(t, pgUUID(tenantID), args[0])
			return &stubRows{data: [][]any{
				{"L1", "Lia", "group_leader", "C1"},
				{"L2", "Luis", "lider", "C1"},
			}}, nil
		},
	}
	ctx := tenantCtx(tenantID, tx)
	repo := NewPersonRepository()

	subs, err := repo.FetchSubordinates(ctx, "C1", person.RoleGroupLeader)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	require.Equal(t, person.RoleGroupLeader, subs[1].Role())
	require.Contains(t, tx.lastSQL, "supervisor_id = $2")

	_, err = repo.ListByRole(ctx, person.RoleGroupLeader)
	require.NoError(t, err)
	require.Equal(t, "group_leader", tx.lastArgs[1])

	_, err = repo.FetchHierarchy(ctx)
	require.NoError(t, err)
	require.Equal(t, pgTextArray(leadershipRoles), tx.lastArgs[1])
}

func TestRosterRepository_FetchRosterCounts(t *testing.T) {
	tenantID := uuid.New()
	tx := &stubTx{
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Contains(t, sql, "FROM attendance_roster")
			return &stubRows{data: [][]any{
				{"L1", 10, 2},
			}}, nil
		},
	}
	got, err := NewRosterRepository().FetchRosterCounts(tenantCtx(tenantID, tx), []string{"L1", "L2"})
	require.NoError(t, err)
	require.Equal(t, 10, got["L1"].Members)
	require.Equal(t, 2, got["L1"].Visitors)
	_, ok := got["L2"]
	require.False(t, ok)
}

type stubTx struct {
	queryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row

	queries  int
	lastSQL  string
	lastArgs []any
}

func (s *stubTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (s *stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	s.queries++
	s.lastSQL, s.lastArgs = sql, args
	if s.queryFunc == nil {
		return nil, errors.New("query not implemented")
	}
	return s.queryFunc(ctx, sql, args...)
}

func (s *stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	s.queries++
	s.lastSQL, s.lastArgs = sql, args
	if s.queryRowFunc == nil {
		return stubRow{scan: func(dest ...any) error { return errors.New("query row not implemented") }}
	}
	return s.queryRowFunc(ctx, sql, args...)
}

type stubRows struct {
	data [][]any
	idx  int
	err  error
}

func (r *stubRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *stubRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.data) {
		return errors.New("no current row to scan")
	}
	row := r.data[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("destination length %d does not match row length %d", len(dest), len(row))
	}
	for i, target := range dest {
		switch v := target.(type) {
		case *string:
			*v = row[i].(string)
		case *int:
			*v = row[i].(int)
		case *time.Time:
			*v = row[i].(time.Time)
		case *[]byte:
			*v = row[i].([]byte)
		default:
			return fmt.Errorf("unsupported scan target %T", target)
		}
	}
	return nil
}

func (r *stubRows) Values() ([]any, error) {
	if r.idx == 0 || r.idx > len(r.data) {
		return nil, errors.New("no current row")
	}
	return r.data[r.idx-1], nil
}

func (r *stubRows) RawValues() [][]byte { return nil }
func (r *stubRows) Err() error          { return r.err }
func (r *stubRows) Close()              {}
func (r *stubRows) CommandTag() pgconn.CommandTag {
	return pgconn.CommandTag{}
}
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }

type stubRow struct {
	scan func(dest ...any) error
}

func (r stubRow) Scan(dest ...any) error {
	if r.scan == nil {
		return errors.New("scan not implemented")
	}
	return r.scan(dest...)
}
