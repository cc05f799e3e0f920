package services

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/koinonia-app/koinonia/modules/attendance/domain/aggregates/person"
	"github.com/koinonia-app/koinonia/modules/attendance/domain/entities/report"
	"github.com/koinonia-app/koinonia/modules/attendance/domain/period"
	"github.com/koinonia-app/koinonia/pkg/logging"
)

var testLogger = logging.Nop()

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustRange(start, end time.Time) period.DateRange {
	r, err := period.New(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

func rep(leader string, ws time.Time, members []string, visitors []string) report.AttendanceReport {
	return report.New(leader, ws, report.NewPresence(members...), report.NewPresence(visitors...), "")
}

type stubDirectory struct {
	people []person.Person
	err    error

	mu    sync.Mutex
	calls []string
}

func (d *stubDirectory) record(call string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)
}

func (d *stubDirectory) GetByID(_ context.Context, id string) (person.Person, error) {
	d.record("GetByID")
	if d.err != nil {
		return person.Person{}, d.err
	}
	for _, p := range d.people {
		if p.ID() == id {
			return p, nil
		}
	}
	return person.Person{}, person.ErrNotFound
}

func (d *stubDirectory) FetchSubordinates(_ context.Context, supervisorID string, role person.Role) ([]person.Person, error) {
	d.record("FetchSubordinates")
	if d.err != nil {
		return nil, d.err
	}
	var out []person.Person
	for _, p := range d.people {
		if p.SupervisorID() == supervisorID && p.Role() == role {
			out = append(out, p)
		}
	}
	return out, nil
}

func (d *stubDirectory) ListByRole(_ context.Context, role person.Role) ([]person.Person, error) {
	d.record("ListByRole")
	if d.err != nil {
		return nil, d.err
	}
	var out []person.Person
	for _, p := range d.people {
		if p.Role() == role {
			out = append(out, p)
		}
	}
	return out, nil
}

func (d *stubDirectory) FetchHierarchy(_ context.Context) ([]person.Person, error) {
	d.record("FetchHierarchy")
	if d.err != nil {
		return nil, d.err
	}
	var out []person.Person
	for _, p := range d.people {
		if p.Role().IsLeadership() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (d *stubDirectory) count(call string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		if c == call {
			n++
		}
	}
	return n
}

type stubReports struct {
	reports []report.AttendanceReport
	err     error
	// failRange makes only fetches for this range fail.
	failRange *period.DateRange

	mu     sync.Mutex
	ranges []period.DateRange
}

func (s *stubReports) FetchReports(ctx context.Context, leaderIDs []string, r period.DateRange) ([]report.AttendanceReport, error) {
	s.mu.Lock()
	s.ranges = append(s.ranges, r)
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil && (s.failRange == nil || *s.failRange == r) {
		return nil, s.err
	}
	var out []report.AttendanceReport
	for _, rep := range s.reports {
		if slices.Contains(leaderIDs, rep.LeaderID) && r.Contains(rep.WeekStart) {
			out = append(out, rep)
		}
	}
	return out, nil
}

func (s *stubReports) fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ranges)
}

type stubLatestReports struct {
	stubReports
	latestCalls int
	lastAsOf    time.Time
	// unbounded ignores asOf, like a store that does not filter by date.
	unbounded bool
}

func (s *stubLatestReports) FetchLatestReports(_ context.Context, leaderIDs []string, asOf time.Time) (map[string]report.AttendanceReport, error) {
	s.mu.Lock()
	s.latestCalls++
	s.lastAsOf = asOf
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	candidates := make([]report.AttendanceReport, 0, len(s.reports))
	for _, r := range s.reports {
		if s.unbounded || !r.WeekStart.After(report.TruncateDay(asOf)) {
			candidates = append(candidates, r)
		}
	}
	all := LatestByLeader(candidates)
	out := make(map[string]report.AttendanceReport)
	for _, id := range leaderIDs {
		if r, ok := all[id]; ok {
			out[id] = r
		}
	}
	return out, nil
}

type stubRosters struct {
	counts map[string]RosterCounts
	err    error
}

func (s *stubRosters) FetchRosterCounts(_ context.Context, leaderIDs []string) (map[string]RosterCounts, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]RosterCounts, len(leaderIDs))
	for _, id := range leaderIDs {
		if c, ok := s.counts[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	hits    int
}

func newMemCache() *memCache { return &memCache{entries: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *memCache) InvalidateTenant(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string][]byte{}
	return nil
}

// orgFixture is an overseer O with coordinators C1, C2 and leaders L1, L2 under C1 and L3 under C2.
func orgFixture() []person.Person {
	return []person.Person{
		person.New("O", "Olivia", person.RoleOverseer, ""),
		person.New("C1", "Carlos", person.RoleAreaCoordinator, "O"),
		person.New("C2", "Celia", person.RoleAreaCoordinator, "O"),
		person.New("L1", "Lia", person.RoleGroupLeader, "C1"),
		person.New("L2", "Luis", person.RoleGroupLeader, "C1"),
		person.New("L3", "Lena", person.RoleGroupLeader, "C2"),
		person.New("M1", "Mateo", person.RoleMember, "L1"),
		person.New("V1", "Vera", person.RoleVisitor, "L1"),
	}
}
