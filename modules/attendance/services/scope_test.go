package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/koinonia-app/koinonia/modules/attendance/domain/aggregates/person"
)

func TestScopeResolver_Resolve(t *testing.T) {
	dir := &stubDirectory{people: orgFixture()}
	r := NewScopeResolver(dir, testLogger)
	ctx := context.Background()

	cases := []struct {
		actor string
		want  []string
	}{
		{actor: "L2", want: []string{"L2"}},
		{actor: "C1", want: []string{"L1", "L2"}},
		{actor: "C2", want: []string{"L3"}},
		{actor: "O", want: []string{"L1", "L2", "L3"}},
	}
	for _, tc := range cases {
		actor, err := dir.GetByID(ctx, tc.actor)
		require.NoError(t, err)
		got, err := r.Resolve(ctx, actor)
		require.NoError(t, err, tc.actor)
		require.Equal(t, tc.want, got, tc.actor)
	}
}

func TestScopeResolver_CoordinatorWithoutLeaders(t *testing.T) {
	dir := &stubDirectory{people: []person.Person{person.New("C9", "Cora", person.RoleAreaCoordinator, "")}}
	got, err := NewScopeResolver(dir, testLogger).Resolve(context.Background(), dir.people[0])
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestScopeResolver_DedupesDirectoryRows(t *testing.T) {
	leader := person.New("L1", "Lia", person.RoleGroupLeader, "C1")
	dir := &stubDirectory{people: []person.Person{leader, leader, person.New("O", "Olivia", person.RoleOverseer, "")}}
	got, err := NewScopeResolver(dir, testLogger).Resolve(context.Background(), dir.people[2])
	require.NoError(t, err)
	require.Equal(t, []string{"L1"}, got)
}

func TestScopeResolver_DeniesMembersAndVisitors(t *testing.T) {
	dir := &stubDirectory{people: orgFixture()}
	r := NewScopeResolver(dir, testLogger)

	for _, id := range []string{"M1", "V1"} {
		actor, err := dir.GetByID(context.Background(), id)
		require.NoError(t, err)
		_, err = r.Resolve(context.Background(), actor)
		require.ErrorIs(t, err, ErrAccessDenied)

		var svcErr *ServiceError
		require.True(t, errors.As(err, &svcErr))
		require.Equal(t, http.StatusForbidden, svcErr.Status)
		require.Equal(t, "ATTENDANCE_ACCESS_DENIED", svcErr.Code)
	}
	require.Zero(t, dir.count("ListByRole"))
	require.Zero(t, dir.count("FetchSubordinates"))
}

func TestScopeResolver_DirectoryFailure(t *testing.T) {
	boom := errors.New("connection reset")
	dir := &stubDirectory{err: boom}
	actor := person.New("O", "Olivia", person.RoleOverseer, "")

	_, err := NewScopeResolver(dir, testLogger).Resolve(context.Background(), actor)
	require.ErrorIs(t, err, ErrCollaboratorUnavailable)
	require.ErrorIs(t, err, boom)

	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	require.Equal(t, http.StatusServiceUnavailable, svcErr.Status)
}

func TestViewerFor(t *testing.T) {
	v, err := ViewerFor(person.New("O", "", person.RoleOverseer, ""))
	require.NoError(t, err)
	require.IsType(t, OverseerViewer{}, v)

	v, err = ViewerFor(person.New("C", "", person.RoleAreaCoordinator, ""))
	require.NoError(t, err)
	require.IsType(t, CoordinatorViewer{}, v)

	v, err = ViewerFor(person.New("L", "", person.RoleGroupLeader, ""))
	require.NoError(t, err)
	require.IsType(t, LeaderViewer{}, v)
	require.Equal(t, "L", v.Actor().ID())

	_, err = ViewerFor(person.New("X", "", person.Role("deacon"), ""))
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestHierarchy_ChildrenAndRoles(t *testing.T) {
	h := NewHierarchy(orgFixture())
	require.Equal(t, 8, h.Len())

	ids := func(ps []person.Person) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.ID()
		}
		return out
	}
	require.Equal(t, []string{"C1", "C2"}, ids(h.Children("O", person.RoleAreaCoordinator)))
	require.Equal(t, []string{"L1", "L2"}, ids(h.Children("C1", person.RoleGroupLeader)))
	require.Empty(t, h.Children("C1", person.RoleAreaCoordinator))
	require.Nil(t, h.Children("missing", person.RoleGroupLeader))
	require.Equal(t, []string{"L1", "L2", "L3"}, ids(h.ByRole(person.RoleGroupLeader)))

	p, ok := h.Lookup("L3")
	require.True(t, ok)
	require.Equal(t, "C2", p.SupervisorID())
}
