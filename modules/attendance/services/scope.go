package services

import (
	"context"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/koinonia-app/koinonia/modules/attendance/domain/aggregates/person"
)

// Viewer is the closed set of roles allowed to read attendance analytics.
type Viewer interface {
	Actor() person.Person
	sealed()
}

type OverseerViewer struct{ actor person.Person }

type CoordinatorViewer struct{ actor person.Person }

type LeaderViewer struct{ actor person.Person }

func (v OverseerViewer) Actor() person.Person    { return v.actor }
func (v CoordinatorViewer) Actor() person.Person { return v.actor }
func (v LeaderViewer) Actor() person.Person      { return v.actor }

func (OverseerViewer) sealed()    {}
func (CoordinatorViewer) sealed() {}
func (LeaderViewer) sealed()      {}

// ViewerFor classifies the actor once. Members, visitors and unknown roles are denied.
func ViewerFor(actor person.Person) (Viewer, error) {
	switch actor.Role() {
	case person.RoleOverseer:
		return OverseerViewer{actor: actor}, nil
	case person.RoleAreaCoordinator:
		return CoordinatorViewer{actor: actor}, nil
	case person.RoleGroupLeader:
		return LeaderViewer{actor: actor}, nil
	default:
		return nil, accessDenied(actor.ID(), string(actor.Role()))
	}
}

type ScopeResolver struct {
	directory PersonDirectory
	logger    *logrus.Entry
}

func NewScopeResolver(directory PersonDirectory, logger *logrus.Entry) *ScopeResolver {
	return &ScopeResolver{directory: directory, logger: logger.WithField("component", "scope_resolver")}
}

// Resolve returns the sorted, de-duplicated group-leader ids whose reports the actor may see.
func (r *ScopeResolver) Resolve(ctx context.Context, actor person.Person) ([]string, error) {
	viewer, err := ViewerFor(actor)
	if err != nil {
		return nil, err
	}
	return r.ResolveViewer(ctx, viewer)
}

func (r *ScopeResolver) ResolveViewer(ctx context.Context, viewer Viewer) ([]string, error) {
	var leaders []person.Person
	switch v := viewer.(type) {
	case LeaderViewer:
		return []string{v.actor.ID()}, nil
	case CoordinatorViewer:
		subs, err := r.directory.FetchSubordinates(ctx, v.actor.ID(), person.RoleGroupLeader)
		if err != nil {
			return nil, collaboratorUnavailable("fetch subordinates", err)
		}
		leaders = subs
	case OverseerViewer:
		all, err := r.directory.ListByRole(ctx, person.RoleGroupLeader)
		if err != nil {
			return nil, collaboratorUnavailable("list group leaders", err)
		}
		leaders = all
	default:
		return nil, accessDenied(viewer.Actor().ID(), string(viewer.Actor().Role()))
	}

	ids := make([]string, 0, len(leaders))
	for _, p := range leaders {
		if p.ID() == "" || p.Role() != person.RoleGroupLeader {
			continue
		}
		ids = append(ids, p.ID())
	}
	ids = sortedUnique(ids)
	r.logger.WithFields(logrus.Fields{
		"actor_id": viewer.Actor().ID(),
		"role":     viewer.Actor().Role(),
		"leaders":  len(ids),
	}).Debug("attendance.scope.resolved")
	return ids, nil
}

func sortedUnique(ids []string) []string {
	slices.Sort(ids)
	return slices.Compact(ids)
}
