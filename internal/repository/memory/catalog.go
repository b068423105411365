package memory

import (
	"context"
	"sort"

	"github.com/worklane/ticket-tracker/internal/domain"
	"github.com/worklane/ticket-tracker/pkg/util/errorutil"
)

type actorRepo struct{ v *view }

func (r *actorRepo) Create(_ context.Context, actor *domain.Actor) error {
	return r.v.run("actors.create", func(d *state) error {
		for _, existing := range d.actors {
			if existing.Username == actor.Username {
				return errorutil.NewConflict("actor violates a uniqueness rule", map[string]any{
					"username":   actor.Username,
					"constraint": "actors_username_key",
				})
			}
		}
		actor.ID = newID()
		d.actors[actor.ID] = *actor
		return nil
	})
}

func (r *actorRepo) GetByID(_ context.Context, id string) (*domain.Actor, error) {
	var out *domain.Actor
	err := r.v.run("actors.get", func(d *state) error {
		a, ok := d.actors[id]
		if !ok {
			return errorutil.NewNotFound("actor", map[string]any{"actor_id": id})
		}
		out = &a
		return nil
	})
	return out, err
}

func (r *actorRepo) GetByUsername(_ context.Context, username string) (*domain.Actor, error) {
	var out *domain.Actor
	err := r.v.run("actors.get", func(d *state) error {
		for _, a := range d.actors {
			if a.Username == username {
				cp := a
				out = &cp
				return nil
			}
		}
		return errorutil.NewNotFound("actor", map[string]any{"username": username})
	})
	return out, err
}

func (r *actorRepo) List(_ context.Context, limit, offset int) ([]domain.Actor, error) {
	var out []domain.Actor
	err := r.v.run("actors.list", func(d *state) error {
		all := make([]domain.Actor, 0, len(d.actors))
		for _, a := range d.actors {
			all = append(all, a)
		}
		sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })
		out = window(all, limit, offset)
		return nil
	})
	return out, err
}

type profileRepo struct{ v *view }

func (r *profileRepo) Create(_ context.Context, profile *domain.Profile) error {
	return r.v.run("profiles.create", func(d *state) error {
		if _, ok := d.actors[profile.ActorID]; !ok {
			return errorutil.NewNotFound("referenced record", map[string]any{"actor_id": profile.ActorID})
		}
		if _, ok := d.profiles[profile.ActorID]; ok {
			return errorutil.NewConflict("profile violates a uniqueness rule", map[string]any{
				"actor_id":   profile.ActorID,
				"constraint": "profiles_pkey",
			})
		}
		d.profiles[profile.ActorID] = cloneProfile(*profile)
		return nil
	})
}

func (r *profileRepo) GetByActorID(_ context.Context, actorID string) (*domain.Profile, error) {
	var out *domain.Profile
	err := r.v.run("profiles.get", func(d *state) error {
		p, ok := d.profiles[actorID]
		if !ok {
			return errorutil.NewNotFound("profile", map[string]any{"actor_id": actorID})
		}
		cp := cloneProfile(p)
		out = &cp
		return nil
	})
	return out, err
}

func (r *profileRepo) Update(_ context.Context, profile *domain.Profile) error {
	return r.v.run("profiles.update", func(d *state) error {
		if _, ok := d.profiles[profile.ActorID]; !ok {
			return errorutil.NewNotFound("profile", map[string]any{"actor_id": profile.ActorID})
		}
		d.profiles[profile.ActorID] = cloneProfile(*profile)
		return nil
	})
}

type projectRepo struct{ v *view }

func (r *projectRepo) Create(_ context.Context, project *domain.Project) error {
	return r.v.run("projects.create", func(d *state) error {
		project.ID = newID()
		d.projects[project.ID] = *project
		return nil
	})
}

func (r *projectRepo) GetByID(_ context.Context, id string) (*domain.Project, error) {
	var out *domain.Project
	err := r.v.run("projects.get", func(d *state) error {
		p, ok := d.projects[id]
		if !ok {
			return errorutil.NewNotFound("project", map[string]any{"project_id": id})
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *projectRepo) List(_ context.Context, limit, offset int) ([]domain.Project, error) {
	var out []domain.Project
	err := r.v.run("projects.list", func(d *state) error {
		all := make([]domain.Project, 0, len(d.projects))
		for _, p := range d.projects {
			all = append(all, p)
		}
		sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
		out = window(all, limit, offset)
		return nil
	})
	return out, err
}

func (r *projectRepo) Count(_ context.Context) (int, error) {
	var count int
	err := r.v.run("projects.count", func(d *state) error {
		count = len(d.projects)
		return nil
	})
	return count, err
}

func (r *projectRepo) CreateStage(_ context.Context, stage *domain.Stage) error {
	return r.v.run("stages.create", func(d *state) error {
		if _, ok := d.projects[stage.ProjectID]; !ok {
			return errorutil.NewNotFound("referenced record", map[string]any{"project_id": stage.ProjectID})
		}
		stage.ID = newID()
		d.stages[stage.ID] = *stage
		return nil
	})
}

func (r *projectRepo) GetStage(_ context.Context, id string) (*domain.Stage, error) {
	var out *domain.Stage
	err := r.v.run("stages.get", func(d *state) error {
		s, ok := d.stages[id]
		if !ok {
			return errorutil.NewNotFound("stage", map[string]any{"stage_id": id})
		}
		out = &s
		return nil
	})
	return out, err
}

func (r *projectRepo) ListStages(_ context.Context, projectID string) ([]domain.Stage, error) {
	var out []domain.Stage
	err := r.v.run("stages.list", func(d *state) error {
		for _, s := range d.stages {
			if s.ProjectID == projectID {
				out = append(out, s)
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Order != out[j].Order {
				return out[i].Order < out[j].Order
			}
			return out[i].Name < out[j].Name
		})
		return nil
	})
	return out, err
}

type workTypeRepo struct{ v *view }

func (r *workTypeRepo) Create(_ context.Context, workType *domain.WorkType) error {
	return r.v.run("worktypes.create", func(d *state) error {
		if workType.ParentID != nil {
			if _, ok := d.workTypes[*workType.ParentID]; !ok {
				return errorutil.NewNotFound("referenced record", map[string]any{"parent_id": *workType.ParentID})
			}
		}
		workType.ID = newID()
		d.workTypes[workType.ID] = cloneWorkType(*workType)
		return nil
	})
}

func (r *workTypeRepo) GetByID(_ context.Context, id string) (*domain.WorkType, error) {
	var out *domain.WorkType
	err := r.v.run("worktypes.get", func(d *state) error {
		w, ok := d.workTypes[id]
		if !ok {
			return errorutil.NewNotFound("work type", map[string]any{"work_type_id": id})
		}
		cp := cloneWorkType(w)
		out = &cp
		return nil
	})
	return out, err
}

func (r *workTypeRepo) List(_ context.Context) ([]domain.WorkType, error) {
	var out []domain.WorkType
	err := r.v.run("worktypes.list", func(d *state) error {
		for _, w := range d.workTypes {
			out = append(out, cloneWorkType(w))
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}

type tagRepo struct{ v *view }

func (r *tagRepo) Create(_ context.Context, tag *domain.Tag) error {
	return r.v.run("tags.create", func(d *state) error {
		for _, existing := range d.tags {
			if existing.Name == tag.Name {
				return errorutil.NewConflict("tag violates a uniqueness rule", map[string]any{
					"name":       tag.Name,
					"constraint": "tags_name_key",
				})
			}
		}
		tag.ID = newID()
		d.tags[tag.ID] = *tag
		return nil
	})
}

func (r *tagRepo) GetByName(_ context.Context, name string) (*domain.Tag, error) {
	var out *domain.Tag
	err := r.v.run("tags.get", func(d *state) error {
		for _, t := range d.tags {
			if t.Name == name {
				cp := t
				out = &cp
				return nil
			}
		}
		return errorutil.NewNotFound("tag", map[string]any{"name": name})
	})
	return out, err
}

func (r *tagRepo) List(_ context.Context) ([]domain.Tag, error) {
	var out []domain.Tag
	err := r.v.run("tags.list", func(d *state) error {
		for _, t := range d.tags {
			out = append(out, t)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}
