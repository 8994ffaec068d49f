// Package services – ProjectService
//
// ProjectService forwards project reads and admin writes to the Backend
// Gateway. Writes accept the body shapes the submission and edit forms send:
// a singular "category" is lifted into "categories", and an edit may arrive
// wrapped as {project, projectId}.
package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tbourn/go-curation-gateway/internal/auth"
	"github.com/tbourn/go-curation-gateway/internal/domain"
	"github.com/tbourn/go-curation-gateway/internal/validation"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ProjectBackend is the part of the Backend Gateway ProjectService needs.
type ProjectBackend interface {
	ListProjects(ctx context.Context, q url.Values) (*domain.FeedPage, error)
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	CreateProject(ctx context.Context, token string, body map[string]any) (*domain.Project, error)
	UpdateProject(ctx context.Context, token, id string, body map[string]any) (*domain.Project, error)
	DeleteProject(ctx context.Context, token, id string) error
}

// ProjectService handles project listing, lookup and admin mutations.
type ProjectService struct {
	Backend ProjectBackend
	Auth    *auth.Inspector

	// ValidateForms runs the local form checks before create/update.
	ValidateForms bool
}

// NewProjectService returns a ProjectService with form validation enabled.
func NewProjectService(b ProjectBackend, in *auth.Inspector) *ProjectService {
	return &ProjectService{Backend: b, Auth: in, ValidateForms: true}
}

// List forwards the query verbatim.
func (s *ProjectService) List(ctx context.Context, q url.Values) (*domain.FeedPage, error) {
	tr := otel.Tracer("services/ProjectService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(attribute.String("query", q.Encode())),
	)
	defer span.End()

	return s.Backend.ListProjects(ctx, q)
}

// Get fetches one project.
func (s *ProjectService) Get(ctx context.Context, id string) (*domain.Project, error) {
	tr := otel.Tracer("services/ProjectService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("project.id", id)),
	)
	defer span.End()

	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingProjectID
	}
	return s.Backend.GetProject(ctx, id)
}

// Create submits a new project.
func (s *ProjectService) Create(ctx context.Context, token string, body map[string]any) (*domain.Project, error) {
	tr := otel.Tracer("services/ProjectService")
	ctx, span := tr.Start(ctx, "Create")
	defer span.End()

	if err := authorize(s.Auth, token); err != nil {
		return nil, err
	}
	fields := liftCategory(body)
	if err := s.check(fields); err != nil {
		return nil, err
	}
	return s.Backend.CreateProject(ctx, token, fields)
}

// Update edits a project. pathID wins over a projectId carried in the body.
func (s *ProjectService) Update(ctx context.Context, token, pathID string, body map[string]any) (*domain.Project, error) {
	tr := otel.Tracer("services/ProjectService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(attribute.String("project.id", pathID)),
	)
	defer span.End()

	if err := authorize(s.Auth, token); err != nil {
		return nil, err
	}
	id, fields := unwrapProject(pathID, body)
	if id == "" {
		return nil, ErrMissingProjectID
	}
	fields = liftCategory(fields)
	delete(fields, "id")
	if err := s.check(fields); err != nil {
		return nil, err
	}
	return s.Backend.UpdateProject(ctx, token, id, fields)
}

// Delete removes a project named by pathID or by the body's projectId.
func (s *ProjectService) Delete(ctx context.Context, token, pathID string, body map[string]any) error {
	tr := otel.Tracer("services/ProjectService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("project.id", pathID)),
	)
	defer span.End()

	if err := authorize(s.Auth, token); err != nil {
		return err
	}
	id, _ := unwrapProject(pathID, body)
	if id == "" {
		return ErrMissingProjectID
	}
	return s.Backend.DeleteProject(ctx, token, id)
}

func (s *ProjectService) check(fields map[string]any) error {
	if !s.ValidateForms {
		return nil
	}
	if err := validation.Validate(formFrom(fields)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

// unwrapProject resolves the target id and the project fields from either
// {project: {...}, projectId} or a flat body.
func unwrapProject(pathID string, body map[string]any) (string, map[string]any) {
	fields := body
	if inner, ok := body["project"].(map[string]any); ok {
		fields = inner
	}
	id := strings.TrimSpace(pathID)
	if id == "" {
		id = stringField(body, "projectId")
	}
	if id == "" {
		id = stringField(fields, "id")
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return id, out
}

// liftCategory rewrites a singular "category" into "categories": [category].
// An existing "categories" array is kept as is. body is not modified.
func liftCategory(body map[string]any) map[string]any {
	out := make(map[string]any, len(body)+1)
	for k, v := range body {
		out[k] = v
	}
	cat, ok := out["category"]
	if !ok {
		return out
	}
	delete(out, "category")
	if _, has := out["categories"]; has {
		return out
	}
	if s, isStr := cat.(string); isStr && strings.TrimSpace(s) == "" {
		out["categories"] = []any{}
		return out
	}
	out["categories"] = []any{cat}
	return out
}

// formFrom reads the validated text fields out of a JSON body.
func formFrom(fields map[string]any) validation.ProjectForm {
	f := validation.ProjectForm{
		Name:        stringField(fields, "name"),
		Description: stringField(fields, "description"),
		Website:     stringField(fields, "website"),
		Twitter:     stringField(fields, "twitter"),
		Discord:     stringField(fields, "discord"),
	}
	if cats, ok := fields["categories"].([]any); ok {
		for _, c := range cats {
			switch v := c.(type) {
			case string:
				f.Categories = append(f.Categories, v)
			case map[string]any:
				f.Categories = append(f.Categories, stringField(v, "id"))
			}
		}
	}
	return f
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}
