package recipe

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/menucockpit/server/internal/docstore"
	"github.com/menucockpit/server/internal/driveindex"
	"github.com/menucockpit/server/internal/model"
)

// JobLauncher starts an external upload run for a recipe. Implemented by the
// drive job tracker.
type JobLauncher interface {
	LaunchUpload(ctx context.Context, recipeID string) (*model.DriveJob, error)
}

// Service contains the core business logic for recipe operations. Recipes
// are stored one JSON document per recipe under dir.
type Service struct {
	store *docstore.Store
	index *driveindex.Index
	jobs  JobLauncher
	dir   string
	log   zerolog.Logger

	now func() time.Time
}

// NewService creates a recipe service. jobs may be nil when upload flows are
// not wired (e.g. in menuctl-only deployments).
func NewService(store *docstore.Store, index *driveindex.Index, jobs JobLauncher, dir string, log zerolog.Logger) *Service {
	return &Service{store: store, index: index, jobs: jobs, dir: dir, log: log, now: time.Now}
}

func (s *Service) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Get loads a recipe by id. Empty or corrupt documents surface as not found
// so callers may safely recreate them.
func (s *Service) Get(ctx context.Context, id string) (*model.Recipe, error) {
	if !recipeIDRx.MatchString(id) {
		return nil, model.NewValidationError("recipe", RuleInvalidRecipeID)
	}
	var r model.Recipe
	if err := s.store.ReadInto(s.path(id), &r); err != nil {
		if docstore.IsRecoverable(err) {
			return nil, model.NewNotFoundError("recipe", id)
		}
		return nil, err
	}
	return &r, nil
}

// PatchRequest carries the mutable parts of a recipe. recipe_id, status and
// source never change through Patch.
type PatchRequest struct {
	Notes   *string              `json:"notes,omitempty"`
	Content *model.RecipeContent `json:"content,omitempty"`
}

// Patch updates notes and/or content of an existing recipe.
func (s *Service) Patch(ctx context.Context, id string, req PatchRequest) (*model.Recipe, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Notes != nil {
		r.Notes = *req.Notes
	}
	if req.Content != nil {
		r.Content = *req.Content
	}
	r.UpdatedAt = s.timestamp()
	if err := s.store.Write(s.path(id), r); err != nil {
		return nil, err
	}
	s.log.Info().Str("recipe_id", id).Msg("recipe patched")
	return r, nil
}

// SetStatus transitions a recipe's status. Transitions are free except that
// VALIDEE and EXTERNE require the recipe to pass full content validation.
func (s *Service) SetStatus(ctx context.Context, id, status string) (*model.Recipe, error) {
	if !contains(model.RecipeStatuses, status) {
		return nil, model.NewValidationError("recipe", RuleInvalidStatus)
	}
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if status == model.StatusValidated || status == model.StatusExternal {
		res := Validate(r, ValidateOptions{RequireContent: true})
		if !res.OK {
			return nil, model.NewValidationError("recipe", res.Errors...)
		}
	}
	r.Status = status
	r.UpdatedAt = s.timestamp()
	if err := s.store.Write(s.path(id), r); err != nil {
		return nil, err
	}
	s.log.Info().Str("recipe_id", id).Str("status", status).Msg("recipe status changed")
	return r, nil
}

// Save creates or replaces a recipe document. A recipe arriving at status
// VALIDEE or EXTERNE must pass full content validation, otherwise the
// SetStatus gate could be sidestepped by saving the document directly.
// New titles are checked against the drive index; collisions are reported
// as conflicts with the offending entries so the caller can decide. An
// entry matching the recipe's own drive_path is not a conflict.
func (s *Service) Save(ctx context.Context, r *model.Recipe) (*model.Recipe, error) {
	opts := ValidateOptions{}
	if r != nil && (r.Status == model.StatusValidated || r.Status == model.StatusExternal) {
		opts.RequireContent = true
	}
	res := Validate(r, opts)
	if !res.OK {
		return nil, model.NewValidationError("recipe", res.Errors...)
	}

	if dups := s.duplicates(r); len(dups) > 0 {
		return nil, model.NewConflictError("duplicate_title",
			fmt.Sprintf("title %q already exists on drive", r.Title), dups)
	}

	r.UpdatedAt = s.timestamp()
	if err := s.store.Write(s.path(r.RecipeID), r); err != nil {
		return nil, err
	}
	s.log.Info().Str("recipe_id", r.RecipeID).Str("title", r.Title).Msg("recipe saved")
	return r, nil
}

// Upload launches the external upload subprocess for an eligible recipe:
// status VALIDEE and a passing full-content validation.
func (s *Service) Upload(ctx context.Context, id string) (*model.DriveJob, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != model.StatusValidated {
		return nil, model.NewValidationError("recipe", RuleInvalidStatus)
	}
	res := Validate(r, ValidateOptions{RequireContent: true})
	if !res.OK {
		return nil, model.NewValidationError("recipe", res.Errors...)
	}
	if s.jobs == nil {
		return nil, fmt.Errorf("upload launcher not configured")
	}
	return s.jobs.LaunchUpload(ctx, id)
}

// SaveAndUpload persists the recipe then launches the upload run.
func (s *Service) SaveAndUpload(ctx context.Context, r *model.Recipe) (*model.Recipe, *model.DriveJob, error) {
	saved, err := s.Save(ctx, r)
	if err != nil {
		return nil, nil, err
	}
	job, err := s.Upload(ctx, saved.RecipeID)
	if err != nil {
		return saved, nil, err
	}
	return saved, job, nil
}

// EnsurePlaceholder guarantees that a recipe document exists for id,
// creating a DRAFT stub when missing, empty or corrupt. Keeps week slot
// references always resolvable: the caller may see a placeholder but never
// a dangling reference.
func (s *Service) EnsurePlaceholder(ctx context.Context, id string) (*model.Recipe, bool, error) {
	if !recipeIDRx.MatchString(id) {
		return nil, false, model.NewValidationError("recipe", RuleInvalidRecipeID)
	}

	var existing model.Recipe
	err := s.store.ReadInto(s.path(id), &existing)
	if err == nil {
		return &existing, false, nil
	}
	if !docstore.IsRecoverable(err) {
		return nil, false, err
	}

	r := Placeholder(id)
	r.UpdatedAt = s.timestamp()
	if err := s.store.Write(s.path(id), r); err != nil {
		return nil, false, err
	}
	s.log.Info().Str("recipe_id", id).Msg("placeholder recipe created")
	return r, true, nil
}

// Placeholder builds the stub recipe auto-created for a dangling slot
// reference. Its title deliberately trips the placeholder_title rule so it
// can never be marked VALIDEE as-is.
func Placeholder(id string) *model.Recipe {
	return &model.Recipe{
		RecipeID: id,
		Title:    fmt.Sprintf("Placeholder %s", id),
		Source:   model.RecipeSource{Type: model.SourceLocal},
		Status:   model.StatusDraft,
		Servings: 2,
		Season:   []string{"toutes_saisons"},
		Content: model.RecipeContent{
			DescriptionCourte: "A completer",
			Ingredients:       []model.Ingredient{},
			PreparationSteps:  []string{},
		},
	}
}

func (s *Service) duplicates(r *model.Recipe) []driveindex.Entry {
	if s.index == nil {
		return nil
	}
	var dups []driveindex.Entry
	for _, e := range s.index.FindDuplicates(r.Title) {
		if r.Source.Type == model.SourceDrive && e.FullPath == r.Source.DrivePath {
			continue
		}
		dups = append(dups, e)
	}
	return dups
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}
