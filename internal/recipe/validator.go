package recipe

import (
	"math"
	"regexp"
	"strings"

	"github.com/menucockpit/server/internal/model"
)

var recipeIDRx = regexp.MustCompile(`^rcp_[A-Za-z0-9_-]+$`)

// DriveStubPrefix marks a drive_path that was fabricated rather than
// resolved against the real drive.
const DriveStubPrefix = "drive://stub/"

// Rule codes emitted by Validate.
const (
	RuleRecipeMissing     = "recipe_missing"
	RuleInvalidRecipeID   = "invalid_recipe_id"
	RuleMissingTitle      = "missing_title"
	RulePlaceholderTitle  = "placeholder_title"
	RuleInvalidStatus     = "invalid_status"
	RuleInvalidSourceType = "invalid_source_type"
	RuleMissingDrivePath  = "missing_drive_path"
	RuleStubDrivePath     = "stub_drive_path"
	RuleInvalidServings   = "invalid_servings"
	RuleMissingSeason     = "missing_season"
	RuleMissingContent    = "missing_content"
	RuleEmptyIngredients  = "empty_ingredients"
	RuleInvalidIngredient = "invalid_ingredient"
	RuleEmptySteps        = "empty_steps"
	RuleInvalidStep       = "invalid_step"
)

// ValidateOptions controls optional checks.
type ValidateOptions struct {
	// RequireContent additionally demands non-empty ingredient and step
	// lists, as needed before a recipe may be marked VALIDEE/EXTERNE or
	// uploaded.
	RequireContent bool
}

// ValidateResult reports the outcome of a validation pass.
type ValidateResult struct {
	OK     bool     `json:"ok"`
	Errors []string `json:"errors"`
}

// Validate checks a recipe against the schema, accumulating all violations
// rather than failing fast. Pure: no side effects, no I/O.
func Validate(r *model.Recipe, opts ValidateOptions) ValidateResult {
	if r == nil {
		return ValidateResult{OK: false, Errors: []string{RuleRecipeMissing}}
	}

	var errs []string
	add := func(rule string) { errs = append(errs, rule) }

	if !recipeIDRx.MatchString(r.RecipeID) {
		add(RuleInvalidRecipeID)
	}

	title := strings.TrimSpace(r.Title)
	if title == "" {
		add(RuleMissingTitle)
	} else if strings.Contains(strings.ToLower(title), "placeholder") {
		add(RulePlaceholderTitle)
	}

	if !contains(model.RecipeStatuses, r.Status) {
		add(RuleInvalidStatus)
	}

	if !contains(model.SourceTypes, r.Source.Type) {
		add(RuleInvalidSourceType)
	} else if r.Source.Type == model.SourceDrive {
		switch {
		case strings.TrimSpace(r.Source.DrivePath) == "":
			add(RuleMissingDrivePath)
		case strings.HasPrefix(r.Source.DrivePath, DriveStubPrefix):
			add(RuleStubDrivePath)
		}
	}

	if math.IsNaN(r.Servings) || math.IsInf(r.Servings, 0) || r.Servings < 1 {
		add(RuleInvalidServings)
	}

	if len(r.Season) == 0 {
		add(RuleMissingSeason)
	}

	if opts.RequireContent {
		if len(r.Content.Ingredients) == 0 {
			add(RuleEmptyIngredients)
		}
		for _, ing := range r.Content.Ingredients {
			if strings.TrimSpace(ing.Item) == "" || strings.TrimSpace(ing.Qty) == "" || strings.TrimSpace(ing.Unit) == "" {
				add(RuleInvalidIngredient)
				break
			}
		}
		if len(r.Content.PreparationSteps) == 0 {
			add(RuleEmptySteps)
		}
		for _, step := range r.Content.PreparationSteps {
			if strings.TrimSpace(step) == "" {
				add(RuleInvalidStep)
				break
			}
		}
	}

	return ValidateResult{OK: len(errs) == 0, Errors: errs}
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
