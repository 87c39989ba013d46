// Package week governs weekly menu documents and their 14 meal slots.
package week

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/menucockpit/server/internal/docstore"
	"github.com/menucockpit/server/internal/model"
)

// ISO week numbers run 1..53.
var weekIDRx = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// PlaceholderEnsurer guarantees a referenced recipe document exists,
// creating a stub when missing. Implemented by the recipe service.
type PlaceholderEnsurer interface {
	EnsurePlaceholder(ctx context.Context, recipeID string) (*model.Recipe, bool, error)
}

// Service contains the core business logic for week operations. Weeks are
// stored one JSON document per week under dir.
type Service struct {
	store     *docstore.Store
	recipes   PlaceholderEnsurer
	dir       string
	rulesFile string
	timezone  string
	log       zerolog.Logger

	now func() time.Time
}

// NewService creates a week service.
func NewService(store *docstore.Store, recipes PlaceholderEnsurer, dir, rulesFile, timezone string, log zerolog.Logger) *Service {
	return &Service{
		store:     store,
		recipes:   recipes,
		dir:       dir,
		rulesFile: rulesFile,
		timezone:  timezone,
		log:       log,
		now:       time.Now,
	}
}

func (s *Service) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// ParseWeekID validates a "YYYY-WNN" identifier and returns year and week.
func ParseWeekID(id string) (int, int, error) {
	m := weekIDRx.FindStringSubmatch(id)
	if m == nil {
		return 0, 0, model.NewValidationError("week", "invalid_week_id")
	}
	year, _ := strconv.Atoi(m[1])
	wk, _ := strconv.Atoi(m[2])
	if wk < 1 || wk > 53 {
		return 0, 0, model.NewValidationError("week", "invalid_week_number")
	}
	return year, wk, nil
}

// WeekDates returns the Monday and Sunday of an ISO week.
func WeekDates(year, wk int) (time.Time, time.Time) {
	// January 4 always falls in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := int(jan4.Weekday())
	if offset == 0 {
		offset = 7
	}
	monday := jan4.AddDate(0, 0, 1-offset+(wk-1)*7)
	return monday, monday.AddDate(0, 0, 6)
}

// WeekIDFor returns the "YYYY-WNN" identifier of the week containing t.
func WeekIDFor(t time.Time) string {
	year, wk := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, wk)
}

// Get loads a week by id.
func (s *Service) Get(ctx context.Context, id string) (*model.Week, error) {
	if _, _, err := ParseWeekID(id); err != nil {
		return nil, err
	}
	var w model.Week
	if err := s.store.ReadInto(s.path(id), &w); err != nil {
		if docstore.IsRecoverable(err) {
			return nil, model.NewNotFoundError("week", id)
		}
		return nil, err
	}
	return &w, nil
}

// Current resolves the week containing today in the configured timezone.
func (s *Service) Current(ctx context.Context) (*model.Week, error) {
	loc, err := time.LoadLocation(s.timezone)
	if err != nil {
		loc = time.UTC
	}
	return s.Get(ctx, WeekIDFor(s.now().In(loc)))
}

// List returns the ids of all stored weeks, most recent first.
func (s *Service) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		if weekIDRx.MatchString(id) {
			ids = append(ids, id)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}

// PrepareResult reports whether Prepare created a new document.
type PrepareResult struct {
	Week    *model.Week `json:"week"`
	Created bool        `json:"created"`
}

// Prepare creates the week document for id if absent and returns it.
// Idempotent: an existing week is returned unchanged with created=false.
//
// A fresh week seeds 10 of the 14 slots with placeholder recipe references
// and validated=false; the 4 weekday lunches stay unseeded. No slot of a
// fresh week starts validated.
func (s *Service) Prepare(ctx context.Context, id string) (*PrepareResult, error) {
	year, wk, err := ParseWeekID(id)
	if err != nil {
		return nil, err
	}

	if existing, err := s.Get(ctx, id); err == nil {
		return &PrepareResult{Week: existing, Created: false}, nil
	} else if !model.IsNotFoundError(err) {
		return nil, err
	}

	start, end := WeekDates(year, wk)
	w := &model.Week{
		WeekID:        id,
		DateStart:     start.Format("2006-01-02"),
		DateEnd:       end.Format("2006-01-02"),
		Timezone:      s.timezone,
		RulesReadonly: s.loadRules(),
		Slots:         make(map[string]*model.Slot),
		UpdatedAt:     s.timestamp(),
	}

	noLunch := make(map[string]bool, len(model.NoLunchSlotKeys))
	for _, k := range model.NoLunchSlotKeys {
		noLunch[k] = true
	}

	for _, key := range model.SlotKeys {
		slot := &model.Slot{Validated: false, People: defaultPeople()}
		if !noLunch[key] {
			rid := seedRecipeID(id, key)
			if _, _, err := s.recipes.EnsurePlaceholder(ctx, rid); err != nil {
				return nil, err
			}
			slot.RecipeID = rid
		}
		w.Slots[key] = slot
	}

	if err := s.store.Write(s.path(id), w); err != nil {
		return nil, err
	}
	s.log.Info().Str("week_id", id).Msg("week prepared")
	return &PrepareResult{Week: w, Created: true}, nil
}

// seedRecipeID derives the deterministic placeholder reference a fresh week
// points a seeded slot at.
func seedRecipeID(weekID, slotKey string) string {
	return "rcp_seed_" + strings.ReplaceAll(weekID, "-", "_") + "_" + slotKey
}

// PatchSlot applies a patch to one slot of a week and persists the result.
// Assigning a recipe_id with no backing document auto-creates a DRAFT
// placeholder so the reference always resolves.
func (s *Service) PatchSlot(ctx context.Context, id, slotKey string, p SlotPatch) (*model.Week, error) {
	if !model.IsSlotKey(slotKey) {
		return nil, model.NewValidationError("week", "invalid_slot_key")
	}
	w, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.Slots == nil {
		w.Slots = make(map[string]*model.Slot)
	}
	slot, ok := w.Slots[slotKey]
	if !ok {
		slot = &model.Slot{People: defaultPeople()}
		w.Slots[slotKey] = slot
	}

	ApplyPatch(slot, p)

	if slot.RecipeID != "" {
		if _, _, err := s.recipes.EnsurePlaceholder(ctx, slot.RecipeID); err != nil {
			return nil, err
		}
	}

	w.UpdatedAt = s.timestamp()
	if err := s.store.Write(s.path(id), w); err != nil {
		return nil, err
	}
	s.log.Info().Str("week_id", id).Str("slot", slotKey).Bool("validated", slot.Validated).Msg("slot patched")
	return w, nil
}

// InitValidation backfills validated flags across all 14 slots of a week
// and persists the result.
func (s *Service) InitValidation(ctx context.Context, id string) (*model.Week, error) {
	w, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	InitValidation(w)
	w.UpdatedAt = s.timestamp()
	if err := s.store.Write(s.path(id), w); err != nil {
		return nil, err
	}
	s.log.Info().Str("week_id", id).Msg("week validation flags initialized")
	return w, nil
}

// loadRules reads the YAML rules file copied into each prepared week.
// A missing or unreadable file yields an empty block.
func (s *Service) loadRules() map[string]any {
	data, err := os.ReadFile(s.rulesFile)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("path", s.rulesFile).Msg("rules file unreadable")
		}
		return map[string]any{}
	}
	var rules map[string]any
	if err := yaml.Unmarshal(data, &rules); err != nil {
		s.log.Warn().Err(err).Str("path", s.rulesFile).Msg("rules file malformed")
		return map[string]any{}
	}
	if rules == nil {
		rules = map[string]any{}
	}
	return rules
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}
