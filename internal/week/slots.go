package week

import (
	"fmt"
	"strings"

	"github.com/menucockpit/server/internal/model"
)

// DefaultChildBirthMonth pads child_birth_months entries when no month is
// known for a child.
const DefaultChildBirthMonth = "2020-01"

// SlotPatch carries one PATCH request against a single slot. Pointer fields
// distinguish "absent" from "set to zero value".
type SlotPatch struct {
	RecipeID  *string       `json:"recipe_id,omitempty"`
	FreeText  *string       `json:"free_text,omitempty"`
	Validated *bool         `json:"validated,omitempty"`
	People    *model.People `json:"people,omitempty"`
	Preview   *string       `json:"preview,omitempty"`
}

// ApplyPatch mutates slot according to the patch and returns whether an
// assignment took place.
//
// Assignment policy: when recipe_id or free_text is assigned and the patch
// carries no explicit validated flag, validated is recomputed as true iff
// the slot has content after the assignment. An explicit validated:false
// always wins and discards the memoized preview, which is meaningless once
// the slot is no longer committed.
func ApplyPatch(slot *model.Slot, p SlotPatch) bool {
	assigned := false

	if p.RecipeID != nil {
		slot.RecipeID = strings.TrimSpace(*p.RecipeID)
		assigned = true
	}
	if p.FreeText != nil {
		slot.FreeText = strings.TrimSpace(*p.FreeText)
		assigned = true
	}

	if p.People != nil {
		slot.People = ReconcilePeople(*p.People)
	}

	if p.Preview != nil {
		slot.Preview = *p.Preview
		slot.PreviewPeopleSignature = PeopleSignature(slot.People)
	}

	switch {
	case p.Validated != nil:
		slot.Validated = *p.Validated
		if !*p.Validated {
			slot.Preview = ""
			slot.PreviewPeopleSignature = ""
		}
	case assigned:
		slot.Validated = slot.RecipeID != "" || slot.FreeText != ""
	}

	return assigned
}

// ReconcilePeople normalizes a people block rather than rejecting it:
// child_birth_months is padded or truncated to exactly children entries,
// repeating the first supplied month (or the fixed default) as needed.
func ReconcilePeople(p model.People) model.People {
	if p.Adults < 0 {
		p.Adults = 0
	}
	if p.Children <= 0 {
		p.Children = 0
		p.ChildBirthMonths = []string{}
		return p
	}

	pad := DefaultChildBirthMonth
	if len(p.ChildBirthMonths) > 0 && p.ChildBirthMonths[0] != "" {
		pad = p.ChildBirthMonths[0]
	}

	months := make([]string, p.Children)
	for i := range months {
		if i < len(p.ChildBirthMonths) && p.ChildBirthMonths[i] != "" {
			months[i] = p.ChildBirthMonths[i]
		} else {
			months[i] = pad
		}
	}
	p.ChildBirthMonths = months
	return p
}

// PeopleSignature derives the cache key under which slot previews are
// memoized. Two slots with the same composition share a signature.
func PeopleSignature(p model.People) string {
	return fmt.Sprintf("a%d-c%d-%s", p.Adults, p.Children, strings.Join(p.ChildBirthMonths, ","))
}

// InitValidation backfills the validated flag on every one of the 14 fixed
// slots: true iff a recipe is assigned. Free text and people are untouched.
// Used to repair week documents predating the validated-flag convention.
func InitValidation(w *model.Week) {
	if w.Slots == nil {
		w.Slots = make(map[string]*model.Slot)
	}
	for _, key := range model.SlotKeys {
		slot, ok := w.Slots[key]
		if !ok {
			slot = &model.Slot{People: defaultPeople()}
			w.Slots[key] = slot
		}
		slot.Validated = slot.RecipeID != ""
	}
}

func defaultPeople() model.People {
	return model.People{Adults: 2, Children: 0, ChildBirthMonths: []string{}}
}
