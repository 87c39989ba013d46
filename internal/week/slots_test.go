package week

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/menucockpit/server/internal/model"
)

func strp(s string) *string { return &s }
func boolp(b bool) *bool    { return &b }

func TestApplyPatch_AssignRecipeAutoValidates(t *testing.T) {
	slot := &model.Slot{}
	assigned := ApplyPatch(slot, SlotPatch{RecipeID: strp("rcp_x")})

	assert.True(t, assigned)
	assert.Equal(t, "rcp_x", slot.RecipeID)
	assert.True(t, slot.Validated)
}

func TestApplyPatch_AssignFreeTextAutoValidates(t *testing.T) {
	slot := &model.Slot{}
	ApplyPatch(slot, SlotPatch{FreeText: strp("restes du frigo")})

	assert.Equal(t, "restes du frigo", slot.FreeText)
	assert.True(t, slot.Validated)
}

func TestApplyPatch_ClearingContentAutoDevalidates(t *testing.T) {
	slot := &model.Slot{RecipeID: "rcp_x", Validated: true}
	ApplyPatch(slot, SlotPatch{RecipeID: strp("")})

	assert.Empty(t, slot.RecipeID)
	assert.False(t, slot.Validated)
}

func TestApplyPatch_ExplicitValidatedFalseWinsAndStripsPreview(t *testing.T) {
	slot := &model.Slot{
		Preview:                "cached render",
		PreviewPeopleSignature: "a2-c0-",
	}
	ApplyPatch(slot, SlotPatch{RecipeID: strp("rcp_x"), Validated: boolp(false)})

	assert.Equal(t, "rcp_x", slot.RecipeID)
	assert.False(t, slot.Validated)
	assert.Empty(t, slot.Preview)
	assert.Empty(t, slot.PreviewPeopleSignature)
}

func TestApplyPatch_ExplicitValidatedTrueKeepsPreview(t *testing.T) {
	slot := &model.Slot{Preview: "cached", PreviewPeopleSignature: "a2-c0-"}
	ApplyPatch(slot, SlotPatch{Validated: boolp(true)})

	assert.True(t, slot.Validated)
	assert.Equal(t, "cached", slot.Preview)
}

func TestApplyPatch_PeopleOnlyLeavesValidationAlone(t *testing.T) {
	slot := &model.Slot{RecipeID: "rcp_x", Validated: true}
	ApplyPatch(slot, SlotPatch{People: &model.People{Adults: 3}})

	assert.True(t, slot.Validated)
	assert.Equal(t, 3, slot.People.Adults)
}

func TestApplyPatch_PreviewStampsPeopleSignature(t *testing.T) {
	slot := &model.Slot{People: model.People{Adults: 2, Children: 1, ChildBirthMonths: []string{"2021-06"}}}
	ApplyPatch(slot, SlotPatch{Preview: strp("menu enfant inclus")})

	assert.Equal(t, "menu enfant inclus", slot.Preview)
	assert.Equal(t, PeopleSignature(slot.People), slot.PreviewPeopleSignature)
}

func TestReconcilePeople_PadsFromDefault(t *testing.T) {
	p := ReconcilePeople(model.People{Adults: 2, Children: 2})
	assert.Equal(t, []string{DefaultChildBirthMonth, DefaultChildBirthMonth}, p.ChildBirthMonths)
}

func TestReconcilePeople_PadsFromFirstSuppliedMonth(t *testing.T) {
	p := ReconcilePeople(model.People{Adults: 2, Children: 3, ChildBirthMonths: []string{"2019-03"}})
	assert.Equal(t, []string{"2019-03", "2019-03", "2019-03"}, p.ChildBirthMonths)
}

func TestReconcilePeople_Truncates(t *testing.T) {
	p := ReconcilePeople(model.People{Adults: 1, Children: 1, ChildBirthMonths: []string{"2019-03", "2021-07"}})
	assert.Equal(t, []string{"2019-03"}, p.ChildBirthMonths)
}

func TestReconcilePeople_ZeroChildrenClearsMonths(t *testing.T) {
	p := ReconcilePeople(model.People{Adults: 2, Children: 0, ChildBirthMonths: []string{"2019-03"}})
	assert.Empty(t, p.ChildBirthMonths)
}

func TestInitValidation_BackfillsAllFourteenSlots(t *testing.T) {
	w := &model.Week{Slots: map[string]*model.Slot{
		"monday_dinner":  {RecipeID: "rcp_x", Validated: false},
		"tuesday_dinner": {FreeText: "pizza", Validated: true},
	}}
	InitValidation(w)

	assert.Len(t, w.Slots, len(model.SlotKeys))
	assert.True(t, w.Slots["monday_dinner"].Validated, "recipe-backed slot becomes validated")
	assert.False(t, w.Slots["tuesday_dinner"].Validated, "free text alone does not validate")
	assert.Equal(t, "pizza", w.Slots["tuesday_dinner"].FreeText, "free text untouched")
	assert.False(t, w.Slots["sunday_lunch"].Validated)
}

func TestPeopleSignatureDistinguishesComposition(t *testing.T) {
	a := PeopleSignature(model.People{Adults: 2, Children: 1, ChildBirthMonths: []string{"2021-06"}})
	b := PeopleSignature(model.People{Adults: 2, Children: 1, ChildBirthMonths: []string{"2019-01"}})
	c := PeopleSignature(model.People{Adults: 2, Children: 1, ChildBirthMonths: []string{"2021-06"}})
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, c)
}
