package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menucockpit/server/internal/chat"
	"github.com/menucockpit/server/internal/docstore"
	"github.com/menucockpit/server/internal/driveindex"
	"github.com/menucockpit/server/internal/drivejob"
	"github.com/menucockpit/server/internal/llm"
	"github.com/menucockpit/server/internal/model"
	"github.com/menucockpit/server/internal/recipe"
	"github.com/menucockpit/server/internal/week"
)

type stubGenerator struct {
	result *llm.Result
	err    error
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (*llm.Result, error) {
	return s.result, s.err
}

type testEnv struct {
	router *mux.Router
	dir    string
	store  *docstore.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	store := docstore.New()
	nop := zerolog.Nop()

	script := filepath.Join(dir, "ok.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0755))

	idx := driveindex.New(filepath.Join(dir, "recettes_index.json"), store, nop)
	tracker := drivejob.New(store, script, script,
		filepath.Join(dir, "jobs"), filepath.Join(dir, "logs"),
		time.Hour, 30*time.Second, nop)
	recipes := recipe.NewService(store, idx, tracker, filepath.Join(dir, "recipes"), nop)
	weeks := week.NewService(store, recipes, filepath.Join(dir, "weeks"),
		filepath.Join(dir, "rules.yaml"), "Europe/Paris", nop)
	gen := &stubGenerator{result: &llm.Result{
		OutputText: "- Ratatouille",
		Model:      "test-model",
		Usage:      llm.Usage{InputTokens: 5, OutputTokens: 3, TotalTokens: 8},
	}}
	chats := chat.NewService(store, gen, filepath.Join(dir, "chats"), nop)

	return &testEnv{
		router: NewRouter(weeks, recipes, chats, tracker),
		dir:    dir,
		store:  store,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), into))
}

func validRecipeDoc() *model.Recipe {
	return &model.Recipe{
		RecipeID: "rcp_gratin_dauphinois",
		Title:    "Gratin dauphinois",
		Source:   model.RecipeSource{Type: model.SourceLocal},
		Status:   model.StatusDraft,
		Servings: 4,
		Season:   []string{"hiver"},
		Content: model.RecipeContent{
			DescriptionCourte: "Un gratin classique",
			Ingredients:       []model.Ingredient{{Item: "pommes de terre", Qty: "1", Unit: "kg"}},
			PreparationSteps:  []string{"Eplucher les pommes de terre", "Cuire au four"},
		},
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	BindServiceHealth(func() bool { return true })
	defer BindServiceHealth(func() bool { return false })

	rr := env.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	decode(t, rr, &body)
	assert.Equal(t, "healthy", body["status"])
}

func TestPrepareWeekCreatedThenIdempotent(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/weeks/prepare", map[string]string{"week_id": "2026-W07"})
	require.Equal(t, http.StatusCreated, rr.Code)

	var res week.PrepareResult
	decode(t, rr, &res)
	assert.True(t, res.Created)
	assert.Equal(t, "2026-02-09", res.Week.DateStart)
	assert.Len(t, res.Week.Slots, 14)

	rr = env.do(t, http.MethodPost, "/api/weeks/prepare", map[string]string{"week_id": "2026-W07"})
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, rr, &res)
	assert.False(t, res.Created)
}

func TestPrepareWeekInvalidID(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPost, "/api/weeks/prepare", map[string]string{"week_id": "2026-W99"})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var body map[string]any
	decode(t, rr, &body)
	assert.Equal(t, "validation_failed", body["error"])
}

func TestGetWeekNotFound(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/api/weeks/2026-W09", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	var body map[string]any
	decode(t, rr, &body)
	assert.Equal(t, "week_not_found", body["error"])
}

func TestPatchSlotAutoValidates(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPost, "/api/weeks/prepare", map[string]string{"week_id": "2026-W07"})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = env.do(t, http.MethodPatch, "/api/weeks/2026-W07/slots/friday_dinner",
		map[string]string{"recipe_id": "rcp_gratin_dauphinois"})
	require.Equal(t, http.StatusOK, rr.Code)

	var wk model.Week
	decode(t, rr, &wk)
	slot := wk.Slots["friday_dinner"]
	require.NotNil(t, slot)
	assert.Equal(t, "rcp_gratin_dauphinois", slot.RecipeID)
	assert.True(t, slot.Validated)
}

func TestPatchSlotUnknownKey(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/weeks/prepare", map[string]string{"week_id": "2026-W07"})

	rr := env.do(t, http.MethodPatch, "/api/weeks/2026-W07/slots/brunch",
		map[string]string{"free_text": "pancakes"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestInitValidationEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/weeks/prepare", map[string]string{"week_id": "2026-W07"})

	rr := env.do(t, http.MethodPatch, "/api/weeks/2026-W07/slots/init-validation", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var wk model.Week
	decode(t, rr, &wk)
	for key, slot := range wk.Slots {
		assert.Equal(t, slot.RecipeID != "", slot.Validated, "slot %s", key)
	}
}

func TestRecipeSaveGetPatch(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/recipes/save", validRecipeDoc())
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/recipes/rcp_gratin_dauphinois", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var rec model.Recipe
	decode(t, rr, &rec)
	assert.Equal(t, "Gratin dauphinois", rec.Title)

	rr = env.do(t, http.MethodPatch, "/api/recipes/rcp_gratin_dauphinois",
		map[string]string{"notes": "doubler la creme"})
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, rr, &rec)
	assert.Equal(t, "doubler la creme", rec.Notes)
}

func TestRecipeSaveValidationFailureListsRules(t *testing.T) {
	env := newTestEnv(t)

	bad := validRecipeDoc()
	bad.RecipeID = "gratin"
	bad.Title = ""
	rr := env.do(t, http.MethodPost, "/api/recipes/save", bad)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var body struct {
		Error   string `json:"error"`
		Details struct {
			Rules []string `json:"rules"`
		} `json:"details"`
	}
	decode(t, rr, &body)
	assert.Equal(t, "validation_failed", body.Error)
	assert.Contains(t, body.Details.Rules, "invalid_recipe_id")
	assert.Contains(t, body.Details.Rules, "missing_title")
}

func TestRecipeGetNotFound(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/api/recipes/rcp_inconnu", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRecipeDuplicateTitleConflict(t *testing.T) {
	env := newTestEnv(t)

	entries := []driveindex.Entry{{
		FileID:          "f1",
		Title:           "Gratin Dauphinois",
		NormalizedTitle: "gratin dauphinois",
		TitleKey:        "gratindauphinois",
		FullPath:        "/Recettes/gratin.docx",
	}}
	require.NoError(t, env.store.Write(filepath.Join(env.dir, "recettes_index.json"), entries))

	rr := env.do(t, http.MethodPost, "/api/recipes/save", validRecipeDoc())
	require.Equal(t, http.StatusConflict, rr.Code)

	var body map[string]any
	decode(t, rr, &body)
	assert.Equal(t, "duplicate_title", body["error"])
	assert.NotEmpty(t, body["details"])
}

func TestRecipeStatusAndUploadFlow(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPost, "/api/recipes/save", validRecipeDoc())
	require.Equal(t, http.StatusOK, rr.Code)

	// Upload before validation is rejected.
	rr = env.do(t, http.MethodPost, "/api/recipes/upload",
		map[string]string{"recipe_id": "rcp_gratin_dauphinois"})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = env.do(t, http.MethodPatch, "/api/recipes/rcp_gratin_dauphinois/status",
		map[string]string{"status": model.StatusValidated})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/recipes/upload",
		map[string]string{"recipe_id": "rcp_gratin_dauphinois"})
	require.Equal(t, http.StatusAccepted, rr.Code)

	var body struct {
		Job *model.DriveJob `json:"job"`
	}
	decode(t, rr, &body)
	require.NotNil(t, body.Job)
	assert.Equal(t, drivejob.TypeUpload, body.Job.Type)
}

func TestChatSessionFlow(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/chat/2026-W07", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var sess model.ChatSession
	decode(t, rr, &sess)
	assert.Empty(t, sess.Messages)

	rr = env.do(t, http.MethodPost, "/api/chat/2026-W07/messages",
		map[string]string{"content": "une idee pour vendredi", "slot_key": "friday_dinner"})
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, rr, &sess)
	require.Len(t, sess.Messages, 2)
	require.Len(t, sess.MenuProposals["friday_dinner"], 1)

	prop := sess.MenuProposals["friday_dinner"][0]
	rr = env.do(t, http.MethodPatch, "/api/chat/2026-W07/proposals/friday_dinner/"+prop.ProposalID,
		map[string]bool{"to_save": true})
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, rr, &sess)
	assert.True(t, sess.MenuProposals["friday_dinner"][0].ToSave)
}

func TestChatEmptyMessageRejected(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPost, "/api/chat/2026-W07/messages", map[string]string{})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestChatInvalidWeekIDRejected(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/api/chat/not-a-week", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	// No session document may appear for the rejected id.
	_, err := os.Stat(filepath.Join(env.dir, "chats", "not-a-week.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestDriveRescanAcceptedThenRateLimited(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/drive/rescan", nil)
	require.Equal(t, http.StatusAccepted, rr.Code)

	var body struct {
		Job *model.DriveJob `json:"job"`
	}
	decode(t, rr, &body)
	require.NotNil(t, body.Job)
	jobID := body.Job.JobID

	// Wait for the short script to finish so the guard is the rate limit,
	// not the in-flight conflict.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		st := env.do(t, http.MethodGet, "/api/drive/rescan/status?job_id="+jobID, nil)
		require.Equal(t, http.StatusOK, st.Code)
		var res drivejob.StatusResult
		decode(t, st, &res)
		if res.Job.Terminal() {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	// The in-process guard is released just after the terminal record lands;
	// tolerate the window where a retry still reports the conflict.
	rr = env.do(t, http.MethodPost, "/api/drive/rescan", nil)
	for i := 0; i < 50 && rr.Code == http.StatusConflict; i++ {
		time.Sleep(20 * time.Millisecond)
		rr = env.do(t, http.MethodPost, "/api/drive/rescan", nil)
	}
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	var errBody struct {
		Error   string `json:"error"`
		Details struct {
			RetryAfter int `json:"retry_after"`
		} `json:"details"`
	}
	decode(t, rr, &errBody)
	assert.Equal(t, "rate_limited", errBody.Error)
	assert.Greater(t, errBody.Details.RetryAfter, 0)
}

func TestDriveStatusNoJobs(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/api/drive/rescan/status", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
