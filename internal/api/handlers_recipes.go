package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/menucockpit/server/internal/api/respond"
	"github.com/menucockpit/server/internal/model"
	"github.com/menucockpit/server/internal/recipe"
)

// RecipeHandler is a thin HTTP transport over the recipe service.
type RecipeHandler struct {
	svc *recipe.Service
}

func NewRecipeHandler(svc *recipe.Service) *RecipeHandler { return &RecipeHandler{svc: svc} }

// GetRecipe GET /api/recipes/{recipeId}
func (h *RecipeHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), mux.Vars(r)["recipeId"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, rec)
}

// PatchRecipe PATCH /api/recipes/{recipeId}
func (h *RecipeHandler) PatchRecipe(w http.ResponseWriter, r *http.Request) {
	var req recipe.PatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid_json")
		return
	}
	rec, err := h.svc.Patch(r.Context(), mux.Vars(r)["recipeId"], req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, rec)
}

// SetStatus PATCH /api/recipes/{recipeId}/status
func (h *RecipeHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid_json")
		return
	}
	rec, err := h.svc.SetStatus(r.Context(), mux.Vars(r)["recipeId"], req.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, rec)
}

// SaveRecipe POST /api/recipes/save
func (h *RecipeHandler) SaveRecipe(w http.ResponseWriter, r *http.Request) {
	var rec model.Recipe
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		respond.WriteBadRequest(w, "invalid_json")
		return
	}
	out, err := h.svc.Save(r.Context(), &rec)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// UploadRecipe POST /api/recipes/upload
func (h *RecipeHandler) UploadRecipe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RecipeID string `json:"recipe_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid_json")
		return
	}
	job, err := h.svc.Upload(r.Context(), req.RecipeID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusAccepted, map[string]interface{}{"job": job})
}

// SaveAndUpload POST /api/recipes/save-and-upload
func (h *RecipeHandler) SaveAndUpload(w http.ResponseWriter, r *http.Request) {
	var rec model.Recipe
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		respond.WriteBadRequest(w, "invalid_json")
		return
	}
	out, job, err := h.svc.SaveAndUpload(r.Context(), &rec)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusAccepted, map[string]interface{}{"recipe": out, "job": job})
}
