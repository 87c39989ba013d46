package api

import (
	"github.com/gorilla/mux"

	"github.com/menucockpit/server/internal/api/recovery"
	"github.com/menucockpit/server/internal/chat"
	"github.com/menucockpit/server/internal/drivejob"
	"github.com/menucockpit/server/internal/recipe"
	"github.com/menucockpit/server/internal/week"
)

// NewRouter creates the HTTP router with all API routes.
func NewRouter(weeks *week.Service, recipes *recipe.Service, chats *chat.Service, jobs *drivejob.Tracker) *mux.Router {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(recovery.Middleware)

	// Create handlers
	healthHandler := NewHealthHandler()
	weekHandler := NewWeekHandler(weeks)
	recipeHandler := NewRecipeHandler(recipes)
	chatHandler := NewChatHandler(chats)
	driveHandler := NewDriveHandler(jobs)

	// Health endpoint
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	// Week endpoints. The fixed "list"/"current"/"prepare" paths are
	// registered before the {weekId} routes and the id pattern keeps them
	// disambiguated regardless of ordering.
	router.HandleFunc("/api/weeks/list", weekHandler.ListWeeks).Methods("GET")
	router.HandleFunc("/api/weeks/current", weekHandler.CurrentWeek).Methods("GET")
	router.HandleFunc("/api/weeks/prepare", weekHandler.PrepareWeek).Methods("POST")
	router.HandleFunc("/api/weeks/{weekId:[0-9]{4}-W[0-9]{2}}", weekHandler.GetWeek).Methods("GET")
	router.HandleFunc("/api/weeks/{weekId:[0-9]{4}-W[0-9]{2}}/slots/init-validation", weekHandler.InitValidation).Methods("PATCH")
	router.HandleFunc("/api/weeks/{weekId:[0-9]{4}-W[0-9]{2}}/slots/{slotKey}", weekHandler.PatchSlot).Methods("PATCH")

	// Recipe endpoints
	router.HandleFunc("/api/recipes/save", recipeHandler.SaveRecipe).Methods("POST")
	router.HandleFunc("/api/recipes/upload", recipeHandler.UploadRecipe).Methods("POST")
	router.HandleFunc("/api/recipes/save-and-upload", recipeHandler.SaveAndUpload).Methods("POST")
	router.HandleFunc("/api/recipes/{recipeId}", recipeHandler.GetRecipe).Methods("GET")
	router.HandleFunc("/api/recipes/{recipeId}", recipeHandler.PatchRecipe).Methods("PATCH")
	router.HandleFunc("/api/recipes/{recipeId}/status", recipeHandler.SetStatus).Methods("PATCH")

	// Chat endpoints
	router.HandleFunc("/api/chat/{weekId}", chatHandler.GetSession).Methods("GET")
	router.HandleFunc("/api/chat/{weekId}/messages", chatHandler.PostMessage).Methods("POST")
	router.HandleFunc("/api/chat/{weekId}/proposals/{slotKey}/{proposalId}", chatHandler.PatchProposal).Methods("PATCH")

	// Drive endpoints
	router.HandleFunc("/api/drive/rescan", driveHandler.TriggerRescan).Methods("POST")
	router.HandleFunc("/api/drive/rescan/status", driveHandler.RescanStatus).Methods("GET")

	return router
}
