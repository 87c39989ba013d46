package model

// Recipe status values. VALIDEE and EXTERNE may only be entered after a
// passing full-content validation.
const (
	StatusDraft     = "DRAFT"
	StatusValidated = "VALIDEE"
	StatusToModify  = "A_MODIFIER"
	StatusRejected  = "REJETEE"
	StatusExternal  = "EXTERNE"
)

// Recipe source types.
const (
	SourceLocal         = "LOCAL"
	SourceDrive         = "DRIVE"
	SourceMenuValidated = "MENU_VALIDATED"
	SourceChat          = "CHAT"
)

// RecipeStatuses enumerates all valid recipe statuses.
var RecipeStatuses = []string{StatusDraft, StatusValidated, StatusToModify, StatusRejected, StatusExternal}

// SourceTypes enumerates all valid recipe source types.
var SourceTypes = []string{SourceLocal, SourceDrive, SourceMenuValidated, SourceChat}

// Ingredient is one row of a recipe's ingredient list.
type Ingredient struct {
	Item string `json:"item"`
	Qty  string `json:"qty"`
	Unit string `json:"unit"`
}

// RecipeContent holds the editable body of a recipe.
type RecipeContent struct {
	DescriptionCourte string       `json:"description_courte"`
	Ingredients       []Ingredient `json:"ingredients"`
	PreparationSteps  []string     `json:"preparation_steps"`
}

// RecipeSource records where a recipe came from.
type RecipeSource struct {
	Type      string `json:"type"`
	DrivePath string `json:"drive_path,omitempty"`
}

// Recipe is one persisted recipe document. RecipeID is immutable after
// creation.
type Recipe struct {
	RecipeID       string        `json:"recipe_id"`
	Title          string        `json:"title"`
	Source         RecipeSource  `json:"source"`
	Status         string        `json:"status"`
	Servings       float64       `json:"servings"`
	Season         []string      `json:"season"`
	MainIngredient string        `json:"main_ingredient,omitempty"`
	Notes          string        `json:"notes,omitempty"`
	Content        RecipeContent `json:"content"`
	UpdatedAt      string        `json:"updated_at"`
}

// People describes who eats a given slot. ChildBirthMonths carries one
// "YYYY-MM" entry per child.
type People struct {
	Adults           int      `json:"adults"`
	Children         int      `json:"children"`
	ChildBirthMonths []string `json:"child_birth_months"`
}

// Slot is one of the 14 (day x meal) cells of a week. RecipeID and FreeText
// may both be stored; Validated marks the slot as committed. Preview and
// PreviewPeopleSignature memoize a rendering keyed by the people composition
// and are dropped on explicit devalidation.
type Slot struct {
	RecipeID               string `json:"recipe_id,omitempty"`
	FreeText               string `json:"free_text,omitempty"`
	Validated              bool   `json:"validated"`
	People                 People `json:"people"`
	Preview                string `json:"preview,omitempty"`
	PreviewPeopleSignature string `json:"preview_people_signature,omitempty"`
}

// Week is one persisted week document, keyed by "YYYY-WNN".
type Week struct {
	WeekID        string           `json:"week_id"`
	DateStart     string           `json:"date_start"`
	DateEnd       string           `json:"date_end"`
	Timezone      string           `json:"timezone"`
	RulesReadonly map[string]any   `json:"rules_readonly"`
	Slots         map[string]*Slot `json:"slots"`
	UpdatedAt     string           `json:"updated_at"`
}

// SlotKeys lists the 14 fixed slot identifiers in display order.
var SlotKeys = []string{
	"monday_lunch", "monday_dinner",
	"tuesday_lunch", "tuesday_dinner",
	"wednesday_lunch", "wednesday_dinner",
	"thursday_lunch", "thursday_dinner",
	"friday_lunch", "friday_dinner",
	"saturday_lunch", "saturday_dinner",
	"sunday_lunch", "sunday_dinner",
}

// NoLunchSlotKeys are the weekday lunches left unseeded by Prepare (eaten
// out of the house).
var NoLunchSlotKeys = []string{"monday_lunch", "tuesday_lunch", "wednesday_lunch", "thursday_lunch"}

// IsSlotKey reports whether k is one of the 14 fixed slot identifiers.
func IsSlotKey(k string) bool {
	for _, s := range SlotKeys {
		if s == k {
			return true
		}
	}
	return false
}

// Usage accumulates LLM token counts.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add folds another usage record into u.
func (u *Usage) Add(o Usage) {
	u.InputTokens += o.InputTokens
	u.OutputTokens += o.OutputTokens
	u.TotalTokens += o.TotalTokens
}

// ChatMessage is one entry of a week's append-only chat log.
type ChatMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Model     string `json:"model,omitempty"`
	CreatedAt string `json:"created_at"`
}

// Proposal is a candidate recipe title for a slot, not yet validated.
type Proposal struct {
	ProposalID             string `json:"proposal_id"`
	Title                  string `json:"title"`
	Source                 string `json:"source"`
	Status                 string `json:"status"`
	ToSave                 bool   `json:"to_save"`
	CreatedAt              string `json:"created_at"`
	Preview                string `json:"preview,omitempty"`
	PreviewPeopleSignature string `json:"preview_people_signature,omitempty"`
}

// ChatSession is the per-week chat document: message log plus a proposal
// pool per slot and accumulated LLM usage.
type ChatSession struct {
	WeekID        string                 `json:"week_id"`
	Messages      []ChatMessage          `json:"messages"`
	MenuProposals map[string][]*Proposal `json:"menu_proposals"`
	UsageTotals   Usage                  `json:"usage_totals"`
	UsageByModel  map[string]*Usage      `json:"usage_by_model"`
	UpdatedAt     string                 `json:"updated_at"`
}

// Drive job statuses; transitions are monotonic queued -> running ->
// {done, failed} and terminal states never change.
const (
	JobQueued  = "queued"
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"
)

// DriveJob is one persisted record of an external rescan/upload run.
type DriveJob struct {
	JobID      string `json:"job_id"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
	StartedAt  string `json:"started_at,omitempty"`
	FinishedAt string `json:"finished_at,omitempty"`
	ExitCode   *int   `json:"exit_code,omitempty"`
	ScriptPath string `json:"script_path"`
	LogPath    string `json:"log_path"`
	Error      string `json:"error,omitempty"`
	PID        int    `json:"pid,omitempty"`
}

// Terminal reports whether the job reached a final status.
func (j *DriveJob) Terminal() bool {
	return j.Status == JobDone || j.Status == JobFailed
}
