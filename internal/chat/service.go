// Package chat manages per-week chat sessions: an append-only message log,
// a proposal pool per slot and accumulated LLM usage.
package chat

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/menucockpit/server/internal/docstore"
	"github.com/menucockpit/server/internal/llm"
	"github.com/menucockpit/server/internal/model"
	"github.com/menucockpit/server/internal/week"
)

// Service contains the core business logic for chat operations. One JSON
// document per week under dir.
type Service struct {
	store *docstore.Store
	gen   llm.Generator
	dir   string
	log   zerolog.Logger

	now func() time.Time
}

// NewService creates a chat service.
func NewService(store *docstore.Store, gen llm.Generator, dir string, log zerolog.Logger) *Service {
	return &Service{store: store, gen: gen, dir: dir, log: log, now: time.Now}
}

func (s *Service) path(weekID string) string {
	return filepath.Join(s.dir, weekID+".json")
}

// Get loads the session for a week, synthesizing an empty one when no
// document exists yet (or the stored one is empty/corrupt). The week id is
// validated first so arbitrary ids never materialize session documents.
func (s *Service) Get(ctx context.Context, weekID string) (*model.ChatSession, error) {
	if _, _, err := week.ParseWeekID(weekID); err != nil {
		return nil, model.NewValidationError("chat", "invalid_week_id")
	}
	var sess model.ChatSession
	err := s.store.ReadInto(s.path(weekID), &sess)
	if err != nil {
		if !docstore.IsRecoverable(err) {
			return nil, err
		}
		sess = model.ChatSession{WeekID: weekID}
	}
	if sess.MenuProposals == nil {
		sess.MenuProposals = make(map[string][]*model.Proposal)
	}
	if sess.UsageByModel == nil {
		sess.UsageByModel = make(map[string]*model.Usage)
	}
	if sess.Messages == nil {
		sess.Messages = []model.ChatMessage{}
	}
	return &sess, nil
}

// PostMessageRequest is one user turn. SlotKey, when set, routes extracted
// proposals into that slot's pool.
type PostMessageRequest struct {
	Content string `json:"content"`
	SlotKey string `json:"slot_key,omitempty"`
}

// PostMessage appends the user message, asks the generator for a reply,
// appends it, accumulates usage and merges any extracted proposals.
func (s *Service) PostMessage(ctx context.Context, weekID string, req PostMessageRequest) (*model.ChatSession, error) {
	if req.Content == "" {
		return nil, model.NewValidationError("chat", "missing_content")
	}
	if req.SlotKey != "" && !model.IsSlotKey(req.SlotKey) {
		return nil, model.NewValidationError("chat", "invalid_slot_key")
	}

	sess, err := s.Get(ctx, weekID)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	sess.Messages = append(sess.Messages, model.ChatMessage{
		Role:      "user",
		Content:   req.Content,
		CreatedAt: now,
	})

	res, err := s.gen.Generate(ctx, req.Content)
	if err != nil {
		return nil, err
	}

	sess.Messages = append(sess.Messages, model.ChatMessage{
		Role:      "assistant",
		Content:   res.OutputText,
		Model:     res.Model,
		CreatedAt: now,
	})

	usage := model.Usage{
		InputTokens:  res.Usage.InputTokens,
		OutputTokens: res.Usage.OutputTokens,
		TotalTokens:  res.Usage.TotalTokens,
	}
	sess.UsageTotals.Add(usage)
	byModel, ok := sess.UsageByModel[res.Model]
	if !ok {
		byModel = &model.Usage{}
		sess.UsageByModel[res.Model] = byModel
	}
	byModel.Add(usage)

	if req.SlotKey != "" {
		for _, title := range llm.ExtractProposalTitles(res.OutputText) {
			sess.MenuProposals[req.SlotKey] = append(sess.MenuProposals[req.SlotKey], &model.Proposal{
				ProposalID: uuid.NewString(),
				Title:      title,
				Source:     model.SourceChat,
				Status:     model.StatusDraft,
				CreatedAt:  now,
			})
		}
	}

	sess.UpdatedAt = now
	if err := s.store.Write(s.path(weekID), sess); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("week_id", weekID).
		Str("model", res.Model).
		Int("total_tokens", res.Usage.TotalTokens).
		Msg("chat message processed")
	return sess, nil
}

// ProposalPatch updates flags on one pooled proposal.
type ProposalPatch struct {
	ToSave *bool   `json:"to_save,omitempty"`
	Status *string `json:"status,omitempty"`
}

// SetProposal applies a patch to a proposal in a slot's pool.
func (s *Service) SetProposal(ctx context.Context, weekID, slotKey, proposalID string, p ProposalPatch) (*model.ChatSession, error) {
	if !model.IsSlotKey(slotKey) {
		return nil, model.NewValidationError("chat", "invalid_slot_key")
	}
	if p.Status != nil {
		valid := false
		for _, st := range model.RecipeStatuses {
			if *p.Status == st {
				valid = true
			}
		}
		if !valid {
			return nil, model.NewValidationError("chat", "invalid_status")
		}
	}

	sess, err := s.Get(ctx, weekID)
	if err != nil {
		return nil, err
	}

	var target *model.Proposal
	for _, prop := range sess.MenuProposals[slotKey] {
		if prop.ProposalID == proposalID {
			target = prop
			break
		}
	}
	if target == nil {
		return nil, model.NewNotFoundError("proposal", proposalID)
	}

	if p.ToSave != nil {
		target.ToSave = *p.ToSave
	}
	if p.Status != nil {
		target.Status = *p.Status
	}

	sess.UpdatedAt = s.timestamp()
	if err := s.store.Write(s.path(weekID), sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}
