package essay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"essaycoach/internal/catalog"
	"essaycoach/internal/config"
	"essaycoach/internal/domain"
	"essaycoach/internal/domain/models"
	"essaycoach/internal/domain/models/essay"
	"essaycoach/internal/domain/services"
	"essaycoach/internal/history"
	"essaycoach/internal/metrics"
	"essaycoach/internal/service/state"
)

type essayService struct {
	states  *state.Manager
	catalog *catalog.Catalog
	chat    services.ChatSender
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a new essay service
func NewService(
	states *state.Manager,
	cat *catalog.Catalog,
	chat services.ChatSender,
	logger *slog.Logger,
) services.EssayService {
	return &essayService{
		states:  states,
		catalog: cat,
		chat:    chat,
		logger:  logger,
		now:     time.Now,
	}
}

// CreateEssay creates an essay whose first version is a root
func (s *essayService) CreateEssay(ctx context.Context, clientKey string, req *services.CreateEssayRequest) (*essay.Essay, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	now := s.now()
	v := essay.Version{
		ID:          uuid.NewString(),
		Content:     req.Content,
		ActionItems: []essay.ActionItem{},
		ToolUsed:    req.ToolUsed,
		CreatedAt:   now,
	}
	e := essay.Essay{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Versions:  []essay.Version{v},
		CreatedAt: now,
		UpdatedAt: now,
	}
	e.MirrorVersion(&v)

	err := s.states.Update(ctx, clientKey, func(st *models.AppState) error {
		st.Essays = append([]essay.Essay{e}, st.Essays...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordVersionMutation("add")
	s.logger.Info("essay created",
		"client_key", clientKey,
		"essay_id", e.ID,
		"version_id", v.ID,
	)
	return &e, nil
}

// ListEssays returns the client's essays, newest first
func (s *essayService) ListEssays(ctx context.Context, clientKey string) ([]essay.Essay, error) {
	var essays []essay.Essay
	err := s.states.Read(ctx, clientKey, func(st *models.AppState) error {
		essays = st.Essays
		return nil
	})
	return essays, err
}

func (s *essayService) GetEssay(ctx context.Context, clientKey, essayID string) (*essay.Essay, error) {
	var out *essay.Essay
	err := s.states.Read(ctx, clientKey, func(st *models.AppState) error {
		e, err := findEssay(st, essayID)
		out = e
		return err
	})
	return out, err
}

func (s *essayService) UpdateEssay(ctx context.Context, clientKey, essayID string, req *services.UpdateEssayRequest) (*essay.Essay, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.NilOrNotEmpty, validation.RuneLength(1, config.MaxEssayTitleLength)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var out essay.Essay
	err = s.states.Update(ctx, clientKey, func(st *models.AppState) error {
		e, err := findEssay(st, essayID)
		if err != nil {
			return err
		}
		if req.Title != nil {
			e.Title = *req.Title
		}
		e.UpdatedAt = s.now()
		out = *e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *essayService) DeleteEssay(ctx context.Context, clientKey, essayID string) error {
	err := s.states.Update(ctx, clientKey, func(st *models.AppState) error {
		if !st.RemoveEssay(essayID) {
			return domain.NewNotFound("essay", essayID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("essay deleted", "client_key", clientKey, "essay_id", essayID)
	return nil
}

// AddVersion appends a revision based on req.ParentID, or on the essay's
// current version when none is given, and selects it. The revision keeps
// practising its parent's tool unless another is named.
func (s *essayService) AddVersion(ctx context.Context, clientKey, essayID string, req *services.AddVersionRequest) (*essay.Version, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Content, validation.Required, validation.RuneLength(1, config.MaxEssayContentLength)),
		validation.Field(&req.ToolUsed, validation.By(s.knownTool)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var v essay.Version
	err = s.states.Update(ctx, clientKey, func(st *models.AppState) error {
		e, err := findEssay(st, essayID)
		if err != nil {
			return err
		}

		parentID := e.CurrentVersionID
		if req.ParentID != nil {
			parentID = req.ParentID
		}
		toolUsed := req.ToolUsed
		if parentID != nil {
			parent := e.FindVersion(*parentID)
			if parent == nil {
				return domain.NewNotFound("version", *parentID)
			}
			if toolUsed == nil {
				toolUsed = parent.ToolUsed
			}
		}

		v = essay.Version{
			ID:          uuid.NewString(),
			Content:     req.Content,
			ActionItems: []essay.ActionItem{},
			ParentID:    parentID,
			ToolUsed:    toolUsed,
			CreatedAt:   s.nextCreatedAt(e),
		}
		e.Versions = append(e.Versions, v)
		e.MirrorVersion(&v)
		e.UpdatedAt = v.CreatedAt
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordVersionMutation("add")
	s.logger.Info("version added",
		"client_key", clientKey,
		"essay_id", essayID,
		"version_id", v.ID,
		"parent_id", v.ParentID,
	)
	return &v, nil
}

// nextCreatedAt keeps new versions after every existing one even when the
// clock stalls or steps back.
func (s *essayService) nextCreatedAt(e *essay.Essay) time.Time {
	now := s.now()
	for _, v := range e.Versions {
		if !v.CreatedAt.Before(now) {
			now = v.CreatedAt.Add(time.Millisecond)
		}
	}
	return now
}

// UpdateVersionFeedback replaces a version's feedback and action items
func (s *essayService) UpdateVersionFeedback(ctx context.Context, clientKey, essayID, versionID string, req *services.UpdateFeedbackRequest) (*essay.Version, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Feedback, validation.RuneLength(0, config.MaxFeedbackLength)),
		validation.Field(&req.ActionItems, validation.Length(0, config.MaxActionItems)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	v, err := s.storeFeedback(ctx, clientKey, essayID, versionID, req.Feedback, req.ActionItems)
	if err != nil {
		return nil, err
	}
	metrics.RecordVersionMutation("feedback")
	return v, nil
}

func (s *essayService) storeFeedback(ctx context.Context, clientKey, essayID, versionID, feedback string, tasks []string) (*essay.Version, error) {
	var out essay.Version
	err := s.states.Update(ctx, clientKey, func(st *models.AppState) error {
		e, v, err := findVersion(st, essayID, versionID)
		if err != nil {
			return err
		}

		items := make([]essay.ActionItem, 0, len(tasks))
		for _, task := range tasks {
			items = append(items, essay.ActionItem{ID: uuid.NewString(), Task: task})
		}
		v.Feedback = &feedback
		v.ActionItems = items

		if e.CurrentVersionID != nil && *e.CurrentVersionID == versionID {
			e.MirrorVersion(v)
		}
		e.UpdatedAt = s.now()
		out = *v
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("feedback stored",
		"client_key", clientKey,
		"essay_id", essayID,
		"version_id", versionID,
		"action_items", len(tasks),
	)
	return &out, nil
}

// ToggleActionItem flips one checklist entry
func (s *essayService) ToggleActionItem(ctx context.Context, clientKey, essayID, versionID, itemID string) (*essay.Version, error) {
	var out essay.Version
	err := s.states.Update(ctx, clientKey, func(st *models.AppState) error {
		_, v, err := findVersion(st, essayID, versionID)
		if err != nil {
			return err
		}
		for i := range v.ActionItems {
			if v.ActionItems[i].ID == itemID {
				v.ActionItems[i].Completed = !v.ActionItems[i].Completed
				out = *v
				return nil
			}
		}
		return domain.NewNotFound("action item", itemID)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteVersion removes a version. Its children become roots. When the
// deleted version was selected, its parent is selected instead, or the
// latest remaining version if it had none.
func (s *essayService) DeleteVersion(ctx context.Context, clientKey, essayID, versionID string) (*essay.Essay, error) {
	var out essay.Essay
	err := s.states.Update(ctx, clientKey, func(st *models.AppState) error {
		e, err := findEssay(st, essayID)
		if err != nil {
			return err
		}

		forest := history.BuildForest(e.Versions)
		parent := forest.Parent(versionID)
		remaining, err := history.RemoveVersion(forest, versionID)
		if err != nil {
			return err
		}

		kept := e.Versions[:0]
		for _, v := range e.Versions {
			if v.ID != versionID {
				kept = append(kept, v)
			}
		}
		e.Versions = kept

		if e.CurrentVersionID == nil || *e.CurrentVersionID == versionID {
			next := remaining.Latest()
			if parent != nil {
				if n, ok := remaining.Get(parent.ID); ok {
					next = n
				}
			}
			e.MirrorVersion(e.FindVersion(next.ID))
		}
		e.UpdatedAt = s.now()
		out = *e
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordVersionMutation("delete")
	s.logger.Info("version deleted",
		"client_key", clientKey,
		"essay_id", essayID,
		"version_id", versionID,
		"current_version_id", out.CurrentVersionID,
	)
	return &out, nil
}

func (s *essayService) GetTree(ctx context.Context, clientKey, essayID string) (*services.Tree, error) {
	e, err := s.GetEssay(ctx, clientKey, essayID)
	if err != nil {
		return nil, err
	}
	return treeView(e, history.BuildForest(e.Versions)), nil
}

// GetPath returns the path through versionID, or the default first-child
// path when versionID is empty
func (s *essayService) GetPath(ctx context.Context, clientKey, essayID, versionID string) (*services.PathView, error) {
	e, err := s.GetEssay(ctx, clientKey, essayID)
	if err != nil {
		return nil, err
	}

	forest := history.BuildForest(e.Versions)
	nav := history.NewNavigator(forest)
	path := nav.Path()
	if versionID != "" {
		if path, err = nav.NavigateTo(forest, versionID); err != nil {
			return nil, err
		}
	}
	return pathView(forest, path, e.CurrentVersionID, false), nil
}

// SwitchSibling moves the displayed path to an adjacent branch. The
// navigator starts on the path through the selected version; when the
// switch moves the selection, the essay's current version follows it.
func (s *essayService) SwitchSibling(ctx context.Context, clientKey, essayID string, req *services.SwitchSiblingRequest) (*services.PathView, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.VersionID, validation.Required),
		validation.Field(&req.Direction, validation.Required, validation.In(history.DirectionPrev, history.DirectionNext)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var view *services.PathView
	err = s.states.Update(ctx, clientKey, func(st *models.AppState) error {
		e, err := findEssay(st, essayID)
		if err != nil {
			return err
		}

		selectedID := ""
		if req.SelectedID != nil {
			selectedID = *req.SelectedID
		} else if e.CurrentVersionID != nil {
			selectedID = *e.CurrentVersionID
		}

		forest := history.BuildForest(e.Versions)
		nav := history.NewNavigator(forest)
		if _, ok := forest.Get(selectedID); ok {
			if _, err := nav.NavigateTo(forest, selectedID); err != nil {
				return err
			}
		}

		result, err := nav.SwitchSibling(forest, req.VersionID, req.Direction, selectedID)
		if err != nil {
			return err
		}

		changed := result.SelectionChanged != nil
		if changed {
			e.MirrorVersion(e.FindVersion(result.SelectionChanged.ID))
			e.UpdatedAt = s.now()
		}
		view = pathView(forest, result.Path, e.CurrentVersionID, changed)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if view.Changed {
		metrics.RecordVersionMutation("switch")
	}
	return view, nil
}

// GetHistorySummary renders the recent history as AI prompt context
func (s *essayService) GetHistorySummary(ctx context.Context, clientKey, essayID string) (string, error) {
	e, err := s.GetEssay(ctx, clientKey, essayID)
	if err != nil {
		return "", err
	}
	return history.SummarizeRecent(e, config.MaxHistoryVersions), nil
}

func (s *essayService) validateCreateRequest(req *services.CreateEssayRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.Required, validation.RuneLength(1, config.MaxEssayTitleLength)),
		validation.Field(&req.Content, validation.Required, validation.RuneLength(1, config.MaxEssayContentLength)),
		validation.Field(&req.ToolUsed, validation.By(s.knownTool)),
	)
}

// knownTool validates an optional tool id against the catalog
func (s *essayService) knownTool(value interface{}) error {
	id, _ := value.(*string)
	if id == nil || *id == "" {
		return nil
	}
	if _, ok := s.catalog.Get(*id); !ok {
		return fmt.Errorf("unknown tool %q", *id)
	}
	return nil
}

func findEssay(st *models.AppState, essayID string) (*essay.Essay, error) {
	e := st.FindEssay(essayID)
	if e == nil {
		return nil, domain.NewNotFound("essay", essayID)
	}
	return e, nil
}

func findVersion(st *models.AppState, essayID, versionID string) (*essay.Essay, *essay.Version, error) {
	e, err := findEssay(st, essayID)
	if err != nil {
		return nil, nil, err
	}
	v := e.FindVersion(versionID)
	if v == nil {
		return nil, nil, domain.NewNotFound("version", versionID)
	}
	return e, v, nil
}
