package essay

import (
	"context"
	"fmt"
	"strings"

	"essaycoach/internal/config"
	"essaycoach/internal/domain/models"
	"essaycoach/internal/domain/models/essay"
	"essaycoach/internal/domain/services"
	"essaycoach/internal/history"
)

const reviewerPrompt = `你是一位耐心的小学语文老师，正在帮助学生修改作文。
请用亲切、具体的语言点评学生的最新版本：先肯定做得好的地方，再指出可以改进的地方。
如果学生之前修改过，请结合修改历史说明进步之处。
最后另起一行写"修改建议："，然后每条建议单独一行，以"- "开头，不超过5条。`

// RequestFeedback asks the AI collaborator to review a version and stores the
// reply on it. The client's chosen model, if any, is tried first. The state
// is not locked while the collaborator works; a version deleted in the
// meantime yields NotFound.
func (s *essayService) RequestFeedback(ctx context.Context, clientKey, essayID, versionID string) (*essay.Version, error) {
	var (
		system string
		prompt string
		model  string
	)
	err := s.states.Read(ctx, clientKey, func(st *models.AppState) error {
		e, v, err := findVersion(st, essayID, versionID)
		if err != nil {
			return err
		}
		system = s.systemPrompt(v.ToolUsed)
		prompt = reviewPrompt(e, v)
		if st.AIConfig != nil {
			model = st.AIConfig.Model
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	reply, err := s.chat.SendChat(ctx, clientKey,
		[]services.ChatMessage{{Role: "user", Content: prompt}},
		services.ChatOptions{Model: model, System: system},
	)
	if err != nil {
		s.logger.Warn("feedback request failed",
			"client_key", clientKey,
			"essay_id", essayID,
			"version_id", versionID,
			"error", err,
		)
		return nil, err
	}

	feedback, tasks := ParseFeedback(reply)
	v, err := s.storeFeedback(ctx, clientKey, essayID, versionID, feedback, tasks)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// systemPrompt adds the focus of the practised tool to the reviewer prompt
func (s *essayService) systemPrompt(toolID *string) string {
	if toolID == nil {
		return reviewerPrompt
	}
	tool, ok := s.catalog.Get(*toolID)
	if !ok {
		return reviewerPrompt
	}
	return fmt.Sprintf("%s\n\n本次练习的写作方法是「%s」：%s\n点评重点：%s",
		reviewerPrompt, tool.Title, tool.Description, tool.FeedbackFocus)
}

// reviewPrompt gives the history context and the version under review
func reviewPrompt(e *essay.Essay, v *essay.Version) string {
	var b strings.Builder
	fmt.Fprintf(&b, "作文题目：%s\n\n", e.Title)
	if len(e.Versions) > 1 {
		b.WriteString("修改历史：\n")
		b.WriteString(history.SummarizeRecent(e, config.MaxHistoryVersions))
		b.WriteString("\n\n")
	}
	b.WriteString("请点评这一版：\n")
	b.WriteString(v.Content)
	return b.String()
}

// ParseFeedback splits a reviewer reply into feedback text and action items.
// Lines starting with "- " are action items; the "修改建议" heading is dropped.
func ParseFeedback(reply string) (string, []string) {
	var (
		body  []string
		tasks []string
	)
	for _, line := range strings.Split(reply, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "-" || strings.HasPrefix(trimmed, "- ") {
			task := strings.TrimSpace(strings.TrimPrefix(trimmed, "-"))
			if task != "" && len(tasks) < config.MaxActionItems {
				tasks = append(tasks, task)
			}
			continue
		}
		if strings.TrimRight(trimmed, "：:") == "修改建议" {
			continue
		}
		body = append(body, line)
	}
	return strings.TrimSpace(strings.Join(body, "\n")), tasks
}
