package conversations

import (
	"strings"

	"github.com/Chative-core-poc-v1/emily/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/emily/pkg/logger"
)

const customerLabel = "Customer"

// MessagesManager renders caller supplied history for the response prompt.
// History is never stored.
type MessagesManager struct {
	personaName string
	maxTurns    int
}

func NewMessagesManager(personaName string, config model.ConversationConfig) *MessagesManager {
	return &MessagesManager{
		personaName: personaName,
		maxTurns:    config.MaxTurns,
	}
}

// Transcript renders history as "Label: content" lines. User turns are
// labelled Customer and every other role takes the persona name. A failure
// while formatting yields an empty transcript.
func (m *MessagesManager) Transcript(history []model.ConversationTurn) (out string) {
	defer func() {
		if r := recover(); r != nil {
			logx.Warn().Interface("panic", r).Msg("history formatting failed, continuing without history")
			out = ""
		}
	}()

	turns := trimTail(history, m.maxTurns)
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		label := m.personaName
		if turn.Role == model.RoleUser {
			label = customerLabel
		}
		lines = append(lines, label+": "+turn.Content)
	}
	return strings.Join(lines, "\n")
}

// ====================== Helper function ======================
// trimTail keeps the last maxTurns turns; maxTurns <= 0 keeps everything.
func trimTail(turns []model.ConversationTurn, maxTurns int) []model.ConversationTurn {
	if maxTurns <= 0 || len(turns) <= maxTurns {
		return turns
	}
	return turns[len(turns)-maxTurns:]
}
