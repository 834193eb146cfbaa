package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/emily/internal/agent/graph/conversations"
	"github.com/Chative-core-poc-v1/emily/internal/agent/model"
)

//go:embed template/response_prompt.txt
var coreSystemPrompt string

// Template variable names.
const (
	VarPersonaName  = "PersonaName"
	VarBusinessType = "BusinessType"
	VarLanguage     = "Language"
	VarContext      = "Context"
	VarHistory      = "History"
	VarQuestion     = "Question"
	VarExpressions  = "Expressions"
	VarAnimations   = "Animations"
)

// Composer builds the response prompt from retrieved documents, history and
// the user query.
type Composer struct {
	config   model.ResponsePromptConfig
	messages *conversations.MessagesManager
	template prompt.ChatTemplate
}

func NewComposer(config model.ResponsePromptConfig, messages *conversations.MessagesManager) *Composer {
	return &Composer{
		config:   config,
		messages: messages,
		template: NewResponseTemplate(),
	}
}

// NewResponseTemplate is the system instruction followed by the user query.
func NewResponseTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(coreSystemPrompt),
		schema.UserMessage("{{.Question}}"),
	)
}

// Template exposes the chat template for use as a graph node.
func (c *Composer) Template() prompt.ChatTemplate {
	return c.template
}

// Variables returns the template inputs for one request.
func (c *Composer) Variables(query string, docs []*schema.Document, history []model.ConversationTurn, language string) map[string]any {
	if strings.TrimSpace(language) == "" {
		language = model.DefaultLanguage
	}
	return map[string]any{
		VarPersonaName:  c.config.PersonaName,
		VarBusinessType: c.config.BusinessType,
		VarLanguage:     language,
		VarContext:      FormatContext(docs),
		VarHistory:      c.messages.Transcript(history),
		VarQuestion:     query,
		VarExpressions:  joinEnum(model.FacialExpressions()),
		VarAnimations:   joinEnum(model.Animations()),
	}
}

// Compose renders the full message list sent to the chat model.
func (c *Composer) Compose(ctx context.Context, query string, docs []*schema.Document, history []model.ConversationTurn, language string) ([]*schema.Message, error) {
	msgs, err := c.template.Format(ctx, c.Variables(query, docs, history, language))
	if err != nil {
		return nil, fmt.Errorf("response prompt render: %w", err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("response prompt render: empty result")
	}
	return msgs, nil
}

// FormatContext flattens documents into one block: each document's text
// followed by its metadata as sorted "key: value" lines, separated by blank
// lines.
func FormatContext(docs []*schema.Document) string {
	blocks := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		var b strings.Builder
		b.WriteString(doc.Content)

		keys := make([]string, 0, len(doc.MetaData))
		for k := range doc.MetaData {
			// eino keeps scores and vectors under reserved keys
			if strings.HasPrefix(k, "_") {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "\n%s: %v", k, doc.MetaData[k])
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

func joinEnum[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
