package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Roles accepted in ConversationTurn.Role. Anything that is not RoleUser is
// rendered as the assistant.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultLanguage is used when a request does not name a response language.
const DefaultLanguage = "english"

// ConversationTurn is one prior exchange supplied by the caller. Turns are
// read-only and never stored server side.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationInput is the orchestrator's request.
type ConversationInput struct {
	Query    QueryText          `json:"query"`
	History  []ConversationTurn `json:"history,omitempty"`
	Language string             `json:"language,omitempty"`
}

// ResolvedLanguage returns the requested language or DefaultLanguage.
func (in ConversationInput) ResolvedLanguage() string {
	if l := strings.TrimSpace(in.Language); l != "" {
		return l
	}
	return DefaultLanguage
}

// QueryText is the user query. Older front-ends post the query wrapped in an
// object ({"query": ...} or {"question": ...}); decoding flattens those to
// plain text.
type QueryText string

func (q QueryText) String() string {
	return string(q)
}

// UnmarshalJSON accepts a JSON string, an object with a query/question key,
// or any other scalar.
func (q *QueryText) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("decode query: %w", err)
	}
	*q = QueryText(CoerceQuery(v))
	return nil
}

// CoerceQuery turns an arbitrary decoded JSON value into query text.
func CoerceQuery(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any:
		for _, key := range []string{"query", "question"} {
			if inner, ok := t[key]; ok {
				return CoerceQuery(inner)
			}
		}
	case float64, bool:
		return fmt.Sprint(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
