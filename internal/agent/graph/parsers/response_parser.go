package parsers

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/Chative-core-poc-v1/emily/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/emily/pkg/logger"
)

const (
	sentenceDelim = ". "
	codeFence     = "```"

	fillerText          = "Is there anything specific about these products you'd like to know?"
	missingDescription  = "Product description not available"
	missingPrice        = "Price not available"
	missingCategory     = "Uncategorized"
	missingImage        = "/default-product.jpg"
	placeholderApology  = "I'm sorry, I couldn't process your request properly."
	placeholderReprompt = "Is there something else I can help you with today?"
	fallbackApology     = "I'm sorry, I couldn't process your request properly right now."
	fallbackReprompt    = "Could you try rephrasing your question, or ask about a specific product category?"
)

// DefaultOpeningPhrases replace generic greetings and open text responses.
var DefaultOpeningPhrases = []string{
	"Based on what you're looking for,",
	"Looking at our inventory,",
	"According to our product database,",
	"I found some options that match your needs.",
	"Let me show you what we have available.",
	"Here's what I found for you.",
	"We have several products that might interest you.",
	"I've found some great matches for your request.",
	"Our store carries several options for that.",
	"Let me pull up that information for you.",
}

var greetingPrefixes = []string{"hi there", "hello", "hi ", "greetings", "hey there"}

// parse result tags
type parseKind int

const (
	parsedStructured parseKind = iota
	parsedScalar
	parseFailed
)

type parseResult struct {
	kind   parseKind
	object map[string]any
	text   string
}

// ResponseParser repairs raw model output into an AssistantResponse. It never
// fails and never panics.
type ResponseParser struct {
	persona string
	phrases []string
	intn    func(n int) int
}

type Option func(*ResponseParser)

// WithOpeningPhrases replaces the opening phrase pool. Empty pools are ignored.
func WithOpeningPhrases(phrases []string) Option {
	return func(p *ResponseParser) {
		if len(phrases) > 0 {
			p.phrases = append([]string(nil), phrases...)
		}
	}
}

// WithIntn sets the source used to pick opening phrases; intn must return a
// value in [0, n).
func WithIntn(intn func(n int) int) Option {
	return func(p *ResponseParser) {
		if intn != nil {
			p.intn = intn
		}
	}
}

func WithPersona(name string) Option {
	return func(p *ResponseParser) {
		if name != "" {
			p.persona = name
		}
	}
}

func NewResponseParser(opts ...Option) *ResponseParser {
	p := &ResponseParser{
		persona: "Emily",
		phrases: DefaultOpeningPhrases,
		intn:    rand.IntN,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse turns raw model text into a response with exactly three messages.
func (p *ResponseParser) Parse(raw string) (resp *model.AssistantResponse) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Interface("panic", r).Msg("response parser recovered, using fallback")
			resp = p.fallback()
		}
	}()

	cleaned := clean(raw)
	res := decode(cleaned)
	switch res.kind {
	case parsedStructured:
		return p.fromObject(res.object)
	case parsedScalar:
		msgs := []model.ReplyMessage{{
			Text:             raw,
			FacialExpression: model.ExpressionDefault,
			Animation:        model.AnimationTalkingOne,
		}}
		return model.NewAssistantResponse(pad(msgs), nil)
	default:
		logx.Debug().Int("len", len(cleaned)).Msg("model output is not JSON, partitioning text")
		return model.NewAssistantResponse(p.fromText(cleaned,
			model.ExpressionSmile, model.AnimationTalkingOne,
			model.ExpressionDefault, model.AnimationTalkingThree), nil)
	}
}

// clean trims whitespace and a single surrounding Markdown code fence.
func clean(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, codeFence) {
		return s
	}
	s = strings.TrimPrefix(s, codeFence)
	// drop the info string, e.g. ```json
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, codeFence)
	return strings.TrimSpace(s)
}

func decode(s string) parseResult {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return parseResult{kind: parseFailed, text: s}
	}
	if obj, ok := v.(map[string]any); ok {
		return parseResult{kind: parsedStructured, object: obj, text: s}
	}
	return parseResult{kind: parsedScalar, text: s}
}

func (p *ResponseParser) fromObject(obj map[string]any) *model.AssistantResponse {
	products := normalizeProducts(obj["products"])

	if list, ok := obj["messages"].([]any); ok {
		// only the first three entries count, even when some of them are dropped
		msgs := coerceMessages(list[:min(len(list), model.MessageCount)])
		if len(msgs) > 0 {
			msgs[0].Text = p.desanitize(msgs[0].Text)
		}
		return model.NewAssistantResponse(pad(msgs), products)
	}

	if text, ok := obj["text"].(string); ok {
		expr := model.ExpressionDefault
		if e, ok := obj["facialExpression"].(string); ok && model.FacialExpression(e).Valid() {
			expr = model.FacialExpression(e)
		}
		anim := model.AnimationTalkingOne
		if a, ok := obj["animation"].(string); ok && model.Animation(a).Valid() {
			anim = model.Animation(a)
		}
		return model.NewAssistantResponse(p.fromText(text, expr, model.AnimationTalkingOne, expr, anim), products)
	}

	return model.NewAssistantResponse([]model.ReplyMessage{
		{Text: fmt.Sprintf("Hello! I'm %s, your AI assistant.", p.persona), FacialExpression: model.ExpressionSmile, Animation: model.AnimationTalkingOne},
		{Text: placeholderApology, FacialExpression: model.ExpressionSad, Animation: model.AnimationSadIdle},
		{Text: placeholderReprompt, FacialExpression: model.ExpressionDefault, Animation: model.AnimationIdle},
	}, products)
}

// fromText partitions text into three messages. The first two take the given
// expression/animation pairs and the last is always smile/Idle.
func (p *ResponseParser) fromText(text string, e1 model.FacialExpression, a1 model.Animation, e2 model.FacialExpression, a2 model.Animation) []model.ReplyMessage {
	groups := Partition(text)
	return []model.ReplyMessage{
		{Text: p.phrase() + " " + groups[0], FacialExpression: e1, Animation: a1},
		{Text: groups[1], FacialExpression: e2, Animation: a2},
		{Text: groups[2], FacialExpression: model.ExpressionSmile, Animation: model.AnimationIdle},
	}
}

// Partition splits text on ". " into three contiguous sentence groups with
// boundaries at max(1, n/3) and max(2, 2n/3). Each group ends in terminal
// punctuation; an empty group is replaced by the filler text.
func Partition(text string) [model.MessageCount]string {
	sentences := strings.Split(text, sentenceDelim)
	n := len(sentences)
	b1 := min(max(1, n/3), n)
	b2 := min(max(2, 2*n/3), n)

	var out [model.MessageCount]string
	for i, group := range [][]string{sentences[:b1], sentences[b1:b2], sentences[b2:]} {
		joined := strings.TrimSpace(strings.Join(group, sentenceDelim))
		if joined == "" {
			out[i] = fillerText
			continue
		}
		if !strings.HasSuffix(joined, ".") && !strings.HasSuffix(joined, "!") && !strings.HasSuffix(joined, "?") {
			joined += "."
		}
		out[i] = joined
	}
	return out
}

// desanitize swaps a generic greeting for an opening phrase. Greetings
// without a comma are left alone.
func (p *ResponseParser) desanitize(text string) string {
	lower := strings.ToLower(text)
	greeting := false
	for _, prefix := range greetingPrefixes {
		if strings.HasPrefix(lower, prefix) {
			greeting = true
			break
		}
	}
	if !greeting {
		return text
	}
	_, rest, found := strings.Cut(text, ",")
	if !found {
		return text
	}
	return p.phrase() + rest
}

func (p *ResponseParser) phrase() string {
	return p.phrases[p.intn(len(p.phrases))]
}

// safePhrase is phrase for the fallback path, which must not fail.
func (p *ResponseParser) safePhrase() (s string) {
	defer func() {
		if recover() != nil {
			s = DefaultOpeningPhrases[0]
		}
	}()
	return p.phrase()
}

func (p *ResponseParser) fallback() *model.AssistantResponse {
	return model.NewAssistantResponse([]model.ReplyMessage{
		{Text: fmt.Sprintf("%s I'm %s, your AI shopping assistant.", p.safePhrase(), p.persona), FacialExpression: model.ExpressionSmile, Animation: model.AnimationTalkingOne},
		{Text: fallbackApology, FacialExpression: model.ExpressionSad, Animation: model.AnimationSadIdle},
		{Text: fallbackReprompt, FacialExpression: model.ExpressionDefault, Animation: model.AnimationIdle},
	}, nil)
}

// coerceMessages keeps object entries with non-empty text and replaces
// unknown enum values.
func coerceMessages(list []any) []model.ReplyMessage {
	msgs := make([]model.ReplyMessage, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		text, _ := obj["text"].(string)
		if strings.TrimSpace(text) == "" {
			continue
		}
		msg := model.ReplyMessage{
			Text:             text,
			FacialExpression: model.ExpressionDefault,
			Animation:        model.AnimationIdle,
		}
		if e, ok := obj["facialExpression"].(string); ok && model.FacialExpression(e).Valid() {
			msg.FacialExpression = model.FacialExpression(e)
		}
		if a, ok := obj["animation"].(string); ok && model.Animation(a).Valid() {
			msg.Animation = model.Animation(a)
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

// pad appends filler messages up to exactly three.
func pad(msgs []model.ReplyMessage) []model.ReplyMessage {
	for len(msgs) < model.MessageCount {
		msgs = append(msgs, model.ReplyMessage{
			Text:             fillerText,
			FacialExpression: model.ExpressionDefault,
			Animation:        model.AnimationIdle,
		})
	}
	return msgs[:model.MessageCount]
}

func normalizeProducts(v any) []model.ProductCard {
	list, ok := v.([]any)
	if !ok {
		return []model.ProductCard{}
	}
	cards := make([]model.ProductCard, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		cards = append(cards, normalizeProduct(obj))
	}
	return cards
}

func normalizeProduct(obj map[string]any) model.ProductCard {
	card := model.ProductCard{
		Name:        strings.TrimSpace(stringify(obj["brand"]) + " " + stringify(obj["model"])),
		Description: missingDescription,
		Price:       missingPrice,
		Category:    missingCategory,
		Img:         missingImage,
		Extra:       map[string]any{},
	}
	if v, ok := present(obj, model.CardName); ok {
		card.Name = stringify(v)
	}
	if v, ok := present(obj, model.CardDescription); ok {
		card.Description = stringify(v)
	}
	if v, ok := firstPresent(obj, model.CardPrice, "MRP"); ok {
		card.Price = v
	}
	if v, ok := firstPresent(obj, model.CardCategory, "Category"); ok {
		card.Category = stringify(v)
	}
	if v, ok := firstPresent(obj, model.CardImg, "image"); ok {
		card.Img = stringify(v)
	}

	for k, v := range obj {
		switch k {
		case model.CardName, model.CardDescription, model.CardPrice, model.CardCategory, model.CardImg:
			continue
		}
		if _, exists := card.Extra[k]; !exists {
			card.Extra[k] = v
		}
	}
	return card
}

func present(obj map[string]any, key string) (any, bool) {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func firstPresent(obj map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := present(obj, k); ok {
			return v, true
		}
	}
	return nil, false
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
