package model

import (
	"encoding/json"
	"fmt"
)

// MessageCount is the fixed number of ReplyMessages in every response.
const MessageCount = 3

// FacialExpression is the avatar face to show while a message is spoken.
type FacialExpression string

const (
	ExpressionSmile     FacialExpression = "smile"
	ExpressionSad       FacialExpression = "sad"
	ExpressionAngry     FacialExpression = "angry"
	ExpressionSurprised FacialExpression = "surprised"
	ExpressionFunnyFace FacialExpression = "funnyFace"
	ExpressionDefault   FacialExpression = "default"
)

var facialExpressions = map[FacialExpression]struct{}{
	ExpressionSmile: {}, ExpressionSad: {}, ExpressionAngry: {},
	ExpressionSurprised: {}, ExpressionFunnyFace: {}, ExpressionDefault: {},
}

// Valid reports whether e is one the avatar can render.
func (e FacialExpression) Valid() bool {
	_, ok := facialExpressions[e]
	return ok
}

// FacialExpressions lists the enum in prompt order.
func FacialExpressions() []FacialExpression {
	return []FacialExpression{ExpressionSmile, ExpressionSad, ExpressionAngry, ExpressionSurprised, ExpressionFunnyFace, ExpressionDefault}
}

// Animation is the avatar body animation clip name.
type Animation string

const (
	AnimationIdle                Animation = "Idle"
	AnimationTalkingOne          Animation = "TalkingOne"
	AnimationTalkingThree        Animation = "TalkingThree"
	AnimationSadIdle             Animation = "SadIdle"
	AnimationDefeated            Animation = "Defeated"
	AnimationAngry               Animation = "Angry"
	AnimationSurprised           Animation = "Surprised"
	AnimationDismissingGesture   Animation = "DismissingGesture"
	AnimationThoughtfulHeadShake Animation = "ThoughtfulHeadShake"
)

// Clip names exported from the newer avatar rig.
const (
	AnimationAcknowledging          Animation = "Acknowledging"
	AnimationAgreeing               Animation = "Agreeing"
	AnimationAnnoyedHeadShake       Animation = "Annoyed Head Shake"
	AnimationBored                  Animation = "Bored"
	AnimationCrazyGesture           Animation = "Crazy Gesture"
	AnimationDismissingGestureRig   Animation = "Dismissing Gesture"
	AnimationHandsForwardGesture    Animation = "Hands Forward Gesture"
	AnimationThankful               Animation = "Thankful"
	AnimationWipingSweat            Animation = "Wiping Sweat"
	AnimationSadIdleRig             Animation = "Sad Idle"
	AnimationWaving                 Animation = "Waving"
	AnimationThoughtfulHeadShakeRig Animation = "Thoughtful Head Shake"
	AnimationStandingIdle           Animation = "Standing Idle"
)

var animations = []Animation{
	AnimationIdle, AnimationTalkingOne, AnimationTalkingThree, AnimationSadIdle,
	AnimationDefeated, AnimationAngry, AnimationSurprised, AnimationDismissingGesture,
	AnimationThoughtfulHeadShake,
	AnimationAcknowledging, AnimationAgreeing, AnimationAnnoyedHeadShake, AnimationBored,
	AnimationCrazyGesture, AnimationDismissingGestureRig, AnimationHandsForwardGesture,
	AnimationThankful, AnimationWipingSweat, AnimationSadIdleRig, AnimationWaving,
	AnimationThoughtfulHeadShakeRig, AnimationStandingIdle,
}

var animationSet = func() map[Animation]struct{} {
	m := make(map[Animation]struct{}, len(animations))
	for _, a := range animations {
		m[a] = struct{}{}
	}
	return m
}()

// Valid reports whether a is a known clip.
func (a Animation) Valid() bool {
	_, ok := animationSet[a]
	return ok
}

// Animations lists every known clip in prompt order.
func Animations() []Animation {
	out := make([]Animation, len(animations))
	copy(out, animations)
	return out
}

// ReplyMessage is one utterance of the avatar.
type ReplyMessage struct {
	Text             string           `json:"text"`
	FacialExpression FacialExpression `json:"facialExpression"`
	Animation        Animation        `json:"animation"`
}

// Product card keys that are always present in the serialized card.
const (
	CardName        = "name"
	CardDescription = "description"
	CardPrice       = "price"
	CardCategory    = "category"
	CardImg         = "img"
)

// ProductCard is the normalized product returned to the front-end. Extra
// holds pass-through attributes and is flattened into the same JSON object;
// the mandatory fields always win over Extra on key collisions.
type ProductCard struct {
	Name        string
	Description string
	// Price is a number when the model supplied one, otherwise text.
	Price    any
	Category string
	Img      string
	Extra    map[string]any
}

func (p ProductCard) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+5)
	for k, v := range p.Extra {
		out[k] = v
	}
	out[CardName] = p.Name
	out[CardDescription] = p.Description
	out[CardPrice] = p.Price
	out[CardCategory] = p.Category
	out[CardImg] = p.Img
	return json.Marshal(out)
}

func (p *ProductCard) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode product card: %w", err)
	}
	card := ProductCard{Extra: map[string]any{}}
	for k, v := range raw {
		switch k {
		case CardName:
			card.Name = stringOf(v)
		case CardDescription:
			card.Description = stringOf(v)
		case CardPrice:
			card.Price = v
		case CardCategory:
			card.Category = stringOf(v)
		case CardImg:
			card.Img = stringOf(v)
		default:
			card.Extra[k] = v
		}
	}
	*p = card
	return nil
}

func stringOf(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// AssistantResponse is the only shape the conversational endpoint returns.
type AssistantResponse struct {
	Messages []ReplyMessage `json:"messages"`
	Products []ProductCard  `json:"products"`
}

// NewAssistantResponse builds a response with a non-nil product slice so the
// JSON form always carries "products": [].
func NewAssistantResponse(messages []ReplyMessage, products []ProductCard) *AssistantResponse {
	if products == nil {
		products = []ProductCard{}
	}
	return &AssistantResponse{Messages: messages, Products: products}
}
