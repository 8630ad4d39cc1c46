// Package checkpoint implements the transcript checkpoint protocol: an
// upstream conversation payload is normalized, authenticated against an
// upstream HMAC, bound into a plaintext-free signed master receipt plus an
// evidence pack, and verified offline with built-in tamper self-tests.
package checkpoint

import (
	"encoding/json"

	"github.com/veridex/veridex/internal/model"
)

// assistantTextKeys are the payload fields accepted as assistant-authored
// text, tried in order.
var assistantTextKeys = []string{"completion", "response", "output_text", "text", "raw_response"}

// Normalize converts any upstream payload into the canonical transcript
// shape. It is total: unrecognized payloads degrade to an empty message
// list with the original fields preserved under Inputs, and missing model
// or timestamp metadata falls back to "unknown".
func Normalize(payload any) model.Transcript {
	switch p := payload.(type) {
	case model.Transcript:
		return fillDefaults(p)
	case *model.Transcript:
		if p == nil {
			return fillDefaults(model.Transcript{})
		}
		return fillDefaults(*p)
	case string:
		return transcriptFromText(p)
	case []byte:
		var decoded any
		if err := json.Unmarshal(p, &decoded); err == nil {
			return Normalize(decoded)
		}
		return transcriptFromText(string(p))
	case map[string]any:
		return normalizeMap(p)
	default:
		if m, ok := toMap(payload); ok {
			return normalizeMap(m)
		}
		return fillDefaults(model.Transcript{})
	}
}

// shapeHandler recognizes one upstream payload layout. Handlers are tried
// in registration order; the first match wins.
type shapeHandler interface {
	Name() string
	CanHandle(payload map[string]any) bool
	Build(payload map[string]any) model.Transcript
}

var shapeHandlers = []shapeHandler{
	messagesShape{},
	envelopeShape{},
	promptCompletionShape{},
	bareTextShape{},
}

func normalizeMap(payload map[string]any) model.Transcript {
	for _, h := range shapeHandlers {
		if h.CanHandle(payload) {
			return fillDefaults(h.Build(payload))
		}
	}

	// Nothing recognizable: keep every field as residual input so the
	// evidence pack still records what arrived.
	t := model.Transcript{}
	if len(payload) > 0 {
		t.Inputs = payload
	}
	return fillDefaults(t)
}

// messagesShape handles payloads already carrying a messages array.
type messagesShape struct{}

func (messagesShape) Name() string { return "messages" }

func (messagesShape) CanHandle(payload map[string]any) bool {
	_, ok := payload["messages"].([]any)
	return ok
}

func (messagesShape) Build(payload map[string]any) model.Transcript {
	raw, _ := payload["messages"].([]any)
	t := model.Transcript{
		Messages:  parseMessages(raw),
		Model:     stringField(payload, "model"),
		CreatedAt: stringField(payload, "created_at", "createdAt", "timestamp", "created"),
		Inputs:    residualFields(payload, "messages", "model", "created_at", "createdAt", "timestamp", "created"),
	}
	return t
}

// envelopeShape handles nested request/response envelopes.
type envelopeShape struct{}

func (envelopeShape) Name() string { return "envelope" }

func (envelopeShape) CanHandle(payload map[string]any) bool {
	if _, ok := payload["request"].(map[string]any); ok {
		return true
	}
	if _, ok := payload["response"].(map[string]any); ok {
		return true
	}
	return false
}

func (envelopeShape) Build(payload map[string]any) model.Transcript {
	request, _ := payload["request"].(map[string]any)
	response, _ := payload["response"].(map[string]any)

	var messages []model.Message
	if raw, ok := request["messages"].([]any); ok {
		messages = parseMessages(raw)
	} else if prompt := stringField(request, "prompt"); prompt != "" {
		messages = append(messages, model.Message{Role: "user", Content: prompt})
	}

	if text := stringField(response, assistantTextKeys...); text != "" {
		messages = append(messages, model.Message{Role: "assistant", Content: text})
	}

	mdl := stringField(payload, "model")
	if mdl == "" {
		mdl = stringField(request, "model")
	}
	if mdl == "" {
		mdl = stringField(response, "model")
	}
	created := stringField(payload, "created_at", "createdAt", "timestamp", "created")
	if created == "" {
		created = stringField(response, "created_at", "createdAt", "timestamp", "created")
	}

	return model.Transcript{
		Messages:  messages,
		Model:     mdl,
		CreatedAt: created,
		Inputs:    residualFields(payload, "request", "response", "model", "created_at", "createdAt", "timestamp", "created"),
	}
}

// promptCompletionShape handles flat prompt/completion pairs.
type promptCompletionShape struct{}

func (promptCompletionShape) Name() string { return "prompt-completion" }

func (promptCompletionShape) CanHandle(payload map[string]any) bool {
	if stringField(payload, "prompt") == "" {
		return false
	}
	return stringField(payload, assistantTextKeys...) != ""
}

func (promptCompletionShape) Build(payload map[string]any) model.Transcript {
	consumed := append([]string{"prompt", "model", "created_at", "createdAt", "timestamp", "created"}, assistantTextKeys...)
	return model.Transcript{
		Messages: []model.Message{
			{Role: "user", Content: stringField(payload, "prompt")},
			{Role: "assistant", Content: stringField(payload, assistantTextKeys...)},
		},
		Model:     stringField(payload, "model"),
		CreatedAt: stringField(payload, "created_at", "createdAt", "timestamp", "created"),
		Inputs:    residualFields(payload, consumed...),
	}
}

// bareTextShape handles payloads that are just a response string.
type bareTextShape struct{}

func (bareTextShape) Name() string { return "bare-text" }

func (bareTextShape) CanHandle(payload map[string]any) bool {
	return stringField(payload, assistantTextKeys...) != ""
}

func (bareTextShape) Build(payload map[string]any) model.Transcript {
	consumed := append([]string{"model", "created_at", "createdAt", "timestamp", "created"}, assistantTextKeys...)
	return model.Transcript{
		Messages: []model.Message{
			{Role: "assistant", Content: stringField(payload, assistantTextKeys...)},
		},
		Model:     stringField(payload, "model"),
		CreatedAt: stringField(payload, "created_at", "createdAt", "timestamp", "created"),
		Inputs:    residualFields(payload, consumed...),
	}
}

func transcriptFromText(text string) model.Transcript {
	return fillDefaults(model.Transcript{
		Messages: []model.Message{{Role: "assistant", Content: text}},
	})
}

func fillDefaults(t model.Transcript) model.Transcript {
	if t.Messages == nil {
		t.Messages = []model.Message{}
	}
	if t.Model == "" {
		t.Model = model.UnknownField
	}
	if t.CreatedAt == "" {
		t.CreatedAt = model.UnknownField
	}
	return t
}

func parseMessages(raw []any) []model.Message {
	messages := make([]model.Message, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			if s, ok := item.(string); ok && s != "" {
				messages = append(messages, model.Message{Role: "user", Content: s})
			}
			continue
		}
		role := stringField(m, "role")
		if role == "" {
			role = "user"
		}
		messages = append(messages, model.Message{
			Role:    role,
			Content: stringField(m, "content", "text"),
		})
	}
	return messages
}

// stringField returns the first non-empty string among the named keys.
func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// residualFields copies every field not consumed by a handler, so nothing
// the upstream sent is silently dropped.
func residualFields(payload map[string]any, consumed ...string) map[string]any {
	used := make(map[string]bool, len(consumed))
	for _, k := range consumed {
		used[k] = true
	}
	var rest map[string]any
	for k, v := range payload {
		if used[k] {
			continue
		}
		if rest == nil {
			rest = make(map[string]any)
		}
		rest[k] = v
	}
	return rest
}

func toMap(v any) (map[string]any, bool) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return m, true
}
