package webhook

import (
	"encoding/json"
	"strings"

	"hostelmess/internal/meals"
)

// The workflow tool behind the webhook does not commit to a wire shape, so
// extraction is layered: try progressively more specific unwrappings before
// giving up. None of these paths may fail an exchange.

// Fallback texts for chat replies.
const (
	// EmptyReplyFallback is used when the workflow ran but returned no body.
	EmptyReplyFallback = "I received your message and processed it successfully, but I don't have a specific response for you right now. Please try asking something else!"
	// NoReplyFallback is used when no recognized reply field is present.
	NoReplyFallback = "No response from AI"
)

// ExtractReply produces a usable reply string from a raw chat webhook body.
// An empty body and a non-JSON body both resolve to usable text rather than
// an error.
func ExtractReply(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return EmptyReplyFallback
	}

	var data any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		// not JSON: the raw text is the reply
		return text
	}

	if arr, ok := data.([]any); ok && len(arr) > 0 {
		if reply, ok := fieldString(arr[0], "output"); ok {
			return reply
		}
	}
	for _, key := range []string{"output", "reply", "answer", "message", "response"} {
		if reply, ok := fieldString(data, key); ok {
			return reply
		}
	}
	return NoReplyFallback
}

// ExtractMeals produces a meal list from a raw history webhook body.
//
// The workflow may wrap the payload up to twice in {output: "..."} envelopes,
// with the inner JSON fenced in Markdown code markers. The terminal payload
// is either {valid, meals, error}, {meals: [...]}, or a bare meal array.
func ExtractMeals(body []byte) ([]meals.MealRecord, error) {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, ErrNoMealsFound
	}

	// peel {output: ...} envelopes; two levels observed in the wild, a
	// couple spare iterations cost nothing
	for i := 0; i < 4; i++ {
		inner, ok := unwrapOutput(data)
		if !ok {
			break
		}
		data = inner
	}

	if obj, ok := data.(map[string]any); ok {
		if valid, present := obj["valid"].(bool); present && !valid {
			reason, _ := obj["error"].(string)
			if reason == "" {
				reason = "Student not found"
			}
			return nil, &RemoteValidationError{Reason: reason}
		}
		if rawMeals, present := obj["meals"]; present {
			return decodeMeals(rawMeals)
		}
	}

	if arr, ok := data.([]any); ok && mealShaped(arr) {
		return decodeMeals(arr)
	}

	return nil, ErrNoMealsFound
}

// unwrapOutput peels one {output: ...} envelope, whether the envelope is the
// value itself or the first element of a wrapping array. String payloads get
// their code fences stripped and are parsed as JSON.
func unwrapOutput(data any) (any, bool) {
	candidate := data
	if arr, ok := data.([]any); ok {
		if len(arr) == 0 {
			return nil, false
		}
		candidate = arr[0]
	}
	obj, ok := candidate.(map[string]any)
	if !ok {
		return nil, false
	}
	out, ok := obj["output"]
	if !ok {
		return nil, false
	}
	if s, isStr := out.(string); isStr {
		var parsed any
		if err := json.Unmarshal([]byte(stripFences(s)), &parsed); err != nil {
			return nil, false
		}
		return parsed, true
	}
	return out, true
}

// stripFences removes Markdown code-fence markers around a JSON payload.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// the opening fence may carry a language tag, e.g. ```json
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		if first == "" || isFenceTag(first) {
			s = s[idx+1:]
		}
	} else {
		s = strings.TrimSpace(strings.TrimPrefix(s, "json"))
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isFenceTag(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

func decodeMeals(v any) ([]meals.MealRecord, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, ErrNoMealsFound
	}
	var records []meals.MealRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, ErrNoMealsFound
	}
	if len(records) == 0 {
		return nil, ErrNoMealsFound
	}
	return records, nil
}

// mealShaped reports whether an array looks like a bare meal list.
func mealShaped(arr []any) bool {
	if len(arr) == 0 {
		return false
	}
	obj, ok := arr[0].(map[string]any)
	if !ok {
		return false
	}
	_, ok = obj["food_item"]
	return ok
}

func fieldString(data any, key string) (string, bool) {
	obj, ok := data.(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := obj[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
