package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is the backend's response wrapper: {status, results, message, data, ...}.
type Envelope struct {
	Status  string          `json:"status"`
	Results int             `json:"results,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Token   string          `json:"token,omitempty"`
	URL     string          `json:"url,omitempty"`
}

// Lookup finds key in a response body. The backend is inconsistent about
// nesting, so it tries data.data.key, data.key and key, in that order.
// A bare array body or a bare array under data is returned for any key.
func Lookup(body json.RawMessage, key string) (json.RawMessage, bool) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, false
	}
	if body[0] == '[' {
		return body, true
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, false
	}
	if data, ok := top["data"]; ok {
		data = bytes.TrimSpace(data)
		if len(data) > 0 && data[0] == '[' {
			return data, true
		}
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(data, &inner); err == nil {
			if nested, ok := inner["data"]; ok {
				var deepest map[string]json.RawMessage
				if err := json.Unmarshal(nested, &deepest); err == nil {
					if v, ok := deepest[key]; ok && !isNull(v) {
						return v, true
					}
				}
			}
			if v, ok := inner[key]; ok && !isNull(v) {
				return v, true
			}
		}
	}
	if v, ok := top[key]; ok && !isNull(v) {
		return v, true
	}
	return nil, false
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// Collection decodes the list stored under key. A missing key yields an empty list.
func Collection[T any](body json.RawMessage, key string) ([]T, error) {
	raw, ok := Lookup(body, key)
	if !ok {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Item decodes the single object stored under key. If the key is absent the
// data object itself is tried, then the whole body.
func Item[T any](body json.RawMessage, key string) (T, error) {
	var out T
	raw, ok := Lookup(body, key)
	if !ok {
		var env Envelope
		if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 && !isNull(env.Data) {
			raw = env.Data
		} else {
			raw = body
		}
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}
