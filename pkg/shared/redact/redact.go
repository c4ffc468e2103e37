package redact

import (
	"encoding/json"
	"strings"
)

const mask = "***"

var sensitiveKeys = []string{
	"authorization", "proxy-authorization", "cookie", "set-cookie",
	"access_token", "id_token", "refresh_token", "session", "apikey", "x-api-key",
}

func isSensitiveKey(k string) bool {
	k = strings.ToLower(k)
	for _, s := range sensitiveKeys {
		if k == s {
			return true
		}
	}
	return false
}

// Headers returns a copy of h with sensitive values masked. Nil in, nil out.
func Headers(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		if isSensitiveKey(k) {
			out[k] = mask
		} else {
			out[k] = v
		}
	}
	return out
}

// JSON masks sensitive fields in a JSON body best-effort; non-JSON input is
// returned unchanged.
func JSON(s string) string {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	redactNode(&v)
	b, err := json.Marshal(v)
	if err != nil {
		return s
	}
	return string(b)
}

func redactNode(n *any) {
	switch t := (*n).(type) {
	case map[string]any:
		for k, v := range t {
			if isSensitiveKey(k) {
				t[k] = mask
				continue
			}
			vv := any(v)
			redactNode(&vv)
			t[k] = vv
		}
	case []any:
		for i := range t {
			vv := any(t[i])
			redactNode(&vv)
			t[i] = vv
		}
	}
}
