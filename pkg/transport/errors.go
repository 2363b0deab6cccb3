package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/aretw0/concierge/pkg/domain"
)

// Error is a failed request. Kind is one of the domain transport sentinels.
type Error struct {
	Method     string
	Path       string
	StatusCode int // 0 when no response was received
	Kind       error
	Detail     string
	Err        error // underlying network error, if any
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %v", e.Method, e.Path, e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (%d)", e.StatusCode)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the network cause to errors.Is.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// KindForStatus maps an HTTP status to a transport kind. It returns nil for success.
func KindForStatus(status int) error {
	switch {
	case status < 400:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.ErrUnauthorized
	case status == http.StatusNotFound:
		return domain.ErrNotFound
	case status < 500:
		return domain.ErrValidation
	default:
		return domain.ErrServer
	}
}

// Detail extracts a human-readable message from a DRF error body.
// It understands {"detail": "..."}, {"non_field_errors": [...]} and per-field lists.
func Detail(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(truncate(string(body), 200))
	}

	if d, ok := payload["detail"].(string); ok {
		return d
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		msgs := messages(payload[k])
		if len(msgs) == 0 {
			continue
		}
		if k == "non_field_errors" {
			parts = append(parts, strings.Join(msgs, "; "))
		} else {
			parts = append(parts, k+": "+strings.Join(msgs, "; "))
		}
	}
	return strings.Join(parts, ", ")
}

func messages(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
