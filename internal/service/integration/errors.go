package integration

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// APIError - ответ API со статусом вне 2xx, кроме отработанного 401.
type APIError struct {
	StatusCode int
	Detail     string
	Fields     map[string][]string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api returned status %d", e.StatusCode)
}

// Message - текст для пользователя: detail, затем ошибки полей, затем общий текст.
func (e *APIError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
		}
		return strings.Join(parts, "; ")
	}
	if e.StatusCode >= http.StatusInternalServerError {
		return "The server is unavailable right now. Please try again."
	}
	return "The request could not be completed."
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		// не JSON (например, HTML страница 502 от прокси)
		return apiErr
	}

	fields := make(map[string][]string)
	for key, raw := range payload {
		msgs := flattenMessages(raw)
		if len(msgs) == 0 {
			continue
		}
		switch key {
		case "detail", "message", "error":
			if apiErr.Detail == "" {
				apiErr.Detail = strings.Join(msgs, " ")
			}
		case "non_field_errors":
			apiErr.Detail = strings.Join(msgs, " ")
		default:
			fields[key] = msgs
		}
	}
	if len(fields) > 0 {
		apiErr.Fields = fields
	}

	return apiErr
}

func flattenMessages(raw json.RawMessage) []string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return nil
		}
		return []string{s}
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		var out []string
		for _, item := range list {
			out = append(out, flattenMessages(item)...)
		}
		return out
	}

	var nested map[string]json.RawMessage
	if err := json.Unmarshal(raw, &nested); err == nil {
		var out []string
		for _, v := range nested {
			out = append(out, flattenMessages(v)...)
		}
		return out
	}

	return nil
}

func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
