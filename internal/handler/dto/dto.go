// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"bytes"
	"encoding/json"
)

// ErrorResponse represents an API error. Fields is set for validation
// failures and maps each rejected field to its messages.
type ErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// NumberText keeps a numeric request field as text so the service can
// report unparseable values per field. It accepts JSON numbers and strings.
type NumberText string

// UnmarshalJSON implements json.Unmarshaler.
func (n *NumberText) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumberText(s)
		return nil
	}
	*n = NumberText(bytes.TrimSpace(data))
	return nil
}

// Ptr returns the text as a *string, or nil for a nil receiver.
func (n *NumberText) Ptr() *string {
	if n == nil {
		return nil
	}
	s := string(*n)
	return &s
}
