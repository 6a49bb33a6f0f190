package practicum

import (
	"encoding/json"

	"github.com/altmanhellen/homework-bot/internal/homework"
)

// StatusesResponse is a validated homework-statuses payload.
// CurrentDate is nil when the server omitted the field (or sent a
// non-integer value); the caller keeps its previous cursor in that case.
type StatusesResponse struct {
	Homeworks   []homework.Homework
	CurrentDate *int64
}

// ParseStatuses validates the raw payload against the documented shape and
// decodes the homework records. It must run before any record field is read.
// Structural violations come back as *ValidationError; no partial result is
// ever returned alongside an error.
func ParseStatuses(payload json.RawMessage) (*StatusesResponse, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil || obj == nil {
		return nil, &ValidationError{Kind: KindShape}
	}

	rawList, ok := obj["homeworks"]
	if !ok {
		return nil, &ValidationError{Kind: KindMissingField}
	}

	// json.Unmarshal accepts "null" for a slice; that is still not a sequence.
	if string(rawList) == "null" {
		return nil, &ValidationError{Kind: KindNotSequence}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(rawList, &items); err != nil {
		return nil, &ValidationError{Kind: KindNotSequence}
	}

	resp := &StatusesResponse{Homeworks: make([]homework.Homework, 0, len(items))}
	for _, item := range items {
		var hw homework.Homework
		if err := json.Unmarshal(item, &hw); err != nil {
			// A non-object element means the list is not a sequence of records.
			return nil, &ValidationError{Kind: KindNotSequence}
		}
		resp.Homeworks = append(resp.Homeworks, hw)
	}

	if rawDate, ok := obj["current_date"]; ok {
		var date int64
		if err := json.Unmarshal(rawDate, &date); err == nil {
			resp.CurrentDate = &date
		}
	}

	return resp, nil
}
