// Package homework holds the review-status vocabulary and the translation of
// status codes into the notification text sent to the chat.
package homework

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the review status reported by the Practicum API.
type Status string

const (
	StatusApproved  Status = "approved"
	StatusReviewing Status = "reviewing"
	StatusRejected  Status = "rejected"
)

// Homework is one review record from the API. Fields the bot does not use
// are ignored on decode.
type Homework struct {
	Name   string `json:"homework_name"`
	Status Status `json:"status"`
}

// The verdict sentences are fixed; the chat audience expects these exact texts.
var verdicts = map[Status]string{
	StatusApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
	StatusReviewing: "Работа взята на проверку ревьюером.",
	StatusRejected:  "Работа проверена: у ревьюера есть замечания.",
}

// ErrMissingName reports a record without a homework_name.
var ErrMissingName = errors.New(`в записи о домашней работе отсутствует ключ "homework_name"`)

// UnknownStatusError reports a status outside the known verdict set.
type UnknownStatusError struct {
	Status Status
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("неизвестный статус домашней работы: %q", string(e.Status))
}

// StatusMessage renders the status-change notification for one record.
// It is a pure function: same record, same text.
func StatusMessage(hw Homework) (string, error) {
	if strings.TrimSpace(hw.Name) == "" {
		return "", ErrMissingName
	}
	verdict, ok := verdicts[hw.Status]
	if !ok {
		return "", &UnknownStatusError{Status: hw.Status}
	}
	return fmt.Sprintf("Изменился статус проверки работы \"%s\". %s", hw.Name, verdict), nil
}
