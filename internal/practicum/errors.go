package practicum

import "fmt"

// ErrorKind classifies a failed API call. The loop branches on the kind
// instead of inspecting error text.
type ErrorKind int

const (
	// KindNetwork: the request never produced an HTTP response
	// (timeout, DNS failure, connection reset). Safe to retry.
	KindNetwork ErrorKind = iota + 1
	// KindClient: HTTP 4xx. Usually a bad token or malformed request.
	KindClient
	// KindServer: HTTP 5xx. Remote outage.
	KindServer
	// KindUnexpectedStatus: any other non-200 code.
	KindUnexpectedStatus
	// KindMalformed: HTTP 200 with a body that is not valid JSON.
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	case KindUnexpectedStatus:
		return "unexpected_status"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// APIError is the classified result of a failed HomeworkStatuses call.
// StatusCode is 0 when no HTTP response was received.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	switch e.Kind {
	case KindNetwork:
		return fmt.Sprintf("ошибка связи с API: %v", e.Err)
	case KindClient:
		return fmt.Sprintf("ошибка на стороне клиента: HTTP %d", e.StatusCode)
	case KindServer:
		return fmt.Sprintf("ошибка сервера: HTTP %d", e.StatusCode)
	case KindUnexpectedStatus:
		return fmt.Sprintf("неожиданный код ответа API: HTTP %d", e.StatusCode)
	case KindMalformed:
		return fmt.Sprintf("ответ API не является корректным JSON: %v", e.Err)
	default:
		return fmt.Sprintf("ошибка при запросе к API: %v", e.Err)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// ValidationKind classifies a response that parsed as JSON but does not match
// the documented shape.
type ValidationKind int

const (
	// KindShape: the payload is not a JSON object.
	KindShape ValidationKind = iota + 1
	// KindMissingField: the object lacks the "homeworks" key.
	KindMissingField
	// KindNotSequence: the "homeworks" value is not an array of records.
	KindNotSequence
)

// ValidationError reports a structural violation of the API contract.
type ValidationError struct {
	Kind ValidationKind
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindShape:
		return "ответ API не является словарем"
	case KindMissingField:
		return `ответ API не содержит ключ "homeworks"`
	case KindNotSequence:
		return `данные под ключом "homeworks" не являются списком`
	default:
		return "ответ API не соответствует документации"
	}
}
