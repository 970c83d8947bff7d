package queue

import "errors"

var (
	ErrQueueUnavailable = errors.New("queue unavailable")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrDeserialize      = errors.New("deserialize error")
)

// ErrorKind labels err for the queue_errors_total metric.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrQueueUnavailable):
		return "unavailable"
	case errors.Is(err, ErrUnknownCommand):
		return "unknown_command"
	case errors.Is(err, ErrDeserialize):
		return "deserialize"
	default:
		return "job"
	}
}
