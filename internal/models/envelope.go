package models

// CallQueuedHandler is the Laravel job class that unwraps a serialized command.
const CallQueuedHandler = `Illuminate\Queue\CallQueuedHandler@call`

// JobEnvelope is the JSON record a Laravel queue worker reads from a redis list.
type JobEnvelope struct {
	UUID          string          `json:"uuid"`
	DisplayName   string          `json:"displayName"`
	Job           string          `json:"job"`
	MaxTries      *int            `json:"maxTries"`
	MaxExceptions *int            `json:"maxExceptions"`
	Backoff       *int            `json:"backoff"`
	Timeout       *int            `json:"timeout"`
	Data          JobEnvelopeData `json:"data"`
	ID            string          `json:"id"`
	Attempts      int             `json:"attempts"`
	PushedAt      int64           `json:"pushedAt"`
}

type JobEnvelopeData struct {
	CommandName string `json:"commandName"`
	Command     string `json:"command"`
}

// EventEnvelope carries a serialized event object instead of a command.
type EventEnvelope struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}
