package metrics

import (
	"net/http"
	"time"

	"github.com/torosent/errgen/internal/faults"
)

// Class is the outcome class of a single request attempt.
type Class string

const (
	ClassSuccess Class = "success"
	ClassError   Class = "error"
)

// Classify maps an HTTP status code to its outcome class.
// Only 200 counts as success.
func Classify(statusCode int) Class {
	if statusCode == http.StatusOK {
		return ClassSuccess
	}
	return ClassError
}

// Outcome is the result of one request attempt.
type Outcome struct {
	Class      Class
	StatusCode int // 0 when no response was received
	Params     faults.Params
	Latency    time.Duration
	Err        error  // transport failure, nil when a response arrived
	Message    string // server supplied message for error responses, if any
}

// ResponseOutcome builds the outcome of an attempt that received a response.
func ResponseOutcome(params faults.Params, statusCode int, latency time.Duration) Outcome {
	return Outcome{
		Class:      Classify(statusCode),
		StatusCode: statusCode,
		Params:     params,
		Latency:    latency,
	}
}

// TransportOutcome builds the outcome of an attempt that failed before a
// response arrived.
func TransportOutcome(params faults.Params, err error, latency time.Duration) Outcome {
	return Outcome{
		Class:   ClassError,
		Params:  params,
		Latency: latency,
		Err:     err,
	}
}

// HasStatus reports whether the attempt received an HTTP response.
func (o Outcome) HasStatus() bool {
	return o.StatusCode > 0
}

// Failed reports whether the outcome belongs to the error class.
func (o Outcome) Failed() bool {
	return o.Class != ClassSuccess
}
