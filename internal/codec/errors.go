// Package codec converts pipeline failures into the uniform client-visible
// error shape. Every failure, whatever stage raised it, leaves the gateway
// as {"error": "..."} JSON with a status from the gateway taxonomy.
package codec

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/docsense/gateway/internal/domain"
)

// genericMessage is written for any failure that is not a GatewayError.
// Internal error text never reaches the client.
const genericMessage = "Internal server error"

// errorBody is the client-visible failure shape.
type errorBody struct {
	Error string `json:"error"`
}

// ToCanonicalError converts any error to a domain.GatewayError. Unrecognized
// errors become a generic 500: their text may contain stack traces or
// filesystem paths and is dropped, not relayed.
func ToCanonicalError(err error) *domain.GatewayError {
	var gerr *domain.GatewayError
	if errors.As(err, &gerr) {
		return gerr
	}
	return domain.ErrServer(genericMessage)
}

// WriteError writes the normalized error response. Rate limit rejections
// additionally carry a Retry-After header in whole seconds, rounded up.
func WriteError(w http.ResponseWriter, err error) {
	gerr := ToCanonicalError(err)

	w.Header().Set("Content-Type", "application/json")
	if gerr.Type == domain.ErrorTypeRateLimit {
		w.Header().Set("Retry-After", retryAfterSeconds(gerr.RetryAfter))
	}
	w.WriteHeader(gerr.HTTPStatusCode())

	body, _ := json.Marshal(errorBody{Error: gerr.Message})
	w.Write(body)
}

// retryAfterSeconds renders a retry hint as whole seconds, never below 1 so
// a rejection issued mid-window still tells the client to back off.
func retryAfterSeconds(d time.Duration) string {
	secs := int64(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return itoa(secs)
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}
