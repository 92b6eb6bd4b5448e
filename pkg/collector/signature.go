package collector

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Signature headers added when a secret key is configured.
const (
	HeaderSignature = "X-Tracks-Signature"
	HeaderTimestamp = "X-Tracks-Timestamp"
	HeaderBatchID   = "X-Batch-ID"
)

// Signature authenticates one request body.
type Signature struct {
	Value     string
	Timestamp int64
}

// Apply sets the signature headers on h.
func (s Signature) Apply(h http.Header) {
	h.Set(HeaderSignature, s.Value)
	h.Set(HeaderTimestamp, strconv.FormatInt(s.Timestamp, 10))
}

// Sign computes HMAC-SHA256(secret, timestamp + "." + body).
func Sign(secret string, body []byte, at time.Time) (Signature, error) {
	if secret == "" {
		return Signature{}, fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}
	ts := at.Unix()
	return Signature{Value: mac(secret, ts, body), Timestamp: ts}, nil
}

// Verify checks the signature headers of a received request body.
// A positive maxAge rejects signatures older than maxAge or more than a
// minute in the future.
func Verify(secret string, body []byte, h http.Header, maxAge time.Duration) error {
	if secret == "" {
		return fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}
	sig := h.Get(HeaderSignature)
	if sig == "" {
		return fmt.Errorf("%w: signature is missing", ErrInvalidSignature)
	}
	ts, err := strconv.ParseInt(h.Get(HeaderTimestamp), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid timestamp", ErrInvalidSignature)
	}

	if maxAge > 0 {
		age := time.Since(time.Unix(ts, 0))
		if age > maxAge {
			return fmt.Errorf("%w: signature expired %v ago", ErrInvalidSignature, age-maxAge)
		}
		if age < -time.Minute {
			return fmt.Errorf("%w: timestamp is in the future", ErrInvalidSignature)
		}
	}

	if !hmac.Equal([]byte(mac(secret, ts, body)), []byte(sig)) {
		return fmt.Errorf("%w: signature mismatch", ErrInvalidSignature)
	}
	return nil
}

func mac(secret string, ts int64, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(strconv.FormatInt(ts, 10)))
	h.Write([]byte{'.'})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
