// Package collector delivers event batches to the HoneyTracks collector over HTTP.
//
// A Sender encodes a batch as an application/x-www-form-urlencoded body,
// record i contributing Packets[i][Action] and Packets[i][<Field>] for each
// of its fields in order, and POSTs it to the endpoint built from the
// tracking settings:
//
//	sender, err := collector.NewSender(settings.Endpoint(),
//		collector.WithTimeout(5*time.Second),
//		collector.WithCircuitBreaker(collector.NewCircuitBreaker(5, 2, 30*time.Second)),
//	)
//	if err != nil {
//		return err
//	}
//	pipeline, err := tracking.New(sender, store)
//
// Send makes exactly one attempt. Errors wrap ErrPermanentFailure for 4xx
// responses the collector will keep rejecting, ErrTemporaryFailure for
// network errors and other statuses, ErrTimeout when the request timeout
// fires and ErrCircuitOpen while the optional circuit breaker is open.
//
// With WithSecretKey every body is signed with HMAC-SHA256 over
// "<unix timestamp>.<body>"; the result is sent in the X-Tracks-Signature and
// X-Tracks-Timestamp headers and can be checked with Verify. Each request
// carries a random X-Batch-ID for correlation.
package collector
