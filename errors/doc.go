// Package errors provides standardized error handling for the SPARQL data provider.
//
// # Overview
//
// Errors fall into three classes: Transient (temporary, retryable), Invalid
// (bad input, non-retryable), and Fatal (unrecoverable, stop processing).
// On top of the classes sit four typed failures, one per pipeline stage:
//
//   - CompositionError: the query could not be built. Nothing was sent.
//   - TransportError: the endpoint could not be reached, or the exchange was
//     interrupted (timeouts and context cancellation included).
//   - ProtocolError: the endpoint answered with a non-success status.
//   - ParseError: the response body did not match its declared format.
//
// Each typed failure carries its own class, so IsTransient, IsInvalid and
// Classify work through any wrapping chain:
//
//	_, err := provider.ClassTree(ctx)
//	switch errors.KindOf(err) {
//	case errors.KindComposition:
//	    // caller bug or bad dialect, do not retry
//	case errors.KindTransport:
//	    // retry later
//	}
//
// A ProtocolError is transient for 429 and 5xx statuses and invalid otherwise.
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// Classification-aware wrappers:
//
//	errors.WrapTransient(err, "Component", "Method", "action")
//	errors.WrapInvalid(err, "Component", "Method", "action")
//	errors.WrapFatal(err, "Component", "Method", "action")
//
// Wrap preserves the original error's classification:
//
//	errors.Wrap(err, "Component", "Method", "action")
//
// # Retry
//
// The provider never retries. Callers that want retries convert a
// RetryConfig with ToRetryConfig and use the retry package, marking
// non-transient failures with retry.NonRetryable.
package errors
