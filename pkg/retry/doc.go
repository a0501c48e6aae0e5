// Package retry provides exponential backoff retry logic for transient failures.
//
// The data provider itself never retries: a failed SPARQL round-trip is
// reported once, with its kind. Callers that want retries wrap the provider
// call here and decide which failures are worth repeating.
//
// # Core Functions
//
//   - Do: Execute function with retry and exponential backoff
//   - DoWithResult: Execute function with retry, returns both result and error
//   - NonRetryable: Mark an error so Do returns it immediately
//
// # Usage
//
//	tree, err := retry.DoWithResult(ctx, cfg, func() ([]*model.ClassNode, error) {
//	    return p.ClassTree(ctx)
//	})
//
// Classify with Config.Retryable, or mark errors at the call site:
//
//	cfg.Retryable = errors.IsTransient
//
// # Context Cancellation
//
// Do checks ctx between attempts and during backoff; a cancelled context
// stops retrying and the returned error wraps ctx.Err().
package retry
