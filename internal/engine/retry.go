package engine

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const retryDelay = 500 * time.Millisecond

// extractStatusCode finds the first run of exactly three digits in an
// error message. UPnP client errors carry HTTP status codes only in
// string form.
func extractStatusCode(msg string) (int, bool) {
	for _, token := range strings.FieldsFunc(msg, func(r rune) bool {
		return !unicode.IsDigit(r)
	}) {
		if len(token) == 3 {
			code, err := strconv.Atoi(token)
			if err == nil {
				return code, true
			}
		}
	}
	return 0, false
}

// isUPnPSuccess reports whether an error should be treated as success:
// consumer renderers routinely answer 2xx with empty or malformed SOAP
// bodies, which some layers surface as errors.
func isUPnPSuccess(err error) bool {
	if err == nil {
		return true
	}
	code, ok := extractStatusCode(err.Error())
	return ok && code/100 == 2
}

// retryUPnP runs op until it succeeds, its error classifies as a UPnP 2xx
// success, or ctx ends. Used by the background loops; backoff stays flat
// because renderer-side state clears on the next poll anyway.
func retryUPnP(ctx context.Context, name string, op func(context.Context) error) error {
	return retryN(ctx, name, 0, op)
}

// retryN is the bounded variant; maxRetries == 0 retries forever.
func retryN(ctx context.Context, name string, maxRetries int, op func(context.Context) error) error {
	attempt := 0
	for {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if isUPnPSuccess(err) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		attempt++
		if maxRetries > 0 && attempt > maxRetries {
			errorf("%s failed after %d retries: %v", name, maxRetries, err)
			return err
		}
		warnf("%s failed: %v, retrying", name, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
		}
	}
}
