package xpipe

import "fmt"

// AuthError reports a failed or impossible handshake. It is fatal to the
// fetch pipeline but never to the process: callers degrade to an empty
// catalogue and report on the diagnostic channel.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("handshake failed: %s: %v", e.Reason, e.Err)
	}
	return "handshake failed: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// FetchError reports a failed query or info step. The caller's catalogue is
// left as it was before the call.
type FetchError struct {
	Step string
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s failed: %v", e.Step, e.Err)
	}
	return "fetch " + e.Step + " failed"
}

func (e *FetchError) Unwrap() error { return e.Err }

// LaunchError reports a failed terminal-launch call. Body carries the
// service's response body verbatim so the user sees exactly what the
// service said.
type LaunchError struct {
	Status int
	Body   string
	Err    error
}

func (e *LaunchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("terminal launch failed: %v", e.Err)
	}
	if e.Body != "" {
		return e.Body
	}
	return fmt.Sprintf("terminal launch failed with status %d", e.Status)
}

func (e *LaunchError) Unwrap() error { return e.Err }
