package event_trace

import "errors"

// ErrInputDefect is returned for malformed trace data. The core never repairs input.
var ErrInputDefect = errors.New("input defect")
