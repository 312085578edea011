package synoptic

import "errors"

var ErrInvalidConfig = errors.New("invalid config")
