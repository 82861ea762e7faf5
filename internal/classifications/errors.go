package classifications

import "errors"

// ErrUnknownStrategy indicates an unrecognized selection strategy name in
// configuration.
var ErrUnknownStrategy = errors.New("unknown selection strategy")
