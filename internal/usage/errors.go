package usage

import "errors"

// ErrLimitReached is returned by Consume once the monthly generation
// allowance is used up.
var ErrLimitReached = errors.New("monthly generation limit reached")
