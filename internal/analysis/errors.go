package analysis

import "errors"

// Analysis errors. The message text matters: the classifier decides queue
// fallback by matching these phrases in failure messages.
var (
	ErrInsufficientContent         = errors.New("insufficient content for analysis")
	ErrInvalidJSON                 = errors.New("invalid json response from provider")
	ErrInvalidResponseStructure    = errors.New("invalid response structure")
	ErrInvalidAPIResponseStructure = errors.New("invalid api response structure")
)
