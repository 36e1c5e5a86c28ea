package analysis

import "strings"

// Reason is the queue reason recorded for a classified AI failure.
type Reason string

const (
	ReasonInsufficientContent         Reason = "ai_insufficient_content"
	ReasonInvalidJSON                 Reason = "ai_invalid_json"
	ReasonInvalidResponseStructure    Reason = "ai_invalid_response_structure"
	ReasonInvalidAPIResponseStructure Reason = "ai_invalid_api_response_structure"
	ReasonFailedUnknown               Reason = "ai_failed_unknown"
)

// structural pairs a failure phrase with its queue reason, checked in order.
// The generic structure phrase is not a substring of the api variant, so each
// matches only its own message family.
var structural = []struct {
	phrase string
	reason Reason
}{
	{"insufficient content", ReasonInsufficientContent},
	{"invalid json", ReasonInvalidJSON},
	{"invalid response structure", ReasonInvalidResponseStructure},
	{"invalid api response structure", ReasonInvalidAPIResponseStructure},
}

// ShouldQueueForOCR reports whether an AI failure message indicates the
// document's text was unusable, making it a candidate for OCR fallback.
// Transport failures (timeouts, rate limits, auth) and empty messages never
// queue.
func ShouldQueueForOCR(message string) bool {
	_, ok := match(message)
	return ok
}

// ClassifyQueueReason returns the queue reason for a structural AI failure
// message, and false when the message does not indicate one.
func ClassifyQueueReason(message string) (Reason, bool) {
	return match(message)
}

// ClassifyStructural classifies a failure message already known to be
// structural, falling back to ReasonFailedUnknown for unrecognized phrasing.
func ClassifyStructural(message string) Reason {
	if reason, ok := match(message); ok {
		return reason
	}
	return ReasonFailedUnknown
}

func match(message string) (Reason, bool) {
	message = strings.ToLower(strings.TrimSpace(message))
	if message == "" {
		return "", false
	}

	for _, s := range structural {
		if strings.Contains(message, s.phrase) {
			return s.reason, true
		}
	}
	return "", false
}
