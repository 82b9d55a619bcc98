package threads

import "net/http"

// Graph API error codes that signal throttling or a temporary outage.
var transientCodes = map[int]struct{}{
	1:    {}, // unknown error, possibly temporary
	2:    {}, // service temporarily unavailable
	4:    {}, // application request limit
	17:   {}, // user request limit
	32:   {}, // page request limit
	341:  {}, // application limit
	613:  {}, // calls within one hour exceeded
	9007: {}, // media not ready for publishing
}

// Subcodes emitted while uploaded media is still being processed.
var mediaNotReadySubcodes = map[int]struct{}{
	2207008: {},
	2207026: {},
	2207027: {},
}

const (
	codeInvalidParameter  = 100
	subcodeObjectNotFound = 33
)

// Classify maps a failed response to its retry class. A status of zero means
// the request never produced a response (network failure or timeout).
func Classify(status int, payload APIError) Class {
	if payload.IsTransient {
		return ClassTransient
	}
	if _, ok := transientCodes[payload.Code]; ok {
		return ClassTransient
	}
	if _, ok := mediaNotReadySubcodes[payload.Subcode]; ok {
		return ClassTransient
	}

	switch {
	case status == 0,
		status == http.StatusRequestTimeout,
		status == http.StatusTooManyRequests,
		status >= http.StatusInternalServerError:
		return ClassTransient
	case status == http.StatusNotFound,
		payload.Code == codeInvalidParameter && payload.Subcode == subcodeObjectNotFound:
		return ClassNotFound
	case status == http.StatusBadRequest && payload.Code == codeInvalidParameter:
		return ClassValidation
	}
	return ClassPermanent
}
