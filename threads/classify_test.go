package threads

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload APIError
		want    Class
	}{
		{"network failure", 0, APIError{}, ClassTransient},
		{"server error", 500, APIError{}, ClassTransient},
		{"bad gateway", 502, APIError{Message: "upstream"}, ClassTransient},
		{"service unavailable", 503, APIError{}, ClassTransient},
		{"too many requests", 429, APIError{}, ClassTransient},
		{"request timeout", 408, APIError{}, ClassTransient},
		{"flagged transient", 400, APIError{Code: 190, IsTransient: true}, ClassTransient},
		{"app rate limit", 400, APIError{Code: 4}, ClassTransient},
		{"user rate limit", 400, APIError{Code: 17}, ClassTransient},
		{"media not ready code", 400, APIError{Code: 9007}, ClassTransient},
		{"media not ready subcode", 400, APIError{Code: 24, Subcode: 2207027}, ClassTransient},
		{"not found status", 404, APIError{}, ClassNotFound},
		{"object does not exist", 400, APIError{Code: 100, Subcode: 33}, ClassNotFound},
		{"invalid parameter", 400, APIError{Code: 100}, ClassValidation},
		{"expired token", 401, APIError{Type: "OAuthException", Code: 190}, ClassPermanent},
		{"forbidden", 403, APIError{Code: 10}, ClassPermanent},
		{"plain bad request", 400, APIError{}, ClassPermanent},
		{"conflict", 409, APIError{}, ClassPermanent},
		{"unexpected success status", 200, APIError{}, ClassPermanent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.status, tt.payload); got != tt.want {
				t.Errorf("Classify(%d, %+v) = %s, want %s", tt.status, tt.payload, got, tt.want)
			}
		})
	}
}

func TestRemoteErrorMatchesSentinels(t *testing.T) {
	tests := []struct {
		class Class
		match error
	}{
		{ClassTransient, ErrTransient},
		{ClassPermanent, ErrPermanent},
		{ClassNotFound, ErrNotFound},
		{ClassValidation, ErrValidation},
	}
	all := []error{ErrTransient, ErrPermanent, ErrNotFound, ErrValidation}
	for _, tt := range tests {
		t.Run(tt.class.String(), func(t *testing.T) {
			err := error(&RemoteError{Class: tt.class, Method: "GET", Path: "me"})
			for _, sentinel := range all {
				if got, want := errors.Is(err, sentinel), sentinel == tt.match; got != want {
					t.Errorf("errors.Is(%s, %v) = %v, want %v", tt.class, sentinel, got, want)
				}
			}
		})
	}
}

func TestRemoteErrorMessageCarriesPayload(t *testing.T) {
	err := &RemoteError{
		Class:      ClassPermanent,
		Method:     "POST",
		Path:       "42/threads",
		StatusCode: 401,
		Payload:    APIError{Message: "Invalid OAuth access token", Type: "OAuthException", Code: 190, FBTraceID: "AbC"},
	}
	want := "POST 42/threads (permanent): status 401; OAuthException: Invalid OAuth access token: code=190: trace=AbC"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q\nwant      %q", got, want)
	}
}

func TestPublishFailedUnwrapsCause(t *testing.T) {
	cause := &RemoteError{Class: ClassTransient, Method: "POST", Path: "42/threads", StatusCode: 503}
	err := error(&PublishFailedError{Attempts: 3, Err: cause})

	if !errors.Is(err, ErrPublishFailed) || !errors.Is(err, ErrTransient) {
		t.Errorf("expected both ErrPublishFailed and ErrTransient to match %v", err)
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should see the transient cause")
	}
}
