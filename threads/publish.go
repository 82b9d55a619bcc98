package threads

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/blacktop/threadpost/internal/logutil"
	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultMaxAttempts is the number of container creation attempts.
	DefaultMaxAttempts = 3
	// DefaultRetryDelay is the fixed wait between container creation attempts.
	DefaultRetryDelay = 3 * time.Second
)

// RetryPolicy bounds retries of container creation. Zero fields take the defaults.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Delay <= 0 {
		p.Delay = DefaultRetryDelay
	}
	return p
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOffContext {
	constant := backoff.NewConstantBackOff(p.Delay)
	return backoff.WithContext(backoff.WithMaxRetries(constant, uint64(p.MaxAttempts-1)), ctx)
}

type publishBody struct {
	CreationID string `json:"creation_id"`
}

// createContainer is step one of the publish protocol.
func (c *Client) createContainer(ctx context.Context, userID string, body containerBody) (string, error) {
	req := Request{Method: http.MethodPost, Path: userID + "/threads", Body: body}

	var (
		attempts    int
		lastErr     error
		containerID string
	)
	operation := func() error {
		attempts++
		var resp idResponse
		err := c.transport.Do(ctx, req, &resp)
		if err == nil && resp.ID == "" {
			err = &RemoteError{Class: ClassPermanent, Method: req.Method, Path: req.Path, Err: errors.New("response carried no container id")}
		}
		if err != nil {
			lastErr = err
			if !IsRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		containerID = resp.ID
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logutil.Warnf("create container failed (attempt %d/%d), retrying in %s: %v", attempts, c.retry.MaxAttempts, wait, err)
	}

	if err := backoff.RetryNotify(operation, c.retry.backOff(ctx), notify); err != nil {
		if IsRetryable(lastErr) {
			logutil.Errorf("create container gave up after %d attempts: %v", attempts, lastErr)
			return "", &PublishFailedError{Attempts: attempts, Err: lastErr}
		}
		if lastErr != nil {
			return "", lastErr
		}
		return "", err
	}
	return containerID, nil
}

// publishContainer is step two of the publish protocol and is never retried.
func (c *Client) publishContainer(ctx context.Context, userID, containerID string) (string, error) {
	req := Request{
		Method: http.MethodPost,
		Path:   userID + "/threads_publish",
		Body:   publishBody{CreationID: containerID},
	}
	var resp idResponse
	if err := c.transport.Do(ctx, req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &RemoteError{Class: ClassPermanent, Method: req.Method, Path: req.Path, Err: errors.New("response carried no post id")}
	}
	return resp.ID, nil
}
