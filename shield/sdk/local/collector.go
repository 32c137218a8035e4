/*
	Copyright NetFoundry Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package local

import (
	"context"
	"net/http"
	"time"

	"github.com/Jeffail/gabs"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/michaelquigley/pfxlog"
	"github.com/pkg/errors"
)

// DefaultCollectorTimeout bounds upload retries when no timeout is configured, since backoff treats a zero
// MaxElapsedTime as unbounded.
const DefaultCollectorTimeout = 10 * time.Second

const (
	attributesPath = "/v1/sessions/{sessionId}/attributes"
	resultsPath    = "/v1/sessions/{sessionId}/results"
)

// CollectorError is returned when the collector rejects an upload.
type CollectorError struct {
	StatusCode int
	Body       string
}

func (e *CollectorError) Error() string {
	return "collector responded with HTTP status " + http.StatusText(e.StatusCode) + ": " + e.Body
}

// CollectorClient uploads attributes and results to a remote collector. Server errors and transport failures
// are retried with exponential backoff, client errors are not.
type CollectorClient struct {
	client         *resty.Client
	maxElapsedTime time.Duration
}

// NewCollectorClient creates a client for baseUrl. A maxElapsedTime of zero or less selects
// DefaultCollectorTimeout.
func NewCollectorClient(baseUrl string, maxElapsedTime time.Duration) *CollectorClient {
	if maxElapsedTime <= 0 {
		maxElapsedTime = DefaultCollectorTimeout
	}

	client := resty.New()
	client.SetBaseURL(baseUrl)
	client.SetHeader("Content-Type", "application/json")

	return &CollectorClient{
		client:         client,
		maxElapsedTime: maxElapsedTime,
	}
}

func (c *CollectorClient) PostAttributes(ctx context.Context, sessionId, screenName string, attrs map[string]string) error {
	body := gabs.New()
	_, _ = body.Set(sessionId, "sessionId")
	_, _ = body.Set(screenName, "screenName")
	for k, v := range attrs {
		_, _ = body.Set(v, "attributes", k)
	}

	return c.post(ctx, attributesPath, sessionId, body.Bytes())
}

func (c *CollectorClient) PostResult(ctx context.Context, sessionId string, result *gabs.Container) error {
	return c.post(ctx, resultsPath, sessionId, result.Bytes())
}

func (c *CollectorClient) post(ctx context.Context, path, sessionId string, body []byte) error {
	log := pfxlog.Logger().WithField("sessionId", sessionId).WithField("path", path)

	operation := func() error {
		resp, err := c.client.R().
			SetContext(ctx).
			SetPathParam("sessionId", sessionId).
			SetBody(body).
			Post(path)

		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			log.WithError(err).Debug("collector upload failed, retrying")
			return err
		}

		if resp.IsError() {
			collectorErr := &CollectorError{
				StatusCode: resp.StatusCode(),
				Body:       resp.String(),
			}

			if resp.StatusCode() < http.StatusInternalServerError {
				return backoff.Permanent(collectorErr)
			}
			log.WithError(collectorErr).Debug("collector upload failed, retrying")
			return collectorErr
		}

		return nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 50 * time.Millisecond
	expBackoff.MaxInterval = 2 * time.Second
	expBackoff.MaxElapsedTime = c.maxElapsedTime

	if err := backoff.Retry(operation, backoff.WithContext(expBackoff, ctx)); err != nil {
		return errors.Wrapf(err, "unable to upload to collector %s", path)
	}
	return nil
}
