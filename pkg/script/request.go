package script

import (
	"context"
	"errors"

	"digital.vasic.harness/pkg/assertion"
	"digital.vasic.harness/pkg/httpclient"
)

// Request describes an HTTP call whose decoded reply is a case's
// actual value.
type Request struct {
	Method string
	URL    string
	Body   string
	Header map[string]string
	Token  string
}

// Compute returns a computation that performs the call. A 2xx
// body is decoded as JSON when possible and used as trimmed text
// otherwise; other statuses are errors.
func (r Request) Compute(opts ...httpclient.ClientOption) assertion.Compute {
	if r.Token != "" {
		opts = append(opts, httpclient.WithToken(r.Token))
	}
	client := httpclient.NewClient(opts...)
	return func(ctx context.Context) (any, error) {
		if r.URL == "" {
			return nil, errors.New("empty request url")
		}
		return client.Fetch(ctx, httpclient.Request{
			Method: r.Method,
			URL:    r.URL,
			Body:   r.Body,
			Header: r.Header,
		})
	}
}
