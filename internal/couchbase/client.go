package couchbase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/couchbase/gocb/v2"
)

// DefaultTimeout bounds connecting and each query when Options carries no
// timeout.
const DefaultTimeout = 10 * time.Second

// Options describe how to reach a cluster.
type Options struct {
	ConnStr  string
	Username string
	Password string
	Timeout  time.Duration
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

// Rows is a lazy stream of query result rows. *gocb.QueryResult satisfies it.
type Rows interface {
	Next() bool
	Row(valuePtr any) error
	Err() error
	Close() error
}

// Executor runs statement text and returns its rows.
type Executor interface {
	Query(ctx context.Context, statement string) (Rows, error)
}

// Client is an Executor backed by a gocb cluster connection.
type Client struct {
	cluster *gocb.Cluster
	timeout time.Duration
}

// Connect opens a cluster connection and waits until the query service is
// ready.
func Connect(opts Options) (*Client, error) {
	if opts.ConnStr == "" {
		return nil, errors.New("couchbase: connection string is required")
	}
	timeout := opts.timeout()
	cluster, err := gocb.Connect(opts.ConnStr, gocb.ClusterOptions{
		Authenticator: gocb.PasswordAuthenticator{
			Username: opts.Username,
			Password: opts.Password,
		},
		TimeoutsConfig: gocb.TimeoutsConfig{
			ConnectTimeout: timeout,
			QueryTimeout:   timeout,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", opts.ConnStr, err)
	}
	err = cluster.WaitUntilReady(timeout, &gocb.WaitUntilReadyOptions{
		ServiceTypes: []gocb.ServiceType{gocb.ServiceTypeQuery},
	})
	if err != nil {
		cluster.Close(nil) //nolint:errcheck // already failing
		return nil, fmt.Errorf("wait for query service: %w", err)
	}
	return &Client{cluster: cluster, timeout: timeout}, nil
}

// Query runs an inlined statement. The caller must close the returned rows.
func (c *Client) Query(ctx context.Context, statement string) (Rows, error) {
	res, err := c.cluster.Query(statement, &gocb.QueryOptions{
		Context: ctx,
		Timeout: c.timeout,
		Adhoc:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return res, nil
}

// Close releases the cluster connection.
func (c *Client) Close() error {
	if c.cluster == nil {
		return nil
	}
	return c.cluster.Close(nil)
}
