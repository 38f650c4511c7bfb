// Package graph mirrors typed links into Memgraph/Neo4j over Bolt.
package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/fern/pkg/tracing"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
}

func (c Config) URI() string {
	return fmt.Sprintf("bolt://%s:%d", c.Host, c.Port)
}

// Client owns the Bolt driver. Every call opens a short-lived session.
type Client struct {
	driver neo4j.DriverWithContext
	logger ectologger.Logger
}

func NewClient(cfg Config, logger ectologger.Logger) (*Client, error) {
	auth := neo4j.NoAuth()
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI(), auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph driver: %w", err)
	}
	return &Client{driver: driver, logger: logger}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func (c *Client) VerifyConnectivity(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

type work func(tx neo4j.ManagedTransaction) (any, error)

func (c *Client) execute(ctx context.Context, name string, mode neo4j.AccessMode, fn work) (any, error) {
	ctx, span := tracing.StartSpan(ctx, name)
	defer span.End()

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode})
	defer session.Close(ctx)

	if mode == neo4j.AccessModeRead {
		return session.ExecuteRead(ctx, neo4j.ManagedTransactionWork(fn))
	}
	return session.ExecuteWrite(ctx, neo4j.ManagedTransactionWork(fn))
}

func (c *Client) ExecuteWrite(ctx context.Context, fn func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	return c.execute(ctx, "graph.Client.ExecuteWrite", neo4j.AccessModeWrite, fn)
}

func (c *Client) ExecuteRead(ctx context.Context, fn func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	return c.execute(ctx, "graph.Client.ExecuteRead", neo4j.AccessModeRead, fn)
}

// EnsureIndexes creates a label index on id for every label. Memgraph rejects
// index DDL inside an explicit transaction, so each runs as auto-commit.
func (c *Client) EnsureIndexes(ctx context.Context, labels ...string) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Client.EnsureIndexes")
	defer span.End()

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	for _, label := range labels {
		result, err := session.Run(ctx, indexStatement(label), nil)
		if err == nil {
			_, err = result.Consume(ctx)
		}
		if err != nil {
			c.logger.WithContext(ctx).WithError(err).WithField("label", label).Error("failed to create graph index")
			return fmt.Errorf("failed to index :%s(id): %w", label, err)
		}
	}
	return nil
}

func indexStatement(label string) string {
	return fmt.Sprintf("CREATE INDEX ON :%s(id)", sanitizeLabel(label))
}
