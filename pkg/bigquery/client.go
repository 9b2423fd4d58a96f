// Package bigquery streams booking lifecycle rows into the analytics dataset.
package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/angelmondragon/tandemflight-backend/pkg/config"
	"github.com/angelmondragon/tandemflight-backend/pkg/gcp"
	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
)

const (
	metadataCheckTimeout = 10 * time.Second
	maxInsertBatch       = 500
)

var (
	errProjectIDRequired    = errors.New("gcp project id is required")
	errDatasetRequired      = errors.New("bigquery dataset is required")
	errTableNameRequired    = errors.New("bigquery table name is required")
	errClientNotInitialized = errors.New("bigquery client not initialized")
)

type inserter interface {
	Put(ctx context.Context, src any) error
}

type Client struct {
	client    *bigquery.Client
	dataset   *bigquery.Dataset
	table     string
	batchSize int
	rows      inserter
}

// NewClient connects and fails unless the dataset and lifecycle table exist.
func NewClient(ctx context.Context, gcpCfg config.GCPConfig, cfg config.BigQueryConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcpCfg.ProjectID)
	datasetID := strings.TrimSpace(cfg.Dataset)
	table := strings.TrimSpace(cfg.LifecycleTable)
	switch {
	case projectID == "":
		return nil, errProjectIDRequired
	case datasetID == "":
		return nil, errDatasetRequired
	case table == "":
		return nil, errTableNameRequired
	}
	return newClient(ctx, projectID, datasetID, table, cfg.InsertBatchSize, logg, gcp.ClientOptions(gcpCfg)...)
}

func newClient(ctx context.Context, projectID, datasetID, table string, batchSize int, logg *logger.Logger, opts ...option.ClientOption) (*Client, error) {
	raw, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}
	dataset := raw.Dataset(datasetID)
	c := &Client{
		client:    raw,
		dataset:   dataset,
		table:     table,
		batchSize: clampBatch(batchSize),
		rows:      dataset.Table(table).Inserter(),
	}
	if err := c.Ping(ctx); err != nil {
		_ = raw.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"dataset":    datasetID,
			"table":      table,
			"batch_size": c.batchSize,
		}), "bigquery client initialized")
	}
	return c, nil
}

func clampBatch(size int) int {
	return min(max(size, 1), maxInsertBatch)
}

// Ping checks that the dataset and lifecycle table are still reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.dataset == nil {
		return errClientNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, metadataCheckTimeout)
	defer cancel()

	if _, err := c.dataset.Metadata(ctx); err != nil {
		return fmt.Errorf("dataset %q: %w", c.dataset.DatasetID, checkExists(err))
	}
	if _, err := c.dataset.Table(c.table).Metadata(ctx); err != nil {
		return fmt.Errorf("table %q: %w", c.table, checkExists(err))
	}
	return nil
}

var errMissing = errors.New("does not exist")

func checkExists(err error) error {
	if isNotFound(err) {
		return errMissing
	}
	return err
}

// InsertLifecycleRows streams rows in chunks of the configured batch size. A
// failed chunk stops the insert; row level failures are summarised.
func (c *Client) InsertLifecycleRows(ctx context.Context, rows []any) error {
	if c == nil || c.rows == nil {
		return errClientNotInitialized
	}
	for chunk := range slices.Chunk(rows, clampBatch(c.batchSize)) {
		if err := c.rows.Put(ctx, chunk); err != nil {
			var multi bigquery.PutMultiError
			if errors.As(err, &multi) {
				return fmt.Errorf("insert into %s: %d of %d rows rejected: %w", c.table, len(multi), len(chunk), err)
			}
			return fmt.Errorf("insert into %s: %w", c.table, err)
		}
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
