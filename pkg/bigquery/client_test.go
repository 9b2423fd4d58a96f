package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/angelmondragon/tandemflight-backend/pkg/config"
)

type recordingInserter struct {
	batches [][]any
	failOn  int
	err     error
}

func (r *recordingInserter) Put(_ context.Context, src any) error {
	batch := src.([]any)
	r.batches = append(r.batches, batch)
	if r.err != nil && len(r.batches) == r.failOn {
		return r.err
	}
	return nil
}

func TestNewClientValidatesConfig(t *testing.T) {
	ctx := context.Background()
	_, err := NewClient(ctx, config.GCPConfig{}, config.BigQueryConfig{Dataset: "d", LifecycleTable: "t"}, nil)
	assert.ErrorIs(t, err, errProjectIDRequired)

	gcpCfg := config.GCPConfig{ProjectID: "p"}
	_, err = NewClient(ctx, gcpCfg, config.BigQueryConfig{LifecycleTable: "t"}, nil)
	assert.ErrorIs(t, err, errDatasetRequired)
	_, err = NewClient(ctx, gcpCfg, config.BigQueryConfig{Dataset: "d", LifecycleTable: "  "}, nil)
	assert.ErrorIs(t, err, errTableNameRequired)
}

func TestInsertLifecycleRowsChunks(t *testing.T) {
	rows := &recordingInserter{}
	c := &Client{table: "booking_lifecycle", batchSize: 3, rows: rows}

	require.NoError(t, c.InsertLifecycleRows(context.Background(), make([]any, 7)))
	require.Len(t, rows.batches, 3)
	assert.Len(t, rows.batches[0], 3)
	assert.Len(t, rows.batches[2], 1)

	require.NoError(t, c.InsertLifecycleRows(context.Background(), nil))
	assert.Len(t, rows.batches, 3, "empty input must not call the inserter")
}

func TestInsertLifecycleRowsStopsOnFailedChunk(t *testing.T) {
	rows := &recordingInserter{
		failOn: 1,
		err:    bigquery.PutMultiError{{RowIndex: 0}, {RowIndex: 1}},
	}
	c := &Client{table: "booking_lifecycle", batchSize: 2, rows: rows}

	err := c.InsertLifecycleRows(context.Background(), make([]any, 4))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 2 rows rejected")
	assert.Len(t, rows.batches, 1)
}

func TestClampBatch(t *testing.T) {
	assert.Equal(t, 1, clampBatch(0))
	assert.Equal(t, 1, clampBatch(-4))
	assert.Equal(t, 50, clampBatch(50))
	assert.Equal(t, maxInsertBatch, clampBatch(10_000))
}

func TestCheckExists(t *testing.T) {
	notFound := fmt.Errorf("wrapped: %w", &googleapi.Error{Code: http.StatusNotFound})
	assert.ErrorIs(t, checkExists(notFound), errMissing)

	forbidden := &googleapi.Error{Code: http.StatusForbidden}
	assert.ErrorIs(t, checkExists(forbidden), forbidden)
	assert.NoError(t, checkExists(nil))
	assert.False(t, isNotFound(errors.New("plain")))
}

func TestUninitializedClient(t *testing.T) {
	var c *Client
	assert.ErrorIs(t, c.InsertLifecycleRows(context.Background(), []any{1}), errClientNotInitialized)
	assert.ErrorIs(t, c.Ping(context.Background()), errClientNotInitialized)
	assert.NoError(t, c.Close())
}
