package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
	"github.com/angelmondragon/tandemflight-backend/pkg/types"
)

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func TestWriteSuccessStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccessStatus(rec, http.StatusCreated, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, map[string]any{"hello": "world"}, body.Data)
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    pkgerrors.Code
		wantMessage string
		wantDetails map[string]any
	}{
		{
			name:        "validation keeps message and details",
			err:         pkgerrors.New(pkgerrors.CodeValidation, "bad input").WithDetails(map[string]string{"field": "party_size"}),
			wantStatus:  http.StatusBadRequest,
			wantCode:    pkgerrors.CodeValidation,
			wantMessage: "bad input",
			wantDetails: map[string]any{"field": "party_size"},
		},
		{
			name:        "conflict reason survives wrapping",
			err:         fmt.Errorf("reassign: %w", pkgerrors.Conflict(pkgerrors.ConflictStaleVersion, "stale booking version")),
			wantStatus:  http.StatusConflict,
			wantCode:    pkgerrors.CodeConflict,
			wantMessage: "stale booking version",
			wantDetails: map[string]any{"reason": pkgerrors.ConflictStaleVersion},
		},
		{
			name:        "untyped errors are hidden",
			err:         errors.New("boom: connection string leaked"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    pkgerrors.CodeInternal,
			wantMessage: "internal server error",
		},
		{
			name:        "dependency message is replaced",
			err:         pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("dial tcp"), "redis down"),
			wantStatus:  http.StatusServiceUnavailable,
			wantCode:    pkgerrors.CodeDependency,
			wantMessage: "dependency unavailable",
		},
		{
			name:        "forbidden drops details",
			err:         pkgerrors.New(pkgerrors.CodeForbidden, "not your booking").WithDetails(map[string]any{"owner": "x"}),
			wantStatus:  http.StatusForbidden,
			wantCode:    pkgerrors.CodeForbidden,
			wantMessage: "not your booking",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(context.Background(), nil, rec, tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)
			var body errorBody
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, string(tc.wantCode), body.Error.Code)
			assert.Equal(t, tc.wantMessage, body.Error.Message)
			assert.Equal(t, tc.wantDetails, body.Error.Details)
		})
	}
}

func TestWriteErrorLogsLevelByStatus(t *testing.T) {
	var out bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "responses-test", Format: logger.FormatJSON, Output: &out})

	WriteError(context.Background(), logg, httptest.NewRecorder(), pkgerrors.New(pkgerrors.CodeNotFound, "booking not found"))
	assert.Contains(t, out.String(), `"level":"warn"`)
	assert.Contains(t, out.String(), `"status":404`)

	out.Reset()
	WriteError(context.Background(), logg, httptest.NewRecorder(), errors.New("boom"))
	assert.Contains(t, out.String(), `"level":"error"`)
}
