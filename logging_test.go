package contract_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brev/contract"
	"github.com/brev/contract/apitest"
)

func TestLogger_records_request_and_correlation_id(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	r := contract.New()
	require.NoError(t, r.Handle(&contract.Contract{
		Method: http.MethodGet,
		Path:   "/ping",
	}, func(context.Context, *contract.RequestContext) (*contract.Result, error) {
		return &contract.Result{Body: map[string]any{"ok": true}}, nil
	}))
	r.Use(contract.Logger(logger))

	client := apitest.NewClient(t, r)
	resp := client.Get(t, "/ping", map[string]string{contract.CorrelationHeader: "log-test-id"})
	require.Equal(t, http.StatusOK, resp.Status)

	out := buf.String()
	assert.Contains(t, out, "method=GET")
	assert.Contains(t, out, "path=/ping")
	assert.Contains(t, out, "status=200")
	assert.Contains(t, out, "correlation_id=log-test-id")
}
