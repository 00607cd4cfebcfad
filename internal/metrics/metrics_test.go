package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exploreiib/pharma-net/internal/ledger"
	"github.com/exploreiib/pharma-net/internal/services"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, OutcomeOK},
		{fmt.Errorf("%w: drug", services.ErrNotFound), OutcomeNotFound},
		{fmt.Errorf("%w: wrong org", services.ErrUnauthorized), OutcomeUnauthorized},
		{fmt.Errorf("%w: bad quantity", services.ErrValidation), OutcomeValidation},
		{fmt.Errorf("%w: delivered", services.ErrConflict), OutcomeConflict},
		{fmt.Errorf("failed to commit: %w", ledger.ErrConflict), OutcomeConflict},
		{context.DeadlineExceeded, OutcomeCanceled},
		{errors.New("disk full"), OutcomeError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err), "%v", tt.err)
	}
}

func TestHandlerExposesOperations(t *testing.T) {
	m := New()
	m.Observe("createPO", nil, 5*time.Millisecond)
	m.Observe("createPO", fmt.Errorf("%w: x", services.ErrValidation), time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `pharmanet_operations_total{operation="createPO",outcome="ok"} 1`))
	assert.True(t, strings.Contains(body, `pharmanet_operations_total{operation="createPO",outcome="validation"} 1`))
	assert.Contains(t, body, "pharmanet_operation_duration_seconds")
}
