package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Cesar4422/proyecto-mau/internal/domain"
	"github.com/Cesar4422/proyecto-mau/internal/policy"
)

func runDurationSamples(t *testing.T) uint64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, AllocationRunDuration.Write(m))
	return m.GetHistogram().GetSampleCount()
}

func TestAllocationMetrics_RecordOutcomeAndDuration(t *testing.T) {
	ledger := newFakeLedger()
	svc, _ := newAllocationService(ledger, policy.NameFIFO)

	ledger.tx.On("LockProduct", mock.Anything, int64(1)).Return(&domain.Product{ID: 1, Stock: 10}, nil)
	ledger.tx.On("ListOpenOrders", mock.Anything, int64(1)).Return([]domain.Order{}, nil)

	samples := runDurationSamples(t)
	noOrders := testutil.ToFloat64(AllocationRuns.WithLabelValues(resultNoOrders))

	_, err := svc.RunAllocation(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, samples+1, runDurationSamples(t))
	assert.Equal(t, noOrders+1, testutil.ToFloat64(AllocationRuns.WithLabelValues(resultNoOrders)))
}

func TestAllocationMetrics_Described(t *testing.T) {
	m := &dto.Metric{}
	require.NoError(t, AllocationRuns.WithLabelValues(resultAllocated).Write(m))

	labels := m.GetLabel()
	require.Len(t, labels, 1)
	assert.Equal(t, "result", labels[0].GetName())
	assert.Equal(t, resultAllocated, labels[0].GetValue())
}
