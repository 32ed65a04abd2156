package definition

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/taskflow/internal/actions"
	"github.com/hugo-lorenzo-mato/taskflow/internal/core"
	"github.com/hugo-lorenzo-mato/taskflow/internal/engine"
)

func TestShippedExamples(t *testing.T) {
	doc, err := Load("../../examples/order_processing.yaml")
	require.NoError(t, err)

	workflows, err := doc.Build(actions.Default())
	require.NoError(t, err)

	eng := engine.New()
	for _, wf := range workflows {
		require.True(t, engine.Analyze(wf).OK(), wf.Name)
		eng.RegisterWorkflow(wf)
	}

	t.Run("order_processing", func(t *testing.T) {
		r, err := eng.ExecuteWorkflow(context.Background(), "order_processing", nil)
		require.NoError(t, err)
		assert.True(t, r.Succeeded())
		assert.Equal(t, map[string]map[string]any{
			"validate": {"status": "completed", "result": map[string]any{"valid": true}, "error": nil},
			"payment":  {"status": "completed", "result": map[string]any{"payment_id": "pay_123"}, "error": nil},
			"fulfill":  {"status": "completed", "result": map[string]any{"shipped": true}, "error": nil},
		}, r.AsMap())
	})

	t.Run("order_pricing", func(t *testing.T) {
		def, ok := doc.Lookup("order_pricing")
		require.True(t, ok)

		rc := core.NewRunContext(def.Context)
		r, err := eng.ExecuteWorkflow(context.Background(), "order_pricing", rc)
		require.NoError(t, err)
		require.True(t, r.Succeeded())

		subtotal, _ := r.Get("subtotal")
		assert.Equal(t, 25, subtotal.Result)
		total, _ := rc.Get("total")
		assert.InDelta(t, 29.99, total, 1e-9)
		free, _ := r.Get("free_shipping")
		assert.Equal(t, false, free.Result)
		receipt, _ := r.Get("receipt")
		assert.Contains(t, receipt.Result, "ada pays 29.99")
	})
}
