package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/pkg/money"
)

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":         "0,00",
		"25":        "25,00",
		"1234567.5": "1.234.567,50",
		"-1000.125": "-1.000,13",
		"999.999":   "1.000,00",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatMoney(decimal.RequireFromString(in)), in)
	}
}

func TestRenderCut_GeneraPDF(t *testing.T) {
	now := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	opening := money.Quadrants{USDCash: decimal.NewFromInt(100)}
	cut := &entity.Cut{
		ID:            "cut-1",
		SessionID:     "s-1",
		Opening:       opening,
		Final:         opening.With(money.Quadrant{Currency: money.USD, Channel: money.Cash}, decimal.NewFromInt(130)),
		SalesCount:    3,
		SalesTotalUSD: decimal.NewFromInt(30),
		OpenedAt:      now.Add(-8 * time.Hour),
		ClosedBy:      "u1",
		ClosedAt:      now,
	}
	doc, err := NewMarotoCutRenderer("Bodega La Esquina").RenderCut(cut)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestRenderCut_Nulo(t *testing.T) {
	_, err := NewMarotoCutRenderer("x").RenderCut(nil)
	assert.Error(t, err)
}
