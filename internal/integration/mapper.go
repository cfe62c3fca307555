package integration

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/stockflow/internal/inventory"
	"github.com/odyssey-erp/stockflow/internal/procurement"
)

func monetary(qty int64, unitCost float64) decimal.Decimal {
	return decimal.NewFromInt(qty).Mul(decimal.NewFromFloat(unitCost)).Round(2)
}

func grnValue(lines []procurement.GRNLineEvent) float64 {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(monetary(line.Qty, line.UnitCost))
	}
	return total.InexactFloat64()
}

func valueDelta(before, after inventory.Balance) float64 {
	return monetary(after.Qty, after.UnitCost).Sub(monetary(before.Qty, before.UnitCost)).InexactFloat64()
}
