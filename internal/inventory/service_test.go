package inventory

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockflow/internal/catalog"
	"github.com/odyssey-erp/stockflow/internal/shared"
)

type memoryRepo struct {
	ledger  *Ledger
	returns *ReturnsLedger
	items   *catalog.ItemMaster
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{ledger: NewLedger(), returns: NewReturnsLedger(), items: catalog.NewItemMaster(catalog.DefaultSeed())}
}

func (r *memoryRepo) UpdateLedger(ctx context.Context, fn func(*Ledger, *catalog.ItemMaster) error) error {
	staged := r.ledger.Clone()
	if err := fn(staged, r.items); err != nil {
		return err
	}
	r.ledger = staged
	return nil
}

func (r *memoryRepo) ViewLedgers(ctx context.Context, fn func(*Ledger, *ReturnsLedger) error) error {
	return fn(r.ledger, r.returns)
}

type recordingIntegration struct {
	events []BalanceOverwrittenEvent
}

func (r *recordingIntegration) HandleBalanceOverwritten(ctx context.Context, evt BalanceOverwrittenEvent) error {
	r.events = append(r.events, evt)
	return nil
}

func TestAverageMovingCost(t *testing.T) {
	l := NewLedger()
	bal, err := l.Receive("OutletA", "MILK2002", 10, 2)
	require.NoError(t, err)
	require.Equal(t, int64(10), bal.Qty)
	require.InDelta(t, 2.0, bal.UnitCost, 1e-9)

	bal, err = l.Receive("OutletA", "MILK2002", 5, 3.5)
	require.NoError(t, err)
	require.Equal(t, int64(15), bal.Qty)
	require.InDelta(t, 2.5, bal.UnitCost, 1e-9)

	bal, err = l.Issue("OutletA", "MILK2002", 15)
	require.NoError(t, err)
	require.Zero(t, bal.Qty)
	require.InDelta(t, 2.5, bal.UnitCost, 1e-9)

	// zero balance carries no weight into the next merge
	bal, err = l.Receive("OutletA", "MILK2002", 4, 1)
	require.NoError(t, err)
	require.InDelta(t, 1.0, bal.UnitCost, 1e-9)
}

func TestWAVGInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	l := NewLedger()
	var totalQty int64
	var totalCost float64
	for i := 0; i < 200; i++ {
		qty := int64(rng.Intn(50) + 1)
		cost := float64(rng.Intn(10000)+1) / 100
		bal, err := l.Receive("Warehouse1", "BREAD1001", qty, cost)
		require.NoError(t, err)
		totalQty += qty
		totalCost += float64(qty) * cost
		require.Equal(t, totalQty, bal.Qty)
		require.InDelta(t, totalCost/float64(totalQty), bal.UnitCost, 1e-6)
	}
}

func TestReceiveRejectsOverflow(t *testing.T) {
	l := NewLedger()
	_, err := l.Receive("OutletA", "MILK2002", MaxQty-1, 2)
	require.NoError(t, err)

	_, err = l.Receive("OutletA", "MILK2002", 2, 2)
	require.ErrorIs(t, err, ErrQuantityOverflow)
	bal, ok := l.Get("OutletA", "MILK2002")
	require.True(t, ok)
	require.Equal(t, MaxQty-1, bal.Qty)
	require.InDelta(t, 2.0, bal.UnitCost, 1e-9)

	_, err = l.Receive("OutletA", "MILK2002", 1, 2)
	require.NoError(t, err)

	_, err = l.Set("OutletB", "MILK2002", MaxQty+1, 1)
	require.ErrorIs(t, err, ErrQuantityOverflow)

	r := NewReturnsLedger()
	_, err = r.Add("Warehouse1", "MILK2002", MaxQty, 1, "damaged")
	require.NoError(t, err)
	_, err = r.Add("Warehouse1", "MILK2002", 1, 1, "damaged")
	require.ErrorIs(t, err, ErrQuantityOverflow)
}

func TestMergeWAVGZeroQuantity(t *testing.T) {
	bal := MergeWAVG(Balance{}, 0, 3)
	require.Zero(t, bal.Qty)
	require.InDelta(t, 3.0, bal.UnitCost, 1e-9)
}

func TestNegativeStockGuard(t *testing.T) {
	l := NewLedger()
	l.Receive("Warehouse1", "BREAD1001", 4, 1.5)

	_, err := l.Issue("Warehouse1", "BREAD1001", 10)
	require.ErrorIs(t, err, ErrNegativeStock)
	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	require.Equal(t, int64(10), short.Required)
	require.Equal(t, int64(4), short.Available)
	require.Equal(t, int64(4), l.GetOrZero("Warehouse1", "BREAD1001").Qty)

	_, err = l.Issue("Warehouse1", "BREAD1001", 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = l.Issue("Warehouse2", "BREAD1001", 1)
	require.ErrorIs(t, err, ErrNegativeStock)
	require.Equal(t, 1, l.Len())
}

func TestIssueFloorClampsAtZero(t *testing.T) {
	l := NewLedger()
	l.Receive("OutletA", "MILK2002", 2, 2)
	before, ok := l.IssueFloor("OutletA", "MILK2002", 5)
	require.True(t, ok)
	require.Equal(t, int64(2), before.Qty)
	require.Zero(t, l.GetOrZero("OutletA", "MILK2002").Qty)

	_, ok = l.IssueFloor("OutletB", "MILK2002", 1)
	require.False(t, ok)
	_, exists := l.Get("OutletB", "MILK2002")
	require.False(t, exists)
}

func TestReturnsLedgerAccumulates(t *testing.T) {
	r := NewReturnsLedger()
	r.Add("Warehouse1", "MILK2002", 3, 2, "damaged")
	entry, err := r.Add("Warehouse1", "MILK2002", 1, 2.5, "damaged")
	require.NoError(t, err)
	require.Equal(t, int64(4), entry.Qty)
	require.InDelta(t, 2.5, entry.UnitCost, 1e-9)
	require.Equal(t, []string{"damaged", "damaged"}, entry.Reasons)

	cp := r.Clone()
	cp.Add("Warehouse1", "MILK2002", 1, 1, "expired")
	got, _ := r.Get("Warehouse1", "MILK2002")
	require.Len(t, got.Reasons, 2)
}

func TestSetBalanceBypassesWAVG(t *testing.T) {
	repo := newMemoryRepo()
	repo.ledger.Receive("OutletA", "MILK2002", 10, 2)
	integration := &recordingIntegration{}
	svc := NewService(repo, nil, integration)
	ctx := context.Background()

	bal, err := svc.SetBalance(ctx, AdjustmentInput{Location: "OutletA", SKU: "MILK2002", Qty: 3, UnitCost: 9})
	require.NoError(t, err)
	require.Equal(t, Balance{Location: "OutletA", SKU: "MILK2002", Qty: 3, UnitCost: 9}, bal)
	require.Len(t, integration.events, 1)
	require.Equal(t, int64(10), integration.events[0].Before.Qty)

	balances, err := svc.Balances(ctx, BalanceFilter{Location: "OutletA"})
	require.NoError(t, err)
	require.Len(t, balances, 1)
	require.InDelta(t, 27.0, balances[0].TotalCost(), 1e-9)
}

func TestSetBalanceValidation(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	cases := []AdjustmentInput{
		{Location: "Mars", SKU: "MILK2002", Qty: 1},
		{Location: "OutletA", SKU: "NOPE", Qty: 1},
		{Location: "OutletA", SKU: "MILK2002", Qty: -1},
		{Location: "OutletA", SKU: "MILK2002", Qty: 1, UnitCost: -1},
	}
	for _, tc := range cases {
		_, err := svc.SetBalance(ctx, tc)
		require.ErrorIs(t, err, shared.ErrValidation)
	}
	require.Zero(t, repo.ledger.Len())
}
