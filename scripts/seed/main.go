// Command seed runs a demo stock flow against an empty state and stores the
// result as a snapshot, so the API boots with data.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/odyssey-erp/stockflow/internal/app"
	"github.com/odyssey-erp/stockflow/internal/procurement"
	"github.com/odyssey-erp/stockflow/internal/returns"
	"github.com/odyssey-erp/stockflow/internal/snapshot"
	"github.com/odyssey-erp/stockflow/internal/store"
	"github.com/odyssey-erp/stockflow/internal/transfer"
)

func main() {
	ctx := context.Background()
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.SnapshotBackend == app.SnapshotNone {
		log.Fatal("SNAPSHOT_BACKEND must be redis or postgres")
	}
	locations, err := cfg.Locations()
	if err != nil {
		log.Fatalf("locations: %v", err)
	}
	mem := store.New(locations, store.WithItems(cfg.ItemMaster()))

	fmt.Println("→ Seeding purchase orders...")
	if err := seedPurchases(ctx, mem); err != nil {
		log.Fatalf("seed purchases: %v", err)
	}
	fmt.Println("→ Seeding transfers...")
	if err := seedTransfers(ctx, mem); err != nil {
		log.Fatalf("seed transfers: %v", err)
	}
	fmt.Println("→ Seeding returns...")
	if err := seedReturns(ctx, mem); err != nil {
		log.Fatalf("seed returns: %v", err)
	}

	backend, closeBackend, err := app.OpenSnapshotBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("open snapshot backend: %v", err)
	}
	defer closeBackend()
	id, err := snapshot.NewManager(mem, backend, nil).Save(ctx)
	if err != nil {
		log.Fatalf("save snapshot: %v", err)
	}
	fmt.Printf("✓ Snapshot %s written to %s\n", id, cfg.SnapshotBackend)
}

func day(n int) *time.Time {
	t := time.Date(2024, 3, n, 9, 0, 0, 0, time.UTC)
	return &t
}

func seedPurchases(ctx context.Context, mem *store.Memory) error {
	svc := procurement.NewService(mem, nil, nil)
	outlets := []string{"OutletA", "OutletB"}
	for i, outlet := range outlets {
		po, err := svc.Create(ctx, procurement.CreatePOInput{
			Outlet: outlet,
			Items: []procurement.LineInput{
				{SKU: "MILK2002", Qty: 20, UnitCost: 2 + float64(i)},
				{SKU: "BREAD1001", Qty: 30, UnitCost: 1.5},
			},
			CreatedAt: day(1),
		})
		if err != nil {
			return err
		}
		if _, err := svc.Submit(ctx, po.ID); err != nil {
			return err
		}
		if _, err := svc.Approve(ctx, po.ID, day(2)); err != nil {
			return err
		}
		if _, err := svc.Receive(ctx, po.ID, day(3)); err != nil {
			return err
		}
	}
	return nil
}

func seedTransfers(ctx context.Context, mem *store.Memory) error {
	svc := transfer.NewService(mem, nil, nil)
	to, err := svc.Create(ctx, transfer.CreateTOInput{
		Source:      "OutletB",
		Destination: "OutletA",
		Items:       []transfer.LineInput{{SKU: "MILK2002", Qty: 5}},
		CreatedAt:   day(4),
	})
	if err != nil {
		return err
	}
	if _, err := svc.Submit(ctx, to.ID); err != nil {
		return err
	}
	if _, err := svc.Approve(ctx, to.ID, day(4)); err != nil {
		return err
	}
	if _, err := svc.Fulfill(ctx, to.ID, map[string]int64{"MILK2002": 5}, day(5)); err != nil {
		return err
	}
	_, err = svc.Receive(ctx, to.ID, map[string]int64{"MILK2002": 5}, day(6))
	return err
}

func seedReturns(ctx context.Context, mem *store.Memory) error {
	svc := returns.NewService(mem, nil)
	_, err := svc.Process(ctx, returns.ReturnInput{
		Outlet:     "OutletA",
		Items:      []returns.ItemInput{{SKU: "BREAD1001", Qty: 3, Reason: "expired"}},
		ReturnedAt: day(7),
	})
	return err
}
