package app

import (
	"context"
	"fmt"

	"mams/internal/core/apperror"
	appctx "mams/internal/core/context"
	"mams/internal/core/types"
	"mams/internal/domain/base"
	"mams/internal/domain/ledger"
	v1 "mams/internal/infrastructure/http/v1"
	"mams/pkg/logger"
)

// DefaultBases are the bases of the reference deployment.
var DefaultBases = []base.Base{
	{Name: "Alpha", Code: "ALPHA"},
	{Name: "Beta", Code: "BETA"},
	{Name: "Charley", Code: "CHARLEY"},
	{Name: "Delta", Code: "DELTA"},
}

// demoStock is purchased at every newly created base when demo data is requested.
var demoStock = []struct {
	Item     string
	Quantity int64
	Price    string
}{
	{"Rifle", 100, "450.00"},
	{"Ammunition 5.56mm", 5000, "0.35"},
	{"Helmet", 120, "85.00"},
	{"Radio", 40, "310.00"},
	{"Fuel (L)", 2000, "1.20"},
}

// SeedResult counts what Seed created.
type SeedResult struct {
	Bases     int
	Purchases int
}

// Seed creates the default bases that do not exist yet. With demo set, each
// newly created base also receives the demo purchases.
func Seed(ctx context.Context, svc v1.Services, demo bool) (SeedResult, error) {
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "mamsctl", Role: "admin"})

	var res SeedResult
	for _, tmpl := range DefaultBases {
		b := tmpl
		err := svc.Bases.Create(ctx, &b)
		if apperror.HasCode(err, apperror.CodeDuplicate) {
			logger.Info(ctx, "base already present", "name", b.Name)
			continue
		}
		if err != nil {
			return res, fmt.Errorf("create base %s: %w", b.Name, err)
		}
		res.Bases++

		if !demo {
			continue
		}
		for _, s := range demoStock {
			price, err := types.NewMoneyFromString(s.Price)
			if err != nil {
				return res, err
			}
			if _, err := svc.Purchases.Create(ctx, ledger.PurchaseInput{
				Item:     s.Item,
				Quantity: s.Quantity,
				Price:    price,
				BaseID:   &b.ID,
			}); err != nil {
				return res, fmt.Errorf("seed %s at %s: %w", s.Item, b.Name, err)
			}
			res.Purchases++
		}
	}
	return res, nil
}
