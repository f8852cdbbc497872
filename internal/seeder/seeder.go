package seeder

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/alim-webecc/ha-tms/internal/database"
	"github.com/alim-webecc/ha-tms/internal/entity"
	"github.com/alim-webecc/ha-tms/internal/repository/sequence"
)

// Module exposes the seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

// Orders seeds example freight orders if the table is empty.
func (s *Seeder) Orders(ctx context.Context) error {
	count, err := s.db.NewSelect().Model((*entity.Order)(nil)).Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		if s.logger != nil {
			s.logger.Info("orders already present, skipping seed", zap.Int("count", count))
		}
		return nil
	}

	now := time.Now().UTC()
	samples := []entity.Order{
		{
			Status:        entity.StatusOpen,
			Shipper:       strPtr("Spedition Nord GmbH"),
			Carrier:       strPtr("Trans-Rhein Logistik"),
			FromZip:       strPtr("20095"),
			ToZip:         strPtr("50667"),
			PickupDate:    datePtr(2025, time.March, 10),
			DropoffDate:   datePtr(2025, time.March, 11),
			PriceCustomer: floatPtr(1250.00),
			PriceCarrier:  floatPtr(980.00),
			Ldm:           floatPtr(13.6),
			WeightKg:      floatPtr(24000),
			TenantID:      "TR",
			CreatedBy:     strPtr("admin"),
		},
		{
			Status:        entity.StatusInProgress,
			Shipper:       strPtr("Hafen Umschlag AG"),
			Carrier:       strPtr("Süd Express"),
			FromZip:       strPtr("80331"),
			ToZip:         strPtr("70173"),
			PickupDate:    datePtr(2025, time.March, 12),
			DropoffDate:   datePtr(2025, time.March, 12),
			PriceCustomer: floatPtr(640.50),
			PriceCarrier:  floatPtr(510.00),
			Ldm:           floatPtr(4.8),
			WeightKg:      floatPtr(8600),
			Remark:        strPtr("Eilfracht"),
			TenantID:      "TR",
			CreatedBy:     strPtr("admin"),
		},
		{
			Status:   entity.StatusClosed,
			Shipper:  strPtr("Ostsee Cargo"),
			FromZip:  strPtr("18055"),
			ToZip:    strPtr("10115"),
			TenantID: "TR",
			CreatedBy: strPtr("admin"),
		},
	}

	err = s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for i := range samples {
			order := &samples[i]
			number, err := sequence.NextIn(ctx, tx)
			if err != nil {
				return err
			}
			order.OrderNumber = number
			order.CreatedAt = now
			order.UpdatedAt = now

			if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("seeded orders", zap.Int("count", len(samples)))
	}
	return nil
}
