package mirror

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"waiasella/backend/internal/domain"
)

type PostgresSink struct {
	db *sql.DB
}

func NewPostgres(ctx context.Context, databaseURL string) (*PostgresSink, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sale_line_items (
			id                BIGSERIAL PRIMARY KEY,
			transaction_id    TEXT NOT NULL,
			sold_at           TIMESTAMPTZ NOT NULL,
			item_id           TEXT NOT NULL,
			item_name         TEXT NOT NULL,
			quantity          INTEGER NOT NULL,
			unit_price_cents  BIGINT NOT NULL,
			unit_cost_cents   BIGINT NOT NULL,
			line_subtotal     BIGINT NOT NULL,
			line_profit       BIGINT NOT NULL,
			tx_subtotal       BIGINT NOT NULL,
			tx_tax            BIGINT NOT NULL,
			tx_total          BIGINT NOT NULL,
			tx_profit         BIGINT NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &PostgresSink{db: db}, nil
}

func (s *PostgresSink) Close() error {
	return s.db.Close()
}

func (s *PostgresSink) Enabled() bool {
	return true
}

// SaveSale inserts one row per line item inside a single database
// transaction so a partially-mirrored sale never appears remotely.
func (s *PostgresSink) SaveSale(ctx context.Context, rows []domain.LineItemRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sale_line_items (
				transaction_id, sold_at, item_id, item_name, quantity,
				unit_price_cents, unit_cost_cents, line_subtotal, line_profit,
				tx_subtotal, tx_tax, tx_total, tx_profit
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		`,
			row.TransactionID, row.Date, row.ItemID, row.ItemName, row.Quantity,
			row.UnitPriceCents, row.UnitCostCents, row.LineSubtotal, row.LineProfit,
			row.TxSubtotal, row.TxTax, row.TxTotal, row.TxProfit,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}
