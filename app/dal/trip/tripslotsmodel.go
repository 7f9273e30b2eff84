package trip

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ TripSlotsModel = (*customTripSlotsModel)(nil)

var (
	tripSlotsFieldNames = []string{"`id`", "`trip_id`", "`slot`", "`payload`", "`filled`", "`locked`", "`updated_at`"}
	tripSlotsRows       = strings.Join(tripSlotsFieldNames, ",")
)

type (
	// TripSlotsModel stores one row per (trip, slot): the constraint payload
	// plus its filled/locked flags. History rides inside the payload.
	TripSlotsModel interface {
		Upsert(ctx context.Context, data *TripSlots) error
		Lock(ctx context.Context, tripId, slot string) error
		ListByTrip(ctx context.Context, tripId string) ([]*TripSlots, error)
	}

	customTripSlotsModel struct {
		conn  sqlx.SqlConn
		table string
	}

	TripSlots struct {
		Id        int64     `db:"id"`
		TripId    string    `db:"trip_id"`
		Slot      string    `db:"slot"`
		Payload   string    `db:"payload"`
		Filled    int64     `db:"filled"`
		Locked    int64     `db:"locked"`
		UpdatedAt time.Time `db:"updated_at"`
	}
)

// NewTripSlotsModel returns a model for the database table.
func NewTripSlotsModel(conn sqlx.SqlConn) TripSlotsModel {
	return &customTripSlotsModel{
		conn:  conn,
		table: "`trip_slots`",
	}
}

func (m *customTripSlotsModel) Upsert(ctx context.Context, data *TripSlots) error {
	if data.TripId == "" || data.Slot == "" {
		return ErrInvalidParam
	}
	query := fmt.Sprintf(
		"insert into %s (`trip_id`, `slot`, `payload`, `filled`, `locked`) values (?, ?, ?, ?, ?) "+
			"on duplicate key update `payload` = values(`payload`), `filled` = values(`filled`), `locked` = values(`locked`)",
		m.table,
	)
	_, err := m.conn.ExecCtx(ctx, query, data.TripId, data.Slot, data.Payload, data.Filled, data.Locked)
	return err
}

func (m *customTripSlotsModel) Lock(ctx context.Context, tripId, slot string) error {
	query := fmt.Sprintf("update %s set `locked` = 1 where `trip_id` = ? and `slot` = ?", m.table)
	res, err := m.conn.ExecCtx(ctx, query, tripId, slot)
	if err != nil {
		return err
	}
	return ensureRows(res)
}

func (m *customTripSlotsModel) ListByTrip(ctx context.Context, tripId string) ([]*TripSlots, error) {
	var rows []TripSlots
	query := fmt.Sprintf("select %s from %s where `trip_id` = ?", tripSlotsRows, m.table)
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, tripId); err != nil {
		return nil, err
	}
	res := make([]*TripSlots, 0, len(rows))
	for i := range rows {
		res = append(res, &rows[i])
	}
	return res, nil
}
