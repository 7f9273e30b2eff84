package trip

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ TripPlansModel = (*customTripPlansModel)(nil)

var (
	tripPlansFieldNames = []string{"`id`", "`trip_id`", "`brief_version`", "`payload`", "`created_at`"}
	tripPlansRows       = strings.Join(tripPlansFieldNames, ",")
)

type (
	// TripPlansModel keeps every generated proposal; reads return the
	// latest one for the trip.
	TripPlansModel interface {
		Insert(ctx context.Context, data *TripPlans) (sql.Result, error)
		FindLatest(ctx context.Context, tripId string) (*TripPlans, error)
	}

	customTripPlansModel struct {
		conn  sqlx.SqlConn
		table string
	}

	TripPlans struct {
		Id           string    `db:"id"`
		TripId       string    `db:"trip_id"`
		BriefVersion int64     `db:"brief_version"`
		Payload      string    `db:"payload"`
		CreatedAt    time.Time `db:"created_at"`
	}
)

// NewTripPlansModel returns a model for the database table.
func NewTripPlansModel(conn sqlx.SqlConn) TripPlansModel {
	return &customTripPlansModel{
		conn:  conn,
		table: "`trip_plans`",
	}
}

func (m *customTripPlansModel) Insert(ctx context.Context, data *TripPlans) (sql.Result, error) {
	query := fmt.Sprintf("insert into %s (`id`, `trip_id`, `brief_version`, `payload`) values (?, ?, ?, ?)", m.table)
	return m.conn.ExecCtx(ctx, query, data.Id, data.TripId, data.BriefVersion, data.Payload)
}

func (m *customTripPlansModel) FindLatest(ctx context.Context, tripId string) (*TripPlans, error) {
	var resp TripPlans
	query := fmt.Sprintf("select %s from %s where `trip_id` = ? order by `created_at` desc, `id` desc limit 1", tripPlansRows, m.table)
	err := m.conn.QueryRowCtx(ctx, &resp, query, tripId)
	switch err {
	case nil:
		return &resp, nil
	case sqlx.ErrNotFound:
		return nil, ErrNotFound
	default:
		return nil, err
	}
}
