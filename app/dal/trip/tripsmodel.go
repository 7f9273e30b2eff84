package trip

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlc"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ TripsModel = (*customTripsModel)(nil)

var (
	tripsFieldNames = []string{"`trip_id`", "`user_id`", "`status`", "`version`", "`pending`", "`archived`", "`created_at`", "`updated_at`"}
	tripsRows       = strings.Join(tripsFieldNames, ",")

	cacheTripsTripIdPrefix = "cache:trips:tripId:"
)

type (
	// TripsModel is an interface to be customized, add more methods here,
	// and implement the added methods in customTripsModel.
	TripsModel interface {
		Insert(ctx context.Context, data *Trips) (sql.Result, error)
		FindOne(ctx context.Context, tripId string) (*Trips, error)
		// UpdateState bumps status, version and the pending payload in one
		// statement; the version guard rejects lost updates.
		UpdateState(ctx context.Context, tripId, status string, fromVersion, toVersion int64, pending sql.NullString) error
		Archive(ctx context.Context, tripId string) error
		ExecWithTransaction(ctx context.Context, fn func(context.Context, sqlx.Session) error) error
	}

	customTripsModel struct {
		sqlc.CachedConn
		table string
	}

	Trips struct {
		TripId    string         `db:"trip_id"`
		UserId    string         `db:"user_id"`
		Status    string         `db:"status"`
		Version   int64          `db:"version"`
		Pending   sql.NullString `db:"pending"`
		Archived  int64          `db:"archived"`
		CreatedAt time.Time      `db:"created_at"`
		UpdatedAt time.Time      `db:"updated_at"`
	}
)

// NewTripsModel returns a model for the database table.
func NewTripsModel(conn sqlx.SqlConn, c cache.CacheConf, opts ...cache.Option) TripsModel {
	return &customTripsModel{
		CachedConn: sqlc.NewConn(conn, c, opts...),
		table:      "`trips`",
	}
}

func (m *customTripsModel) Insert(ctx context.Context, data *Trips) (sql.Result, error) {
	key := fmt.Sprintf("%s%v", cacheTripsTripIdPrefix, data.TripId)
	return m.ExecCtx(ctx, func(ctx context.Context, conn sqlx.SqlConn) (sql.Result, error) {
		query := fmt.Sprintf("insert into %s (`trip_id`, `user_id`, `status`, `version`, `pending`, `archived`) values (?, ?, ?, ?, ?, 0)", m.table)
		return conn.ExecCtx(ctx, query, data.TripId, data.UserId, data.Status, data.Version, data.Pending)
	}, key)
}

func (m *customTripsModel) FindOne(ctx context.Context, tripId string) (*Trips, error) {
	key := fmt.Sprintf("%s%v", cacheTripsTripIdPrefix, tripId)
	var resp Trips
	err := m.QueryRowCtx(ctx, &resp, key, func(ctx context.Context, conn sqlx.SqlConn, v any) error {
		query := fmt.Sprintf("select %s from %s where `trip_id` = ? limit 1", tripsRows, m.table)
		return conn.QueryRowCtx(ctx, v, query, tripId)
	})
	switch err {
	case nil:
		return &resp, nil
	case sqlc.ErrNotFound:
		return nil, ErrNotFound
	default:
		return nil, err
	}
}

func (m *customTripsModel) UpdateState(ctx context.Context, tripId, status string, fromVersion, toVersion int64, pending sql.NullString) error {
	key := fmt.Sprintf("%s%v", cacheTripsTripIdPrefix, tripId)
	res, err := m.ExecCtx(ctx, func(ctx context.Context, conn sqlx.SqlConn) (sql.Result, error) {
		query := fmt.Sprintf("update %s set `status` = ?, `version` = ?, `pending` = ? where `trip_id` = ? and `version` = ?", m.table)
		return conn.ExecCtx(ctx, query, status, toVersion, pending, tripId, fromVersion)
	}, key)
	if err != nil {
		return err
	}
	return ensureRows(res)
}

func (m *customTripsModel) Archive(ctx context.Context, tripId string) error {
	key := fmt.Sprintf("%s%v", cacheTripsTripIdPrefix, tripId)
	res, err := m.ExecCtx(ctx, func(ctx context.Context, conn sqlx.SqlConn) (sql.Result, error) {
		query := fmt.Sprintf("update %s set `archived` = 1 where `trip_id` = ? and `archived` = 0", m.table)
		return conn.ExecCtx(ctx, query, tripId)
	}, key)
	if err != nil {
		return err
	}
	return ensureRows(res)
}

func (m *customTripsModel) ExecWithTransaction(ctx context.Context, fn func(context.Context, sqlx.Session) error) error {
	return m.TransactCtx(ctx, fn)
}

func ensureRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRowsAffectedIsZero
	}
	return nil
}
