package trip

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ TripTurnsModel = (*customTripTurnsModel)(nil)

var (
	tripTurnsFieldNames = []string{"`turn_token`", "`trip_id`", "`response`", "`created_at`"}
	tripTurnsRows       = strings.Join(tripTurnsFieldNames, ",")
)

type (
	// TripTurnsModel backs turn idempotency: a replayed turn token returns
	// the stored response instead of re-running the turn.
	TripTurnsModel interface {
		Insert(ctx context.Context, data *TripTurns) (sql.Result, error)
		FindOne(ctx context.Context, turnToken string) (*TripTurns, error)
	}

	customTripTurnsModel struct {
		conn  sqlx.SqlConn
		table string
	}

	TripTurns struct {
		TurnToken string    `db:"turn_token"`
		TripId    string    `db:"trip_id"`
		Response  string    `db:"response"`
		CreatedAt time.Time `db:"created_at"`
	}
)

// NewTripTurnsModel returns a model for the database table.
func NewTripTurnsModel(conn sqlx.SqlConn) TripTurnsModel {
	return &customTripTurnsModel{
		conn:  conn,
		table: "`trip_turns`",
	}
}

func (m *customTripTurnsModel) Insert(ctx context.Context, data *TripTurns) (sql.Result, error) {
	query := fmt.Sprintf("insert into %s (`turn_token`, `trip_id`, `response`) values (?, ?, ?)", m.table)
	return m.conn.ExecCtx(ctx, query, data.TurnToken, data.TripId, data.Response)
}

func (m *customTripTurnsModel) FindOne(ctx context.Context, turnToken string) (*TripTurns, error) {
	var resp TripTurns
	query := fmt.Sprintf("select %s from %s where `turn_token` = ? limit 1", tripTurnsRows, m.table)
	err := m.conn.QueryRowCtx(ctx, &resp, query, turnToken)
	switch err {
	case nil:
		return &resp, nil
	case sqlx.ErrNotFound:
		return nil, ErrNotFound
	default:
		return nil, err
	}
}
