package trip

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ DecisionLogModel = (*customDecisionLogModel)(nil)

var (
	decisionLogFieldNames = []string{"`id`", "`trip_id`", "`event_type`", "`message`", "`metadata`", "`created_at`"}
	decisionLogRows       = strings.Join(decisionLogFieldNames, ",")
)

type (
	// DecisionLogModel is append-only: every slot change, relaxation and
	// planning decision lands here for audit.
	DecisionLogModel interface {
		Append(ctx context.Context, data *DecisionLog) (sql.Result, error)
		ListByTrip(ctx context.Context, tripId string, limit int64) ([]*DecisionLog, error)
	}

	customDecisionLogModel struct {
		conn  sqlx.SqlConn
		table string
	}

	DecisionLog struct {
		Id        string         `db:"id"`
		TripId    string         `db:"trip_id"`
		EventType string         `db:"event_type"`
		Message   string         `db:"message"`
		Metadata  sql.NullString `db:"metadata"`
		CreatedAt time.Time      `db:"created_at"`
	}
)

// NewDecisionLogModel returns a model for the database table.
func NewDecisionLogModel(conn sqlx.SqlConn) DecisionLogModel {
	return &customDecisionLogModel{
		conn:  conn,
		table: "`trip_decision_log`",
	}
}

func (m *customDecisionLogModel) Append(ctx context.Context, data *DecisionLog) (sql.Result, error) {
	query := fmt.Sprintf("insert into %s (`id`, `trip_id`, `event_type`, `message`, `metadata`) values (?, ?, ?, ?, ?)", m.table)
	return m.conn.ExecCtx(ctx, query, data.Id, data.TripId, data.EventType, data.Message, data.Metadata)
}

func (m *customDecisionLogModel) ListByTrip(ctx context.Context, tripId string, limit int64) ([]*DecisionLog, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []DecisionLog
	query := fmt.Sprintf("select %s from %s where `trip_id` = ? order by `created_at` desc limit ?", decisionLogRows, m.table)
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, tripId, limit); err != nil {
		return nil, err
	}
	res := make([]*DecisionLog, 0, len(rows))
	for i := range rows {
		res = append(res, &rows[i])
	}
	return res, nil
}
