package trip

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ SearchRequestsModel = (*customSearchRequestsModel)(nil)

var (
	searchRequestsFieldNames = []string{"`id`", "`trip_id`", "`domain`", "`fingerprint`", "`params`", "`offers`", "`status`", "`created_at`"}
	searchRequestsRows       = strings.Join(searchRequestsFieldNames, ",")
)

const (
	SearchStatusPending  = "pending"
	SearchStatusComplete = "complete"
)

type (
	SearchRequestsModel interface {
		Insert(ctx context.Context, data *SearchRequests) (sql.Result, error)
		SaveOffers(ctx context.Context, id, offersJson string) error
		FindByFingerprint(ctx context.Context, tripId, fingerprint string) (*SearchRequests, error)
	}

	customSearchRequestsModel struct {
		conn  sqlx.SqlConn
		table string
	}

	SearchRequests struct {
		Id          string         `db:"id"`
		TripId      string         `db:"trip_id"`
		Domain      string         `db:"domain"`
		Fingerprint string         `db:"fingerprint"`
		Params      string         `db:"params"`
		Offers      sql.NullString `db:"offers"`
		Status      string         `db:"status"`
		CreatedAt   time.Time      `db:"created_at"`
	}
)

// NewSearchRequestsModel returns a model for the database table.
func NewSearchRequestsModel(conn sqlx.SqlConn) SearchRequestsModel {
	return &customSearchRequestsModel{
		conn:  conn,
		table: "`trip_search_requests`",
	}
}

func (m *customSearchRequestsModel) Insert(ctx context.Context, data *SearchRequests) (sql.Result, error) {
	query := fmt.Sprintf("insert into %s (`id`, `trip_id`, `domain`, `fingerprint`, `params`, `status`) values (?, ?, ?, ?, ?, ?)", m.table)
	return m.conn.ExecCtx(ctx, query, data.Id, data.TripId, data.Domain, data.Fingerprint, data.Params, data.Status)
}

func (m *customSearchRequestsModel) SaveOffers(ctx context.Context, id, offersJson string) error {
	query := fmt.Sprintf("update %s set `offers` = ?, `status` = ? where `id` = ?", m.table)
	res, err := m.conn.ExecCtx(ctx, query, offersJson, SearchStatusComplete, id)
	if err != nil {
		return err
	}
	return ensureRows(res)
}

func (m *customSearchRequestsModel) FindByFingerprint(ctx context.Context, tripId, fingerprint string) (*SearchRequests, error) {
	var resp SearchRequests
	query := fmt.Sprintf("select %s from %s where `trip_id` = ? and `fingerprint` = ? order by `created_at` desc limit 1", searchRequestsRows, m.table)
	err := m.conn.QueryRowCtx(ctx, &resp, query, tripId, fingerprint)
	switch err {
	case nil:
		return &resp, nil
	case sqlx.ErrNotFound:
		return nil, ErrNotFound
	default:
		return nil, err
	}
}
