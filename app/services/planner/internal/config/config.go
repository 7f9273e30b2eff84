package config

import (
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
	"github.com/zeromicro/go-zero/rest"
)

type Config struct {
	rest.RestConf

	MysqlConf sqlx.SqlConf
	CacheConf cache.CacheConf

	LogConf logx.LogConf

	// asynq's own option structs carry func fields conf can't unmarshal
	AsynqConf       AsynqRedisConf
	AsynqServerConf AsynqServerConf

	KafkaConf KafkaConf

	Planner PlannerConf
}

// Minimal redis client config for Asynq
type AsynqRedisConf struct {
	Addr string
}

// Minimal asynq server config
type AsynqServerConf struct {
	Concurrency int
	Queues      map[string]int
}

type KafkaConf struct {
	Broker        []string
	DecisionTopic string
}

// PlannerConf tunes the planning engine. Zero values fall back to the
// engine defaults.
type PlannerConf struct {
	// Extraction candidates below this confidence are parked for
	// clarification instead of applied.
	MinConfidence int

	OfferTTLMinutes   int
	ProviderTimeoutMs int
	MaxCountryCities  int

	// Transfer route scoring weights.
	TimeWeight        float64
	CostWeight        float64
	ReliabilityWeight float64
	ConvenienceWeight float64
}
