package svc

import (
	"time"

	"github.com/hibiken/asynq"
	"github.com/segmentio/kafka-go"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	tripdal "tripsmith/app/dal/trip"
	"tripsmith/app/services/planner/internal/config"
	"tripsmith/app/services/planner/internal/engine/brief"
	"tripsmith/app/services/planner/internal/engine/extract"
	"tripsmith/app/services/planner/internal/engine/geo"
	"tripsmith/app/services/planner/internal/engine/offers"
	"tripsmith/app/services/planner/internal/engine/plan"
	"tripsmith/app/services/planner/internal/engine/transfer"
	"tripsmith/app/services/planner/internal/store"
)

const defaultMinConfidence = 60

type ServiceContext struct {
	Config config.Config

	DB    sqlx.SqlConn
	Store store.TripStore

	Catalog   *geo.Catalog
	Extractor *extract.Extractor
	Machine   *brief.Machine
	Offers    *offers.Cache
	Provider  offers.Provider
	Planner   *plan.Planner

	// TripLocks serializes turns per trip; turn order within one trip is
	// part of the API contract.
	TripLocks *KeyedLocks

	AsynqClient *asynq.Client

	KafkaWriter *kafka.Writer
}

func NewServiceContext(c config.Config) *ServiceContext {
	logx.MustSetup(c.LogConf)
	db := sqlx.NewMysql(c.MysqlConf.DataSource)

	// Reusable Kafka writer to reduce per-send overhead and latency
	var kw *kafka.Writer
	if len(c.KafkaConf.Broker) > 0 && c.KafkaConf.DecisionTopic != "" {
		kw = &kafka.Writer{
			Addr:                   kafka.TCP(c.KafkaConf.Broker...),
			Topic:                  c.KafkaConf.DecisionTopic,
			RequiredAcks:           kafka.RequireOne,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           5 * time.Millisecond,
		}
	}
	var mirror store.DecisionMirror
	if kw != nil {
		mirror = &kafkaMirror{writer: kw}
	}

	sqlStore := store.NewSqlStore(
		tripdal.NewTripsModel(db, c.CacheConf),
		tripdal.NewTripSlotsModel(db),
		tripdal.NewDecisionLogModel(db),
		tripdal.NewSearchRequestsModel(db),
		tripdal.NewTripPlansModel(db),
		tripdal.NewTripTurnsModel(db),
		mirror,
	)

	var asynqClient *asynq.Client
	if c.AsynqConf.Addr != "" {
		asynqClient = asynq.NewClient(asynq.RedisClientOpt{Addr: c.AsynqConf.Addr})
	}

	minConf := c.Planner.MinConfidence
	if minConf <= 0 {
		minConf = defaultMinConfidence
	}
	ttl := time.Duration(c.Planner.OfferTTLMinutes) * time.Minute
	catalog := geo.NewCatalog()
	cache := offers.NewCache(ttl)
	provider := offers.NewStaticProvider(catalog)

	return &ServiceContext{
		Config:    c,
		DB:        db,
		Store:     sqlStore,
		Catalog:   catalog,
		Extractor: extract.New(catalog, minConf),
		Machine:   brief.NewMachine(minConf),
		Offers:    cache,
		Provider:  provider,
		Planner: plan.New(catalog, cache, provider, plan.Options{
			ProviderTimeout:  time.Duration(c.Planner.ProviderTimeoutMs) * time.Millisecond,
			MaxCountryCities: c.Planner.MaxCountryCities,
			Weights: transfer.Weights{
				Time:        c.Planner.TimeWeight,
				Cost:        c.Planner.CostWeight,
				Reliability: c.Planner.ReliabilityWeight,
				Convenience: c.Planner.ConvenienceWeight,
			},
		}),
		TripLocks:   NewKeyedLocks(),
		AsynqClient: asynqClient,
		KafkaWriter: kw,
	}
}
