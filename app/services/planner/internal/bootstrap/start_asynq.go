package bootstrap

import (
	"github.com/hibiken/asynq"

	"tripsmith/app/services/planner/internal/mq"
	"tripsmith/app/services/planner/internal/svc"
)

// StartAsynq runs the deferred-task worker; returns a stop func. With no
// redis configured the worker is skipped and evictions simply wait for the
// next turn to re-plan.
func StartAsynq(sc *svc.ServiceContext) func() {
	addr := sc.Config.AsynqConf.Addr
	if addr == "" {
		return func() {}
	}
	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: addr}, asynq.Config{
		Concurrency: sc.Config.AsynqServerConf.Concurrency,
		Queues:      sc.Config.AsynqServerConf.Queues,
	})
	mux := mq.NewAsynqMux(sc)
	go func() {
		if err := srv.Run(mux); err != nil {
			panic(err)
		}
	}()
	return func() {
		srv.Shutdown()
	}
}
