package errno

const (
	StatusOK = 10000
)

const (
	InvalidParam = 40000 + iota
	TripNotFound
	TripArchived
	PlanNotFound
	TurnOutOfOrder
)

const (
	InternalError = 50000 + iota
	PersistenceUnavailable
)
