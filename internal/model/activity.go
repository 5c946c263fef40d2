package model

import "time"

// ActivityKind — тип записи в журнале активности.
type ActivityKind string

const (
	ActivityCreation   ActivityKind = "creation"
	ActivityResolution ActivityKind = "resolution"
	ActivityMutation   ActivityKind = "mutation"
)

// ActivityEntry — запись журнала активности. Журнал append-only:
// записи не обновляются и служат одновременно аудитом и источником
// для rate limiter и суточной квоты.
type ActivityEntry struct {
	OwnerID    string
	Kind       ActivityKind
	OccurredAt time.Time
}
