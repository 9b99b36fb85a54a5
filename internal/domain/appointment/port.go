package appointment

import (
	"context"
	"time"
)

type Repo interface {
	GetDetails(ctx context.Context, id int64) (*Details, error)
	MarkPastDue(ctx context.Context, now time.Time, limit int) ([]*Appointment, error)
}
