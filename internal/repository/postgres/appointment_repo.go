package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NordCoder/Barberus/internal/domain/appointment"
	"github.com/jackc/pgx/v5"
)

var _ appointment.Repo = (*AppointmentRepo)(nil)

type AppointmentRepo struct{ db *DB }

func NewAppointmentRepo(db *DB) *AppointmentRepo { return &AppointmentRepo{db: db} }

const (
	qApptDetails = `
SELECT a.id, a.customer_id, a.barber_id, a.service_id,
       a.first_name, a.last_name, a.contact_number, a.appointment_at, a.status,
       b.first_name, b.last_name,
       s.title
FROM appointments a
JOIN users    b ON b.id = a.barber_id
JOIN services s ON s.id = a.service_id
WHERE a.id = $1;
`

	qApptMarkPastDue = `
WITH due AS (
   SELECT id
   FROM appointments
   WHERE status NOT IN ('Cancelled', 'Past')
     AND appointment_at <= $1
   ORDER BY appointment_at
   FOR UPDATE SKIP LOCKED
   LIMIT $2
)
UPDATE appointments a
SET status = 'Past', updated_at = NOW()
FROM due
WHERE a.id = due.id
RETURNING a.id, a.customer_id, a.barber_id, a.service_id,
          a.first_name, a.last_name, a.contact_number, a.appointment_at, a.status;
`
)

func (r *AppointmentRepo) GetDetails(ctx context.Context, id int64) (*appointment.Details, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var d appointment.Details
	a := &d.Appointment
	err := r.db.execQueryer(ctx).QueryRow(ctx, qApptDetails, id).Scan(
		&a.ID, &a.CustomerID, &a.BarberID, &a.ServiceID,
		&a.FirstName, &a.LastName, &a.ContactNumber, &a.At, &a.Status,
		&d.Barber.FirstName, &d.Barber.LastName,
		&d.Service.Title,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan appointment: %w", err)
	}
	d.Barber.ID = a.BarberID
	d.Service.ID = a.ServiceID
	return &d, nil
}

// MarkPastDue flips up to limit elapsed, still-active appointments to Past
// and returns them. Rows locked by a concurrent sweeper are skipped.
func (r *AppointmentRepo) MarkPastDue(ctx context.Context, now time.Time, limit int) ([]*appointment.Appointment, error) {
	if limit <= 0 {
		limit = 100
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qApptMarkPastDue, now, limit)
	if err != nil {
		return nil, fmt.Errorf("mark past due: %w", err)
	}
	defer rows.Close()

	var out []*appointment.Appointment
	for rows.Next() {
		var a appointment.Appointment
		if err := rows.Scan(
			&a.ID, &a.CustomerID, &a.BarberID, &a.ServiceID,
			&a.FirstName, &a.LastName, &a.ContactNumber, &a.At, &a.Status,
		); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
