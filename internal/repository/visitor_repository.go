package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatehouse/visitgate/internal/domain"
)

type VisitorRepository interface {
	Create(ctx context.Context, req *domain.CreateVisitorRequest, createdBy int64, totalTimeSpent *int) (*domain.Visitor, error)
	GetByID(ctx context.Context, id int64) (*domain.Visitor, error)
	GetByIDForContact(ctx context.Context, id, contactPersonID int64) (*domain.Visitor, error)
	Update(ctx context.Context, id int64, patch domain.VisitorPatch) (*domain.Visitor, error)
	CheckOut(ctx context.Context, id int64, outTime time.Time) (*domain.Visitor, error)
	UpdateMeeting(ctx context.Context, id, contactPersonID int64, status domain.MeetingStatus, outTime time.Time) (*domain.Visitor, error)
	ListAll(ctx context.Context) ([]domain.VisitorWithContact, error)
	ListByContact(ctx context.Context, contactPersonID int64) ([]domain.Visitor, error)
}

type visitorRepository struct {
	pool *pgxpool.Pool
}

func NewVisitorRepository(pool *pgxpool.Pool) VisitorRepository {
	return &visitorRepository{pool: pool}
}

const visitorCols = `id, visitor_number, name, mobile, contact_person_id, purpose,
number_of_persons, vehicle_number, in_time, out_time, total_time_spent,
photo_url, meeting_status, created_by, created_at, updated_at`

func scanVisitor(row pgx.Row) (*domain.Visitor, error) {
	var v domain.Visitor
	err := row.Scan(
		&v.ID, &v.VisitorNumber, &v.Name, &v.Mobile, &v.ContactPersonID, &v.Purpose,
		&v.NumberOfPersons, &v.VehicleNumber, &v.InTime, &v.OutTime, &v.TotalTimeSpent,
		&v.PhotoURL, &v.MeetingStatus, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *visitorRepository) Create(ctx context.Context, req *domain.CreateVisitorRequest, createdBy int64, totalTimeSpent *int) (*domain.Visitor, error) {
	const q = `INSERT INTO visitors (
		visitor_number, name, mobile, contact_person_id, purpose,
		number_of_persons, vehicle_number, in_time, out_time, total_time_spent,
		photo_url, meeting_status, created_by
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	RETURNING ` + visitorCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	v, err := scanVisitor(r.pool.QueryRow(ctx, q,
		req.VisitorNumber, req.Name, req.Mobile, req.ContactPersonID, req.Purpose,
		req.NumberOfPersons, req.VehicleNumber, req.InTime, req.OutTime, totalTimeSpent,
		req.PhotoURL, req.MeetingStatus, createdBy,
	))
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: visitorNumber already exists", domain.ErrConflict)
	}
	return v, err
}

func (r *visitorRepository) GetByID(ctx context.Context, id int64) (*domain.Visitor, error) {
	const q = `SELECT ` + visitorCols + ` FROM visitors WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	v, err := scanVisitor(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return v, err
}

func (r *visitorRepository) GetByIDForContact(ctx context.Context, id, contactPersonID int64) (*domain.Visitor, error) {
	const q = `SELECT ` + visitorCols + ` FROM visitors WHERE id = $1 AND contact_person_id = $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	v, err := scanVisitor(r.pool.QueryRow(ctx, q, id, contactPersonID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return v, err
}

// Update applies the non-nil patch fields and recomputes total_time_spent
// in the same statement whenever the patched row has both times set.
func (r *visitorRepository) Update(ctx context.Context, id int64, patch domain.VisitorPatch) (*domain.Visitor, error) {
	const q = `
		UPDATE visitors SET
			name = COALESCE($2, name),
			mobile = COALESCE($3, mobile),
			purpose = COALESCE($4, purpose),
			number_of_persons = COALESCE($5, number_of_persons),
			vehicle_number = COALESCE($6, vehicle_number),
			in_time = COALESCE($7, in_time),
			out_time = COALESCE($8, out_time),
			photo_url = COALESCE($9, photo_url),
			total_time_spent = CASE
				WHEN COALESCE($7, in_time) IS NOT NULL AND COALESCE($8, out_time) IS NOT NULL
				THEN ROUND(EXTRACT(EPOCH FROM (COALESCE($8, out_time) - COALESCE($7, in_time))) / 60)::int
				ELSE total_time_spent
			END,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + visitorCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	v, err := scanVisitor(r.pool.QueryRow(ctx, q, id,
		patch.Name, patch.Mobile, patch.Purpose, patch.NumberOfPersons,
		patch.VehicleNumber, patch.InTime, patch.OutTime, patch.PhotoURL,
	))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return v, err
}

func (r *visitorRepository) CheckOut(ctx context.Context, id int64, outTime time.Time) (*domain.Visitor, error) {
	const q = `
		UPDATE visitors SET
			out_time = $2,
			total_time_spent = CASE
				WHEN in_time IS NOT NULL
				THEN ROUND(EXTRACT(EPOCH FROM ($2 - in_time)) / 60)::int
				ELSE total_time_spent
			END,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + visitorCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	v, err := scanVisitor(r.pool.QueryRow(ctx, q, id, outTime))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return v, err
}

// UpdateMeeting folds the ownership check into the WHERE clause: a row
// belonging to another contact person behaves exactly like a missing one.
func (r *visitorRepository) UpdateMeeting(ctx context.Context, id, contactPersonID int64, status domain.MeetingStatus, outTime time.Time) (*domain.Visitor, error) {
	const q = `
		UPDATE visitors SET
			meeting_status = $3,
			out_time = $4,
			total_time_spent = CASE
				WHEN in_time IS NOT NULL
				THEN ROUND(EXTRACT(EPOCH FROM ($4 - in_time)) / 60)::int
				ELSE total_time_spent
			END,
			updated_at = now()
		WHERE id = $1 AND contact_person_id = $2
		RETURNING ` + visitorCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	v, err := scanVisitor(r.pool.QueryRow(ctx, q, id, contactPersonID, status, outTime))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return v, err
}

func (r *visitorRepository) ListAll(ctx context.Context) ([]domain.VisitorWithContact, error) {
	const q = `
		SELECT v.id, v.visitor_number, v.name, v.mobile, v.contact_person_id, v.purpose,
			v.number_of_persons, v.vehicle_number, v.in_time, v.out_time, v.total_time_spent,
			v.photo_url, v.meeting_status, v.created_by, v.created_at, v.updated_at,
			u.id, u.username, u.role
		FROM visitors v
		LEFT JOIN users u ON u.id = v.contact_person_id
		ORDER BY v.created_at DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	visitors := make([]domain.VisitorWithContact, 0)
	for rows.Next() {
		var v domain.VisitorWithContact
		var contactID *int64
		var contactUsername *string
		var contactRole *domain.Role

		if err := rows.Scan(
			&v.ID, &v.VisitorNumber, &v.Name, &v.Mobile, &v.ContactPersonID, &v.Purpose,
			&v.NumberOfPersons, &v.VehicleNumber, &v.InTime, &v.OutTime, &v.TotalTimeSpent,
			&v.PhotoURL, &v.MeetingStatus, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt,
			&contactID, &contactUsername, &contactRole,
		); err != nil {
			return nil, err
		}

		if contactID != nil {
			v.ContactPerson = &domain.ContactPersonInfo{
				ID:       *contactID,
				Username: *contactUsername,
				Role:     *contactRole,
			}
		}
		visitors = append(visitors, v)
	}

	return visitors, rows.Err()
}

func (r *visitorRepository) ListByContact(ctx context.Context, contactPersonID int64) ([]domain.Visitor, error) {
	const q = `
		SELECT ` + visitorCols + `
		FROM visitors
		WHERE contact_person_id = $1
		ORDER BY created_at DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, contactPersonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	visitors := make([]domain.Visitor, 0)
	for rows.Next() {
		var v domain.Visitor
		if err := rows.Scan(
			&v.ID, &v.VisitorNumber, &v.Name, &v.Mobile, &v.ContactPersonID, &v.Purpose,
			&v.NumberOfPersons, &v.VehicleNumber, &v.InTime, &v.OutTime, &v.TotalTimeSpent,
			&v.PhotoURL, &v.MeetingStatus, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, err
		}
		visitors = append(visitors, v)
	}

	return visitors, rows.Err()
}
