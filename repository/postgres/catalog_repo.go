package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/queueflow/backend/domain"
	"github.com/queueflow/backend/repository"
)

type catalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns the read-only catalog view. The tables it
// reads are owned by the catalog collaborator; this repository never writes.
func NewCatalogRepository(pool *pgxpool.Pool) repository.CatalogRepository {
	return &catalogRepository{pool: pool}
}

func (r *catalogRepository) GetService(ctx context.Context, id string) (*domain.Service, error) {
	const query = `
	SELECT id, department_id, name, average_duration_minutes, is_active
	FROM services
	WHERE id = $1
	`
	var svc domain.Service
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&svc.ID,
		&svc.DepartmentID,
		&svc.Name,
		&svc.AverageDurationMinutes,
		&svc.Active,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrServiceNotFound
		}
		return nil, err
	}
	return &svc, nil
}

func (r *catalogRepository) GetDepartment(ctx context.Context, id string) (*domain.Department, error) {
	const query = `
	SELECT id, name, prefix, average_service_minutes, max_concurrent_customers, is_active
	FROM departments
	WHERE id = $1
	`
	var dept domain.Department
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&dept.ID,
		&dept.Name,
		&dept.Prefix,
		&dept.AverageServiceMinutes,
		&dept.MaxConcurrent,
		&dept.Active,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDepartmentNotFound
		}
		return nil, err
	}
	return &dept, nil
}

func (r *catalogRepository) GetStaff(ctx context.Context, id string) (*domain.Staff, error) {
	const query = `
	SELECT id, department_id, name, role, is_active
	FROM staff
	WHERE id = $1
	`
	staff, err := scanStaff(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return staff, nil
}

func (r *catalogRepository) ListActiveStaff(ctx context.Context, departmentID string) ([]domain.Staff, error) {
	const query = `
	SELECT id, department_id, name, role, is_active
	FROM staff
	WHERE department_id = $1
	  AND is_active
	ORDER BY id ASC
	`
	rows, err := r.pool.Query(ctx, query, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.Staff
	for rows.Next() {
		staff, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *staff)
	}
	return members, rows.Err()
}

func scanStaff(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Staff, error) {
	var staff domain.Staff
	if err := row.Scan(
		&staff.ID,
		&staff.DepartmentID,
		&staff.Name,
		&staff.Role,
		&staff.Active,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStaffNotFound
		}
		return nil, err
	}
	return &staff, nil
}
