package repository

import (
	"context"

	"github.com/queueflow/backend/domain"
)

// CatalogRepository is the read-only view of the service/department catalog
// and the staff roster. The dispatch core never writes through it.
type CatalogRepository interface {
	GetService(ctx context.Context, id string) (*domain.Service, error)
	GetDepartment(ctx context.Context, id string) (*domain.Department, error)
	GetStaff(ctx context.Context, id string) (*domain.Staff, error)
	ListActiveStaff(ctx context.Context, departmentID string) ([]domain.Staff, error)
}
