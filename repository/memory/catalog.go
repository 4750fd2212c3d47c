package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/queueflow/backend/domain"
)

// Catalog is an in-memory catalog/roster view seeded by the caller.
type Catalog struct {
	mu          sync.RWMutex
	departments map[string]domain.Department
	services    map[string]domain.Service
	staff       map[string]domain.Staff
}

func NewCatalog() *Catalog {
	return &Catalog{
		departments: make(map[string]domain.Department),
		services:    make(map[string]domain.Service),
		staff:       make(map[string]domain.Staff),
	}
}

func (c *Catalog) AddDepartment(dept domain.Department) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.departments[dept.ID] = dept
}

func (c *Catalog) AddService(svc domain.Service) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[svc.ID] = svc
}

func (c *Catalog) AddStaff(staff domain.Staff) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.staff[staff.ID] = staff
}

func (c *Catalog) GetService(_ context.Context, id string) (*domain.Service, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	svc, ok := c.services[id]
	if !ok {
		return nil, domain.ErrServiceNotFound
	}
	return &svc, nil
}

func (c *Catalog) GetDepartment(_ context.Context, id string) (*domain.Department, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	dept, ok := c.departments[id]
	if !ok {
		return nil, domain.ErrDepartmentNotFound
	}
	return &dept, nil
}

func (c *Catalog) GetStaff(_ context.Context, id string) (*domain.Staff, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	staff, ok := c.staff[id]
	if !ok {
		return nil, domain.ErrStaffNotFound
	}
	return &staff, nil
}

func (c *Catalog) ListActiveStaff(_ context.Context, departmentID string) ([]domain.Staff, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var members []domain.Staff
	for _, staff := range c.staff {
		if staff.DepartmentID == departmentID && staff.Active {
			members = append(members, staff)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}
