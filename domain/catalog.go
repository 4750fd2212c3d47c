package domain

// Department is a read-only catalog entry owned by an external collaborator.
// The dispatch core never writes it.
type Department struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Prefix                string `json:"prefix"`
	AverageServiceMinutes int    `json:"average_service_minutes"`
	MaxConcurrent         int    `json:"max_concurrent_customers"`
	Active                bool   `json:"is_active"`
}

// Service is a read-only catalog entry describing one offered service.
type Service struct {
	ID                     string `json:"id"`
	DepartmentID           string `json:"department_id"`
	Name                   string `json:"name"`
	AverageDurationMinutes int    `json:"average_duration_minutes"`
	Active                 bool   `json:"is_active"`
}

// Staff is the dispatch core's read-only view of a staff member.
type Staff struct {
	ID           string `json:"id"`
	DepartmentID string `json:"department_id"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	Active       bool   `json:"is_active"`
}

func (s *Staff) IsActive() bool {
	return s != nil && s.Active
}
