package transport

// RegisterTicketRequest is the registration payload from the kiosk/web form.
type RegisterTicketRequest struct {
	ServiceID     string `json:"service_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email"`
}

// CallNextRequest pulls the oldest waiting ticket of a department.
type CallNextRequest struct {
	DepartmentID string `json:"department_id"`
}
