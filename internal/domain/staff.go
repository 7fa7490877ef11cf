package domain

// Staff is an employee account. Email is its remote dedup key.
type Staff struct {
	Meta
	Email      string      `json:"email" validate:"required,email"`
	Name       string      `json:"name" validate:"required"`
	Role       StaffRole   `json:"role,omitempty" validate:"omitempty,oneof=ADMIN EMPLOYEE"`
	Department string      `json:"department,omitempty"`
	Position   string      `json:"position,omitempty"`
	Status     StaffStatus `json:"status,omitempty"`
	HasAccess  bool        `json:"hasAccess"`
	Verified   bool        `json:"verified"`
}

func (Staff) EntityType() EntityType { return EntityStaff }

func (s Staff) WithMeta(m Meta) Staff {
	s.Meta = m
	return s
}

func (s Staff) Normalize() Staff {
	if s.Role == "" {
		s.Role = RoleEmployee
	}
	if s.Status == "" {
		s.Status = StaffActive
	}
	return s
}
