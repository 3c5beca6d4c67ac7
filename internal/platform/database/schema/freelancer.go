package schema

// FreelancerTable represents the 'freelancer' table
type FreelancerTable struct {
	Table      string
	ID         string
	Username   string
	Email      string
	Phone      string
	IsArchived string
	CreatedAt  string
	UpdatedAt  string
}

// Freelancer is the schema definition for freelancer
var Freelancer = FreelancerTable{
	Table:      "freelancer",
	ID:         "id",
	Username:   "username",
	Email:      "email",
	Phone:      "phone",
	IsArchived: "isarchived",
	CreatedAt:  "createdat",
	UpdatedAt:  "updatedat",
}

// Columns returns all standard column names
func (t FreelancerTable) Columns() []string {
	return []string{
		t.ID, t.Username, t.Email, t.Phone, t.IsArchived, t.CreatedAt, t.UpdatedAt,
	}
}
