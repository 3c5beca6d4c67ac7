package schema

// ChildTable represents a named child collection owned by a freelancer.
// Hobbies and skillsets share the same shape.
type ChildTable struct {
	Table        string
	ID           string
	FreelancerID string
	Name         string
}

// Hobby is the schema definition for hobby
var Hobby = ChildTable{
	Table:        "hobby",
	ID:           "id",
	FreelancerID: "freelancerid",
	Name:         "name",
}

// Skillset is the schema definition for skillset
var Skillset = ChildTable{
	Table:        "skillset",
	ID:           "id",
	FreelancerID: "freelancerid",
	Name:         "name",
}

// Columns returns all standard column names
func (t ChildTable) Columns() []string {
	return []string{t.ID, t.FreelancerID, t.Name}
}
