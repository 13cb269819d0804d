package hr

import (
	"fmt"
	"strings"

	"github.com/jrsteele09/go-hr-console/users"
)

// FieldType selects the form input for a field
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextArea FieldType = "textarea"
	FieldEmail    FieldType = "email"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldSelect   FieldType = "select"
)

// Field describes one form input of a screen
type Field struct {
	Name     string
	Label    string
	Type     FieldType
	Required bool
	Options  []string
}

// Screen is a list-and-edit page backed by one collection endpoint
type Screen struct {
	Name     string // URL segment under the role's area
	Endpoint string
	Title    string
	Role     users.Role // "" admits any signed-in role
	Fields   []Field
	// Columns shown in the list view, defaults to the first three fields
	Columns []string
}

// ListColumns returns the field names shown in the list view
func (s Screen) ListColumns() []string {
	if len(s.Columns) > 0 {
		return s.Columns
	}
	cols := make([]string, 0, 3)
	for i, f := range s.Fields {
		if i == 3 {
			break
		}
		cols = append(cols, f.Name)
	}
	return cols
}

// Validate returns the required-field errors of a payload keyed by field name
func (s Screen) Validate(payload Record) map[string][]string {
	problems := map[string][]string{}
	for _, f := range s.Fields {
		if !f.Required {
			continue
		}
		if strings.TrimSpace(payload.String(f.Name)) == "" {
			problems[f.Name] = append(problems[f.Name], fmt.Sprintf("The %s field is required.", strings.ToLower(f.Label)))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

var statusOptions = []string{"pending", "approved", "rejected"}

var screens = []Screen{
	{
		Name: "departments", Endpoint: "departments", Title: "Departments", Role: users.RoleAdmin,
		Fields: []Field{
			{Name: "name", Label: "Name", Type: FieldText, Required: true},
			{Name: "description", Label: "Description", Type: FieldTextArea},
		},
	},
	{
		Name: "employees", Endpoint: "employees", Title: "Employees", Role: users.RoleAdmin,
		Fields: []Field{
			{Name: "first_name", Label: "First name", Type: FieldText, Required: true},
			{Name: "last_name", Label: "Last name", Type: FieldText, Required: true},
			{Name: "email", Label: "Email", Type: FieldEmail, Required: true},
			{Name: "phone", Label: "Phone", Type: FieldText},
			{Name: "position", Label: "Position", Type: FieldText},
			{Name: "department_id", Label: "Department", Type: FieldNumber},
		},
	},
	{
		Name: "managers", Endpoint: "managers", Title: "Managers", Role: users.RoleAdmin,
		Fields: []Field{
			{Name: "employee_id", Label: "Employee", Type: FieldNumber, Required: true},
			{Name: "department_id", Label: "Department", Type: FieldNumber, Required: true},
		},
	},
	{
		Name: "roles", Endpoint: "roles", Title: "Roles", Role: users.RoleAdmin,
		Fields: []Field{
			{Name: "title", Label: "Title", Type: FieldText, Required: true},
		},
	},
	{
		Name: "presences", Endpoint: "presences", Title: "Attendance", Role: users.RoleAdmin,
		Fields: []Field{
			{Name: "employee_id", Label: "Employee", Type: FieldNumber, Required: true},
			{Name: "date", Label: "Date", Type: FieldDate, Required: true},
			{Name: "status", Label: "Status", Type: FieldSelect, Required: true, Options: []string{"present", "absent", "remote"}},
		},
	},
	{
		Name: "tasks", Endpoint: "tasks", Title: "Tasks",
		Fields: []Field{
			{Name: "title", Label: "Title", Type: FieldText, Required: true},
			{Name: "status", Label: "Status", Type: FieldSelect, Required: true, Options: []string{"todo", "in_progress", "done"}},
			{Name: "assignee_id", Label: "Assignee", Type: FieldNumber},
		},
	},
	{
		Name: "leave-requests", Endpoint: "leave-requests", Title: "Leave requests",
		Fields: []Field{
			{Name: "start_date", Label: "Start date", Type: FieldDate, Required: true},
			{Name: "end_date", Label: "End date", Type: FieldDate, Required: true},
			{Name: "status", Label: "Status", Type: FieldSelect, Options: statusOptions},
			{Name: "reason", Label: "Reason", Type: FieldTextArea},
		},
		Columns: []string{"start_date", "end_date", "status"},
	},
	{
		Name: "announcements", Endpoint: "announcements", Title: "Announcements",
		Fields: []Field{
			{Name: "title", Label: "Title", Type: FieldText, Required: true},
			{Name: "body", Label: "Body", Type: FieldTextArea, Required: true},
			{Name: "publish_at", Label: "Publish at", Type: FieldDate},
		},
	},
}

// Screens returns the catalogue in menu order
func Screens() []Screen {
	return append([]Screen(nil), screens...)
}

// Lookup finds a screen by its URL segment
func Lookup(name string) (Screen, bool) {
	for _, s := range screens {
		if s.Name == name {
			return s, true
		}
	}
	return Screen{}, false
}

// ForRole returns the screens a role may open
func ForRole(role users.Role) []Screen {
	var out []Screen
	for _, s := range screens {
		if s.Role == "" || s.Role == role {
			out = append(out, s)
		}
	}
	return out
}
