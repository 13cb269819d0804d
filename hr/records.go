// Package hr holds the record types the console lists and the catalogue of
// screens built on them.
package hr

import "time"

type Department struct {
	ID          int    `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description"`
}

type Employee struct {
	ID           int    `json:"id" yaml:"id"`
	FirstName    string `json:"first_name" yaml:"first_name"`
	LastName     string `json:"last_name" yaml:"last_name"`
	Email        string `json:"email" yaml:"email"`
	Phone        string `json:"phone,omitempty" yaml:"phone"`
	Position     string `json:"position,omitempty" yaml:"position"`
	DepartmentID int    `json:"department_id,omitempty" yaml:"department_id"`
}

type Manager struct {
	ID           int    `json:"id" yaml:"id"`
	EmployeeID   int    `json:"employee_id" yaml:"employee_id"`
	DepartmentID int    `json:"department_id" yaml:"department_id"`
	Name         string `json:"name,omitempty" yaml:"name"`
}

// Role is a job role, unrelated to the console's access roles
type Role struct {
	ID    int    `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}

type Task struct {
	ID         int        `json:"id" yaml:"id"`
	Title      string     `json:"title" yaml:"title"`
	Status     string     `json:"status" yaml:"status"`
	AssigneeID int        `json:"assignee_id,omitempty" yaml:"assignee_id"`
	DueAt      *time.Time `json:"due_at,omitempty" yaml:"due_at"`
}

type LeaveRequest struct {
	ID         int    `json:"id" yaml:"id"`
	EmployeeID int    `json:"employee_id" yaml:"employee_id"`
	StartDate  string `json:"start_date" yaml:"start_date"`
	EndDate    string `json:"end_date" yaml:"end_date"`
	Reason     string `json:"reason,omitempty" yaml:"reason"`
	Status     string `json:"status" yaml:"status"`
}

type Presence struct {
	ID         int    `json:"id" yaml:"id"`
	EmployeeID int    `json:"employee_id" yaml:"employee_id"`
	Date       string `json:"date" yaml:"date"`
	Status     string `json:"status" yaml:"status"`
}

type Announcement struct {
	ID      int    `json:"id" yaml:"id"`
	Title   string `json:"title" yaml:"title"`
	Body    string `json:"body" yaml:"body"`
	Publish string `json:"publish_at,omitempty" yaml:"publish_at"`
}
