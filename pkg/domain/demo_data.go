package domain

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed testdata/employees.json
var demoEmployeesJSON []byte

// DemoEmployeeDirectory is a pure lookup over a static document (spec.md
// §1's explicit non-goal "demo employee/firm data loading" — out of
// scope for the core engine, but still needed to drive
// /api/compliance/check end to end, so it gets the simplest possible
// treatment: an embedded JSON file keyed by employee_id).
type DemoEmployeeDirectory struct {
	byID map[string]Employee
}

// NewDemoEmployeeDirectory loads the embedded demo roster.
func NewDemoEmployeeDirectory() (*DemoEmployeeDirectory, error) {
	var roster []Employee
	if err := json.Unmarshal(demoEmployeesJSON, &roster); err != nil {
		return nil, fmt.Errorf("load demo employee directory: %w", err)
	}
	byID := make(map[string]Employee, len(roster))
	for _, e := range roster {
		byID[e.ID] = e
	}
	return &DemoEmployeeDirectory{byID: byID}, nil
}

// ErrEmployeeNotFound is returned by Lookup for an unknown employee_id.
var ErrEmployeeNotFound = fmt.Errorf("employee not found")

// Lookup returns the employee record for id, or ErrEmployeeNotFound.
func (d *DemoEmployeeDirectory) Lookup(id string) (Employee, error) {
	e, ok := d.byID[id]
	if !ok {
		return Employee{}, ErrEmployeeNotFound
	}
	return e, nil
}
