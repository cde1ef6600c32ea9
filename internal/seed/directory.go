// Package seed loads the department and user directory from an Excel workbook.
//
// The workbook has two sheets. "Departments" columns: ID, Name, Code.
// "Users" columns: ID, Full Name, Email, Role, Department ID.
// Row 1 of each sheet is a header.
package seed

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"doctrack/internal/domain"
	"doctrack/internal/port"
)

const (
	departmentsSheet = "Departments"
	usersSheet       = "Users"
)

// Directory is the parsed contents of a seed workbook.
type Directory struct {
	Departments []domain.Department
	Users       []domain.User
}

// ReadFile parses the workbook at path.
func ReadFile(path string) (*Directory, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()
	return parse(f)
}

// Read parses a workbook from r.
func Read(r io.Reader) (*Directory, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()
	return parse(f)
}

func parse(f *excelize.File) (*Directory, error) {
	depts, err := parseDepartments(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s sheet: %w", departmentsSheet, err)
	}
	known := make(map[int64]bool, len(depts))
	for _, d := range depts {
		known[d.ID] = true
	}

	users, err := parseUsers(f, known)
	if err != nil {
		return nil, fmt.Errorf("parse %s sheet: %w", usersSheet, err)
	}
	return &Directory{Departments: depts, Users: users}, nil
}

func parseDepartments(f *excelize.File) ([]domain.Department, error) {
	rows, err := f.GetRows(departmentsSheet)
	if err != nil {
		return nil, err
	}

	var out []domain.Department
	seen := make(map[int64]bool)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("row %d: expected ID and Name", i+1)
		}
		id, err := parseID(row[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if seen[id] {
			return nil, fmt.Errorf("row %d: duplicate department %d", i+1, id)
		}
		seen[id] = true
		out = append(out, domain.Department{
			ID:   id,
			Name: strings.TrimSpace(row[1]),
			Code: strings.TrimSpace(cell(row, 2)),
		})
	}
	return out, nil
}

func parseUsers(f *excelize.File, departments map[int64]bool) ([]domain.User, error) {
	rows, err := f.GetRows(usersSheet)
	if err != nil {
		return nil, err
	}

	var out []domain.User
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		if len(row) < 5 {
			return nil, fmt.Errorf("row %d: expected ID, Full Name, Email, Role and Department ID", i+1)
		}
		id, err := parseID(row[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		role := domain.UserRole(strings.ToUpper(strings.TrimSpace(row[3])))
		if !domain.ValidRoles[role] {
			return nil, fmt.Errorf("row %d: unknown role %q", i+1, row[3])
		}
		deptID, err := parseID(row[4])
		if err != nil {
			return nil, fmt.Errorf("row %d: department: %w", i+1, err)
		}
		if !departments[deptID] {
			return nil, fmt.Errorf("row %d: department %d is not in the %s sheet", i+1, deptID, departmentsSheet)
		}
		out = append(out, domain.User{
			ID:           id,
			FullName:     strings.TrimSpace(row[1]),
			Email:        strings.TrimSpace(row[2]),
			Role:         role,
			DepartmentID: deptID,
		})
	}
	return out, nil
}

// Apply upserts every department before any user.
func Apply(ctx context.Context, dir *Directory, departments port.DepartmentRepository, users port.UserRepository) error {
	for i := range dir.Departments {
		if err := departments.Upsert(ctx, &dir.Departments[i]); err != nil {
			return fmt.Errorf("upsert department %d: %w", dir.Departments[i].ID, err)
		}
	}
	for i := range dir.Users {
		if err := users.Upsert(ctx, &dir.Users[i]); err != nil {
			return fmt.Errorf("upsert user %d: %w", dir.Users[i].ID, err)
		}
	}
	return nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
