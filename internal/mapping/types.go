// Package mapping assigns ledger header columns to the roles a ledger profile
// needs, interactively or from AI suggestions.
package mapping

import (
	"bufio"
	"fmt"
	"os"
	"sheetRecon/internal/config"
	"strings"
)

// Role is what a ledger column means to reconciliation.
type Role string

const (
	RoleDestination Role = "DESTINATION"
	RoleItemCode    Role = "ITEM_CODE"
	RoleQuantity    Role = "QUANTITY"
)

// Roles lists every role a profile needs, in display order.
var Roles = []Role{RoleDestination, RoleItemCode, RoleQuantity}

func (r Role) Label() string {
	switch r {
	case RoleDestination:
		return "Destination"
	case RoleItemCode:
		return "Item code"
	case RoleQuantity:
		return "Quantity"
	}
	return string(r)
}

// ParseRole accepts a role name in any case, with '-' or ' ' for '_'.
func ParseRole(s string) (Role, bool) {
	n := strings.ToUpper(strings.TrimSpace(s))
	n = strings.NewReplacer("-", "_", " ", "_").Replace(n)
	for _, r := range Roles {
		if string(r) == n {
			return r, true
		}
	}
	return "", false
}

// Mapping assigns one header to each role. A header holds at most one role.
type Mapping map[Role]string

// Set assigns header to role, taking the header away from any other role.
func (m Mapping) Set(role Role, header string) {
	for r, h := range m {
		if h == header {
			delete(m, r)
		}
	}
	m[role] = header
}

// RoleOf returns the role a header is assigned to.
func (m Mapping) RoleOf(header string) (Role, bool) {
	for r, h := range m {
		if h == header {
			return r, true
		}
	}
	return "", false
}

// Missing returns unassigned roles in display order.
func (m Mapping) Missing() []Role {
	var out []Role
	for _, r := range Roles {
		if m[r] == "" {
			out = append(out, r)
		}
	}
	return out
}

func (m Mapping) Complete() bool {
	return len(m.Missing()) == 0
}

// Apply returns base with its column names replaced by the mapping. Every
// role must be assigned.
func (m Mapping) Apply(base config.LedgerProfile) (config.LedgerProfile, error) {
	if missing := m.Missing(); len(missing) > 0 {
		return base, fmt.Errorf("unassigned roles: %v", missing)
	}
	base.DestinationColumn = m[RoleDestination]
	base.ItemCodeColumn = m[RoleItemCode]
	base.QuantityColumn = m[RoleQuantity]
	return base, nil
}

// FromProfile assigns the profile's column names to roles where the header
// row actually contains them.
func FromProfile(headers []string, p config.LedgerProfile) Mapping {
	m := Mapping{}
	want := map[Role]string{
		RoleDestination: p.DestinationColumn,
		RoleItemCode:    p.ItemCodeColumn,
		RoleQuantity:    p.QuantityColumn,
	}
	for _, r := range Roles {
		name := strings.TrimSpace(want[r])
		if name == "" {
			continue
		}
		for _, h := range headers {
			if strings.TrimSpace(h) == name {
				m.Set(r, h)
				break
			}
		}
	}
	return m
}

// ReadColumnsFromFile reads column names from a text file (one per line)
func ReadColumnsFromFile(filepath string) ([]string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filepath, err)
	}
	defer file.Close()

	var columns []string
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			columns = append(columns, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", filepath, err)
	}

	return columns, nil
}
