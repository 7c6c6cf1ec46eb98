package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/salesloom-cli/internal/dataset"
)

// Role is the semantic purpose a column plays in an analysis.
type Role string

const (
	RoleRevenue  Role = "revenue"
	RoleCustomer Role = "customer"
	RoleProduct  Role = "product"
	RoleQuantity Role = "quantity"
	RoleDate     Role = "date"
)

// Roles lists every role in resolution order.
var Roles = []Role{RoleRevenue, RoleCustomer, RoleProduct, RoleQuantity, RoleDate}

// RoleTable maps a role to its candidate name fragments in priority order.
type RoleTable map[Role][]string

// DefaultRoleTable returns the built-in candidate lists.
func DefaultRoleTable() RoleTable {
	return RoleTable{
		RoleRevenue:  {"order_amount", "sales", "revenue", "amount", "total", "price"},
		RoleCustomer: {"customer_id", "user_id", "customer", "client_id", "client"},
		RoleProduct:  {"product_name", "product", "item", "sku"},
		RoleQuantity: {"quantity", "qty", "units", "count"},
		RoleDate:     {"date", "order_date", "created_at", "timestamp", "time"},
	}
}

// Merge returns a copy of t with the non-empty entries of override replacing
// the corresponding defaults.
func (t RoleTable) Merge(override map[string][]string) RoleTable {
	out := make(RoleTable, len(t))
	for r, c := range t {
		out[r] = append([]string(nil), c...)
	}
	for name, cands := range override {
		if len(cands) > 0 {
			out[Role(strings.ToLower(name))] = append([]string(nil), cands...)
		}
	}
	return out
}

// Resolution is the column chosen for a role. Matched is false when no
// candidate matched and the first dataset column was used instead.
type Resolution struct {
	Role      Role   `json:"role"`
	Column    string `json:"column"`
	Matched   bool   `json:"matched"`
	Candidate string `json:"candidate,omitempty"`
}

// RoleMap holds the resolution of every role for one dataset.
type RoleMap map[Role]Resolution

// Column returns the resolved column name for r, or "" if r was not resolved.
func (m RoleMap) Column(r Role) string { return m[r].Column }

// Matched reports whether r resolved through a candidate match.
func (m RoleMap) Matched(r Role) bool { return m[r].Matched }

// Resolve picks the column for role. Candidates are tried in priority order
// and each is compared against every column name as a case-insensitive
// substring; the first column matching the earliest matching candidate wins.
// Without any match the first column is returned with Matched=false.
func Resolve(ds *dataset.Dataset, role Role, candidates []string) Resolution {
	res := Resolution{Role: role}
	if ds == nil || len(ds.Columns) == 0 {
		return res
	}
	lowered := make([]string, len(ds.Columns))
	for i, c := range ds.Columns {
		lowered[i] = strings.ToLower(c.Name)
	}
	for _, cand := range candidates {
		needle := strings.ToLower(cand)
		if needle == "" {
			continue
		}
		for i, name := range lowered {
			if strings.Contains(name, needle) {
				res.Column = ds.Columns[i].Name
				res.Matched = true
				res.Candidate = cand
				return res
			}
		}
	}
	res.Column = ds.Columns[0].Name
	return res
}

// ResolveAll resolves every role in Roles against table.
func ResolveAll(ds *dataset.Dataset, table RoleTable) RoleMap {
	m := make(RoleMap, len(Roles))
	for _, r := range Roles {
		m[r] = Resolve(ds, r, table[r])
	}
	return m
}

// ColumnResolutionError reports a role that only resolved through the
// first-column fallback. It is returned only in strict mode; otherwise the
// fallback is logged and noted in the result.
type ColumnResolutionError struct {
	Role     Role
	Fallback string
}

func (e *ColumnResolutionError) Error() string {
	return fmt.Sprintf("no column matches role %q (fallback would use %q)", e.Role, e.Fallback)
}
