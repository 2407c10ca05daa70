package auth

import "strings"

// Designation is the role an organization user holds inside its organization.
type Designation uint8

const (
	DesignationUnknown Designation = iota
	DesignationAdmin
	DesignationManager
	DesignationCashier
	DesignationOther
)

var designationNames = map[Designation]string{
	DesignationAdmin:   "Admin",
	DesignationManager: "Manager",
	DesignationCashier: "Cashier",
	DesignationOther:   "Other",
}

func (d Designation) String() string {
	return designationNames[d]
}

// Known reports whether d is one of the named designations.
func (d Designation) Known() bool {
	_, ok := designationNames[d]
	return ok
}

// CashierView reports whether the principal gets the restricted cashier dashboard.
func (d Designation) CashierView() bool {
	return d == DesignationCashier
}

// ParseDesignation maps a designation name to its value. Matching ignores case
// and surrounding whitespace; anything else is DesignationUnknown.
func ParseDesignation(s string) Designation {
	s = strings.TrimSpace(s)
	for d, name := range designationNames {
		if strings.EqualFold(s, name) {
			return d
		}
	}
	return DesignationUnknown
}

func (d Designation) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Designation) UnmarshalText(b []byte) error {
	parsed := ParseDesignation(string(b))
	if parsed == DesignationUnknown && strings.TrimSpace(string(b)) != "" {
		return invalidInput("unknown designation %q", string(b))
	}
	*d = parsed
	return nil
}

// Kind distinguishes platform administrators from organization users.
type Kind string

const (
	KindAdmin   Kind = "admin"
	KindOrgUser Kind = "org_user"
)

// ParseKind validates a principal kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindAdmin, KindOrgUser:
		return k, nil
	case "":
		return KindOrgUser, nil
	default:
		return "", invalidInput("unknown principal kind %q", s)
	}
}

// Status is the lifecycle state of a principal.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusDeleted  Status = "deleted"
)

// ParseStatus accepts any casing of the known statuses.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusActive, StatusInactive, StatusDeleted:
		return st, nil
	default:
		return "", invalidInput("unknown status %q", s)
	}
}
