// Package access maps caller organizations to roles and gates every mutating
// operation through a fixed permission table. Identities are authenticated
// upstream; this package only classifies and authorizes them.
package access

import (
	"landledger/pkg/domainerrors"
)

// Role is the caller's institutional classification.
type Role string

const (
	RoleRevenue   Role = "REVENUE"
	RoleRegistrar Role = "REGISTRAR"
	RoleBank      Role = "BANK"
	RoleAdmin     Role = "ADMIN"
	RolePublic    Role = "PUBLIC"
)

// Organization tags recognized at the boundary. Anything else resolves to the
// public role, which can only read.
const (
	OrgRevenue   = "OrgRevenueMSP"
	OrgRegistrar = "OrgRegistrationMSP"
	OrgBank      = "OrgBankMSP"
	OrgGovTech   = "OrgGovTechMSP"
)

// ResolveRole classifies an organization tag. Resolution happens once at the
// boundary; services only ever see the typed role.
func ResolveRole(org string) Role {
	switch org {
	case OrgRevenue:
		return RoleRevenue
	case OrgRegistrar:
		return RoleRegistrar
	case OrgBank:
		return RoleBank
	case OrgGovTech:
		return RoleAdmin
	default:
		return RolePublic
	}
}

// Caller is the per-invocation identity supplied by the execution context.
type Caller struct {
	ID   string
	Org  string
	Role Role
}

// NewCaller builds a caller with its role resolved from the organization tag.
func NewCaller(id, org string) Caller {
	return Caller{ID: id, Org: org, Role: ResolveRole(org)}
}

// Operation names a permission-checked registry operation.
type Operation string

const (
	OpCreateParcel     Operation = "CreateParcel"
	OpProposeTransfer  Operation = "ProposeSaleTransfer"
	OpFinalizeTransfer Operation = "FinalizeSaleTransfer"
	OpRaiseDispute     Operation = "RaiseDispute"
	OpResolveDispute   Operation = "ResolveDispute"
	OpCreateMortgage   Operation = "CreateMortgage"
	OpCloseMortgage    Operation = "CloseMortgage"
	OpFreezeParcel     Operation = "FreezeParcel"
	OpUnfreezeParcel   Operation = "UnfreezeParcel"
)

// permissions is the fixed table of roles allowed per operation. Reads are
// public and never consult it.
var permissions = map[Operation][]Role{
	OpCreateParcel:     {RoleRevenue, RoleRegistrar},
	OpProposeTransfer:  {RoleRegistrar},
	OpFinalizeTransfer: {RoleRegistrar},
	OpRaiseDispute:     {RoleRevenue, RoleAdmin},
	OpResolveDispute:   {RoleRevenue, RoleAdmin},
	OpCreateMortgage:   {RoleBank},
	OpCloseMortgage:    {RoleBank},
	OpFreezeParcel:     {RoleAdmin},
	OpUnfreezeParcel:   {RoleAdmin},
}

// HasPermission reports whether the role may invoke the operation.
func HasPermission(role Role, op Operation) bool {
	for _, allowed := range permissions[op] {
		if allowed == role {
			return true
		}
	}
	return false
}

// AssertPermission fails with PERMISSION_DENIED, naming the caller and role,
// when the caller may not invoke the operation. Every mutating operation calls
// this before reading any ledger state.
func AssertPermission(caller Caller, op Operation) error {
	if HasPermission(caller.Role, op) {
		return nil
	}
	return domainerrors.Newf(domainerrors.CodePermissionDenied,
		"%s not permitted for caller %s (role %s)", op, caller.ID, caller.Role)
}
