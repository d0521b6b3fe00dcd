package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landledger/pkg/domainerrors"
)

func TestResolveRole(t *testing.T) {
	assert.Equal(t, RoleRevenue, ResolveRole(OrgRevenue))
	assert.Equal(t, RoleRegistrar, ResolveRole(OrgRegistrar))
	assert.Equal(t, RoleBank, ResolveRole(OrgBank))
	assert.Equal(t, RoleAdmin, ResolveRole(OrgGovTech))
	assert.Equal(t, RolePublic, ResolveRole("SomeOtherOrg"))
	assert.Equal(t, RolePublic, ResolveRole(""))
}

func TestPermissionTable(t *testing.T) {
	cases := []struct {
		op      Operation
		allowed []Role
	}{
		{OpCreateParcel, []Role{RoleRevenue, RoleRegistrar}},
		{OpProposeTransfer, []Role{RoleRegistrar}},
		{OpFinalizeTransfer, []Role{RoleRegistrar}},
		{OpRaiseDispute, []Role{RoleRevenue, RoleAdmin}},
		{OpResolveDispute, []Role{RoleRevenue, RoleAdmin}},
		{OpCreateMortgage, []Role{RoleBank}},
		{OpCloseMortgage, []Role{RoleBank}},
		{OpFreezeParcel, []Role{RoleAdmin}},
		{OpUnfreezeParcel, []Role{RoleAdmin}},
	}

	roles := []Role{RoleRevenue, RoleRegistrar, RoleBank, RoleAdmin, RolePublic}
	for _, tc := range cases {
		t.Run(string(tc.op), func(t *testing.T) {
			allowed := map[Role]bool{}
			for _, r := range tc.allowed {
				allowed[r] = true
			}
			for _, role := range roles {
				assert.Equal(t, allowed[role], HasPermission(role, tc.op),
					"role %s on %s", role, tc.op)
			}
		})
	}
}

func TestAssertPermission(t *testing.T) {
	t.Run("allows permitted caller", func(t *testing.T) {
		caller := NewCaller("registrar-1", OrgRegistrar)
		require.NoError(t, AssertPermission(caller, OpProposeTransfer))
	})

	t.Run("denies with caller identity in message", func(t *testing.T) {
		caller := NewCaller("bank-7", OrgBank)
		err := AssertPermission(caller, OpProposeTransfer)
		require.Error(t, err)
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodePermissionDenied))
		assert.Contains(t, err.Error(), "bank-7")
		assert.Contains(t, err.Error(), string(RoleBank))
	})

	t.Run("public caller cannot mutate anything", func(t *testing.T) {
		caller := NewCaller("citizen-1", "")
		for _, op := range []Operation{
			OpCreateParcel, OpProposeTransfer, OpFinalizeTransfer,
			OpRaiseDispute, OpResolveDispute,
			OpCreateMortgage, OpCloseMortgage,
			OpFreezeParcel, OpUnfreezeParcel,
		} {
			assert.Error(t, AssertPermission(caller, op), "op %s", op)
		}
	})
}
