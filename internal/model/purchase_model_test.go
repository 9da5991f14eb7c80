package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTotal(t *testing.T) {
	tests := []struct {
		invite         InviteType
		mesa, parking  bool
		expectedAmount int64
	}{
		{InviteUnitario, false, false, 2500},
		{InviteUnitario, true, false, 4500},
		{InviteUnitario, false, true, 4500},
		{InviteUnitario, true, true, 6500},
		{InviteCasal, false, false, 4000},
		{InviteCasal, true, false, 6000},
		{InviteCasal, false, true, 6000},
		{InviteCasal, true, true, 8000},
	}

	for _, tt := range tests {
		t.Run(string(tt.invite), func(t *testing.T) {
			assert.Equal(t, tt.expectedAmount, ComputeTotal(tt.invite, tt.mesa, tt.parking))
		})
	}
}

func TestValidPhone(t *testing.T) {
	valid := []string{"(11) 98765-4321", "11987654321", "1187654321", "(21)3456-7890", "11 98765-4321"}
	for _, p := range valid {
		assert.True(t, ValidPhone(p), p)
	}

	invalid := []string{"", "123", "+55 11 98765-4321", "(11) 9876-54321", "abcdefghijk", "119876543210"}
	for _, p := range invalid {
		assert.False(t, ValidPhone(p), p)
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	for _, p := range []string{"(11) 98765-4321", "11987654321", "(21)3456-7890"} {
		once := NormalizePhone(p)
		assert.Regexp(t, `^\d+$`, once)
		assert.Equal(t, once, NormalizePhone(once))
	}
	assert.Equal(t, "11987654321", NormalizePhone("(11) 98765-4321"))
}

func TestPurchaseCreateRequest_Validate(t *testing.T) {
	ok := PurchaseCreateRequest{Name: "Ana", Surname: "Silva", Phone: "(11) 98765-4321", InviteType: InviteCasal}
	require.NoError(t, ok.Validate())

	badPhone := ok
	badPhone.Phone = "12345"
	assert.True(t, errors.Is(badPhone.Validate(), ErrValidation))

	badType := ok
	badType.InviteType = "vip"
	assert.True(t, errors.Is(badType.Validate(), ErrValidation))

	badRef := ok
	badRef.ExternalReference = "has spaces"
	assert.True(t, errors.Is(badRef.Validate(), ErrValidation))

	goodRef := ok
	goodRef.ExternalReference = "ref_2026-01"
	assert.NoError(t, goodRef.Validate())
}

func TestMoneyConversion(t *testing.T) {
	assert.Equal(t, 65.0, CentsToAmount(6500))
	assert.Equal(t, 25.5, CentsToAmount(2550))
	assert.Equal(t, int64(6500), AmountToCents(65))
	assert.Equal(t, int64(1999), AmountToCents(19.99))
	assert.Equal(t, int64(4000), AmountToCents(CentsToAmount(4000)))
}
