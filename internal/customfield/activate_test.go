package customfield

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivate_InitialValues(t *testing.T) {
	cases := map[ValueType]any{TypeBool: true, TypeStr: "", TypeNum: nil}
	for vt, want := range cases {
		act, err := Activate(KindCard, vt, 4)
		require.NoError(t, err)
		v, ok := act.EntityPatch[Slot{Kind: KindCard, Type: vt, Index: 4}.Key()]
		require.True(t, ok, "patch must carry the slot key")
		assert.Equal(t, want, v)
		require.NotNil(t, act.SettingPatch.IsEnabled)
		assert.True(t, *act.SettingPatch.IsEnabled)
		assert.Nil(t, act.SettingPatch.DisplayName)
		assert.Nil(t, act.SettingPatch.Description)
	}
}

func TestActivate_BoolSlotBecomesVisibleInReadOnly(t *testing.T) {
	settings := DefaultSettings(KindDeck)
	values := Values{}
	act, err := Activate(KindDeck, TypeBool, 1)
	require.NoError(t, err)
	for k, v := range act.EntityPatch {
		values[k] = v
	}
	settings.Update(act.Slot, act.SettingPatch)

	r := Resolve(KindDeck, settings, values, true)
	assert.Equal(t, []string{"custom_1_bool"}, activeKeys(r))
}

func TestActivate_SettingIdempotent(t *testing.T) {
	settings := DefaultSettings(KindPack)
	settings.Update(Slot{Kind: KindPack, Type: TypeStr, Index: 2}, SettingPatch{DisplayName: lo.ToPtr("Set code")})
	for i := 0; i < 2; i++ {
		act, err := Activate(KindPack, TypeStr, 2)
		require.NoError(t, err)
		settings.Update(act.Slot, act.SettingPatch)
	}
	got := settings.Get(Slot{Kind: KindPack, Type: TypeStr, Index: 2})
	assert.True(t, got.IsEnabled)
	assert.Equal(t, "Set code", got.DisplayName)
}

func TestActivate_InvalidSlot(t *testing.T) {
	_, err := Activate(KindCard, TypeNum, 11)
	assert.ErrorIs(t, err, ErrUnknownSlot)
}

func TestDeleteValue_GuardRejectsEnabled(t *testing.T) {
	settings := DefaultSettings(KindCard)
	slot := Slot{Kind: KindCard, Type: TypeStr, Index: 1}
	settings.Update(slot, SettingPatch{IsEnabled: lo.ToPtr(true)})
	values := Values{"custom_1_str": "keep"}

	patch, err := DeleteValue(KindCard, TypeStr, 1, settings)
	assert.ErrorIs(t, err, ErrGuardRejected)
	assert.Nil(t, patch)
	assert.Equal(t, "keep", values["custom_1_str"])
	assert.True(t, settings.Get(slot).IsEnabled)
}

func TestDeleteValue_ClearsDisabled(t *testing.T) {
	settings := DefaultSettings(KindCard)
	cases := map[ValueType]any{TypeBool: false, TypeStr: "", TypeNum: nil}
	for vt, want := range cases {
		patch, err := DeleteValue(KindCard, vt, 6, settings)
		require.NoError(t, err)
		assert.Equal(t, EntityPatch{Slot{Kind: KindCard, Type: vt, Index: 6}.Key(): want}, patch)
	}
	assert.False(t, settings.Get(Slot{Kind: KindCard, Type: TypeBool, Index: 6}).IsEnabled)
}
