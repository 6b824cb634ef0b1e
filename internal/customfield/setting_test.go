package customfield

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_UpdateSettingShallowMerge(t *testing.T) {
	r := NewRegistry()

	got, err := r.UpdateSetting(KindCard, TypeStr, 2, SettingPatch{DisplayName: lo.ToPtr("Artist")})
	require.NoError(t, err)
	assert.Equal(t, FieldSetting{DisplayName: "Artist"}, got)

	got, err = r.UpdateSetting(KindCard, TypeStr, 2, SettingPatch{Description: lo.ToPtr("Who drew it")})
	require.NoError(t, err)
	assert.Equal(t, FieldSetting{DisplayName: "Artist", Description: "Who drew it"}, got)

	got, err = r.UpdateSetting(KindCard, TypeStr, 2, SettingPatch{IsEnabled: lo.ToPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, FieldSetting{DisplayName: "Artist", Description: "Who drew it", IsEnabled: true}, got)

	// other kinds are untouched
	assert.Equal(t, "Text 2", r.Setting(Slot{Kind: KindDeck, Type: TypeStr, Index: 2}).DisplayName)
}

func TestRegistry_UpdateSettingInvalidIndex(t *testing.T) {
	r := NewRegistry()
	_, err := r.UpdateSetting(KindDeck, TypeBool, 0, SettingPatch{IsEnabled: lo.ToPtr(true)})
	assert.ErrorIs(t, err, ErrUnknownSlot)
}

func TestRegistry_ReplaceFillsDefaults(t *testing.T) {
	r := NewRegistry()
	r.Replace(KindPack, Settings{"bool_3": {DisplayName: "Sealed", IsEnabled: true}, "junk": {}})
	s := r.Settings(KindPack)
	assert.Len(t, s, 30)
	assert.NotContains(t, s, "junk")
	assert.Equal(t, "Sealed", s["bool_3"].DisplayName)
	assert.Equal(t, "Number 1", s["num_1"].DisplayName)
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings(KindCard)
	require.Len(t, s, 30)
	for _, fs := range s {
		assert.False(t, fs.IsEnabled)
	}
	assert.Equal(t, "Checkbox 10", s["bool_10"].DisplayName)
}

func TestNormalize(t *testing.T) {
	v, err := Normalize(TypeNum, 3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	v, err = Normalize(TypeNum, nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = Normalize(TypeBool, nil)
	require.NoError(t, err)
	assert.Equal(t, false, v)

	_, err = Normalize(TypeStr, 12.0)
	assert.ErrorIs(t, err, ErrInvalidValue)
	_, err = Normalize(TypeBool, "true")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestExtraFields(t *testing.T) {
	var f ExtraFields
	f, err := f.Add("Grader", "PSA")
	require.NoError(t, err)

	same, err := f.Add("  grader ", "BGS")
	assert.ErrorIs(t, err, ErrValidationRejected)
	assert.Equal(t, f, same)

	_, err = f.Add(" ", "x")
	assert.ErrorIs(t, err, ErrValidationRejected)

	f, ok := f.Set("GRADER", "CGC")
	require.True(t, ok)
	assert.Equal(t, ExtraFields{{Key: "Grader", Value: "CGC"}}, f)

	_, ok = f.Set("nope", "x")
	assert.False(t, ok)

	assert.Empty(t, f.Remove("grader"))
}
