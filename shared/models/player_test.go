package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeaponKills_PreservesOrder(t *testing.T) {
	input := `{"ak": {"kills": 5, "hits": 10}, "m4": {"kills": 9}, "knife": {"kills": 9}}`

	var w WeaponKills
	require.NoError(t, json.Unmarshal([]byte(input), &w))

	assert.Equal(t, WeaponKills{
		{Weapon: "ak", Kills: 5},
		{Weapon: "m4", Kills: 9},
		{Weapon: "knife", Kills: 9},
	}, w)
}

func TestWeaponKills_BareNumbersAndGarbage(t *testing.T) {
	input := `{"mosin": 3, "broken": "x", "sks": {}}`

	var w WeaponKills
	require.NoError(t, json.Unmarshal([]byte(input), &w))

	assert.Equal(t, WeaponKills{
		{Weapon: "mosin", Kills: 3},
		{Weapon: "broken", Kills: 0},
		{Weapon: "sks", Kills: 0},
	}, w)
}

func TestWeaponKills_NullAndNonObject(t *testing.T) {
	var w WeaponKills
	require.NoError(t, json.Unmarshal([]byte(`null`), &w))
	assert.Nil(t, w)

	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &w))
}

func TestWeaponKills_EmptyArrayIsEmpty(t *testing.T) {
	var rec struct {
		Weapons WeaponKills `json:"weapons"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"weapons": [ ]}`), &rec))
	assert.NotNil(t, rec.Weapons)
	assert.Empty(t, rec.Weapons)
}

func TestWeaponKills_MarshalKeepsOrder(t *testing.T) {
	w := WeaponKills{{Weapon: "zeta", Kills: 1}, {Weapon: "alpha", Kills: 2}}
	data, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `{"zeta":{"kills":1},"alpha":{"kills":2}}`, string(data))
	assert.Equal(t, `{"zeta":{"kills":1},"alpha":{"kills":2}}`, string(data))
}
