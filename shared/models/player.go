// shared/models/player.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// PlayerStats is one player's detailed snapshot for a server scope.
// Name history is kept in provider order (oldest first); the formatter reverses it.
type PlayerStats struct {
	ID          string
	NameHistory []string
	Deaths      int
	Hits        int
	KDRatio     float64
	Kills       int
	Suicides    int
	LongestKill float64
	LongestShot float64
	Weapons     WeaponKills
	Playtime    int64 // seconds
	Sessions    int
	UpdatedAt   time.Time
}

// WeaponKill is a single weapon's kill count.
type WeaponKill struct {
	Weapon string
	Kills  int
}

// WeaponKills preserves the provider's key order of the weapons object.
// A Go map would lose it, and favorite-weapon ties are broken by that order.
type WeaponKills []WeaponKill

// UnmarshalJSON walks the object token by token so insertion order survives.
// Accepts both {"ak": {"kills": 5}} and {"ak": 5}, and treats [] like {}.
func (w *WeaponKills) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*w = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("weapons: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if ok && delim == '[' && !dec.More() {
		// Some records carry an empty list instead of an empty object.
		*w = WeaponKills{}
		return nil
	}
	if !ok || delim != '{' {
		return fmt.Errorf("weapons: expected object, got %v", tok)
	}

	out := make(WeaponKills, 0)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("weapons: %w", err)
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("weapons: unexpected key %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("weapons: value for %q: %w", name, err)
		}
		out = append(out, WeaponKill{Weapon: name, Kills: weaponKillCount(raw)})
	}
	*w = out
	return nil
}

// weaponKillCount defaults to 0 for anything it cannot read.
func weaponKillCount(raw json.RawMessage) int {
	var stats struct {
		Kills float64 `json:"kills"`
	}
	if err := json.Unmarshal(raw, &stats); err == nil {
		return int(stats.Kills)
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n)
	}
	return 0
}

// MarshalJSON writes the object form back in slice order.
func (w WeaponKills) MarshalJSON() ([]byte, error) {
	if w == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, wk := range w {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(wk.Weapon)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		fmt.Fprintf(&buf, `:{"kills":%d}`, wk.Kills)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
