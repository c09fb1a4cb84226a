//go:build go1.18

package domain

import (
	"testing"
)

// FuzzParseApplicationID tests that parsing never panics on arbitrary input
// and always returns either a valid ID or an error.
func FuzzParseApplicationID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE applications;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseApplicationID(input)
		if err != nil {
			return
		}
		if id.IsNil() {
			t.Error("parsed nil id without error")
		}
		roundTrip, err := ParseApplicationID(id.String())
		if err != nil {
			t.Errorf("valid ID failed round-trip: %v", err)
		}
		if roundTrip != id {
			t.Error("round-trip changed ID value")
		}
	})
}

// FuzzParseUserID checks the holder identifier boundary never accepts blanks.
func FuzzParseUserID(f *testing.F) {
	f.Add("AB1234567")
	f.Add("")
	f.Add(" \t ")
	f.Add("a\x00b")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseUserID(input)
		if err != nil {
			return
		}
		if id.IsNil() {
			t.Error("parsed empty user id without error")
		}
		if len(id) > maxUserIDLength {
			t.Errorf("accepted oversized id of length %d", len(id))
		}
	})
}
