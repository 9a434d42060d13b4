package domain

import (
	"testing"
)

// FuzzParseSessionID checks that arbitrary external input never panics and
// that any accepted value round-trips through its string form.
func FuzzParseSessionID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		sid, err := ParseSessionID(input)
		if err != nil {
			return
		}
		back, err2 := ParseSessionID(sid.String())
		if err2 != nil {
			t.Errorf("accepted value failed round-trip: %v", err2)
		}
		if back != sid {
			t.Error("round-trip changed the value")
		}
	})
}
