//go:build go1.18

package domain

import (
	"testing"
)

// FuzzParsePetitionID checks the parser never panics and that every accepted
// input survives a String round trip.
func FuzzParsePetitionID(f *testing.F) {
	f.Add("123e4567-e89b-12d3-a456-426614174000")
	f.Add("")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("1' OR '1'='1")
	f.Add("../../etc/passwd")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParsePetitionID(input)
		if err != nil {
			return
		}
		if id.IsNil() {
			t.Fatalf("parser accepted input %q but produced nil id", input)
		}
		reparsed, err := ParsePetitionID(id.String())
		if err != nil {
			t.Fatalf("round trip failed for %q: %v", input, err)
		}
		if reparsed != id {
			t.Fatalf("round trip changed id: %v != %v", reparsed, id)
		}
	})
}
