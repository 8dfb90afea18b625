package domain

import "testing"

// FuzzParseRef checks that parsing never panics and that accepted refs
// round-trip through their string form.
func FuzzParseRef(f *testing.F) {
	f.Add("")
	f.Add("Article#42")
	f.Add("Blog::Post#1")
	f.Add("#")
	f.Add("'; DROP TABLE activities;--")
	f.Add(string([]byte{0x00, '#', 0x01}))

	f.Fuzz(func(t *testing.T, input string) {
		ref, err := ParseRef(input)
		if err != nil {
			return
		}
		again, err := ParseRef(ref.String())
		if err != nil {
			t.Fatalf("valid ref failed round-trip: %v", err)
		}
		if again != ref {
			t.Fatalf("round-trip changed ref: %v != %v", again, ref)
		}
	})
}
