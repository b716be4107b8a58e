package telnet

import "testing"

func TestClassifyCommands(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		kind    ItemKind
		payload string
	}{
		{"create", "c#cdid", ItemCreateIdentity, ""},
		{"whoami", "c#wai", ItemWhoAmI, ""},
		{"presentation", "c#svp", ItemShowPresentation, ""},
		{"show", "c#sdid1234", ItemShowIdentity, "1234"},
		{"show_did", "c#sdiddid:key:abc", ItemShowIdentity, "did:key:abc"},
		{"verify", "c#vdid1234", ItemVerifyIdentity, "1234"},
		{"role", "c#arholder", ItemAssignRole, "holder"},
		{"role_spaced", "c#ar holder", ItemAssignRole, "holder"},
		{"role_empty", "c#ar", ItemAssignRole, ""},
		{"plain", "hello", ItemLine, "hello"},
		{"plain_prefix_lookalike", "c#xyz", ItemLine, "c#xyz"},
		{"plain_short", "c#", ItemLine, "c#"},
		{"empty", "", ItemLine, ""},
		// Create with trailing bytes is not an exact match; it falls
		// through to the c# lookalike case and stays a plain line.
		{"create_trailing", "c#cdidX", ItemLine, "c#cdidX"},
		{"case_sensitive", "C#CDID", ItemLine, "C#CDID"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			item := classifyLine([]byte(tc.line))
			if item.Kind != tc.kind {
				t.Errorf("kind = %v, want %v", item.Kind, tc.kind)
			}
			if string(item.Payload) != tc.payload {
				t.Errorf("payload = %q, want %q", item.Payload, tc.payload)
			}
		})
	}
}

func TestClassifyThroughDecoder(t *testing.T) {
	d := NewDecoder()
	item, _, err := d.Decode([]byte("c#sdid1234\n"))
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if item.Kind != ItemShowIdentity || string(item.Payload) != "1234" {
		t.Errorf("item = %v, want ShowIdentity 1234", item)
	}
}
