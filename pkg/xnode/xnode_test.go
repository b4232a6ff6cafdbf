package xnode

import (
	"encoding/json"
	"testing"
)

func TestPathSafeID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://node.example", "https:node.example"},
		{"../../etc/passwd", "....etcpasswd"},
		{`a\b/c`, "abc"},
		{"plain", "plain"},
	}
	for _, c := range cases {
		if got := PathSafeID(c.in); got != c.want {
			t.Errorf("PathSafeID(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestContainerID(t *testing.T) {
	if got := ContainerID("10.0.0.1"); got != "10-0-0-1" {
		t.Fatalf("got %q", got)
	}
	if got := ContainerID("8f14e45f-ceea"); got != "8f14e45f-ceea" {
		t.Fatalf("uuid secret mangled: %q", got)
	}
}

func TestConfigActionWireShape(t *testing.T) {
	set, err := json.Marshal([]ConfigAction{{Set: &SetAction{
		Container: "c1",
		Config:    ContainerConfig{Flake: "github:org/app"},
	}}})
	if err != nil {
		t.Fatal(err)
	}
	want := `[{"Set":{"container":"c1","config":{"flake":"github:org/app"}}}]`
	if string(set) != want {
		t.Fatalf("set action wire shape:\n got %s\nwant %s", set, want)
	}

	remove, err := json.Marshal([]ConfigAction{{Remove: &RemoveAction{Container: "c1", Backup: false}}})
	if err != nil {
		t.Fatal(err)
	}
	want = `[{"Remove":{"container":"c1","backup":false}}]`
	if string(remove) != want {
		t.Fatalf("remove action wire shape:\n got %s\nwant %s", remove, want)
	}
}
