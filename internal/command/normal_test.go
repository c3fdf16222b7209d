package command

import "testing"

func feedAll(t *testing.T, keys ...string) (Command, error) {
	t.Helper()
	var reg NormalRegister
	var cmd Command
	var err error
	for _, k := range keys {
		cmd, err = reg.Feed(k)
	}
	return cmd, err
}

func TestFeed_ResolvesMotions(t *testing.T) {
	cases := []struct {
		name string
		keys []string
		want Command
	}{
		{"pan left", []string{"h"}, Pan{Bases: -1}},
		{"pan right with prefix", []string{"5", "l"}, Pan{Bases: 5}},
		{"pan left 20", []string{"2", "0", "h"}, Pan{Bases: -20}},
		{"scroll down", []string{"j"}, Scroll{Lanes: 1}},
		{"scroll up", []string{"k"}, Scroll{Lanes: -1}},
		{"window left", []string{"y"}, PanWindow{Windows: -1}},
		{"window right", []string{"3", "p"}, PanWindow{Windows: 3}},
		{"zoom in", []string{"z"}, ZoomIn{Factor: 2}},
		{"zoom in 10", []string{"1", "0", "z"}, ZoomIn{Factor: 20}},
		{"zoom out", []string{"o"}, ZoomOut{Factor: 2}},
		{"next exon start", []string{"w"}, FeatureMotion{Kind: FeatureExon, Edge: EdgeStart, Forward: true, Count: 1}},
		{"prev exon start", []string{"b"}, FeatureMotion{Kind: FeatureExon, Edge: EdgeStart, Forward: false, Count: 1}},
		{"next exon end", []string{"e"}, FeatureMotion{Kind: FeatureExon, Edge: EdgeEnd, Forward: true, Count: 1}},
		{"prev exon end", []string{"g", "e"}, FeatureMotion{Kind: FeatureExon, Edge: EdgeEnd, Forward: false, Count: 1}},
		{"next gene start x3", []string{"3", "W"}, FeatureMotion{Kind: FeatureGene, Edge: EdgeStart, Forward: true, Count: 3}},
		{"prev gene end", []string{"g", "E"}, FeatureMotion{Kind: FeatureGene, Edge: EdgeEnd, Forward: false, Count: 1}},
		{"prev gene start", []string{"B"}, FeatureMotion{Kind: FeatureGene, Edge: EdgeStart, Forward: false, Count: 1}},
		{"lanes top", []string{"g", "g"}, ScrollTop{}},
		{"lanes bottom", []string{"G"}, ScrollBottom{}},
		{"large scroll up", []string{"{"}, Scroll{Lanes: -30}},
		{"large scroll down", []string{"2", "}"}, Scroll{Lanes: 60}},
		{"arrow alias", []string{"left"}, Pan{Bases: -1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := feedAll(t, tc.keys...)
			if err != nil {
				t.Fatalf("Feed(%v) returned error: %v", tc.keys, err)
			}
			if got != tc.want {
				t.Fatalf("Feed(%v) = %#v, want %#v", tc.keys, got, tc.want)
			}
		})
	}
}

func TestFeed_DigitsAccumulateWithoutResolving(t *testing.T) {
	var reg NormalRegister
	for _, k := range []string{"1", "2", "3"} {
		cmd, err := reg.Feed(k)
		if cmd != nil || err != nil {
			t.Fatalf("Feed(%q) = (%v, %v), want pending", k, cmd, err)
		}
	}
	if reg.Pending() != "123" {
		t.Fatalf("Pending = %q, want %q", reg.Pending(), "123")
	}
}

func TestFeed_ZeroPrefixActsAsOne(t *testing.T) {
	got, err := feedAll(t, "0", "l")
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}
	if got != (Pan{Bases: 1}) {
		t.Fatalf("0l = %#v, want Pan{1}", got)
	}
}

func TestFeed_RepeatPrefixIsCapped(t *testing.T) {
	got, err := feedAll(t, "9", "9", "9", "9", "9", "9", "l")
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}
	if got != (Pan{Bases: maxRepeat}) {
		t.Fatalf("999999l = %#v, want Pan{%d}", got, maxRepeat)
	}
}

func TestFeed_InvalidSequencesError(t *testing.T) {
	for _, keys := range [][]string{{"x"}, {"g", "x"}, {"3", "x"}, {"3", "g", "x"}} {
		cmd, err := feedAll(t, keys...)
		if err == nil {
			t.Fatalf("Feed(%v) = %#v, want error", keys, cmd)
		}
	}
}

func TestFeed_EscClearsRegister(t *testing.T) {
	var reg NormalRegister
	_, _ = reg.Feed("4")
	_, _ = reg.Feed("g")
	if _, err := reg.Feed("esc"); err != nil {
		t.Fatalf("esc returned error: %v", err)
	}
	if reg.Pending() != "" {
		t.Fatalf("Pending = %q after esc, want empty", reg.Pending())
	}
}

func TestNormalRoundTrip(t *testing.T) {
	cmds := []Command{
		Pan{Bases: -20},
		Pan{Bases: 1},
		PanWindow{Windows: 2},
		Scroll{Lanes: -3},
		ZoomIn{Factor: 4},
		ZoomOut{Factor: 2},
		FeatureMotion{Kind: FeatureGene, Edge: EdgeEnd, Forward: false, Count: 2},
		FeatureMotion{Kind: FeatureExon, Edge: EdgeStart, Forward: true, Count: 1},
		ScrollTop{},
		ScrollBottom{},
	}
	for _, want := range cmds {
		var reg NormalRegister
		var got Command
		var err error
		for _, r := range want.String() {
			got, err = reg.Feed(string(r))
			if err != nil {
				t.Fatalf("replaying %q: %v", want.String(), err)
			}
		}
		if got != want {
			t.Fatalf("round trip of %q = %#v, want %#v", want.String(), got, want)
		}
	}
}
