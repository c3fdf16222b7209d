package command

import (
	"testing"

	"github.com/tgvdev/tgv/internal/tgverr"
)

func TestParseLine(t *testing.T) {
	cases := []struct {
		input string
		want  Command
	}{
		{"q", Quit{}},
		{"h", ShowHelp{}},
		{"ls", ShowContigList{}},
		{"contigs", ShowContigList{}},
		{"1234", GotoPos{Pos: 1234}},
		{"chr1:1000", GotoContigPos{Contig: "chr1", Pos: 1000}},
		{"17:7572659", GotoContigPos{Contig: "17", Pos: 7572659}},
		{"TP53", GotoFeature{Name: "TP53"}},
		{"  TP53  ", GotoFeature{Name: "TP53"}},
	}
	for _, tc := range cases {
		got, err := ParseLine(tc.input)
		if err != nil {
			t.Fatalf("ParseLine(%q) returned error: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("ParseLine(%q) = %#v, want %#v", tc.input, got, tc.want)
		}
	}
}

func TestParseLine_Errors(t *testing.T) {
	cases := []struct {
		input string
		kind  tgverr.Kind
	}{
		{"", tgverr.ParseCommand},
		{"invalid:command:format", tgverr.ParseCommand},
		{"chr1:invalid", tgverr.ParseCommand},
		{"chr1:0", tgverr.OutOfBounds},
		{"-5", tgverr.OutOfBounds},
		{"na me", tgverr.ParseCommand},
	}
	for _, tc := range cases {
		got, err := ParseLine(tc.input)
		if err == nil {
			t.Fatalf("ParseLine(%q) = %#v, want error", tc.input, got)
		}
		if tgverr.KindOf(err) != tc.kind {
			t.Fatalf("ParseLine(%q) error kind = %v, want %v", tc.input, tgverr.KindOf(err), tc.kind)
		}
	}
}

func TestParseLine_RoundTrip(t *testing.T) {
	for _, want := range []Command{
		Quit{},
		ShowHelp{},
		ShowContigList{},
		GotoPos{Pos: 2345},
		GotoContigPos{Contig: "chrX", Pos: 99},
		GotoFeature{Name: "BRCA2"},
	} {
		got, err := ParseLine(want.String())
		if err != nil {
			t.Fatalf("ParseLine(%q) returned error: %v", want.String(), err)
		}
		if got != want {
			t.Fatalf("round trip of %q = %#v, want %#v", want.String(), got, want)
		}
	}
}
