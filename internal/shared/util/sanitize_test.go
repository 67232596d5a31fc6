package util

import "testing"

func TestDisplayName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "report.pdf", want: "report.pdf"},
		{in: "  report.pdf ", want: "report.pdf"},
		{in: `C:\Users\me\report.pdf`, want: "report.pdf"},
		{in: "a/b/../c.txt", want: "c.txt"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.in); got != tt.want {
			t.Fatalf("DisplayName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFileExtension(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Report.PDF", want: "pdf"},
		{in: "archive.tar.gz", want: "gz"},
		{in: "README", want: ""},
		{in: "trailing.", want: ""},
		{in: ".env", want: "env"},
		{in: "dir.v2/README", want: ""},
	}
	for _, tt := range tests {
		if got := FileExtension(tt.in); got != tt.want {
			t.Fatalf("FileExtension(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
