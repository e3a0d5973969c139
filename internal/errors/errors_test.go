package errors

import (
	"strings"
	"testing"

	"github.com/o3lang/o3c/internal/diag"
	"github.com/o3lang/o3c/internal/source"
)

func TestFormatter_Format(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		source   string
		diag     diag.Diagnostic
		wantFrag []string
	}{
		{
			name:   "error with source line",
			file:   "demo.o3",
			source: "fn main() -> i32 {\n  return x;\n}\n",
			diag:   diag.New(diag.Error, source.Position{Line: 2, Column: 10}, "O3S202", "undefined identifier: x"),
			wantFrag: []string{
				"demo.o3:2:10",
				"return x;",
				"^",
				"undefined identifier: x [O3S202]",
			},
		},
		{
			name:   "no file name falls back to bare position",
			file:   "",
			source: "fn f() {}\n",
			diag:   diag.New(diag.Warning, source.Position{Line: 1, Column: 1}, "", "empty body"),
			wantFrag: []string{
				"at line 1:1",
				"empty body",
			},
		},
		{
			name:   "position past end of source omits the line",
			file:   "demo.o3",
			source: "fn f() {}\n",
			diag:   diag.New(diag.Error, source.Position{Line: 99, Column: 1}, "O3S200", "out of range"),
			wantFrag: []string{
				"demo.o3:99:1",
				"out of range [O3S200]",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFormatter(tt.file, tt.source)
			got := f.Format(tt.diag, false)
			for _, frag := range tt.wantFrag {
				if !strings.Contains(got, frag) {
					t.Errorf("Format() = %q, missing fragment %q", got, frag)
				}
			}
		})
	}
}

func TestFormatter_FormatAll(t *testing.T) {
	f := NewFormatter("demo.o3", "fn f() {}\n")
	diags := []diag.Diagnostic{
		diag.New(diag.Error, source.Position{Line: 1, Column: 1}, "O3S200", "first"),
		diag.New(diag.Error, source.Position{Line: 1, Column: 5}, "O3S201", "second"),
	}
	got := f.FormatAll(diags, false)
	if !strings.Contains(got, "first") || !strings.Contains(got, "second") {
		t.Errorf("FormatAll() missing one of the diagnostics: %q", got)
	}
}
