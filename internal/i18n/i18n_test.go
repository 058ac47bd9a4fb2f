package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	return WithLocalizer(context.Background(), NewLocalizer(lang))
}

func TestTranslateIndonesian(t *testing.T) {
	ctx := initLang(t, "id")

	tests := map[string]string{
		"BandHigh":          "Tinggi",
		"BandAdequate":      "Cukup",
		"BandNeedsGuidance": "Perlu Bimbingan",
		"RecapSheetTitle":   "Rekap Nilai",
		"FallbackFeedback":  "Feedback AI gagal (fallback otomatis terpakai).",
		"SubmitSaved":       "Jawaban tersimpan",
	}
	for id, want := range tests {
		if got := T(ctx, id); got != want {
			t.Errorf("T(%s) = %q, want %q", id, got, want)
		}
	}
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "BandNeedsGuidance"); got != "Needs Guidance" {
		t.Errorf("T(BandNeedsGuidance) = %q, want 'Needs Guidance'", got)
	}
	if got := T(ctx, "RecapColScore"); got != "Score (%)" {
		t.Errorf("T(RecapColScore) = %q, want 'Score (%%)'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	if got := Tp(ctx, "WorksheetsStored", 1); got != "1 worksheet stored." {
		t.Errorf("Tp(WorksheetsStored, 1) = %q", got)
	}
	if got := Tp(ctx, "WorksheetsStored", 5); got != "5 worksheets stored." {
		t.Errorf("Tp(WorksheetsStored, 5) = %q", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "id")

	got := Td(ctx, "ExportWritten", map[string]any{"ID": "ab12cd34", "Path": "rekap.csv"})
	if got != "Rekap ab12cd34 ditulis ke rekap.csv" {
		t.Errorf("Td(ExportWritten) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "NonExistentKey"); got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestContextWithoutLocalizerUsesDefault(t *testing.T) {
	initLang(t, "id")
	if got := T(context.Background(), "BandHigh"); got != "Tinggi" {
		t.Errorf("T(BandHigh) = %q, want 'Tinggi'", got)
	}
}

func TestMiddleware(t *testing.T) {
	if err := Init("id"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	tests := []struct {
		name   string
		target string
		accept string
		want   string
	}{
		{"default", "/", "", "Tinggi"},
		{"accept-language", "/", "en-US,en;q=0.9", "High"},
		{"query wins", "/?lang=id", "en", "Tinggi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = T(r.Context(), "BandHigh")
			}))
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
