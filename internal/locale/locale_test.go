package locale

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"en-US":         "en-US",
		"de_DE.UTF-8":   "de-DE",
		"fr_FR@euro":    "fr-FR",
		"  ja  ":        "ja",
		"C":             "",
		"POSIX":         "",
		"":              "",
		"not a locale!": "",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDetect_Precedence(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "pt_BR.UTF-8")

	if got := Detect("es-MX"); got != "es-MX" {
		t.Fatalf("Detect(configured) = %q, want es-MX", got)
	}
	if got := Detect(""); got != "pt-BR" {
		t.Fatalf("Detect(LANG) = %q, want pt-BR", got)
	}

	t.Setenv("LC_ALL", "it_IT.UTF-8")
	if got := Detect(""); got != "it-IT" {
		t.Fatalf("Detect(LC_ALL) = %q, want it-IT", got)
	}

	t.Setenv("LC_ALL", "C")
	t.Setenv("LANG", "C.UTF-8")
	if got := Detect(""); got != Default {
		t.Fatalf("Detect(C) = %q, want %q", got, Default)
	}
}

func TestFromAcceptLanguage(t *testing.T) {
	cases := []struct {
		header, fallback, want string
	}{
		{"fr-CH, fr;q=0.9, en;q=0.8", "", "fr-CH"},
		{"en;q=0.5, de-DE;q=0.9", "", "de-DE"},
		{"", "nl-NL", "nl-NL"},
		{"*", "", Default},
		{";;;", "", Default},
	}
	for _, tc := range cases {
		if got := FromAcceptLanguage(tc.header, tc.fallback); got != tc.want {
			t.Fatalf("FromAcceptLanguage(%q, %q) = %q, want %q", tc.header, tc.fallback, got, tc.want)
		}
	}
}
