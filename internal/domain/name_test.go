package domain

import "testing"

func TestNormalize_Whitespace(t *testing.T) {
	got := Normalize("  AK-47  |  Redline   (Field-Tested) ")
	want := "AK-47 | Redline (Field-Tested)"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNormalize_Prefixes(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"StatTrak™   AK-47 | Redline (Field-Tested)", "StatTrak™ AK-47 | Redline (Field-Tested)"},
		{"Souvenir  AWP | Safari Mesh (Well-Worn)", "Souvenir AWP | Safari Mesh (Well-Worn)"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalize_CosmeticTails(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"M4A4 | Asiimov (Field-Tested) + 4x Sticker Katowice", "M4A4 | Asiimov (Field-Tested)"},
		{"M4A4 | Asiimov (Field-Tested) + Sticker", "M4A4 | Asiimov (Field-Tested)"},
		{"Glock-18 | Fade (with stickers)", "Glock-18 | Fade"},
		{"Glock-18 | Fade (w/ keychain)", "Glock-18 | Fade"},
		{"USP-S | Kill Confirmed [Sticker Crown]", "USP-S | Kill Confirmed"},
		// unrelated parentheses stay
		{"AWP | Asiimov (Battle-Scarred)", "AWP | Asiimov (Battle-Scarred)"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalize_DopplerVariants(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"★ Karambit | Doppler Phase 2 (Factory New)", "★ Karambit | Doppler (Factory New)"},
		{"★ Flip Knife | Gamma Doppler Emerald (Minimal Wear)", "★ Flip Knife | Gamma Doppler (Minimal Wear)"},
		{"★ Bayonet | Doppler Ruby (Factory New)", "★ Bayonet | Doppler (Factory New)"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"AK-47 | Redline (Field-Tested)",
		"StatTrak™  AK-47 | Redline (Field-Tested) + 2x Sticker Foo",
		"★ Karambit | Gamma Doppler Phase 1 (Factory New)",
		"  Souvenir   AWP | Safari Mesh  ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalize_Empty(t *testing.T) {
	if got := Normalize(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}
