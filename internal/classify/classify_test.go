package classify

import "testing"

func TestClassify_RegularASCII(t *testing.T) {
	cases := []string{"", "a", "b", " ", "\t"}
	for _, c := range cases {
		got := Classify(c)
		if got.IME {
			t.Errorf("Classify(%q) = IME, want Regular", c)
		}
	}
}

func TestClassify_MultiByteASCIIRun(t *testing.T) {
	// Two plain ASCII bytes: not multi-byte UTF-8, no combining mark, no
	// script match. Rule (a) only fires when the encoding itself is
	// multi-byte, not merely when a chunk holds more than one byte.
	got := Classify("ab")
	if got.IME {
		t.Errorf("Classify(%q) = IME, want Regular", "ab")
	}
}

func TestClassify_Vietnamese(t *testing.T) {
	got := Classify("chào")
	if !got.IME || got.Script != Vietnamese {
		t.Errorf("Classify(chào) = %+v, want IME/Vietnamese", got)
	}
}

func TestClassify_Chinese(t *testing.T) {
	got := Classify("中")
	if !got.IME || got.Script != Chinese {
		t.Errorf("Classify(中) = %+v, want IME/Chinese", got)
	}
}

func TestClassify_Japanese(t *testing.T) {
	got := Classify("あ")
	if !got.IME || got.Script != Japanese {
		t.Errorf("Classify(あ) = %+v, want IME/Japanese", got)
	}
}

func TestClassify_Korean(t *testing.T) {
	got := Classify("한")
	if !got.IME || got.Script != Korean {
		t.Errorf("Classify(한) = %+v, want IME/Korean", got)
	}
}

func TestClassify_Thai(t *testing.T) {
	got := Classify("ก")
	if !got.IME || got.Script != Thai {
		t.Errorf("Classify(ก) = %+v, want IME/Thai", got)
	}
}

func TestClassify_Arabic(t *testing.T) {
	got := Classify("ا")
	if !got.IME || got.Script != Arabic {
		t.Errorf("Classify(ا) = %+v, want IME/Arabic", got)
	}
}

func TestClassify_Devanagari(t *testing.T) {
	got := Classify("अ")
	if !got.IME || got.Script != Devanagari {
		t.Errorf("Classify(अ) = %+v, want IME/Devanagari", got)
	}
}

func TestClassify_BareCombiningMarkIsIME(t *testing.T) {
	// A bare combining mark is listed as part of the Vietnamese range set
	// in the script table, so text made only of a base letter plus a
	// combining accent is classified IME/Vietnamese by rule (c) as well
	// as rule (b).
	got := Classify("e\u0301") // e + combining acute accent, not precomposed
	if !got.IME || got.Script != Vietnamese {
		t.Fatalf("Classify(e + combining acute) = %+v, want IME/Vietnamese", got)
	}
}

func TestClassify_SingleByteNeverIME(t *testing.T) {
	for b := byte(0); b < 0x80; b++ {
		got := Classify(string([]byte{b}))
		if got.IME {
			t.Fatalf("Classify(single byte 0x%02x) = IME, want Regular", b)
		}
	}
}

func TestDetectScript_FirstMatchWins(t *testing.T) {
	// Vietnamese range check takes priority in table order; a chunk that
	// only matches Chinese should report Chinese, not Unknown.
	script, ok := DetectScript("日本")
	if !ok || script != Chinese {
		t.Errorf("DetectScript(日本) = (%v, %v), want (Chinese, true)", script, ok)
	}
}

func TestDetectScript_NoMatch(t *testing.T) {
	_, ok := DetectScript("hello")
	if ok {
		t.Errorf("DetectScript(hello) matched a script, want none")
	}
}

func TestScriptString(t *testing.T) {
	if Chinese.String() != "chinese" {
		t.Errorf("Chinese.String() = %q, want chinese", Chinese.String())
	}
	if Unknown.String() != "unknown" {
		t.Errorf("Unknown.String() = %q, want unknown", Unknown.String())
	}
}
