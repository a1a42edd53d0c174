package plot

import "testing"

func intPtr(v int) *int { return &v }

func TestParseLayerNamePlain(t *testing.T) {
	d := ParseLayerName("3")
	if d.Pause {
		t.Error("plain numbered layer should not set Pause")
	}
	if d.Number == nil || *d.Number != 3 {
		t.Errorf("Number = %v, want 3", d.Number)
	}
	if len(d.Overrides) != 0 {
		t.Errorf("Overrides = %v, want none", d.Overrides)
	}
}

func TestParseLayerNamePause(t *testing.T) {
	d := ParseLayerName("!5")
	if !d.Pause {
		t.Error("expected Pause = true for leading '!'")
	}
	if d.Number == nil || *d.Number != 5 {
		t.Errorf("Number = %v, want 5", d.Number)
	}
}

func TestParseLayerNameOverrides(t *testing.T) {
	d := ParseLayerName("2+h30+s80")
	if d.Number == nil || *d.Number != 2 {
		t.Fatalf("Number = %v, want 2", d.Number)
	}
	if len(d.Overrides) != 2 {
		t.Fatalf("Overrides = %v, want 2 entries", d.Overrides)
	}
	if d.Overrides[0].Kind != OverrideHeight || d.Overrides[0].Value != 30 {
		t.Errorf("Overrides[0] = %+v, want {h 30}", d.Overrides[0])
	}
	if d.Overrides[1].Kind != OverrideSpeed || d.Overrides[1].Value != 80 {
		t.Errorf("Overrides[1] = %+v, want {s 80}", d.Overrides[1])
	}
}

func TestParseLayerNameCaseInsensitiveEscape(t *testing.T) {
	d := ParseLayerName("1+D250")
	if len(d.Overrides) != 1 || d.Overrides[0].Kind != OverrideDelay || d.Overrides[0].Value != 250 {
		t.Errorf("Overrides = %+v, want a single {d 250}", d.Overrides)
	}
}

func TestParseLayerNameUnrecognizedTrailingTextIgnored(t *testing.T) {
	d := ParseLayerName("4 artwork layer")
	if d.Number == nil || *d.Number != 4 {
		t.Errorf("Number = %v, want 4", d.Number)
	}
	if len(d.Overrides) != 0 {
		t.Errorf("Overrides = %v, want none (trailing text isn't an escape)", d.Overrides)
	}
}

func TestParseLayerNameNoNumber(t *testing.T) {
	d := ParseLayerName("artwork")
	if d.Number != nil {
		t.Errorf("Number = %v, want nil for a non-numeric layer name", d.Number)
	}
}

func TestParseLayerNameMalformedEscapeStopsScanning(t *testing.T) {
	d := ParseLayerName("1+h+s50")
	if len(d.Overrides) != 0 {
		t.Errorf("Overrides = %v, want none: '+h' with no digits should halt the scan", d.Overrides)
	}
}
