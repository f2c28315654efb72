package logflags

import "testing"

func TestSetupEmptyStringLeavesEnabledLayersOn(t *testing.T) {
	if err := Setup("inferior"); err != nil {
		t.Fatalf("Setup(\"inferior\"): %v", err)
	}
	if !Inferior() {
		t.Fatal("Inferior() = false after Setup(\"inferior\")")
	}

	if err := Setup(""); err != nil {
		t.Fatalf("Setup(\"\"): %v", err)
	}
	if !Inferior() {
		t.Fatal("Setup(\"\") must not clear a layer already enabled")
	}
}

func TestSetupUnknownLayerReturnsUnknownLayerError(t *testing.T) {
	err := Setup("bogus")
	if err == nil {
		t.Fatal("expected an error for an unknown layer")
	}
	unknown, ok := err.(*UnknownLayerError)
	if !ok {
		t.Fatalf("err is %T, want *UnknownLayerError", err)
	}
	if unknown.Layer != "bogus" {
		t.Errorf("Layer = %q, want %q", unknown.Layer, "bogus")
	}
}

func TestSetupTrimsWhitespaceAroundLayerNames(t *testing.T) {
	if err := Setup(" inferior , "); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if !Inferior() {
		t.Error("Inferior() = false after Setup with padded layer name")
	}
}

func TestInferiorLoggerTagsPid(t *testing.T) {
	entry := InferiorLogger(4242)
	if got := entry.Data["pid"]; got != 4242 {
		t.Errorf("pid field = %v, want 4242", got)
	}
	if got := entry.Data["layer"]; got != "inferior" {
		t.Errorf("layer field = %v, want %q", got, "inferior")
	}
}
