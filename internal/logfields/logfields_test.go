package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"RunID", KeyRunID, "r1", RunID("r1")},
		{"URI", KeyURI, "blog/post", URI("blog/post")},
		{"BakePath", KeyBakePath, "/out/index.html", BakePath("/out/index.html")},
		{"SiteRoot", KeySiteRoot, "../", SiteRoot("../")},
		{"Source", KeySource, "a.png", Source("a.png")},
		{"Destination", KeyDestination, "b.png", Destination("b.png")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"ConfigKey", KeyConfigKey, "site/root", ConfigKey("site/root")},
		{"Op", KeyOp, "WRITE", Op("WRITE")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if tc.attr.Value.String() != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %s", tc.name, tc.attrVal, tc.attr.Value.String())
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if a := PageNumber(3); a.Key != KeyPageNumber || a.Value.Int64() != 3 {
		t.Fatalf("unexpected page number attr: %v", a)
	}
	if a := Files(2); a.Key != KeyFiles || a.Value.Int64() != 2 {
		t.Fatalf("unexpected files attr: %v", a)
	}
	if a := DurationMS(1.5); a.Key != KeyDurationMS || a.Value.Float64() != 1.5 {
		t.Fatalf("unexpected duration attr: %v", a)
	}
}

func TestErrorHelper(t *testing.T) {
	if a := Error(nil); a.Value.String() != "" {
		t.Fatalf("expected empty error value, got %q", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Key != KeyError || a.Value.String() != "boom" {
		t.Fatalf("unexpected error attr: %v", a)
	}
}
