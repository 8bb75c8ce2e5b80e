package schedule

import "testing"

func TestParsePlatform(t *testing.T) {
	for _, valid := range []string{"linkedin", "x"} {
		if _, err := ParsePlatform(valid); err != nil {
			t.Errorf("Expected %q to parse, got %v", valid, err)
		}
	}

	for _, invalid := range []string{"", "twitter", "LinkedIn", "mastodon"} {
		if _, err := ParsePlatform(invalid); err == nil {
			t.Errorf("Expected %q to be rejected", invalid)
		}
	}
}

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"pending", "published", "failed", "cancelled"} {
		if _, err := ParseStatus(valid); err != nil {
			t.Errorf("Expected %q to parse, got %v", valid, err)
		}
	}

	if _, err := ParseStatus("canceled"); err == nil {
		t.Error("Expected single-l spelling to be rejected")
	}
}

func TestStatusTerminal(t *testing.T) {
	if !StatusPublished.Terminal() || !StatusCancelled.Terminal() {
		t.Error("Expected published and cancelled to be terminal")
	}
	if StatusPending.Terminal() || StatusFailed.Terminal() {
		t.Error("Expected pending and failed to be non-terminal")
	}
}

func TestParseSort(t *testing.T) {
	if _, err := ParseSortField("scheduled_at"); err != nil {
		t.Errorf("Expected scheduled_at to parse, got %v", err)
	}
	if _, err := ParseSortField("content"); err == nil {
		t.Error("Expected non-sortable field to be rejected")
	}
	if _, err := ParseSortOrder("desc"); err != nil {
		t.Errorf("Expected desc to parse, got %v", err)
	}
	if _, err := ParseSortOrder("descending"); err == nil {
		t.Error("Expected unknown order to be rejected")
	}
}
