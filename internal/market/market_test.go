package market

import "testing"

func TestFilter(t *testing.T) {
	ctx := Default()

	if all := ctx.Economic(nil); len(all) != 4 {
		t.Errorf("Expected 4 economic rows, got %d", len(all))
	}

	rows := ctx.Economic([]string{"Poland", "Narnia"})
	if len(rows) != 1 || rows[0].Country != "Poland" || rows[0].GDPGrowth != 3.0 {
		t.Errorf("Unexpected rows %+v", rows)
	}

	legal := ctx.Legal([]string{"Hungary"})
	if len(legal) != 1 || legal[0].WorkforceSentiment != "Neutral" {
		t.Errorf("Unexpected legal rows %+v", legal)
	}
}
