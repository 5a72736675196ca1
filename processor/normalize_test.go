package processor

import (
	"testing"
	"time"

	"masterflow/models"
)

func TestNormalizeSplitsOnLastUnderscore(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name      string
		raw       models.RawIndexRecord
		wantName  string
		wantToken string
	}{
		{
			name:      "label with space",
			raw:       models.RawIndexRecord{Name: "Nifty 50_26000"},
			wantName:  "Nifty 50",
			wantToken: "26000",
		},
		{
			name:      "no underscore falls back to instrument id",
			raw:       models.RawIndexRecord{Name: "SENSEX", ExchangeInstrumentID: "1"},
			wantName:  "SENSEX",
			wantToken: "1",
		},
		{
			name:      "last underscore wins",
			raw:       models.RawIndexRecord{Name: "A_B_C"},
			wantName:  "A_B",
			wantToken: "C",
		},
		{
			name:      "no underscore and no instrument id",
			raw:       models.RawIndexRecord{Name: "BANKEX"},
			wantName:  "BANKEX",
			wantToken: "",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Normalize([]models.RawIndexRecord{c.raw}, now)
			if len(got) != 1 {
				t.Fatalf("unexpected record count: %d", len(got))
			}
			if got[0].IndexName != c.wantName {
				t.Errorf("index name: got %q, want %q", got[0].IndexName, c.wantName)
			}
			if got[0].Token != c.wantToken {
				t.Errorf("token: got %q, want %q", got[0].Token, c.wantToken)
			}
		})
	}
}

// Splitting on the last underscore and rejoining must reproduce the
// original composite name.
func TestNormalizeSplitRoundTrip(t *testing.T) {
	now := time.Now()
	names := []string{
		"Nifty 50_26000",
		"NIFTY_MIDCAP_100_26011",
		"A_B_C",
		"X_",
		"_26000",
	}
	for _, name := range names {
		got := Normalize([]models.RawIndexRecord{{Name: name}}, now)
		if rejoined := got[0].IndexName + "_" + got[0].Token; rejoined != name {
			t.Errorf("round trip failed for %q: got %q", name, rejoined)
		}
	}
}

func TestNormalizeSequenceAndTimestamp(t *testing.T) {
	now := time.Now()
	raws := []models.RawIndexRecord{
		{Name: "Nifty 50_26000"},
		{Name: "Nifty Bank_26001"},
		{Name: "SENSEX", ExchangeInstrumentID: "1"},
	}

	got := Normalize(raws, now)
	if len(got) != 3 {
		t.Fatalf("unexpected record count: %d", len(got))
	}
	for i, rec := range got {
		if rec.ID != i+1 {
			t.Errorf("record %d: unexpected sequence id %d", i, rec.ID)
		}
		if !rec.CreatedAt.Equal(now) {
			t.Errorf("record %d: created_at not shared across run", i)
		}
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	got := Normalize(nil, time.Now())
	if len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
}
