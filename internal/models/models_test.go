package models

import "testing"

func TestNormalizeClampsSettings(t *testing.T) {
	tests := []struct {
		name string
		in   DraftSettings
		want DraftSettings
	}{
		{
			name: "DefaultsUnchanged",
			in:   DefaultDraftSettings(),
			want: DefaultDraftSettings(),
		},
		{
			name: "NegativeCountsBecomeZero",
			in:   DraftSettings{QBCount: -1, RBCount: -3, BenchCount: -2, TotalTeams: 10, YourDraftSpot: 4},
			want: DraftSettings{TotalTeams: 10, YourDraftSpot: 4},
		},
		{
			name: "MissingTeamsDefaulted",
			in:   DraftSettings{TotalTeams: 0, YourDraftSpot: 3},
			want: DraftSettings{TotalTeams: 12, YourDraftSpot: 3},
		},
		{
			name: "SpotClampedHigh",
			in:   DraftSettings{TotalTeams: 8, YourDraftSpot: 11},
			want: DraftSettings{TotalTeams: 8, YourDraftSpot: 8},
		},
		{
			name: "SpotClampedLow",
			in:   DraftSettings{TotalTeams: 8, YourDraftSpot: -5},
			want: DraftSettings{TotalTeams: 8, YourDraftSpot: 1},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.Normalize()
			if got != tc.want {
				t.Fatalf("Normalize()=%+v want %+v", got, tc.want)
			}
		})
	}
}

func TestRosterSize(t *testing.T) {
	if got := DefaultDraftSettings().RosterSize(); got != 15 {
		t.Errorf("RosterSize()=%d want 15", got)
	}
}

func TestParsePosition(t *testing.T) {
	if p, ok := ParsePosition(" dst "); !ok || p != PositionDST {
		t.Errorf("ParsePosition(dst)=%q,%v", p, ok)
	}
	if _, ok := ParsePosition("FLEX"); ok {
		t.Error("FLEX is a slot, not a player position")
	}
}
