package game

import "testing"

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]string{
		"inprogress":  StatusInProgress,
		"in_progress": StatusInProgress,
		" LIVE ":      StatusInProgress,
		"scheduled":   StatusScheduled,
		"closed":      StatusClosed,
		"postponed":   "postponed",
	}
	for in, want := range cases {
		if got := NormalizeStatus(in); got != want {
			t.Fatalf("NormalizeStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPhaseFromStatus(t *testing.T) {
	cases := map[string]Phase{
		StatusScheduled:  PhasePre,
		StatusInProgress: PhaseLive,
		StatusClosed:     PhasePost,
		"postponed":      PhasePost,
		"":               PhasePost,
	}
	for status, want := range cases {
		if got := PhaseFromStatus(status); got != want {
			t.Fatalf("PhaseFromStatus(%q) = %q, want %q", status, got, want)
		}
	}
	if got := PhaseFromStatus(NormalizeStatus("inprogress")); got != PhaseLive {
		t.Fatalf("normalized inprogress should be live, got %q", got)
	}
}

func TestTeamInfo_DisplayName(t *testing.T) {
	if got := (TeamInfo{Market: "Boston", Name: "Red Sox"}).DisplayName(); got != "Boston Red Sox" {
		t.Fatalf("DisplayName() = %q", got)
	}
	if got := (TeamInfo{Name: "Red Sox"}).DisplayName(); got != "Red Sox" {
		t.Fatalf("DisplayName() = %q", got)
	}
}
