package match

import (
	"errors"
	"testing"
)

func TestParseFormat(t *testing.T) {
	t.Parallel()

	valid := []string{"mens_singles", "womens_singles", "mens_doubles", "womens_doubles", "mixed_doubles"}
	for _, raw := range valid {
		if _, err := ParseFormat(raw); err != nil {
			t.Fatalf("expected %q to parse, got %v", raw, err)
		}
	}

	if _, err := ParseFormat("triples"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestFormatPlayersPerSide(t *testing.T) {
	t.Parallel()

	if got := FormatMensSingles.PlayersPerSide(); got != 1 {
		t.Fatalf("expected 1 player per side for singles, got %d", got)
	}
	if got := FormatMixedDoubles.PlayersPerSide(); got != 2 {
		t.Fatalf("expected 2 players per side for doubles, got %d", got)
	}
}

func TestStatusOpen(t *testing.T) {
	t.Parallel()

	open := []Status{StatusPending, StatusAccepted}
	for _, s := range open {
		if !s.Open() {
			t.Fatalf("expected %s to be open", s)
		}
	}

	terminal := []Status{StatusRejected, StatusCompleted, StatusCancelled}
	for _, s := range terminal {
		if s.Open() {
			t.Fatalf("expected %s to be closed", s)
		}
		if !s.Terminal() {
			t.Fatalf("expected %s to be terminal", s)
		}
	}
}

func TestValidateParticipants_Singles(t *testing.T) {
	t.Parallel()

	ok := []Participant{
		{UserID: "u1", Side: SideRequesting},
		{UserID: "u2", Side: SideReceiving},
	}
	if err := ValidateParticipants(FormatMensSingles, ok); err != nil {
		t.Fatalf("expected valid singles roster, got %v", err)
	}

	cases := []struct {
		name         string
		participants []Participant
	}{
		{"wrong count", []Participant{{UserID: "u1", Side: SideRequesting}}},
		{"duplicate user", []Participant{
			{UserID: "u1", Side: SideRequesting},
			{UserID: "u1", Side: SideReceiving},
		}},
		{"both on one side", []Participant{
			{UserID: "u1", Side: SideRequesting},
			{UserID: "u2", Side: SideRequesting},
		}},
		{"partner on singles", []Participant{
			{UserID: "u1", Side: SideRequesting, PartnerID: "u2"},
			{UserID: "u2", Side: SideReceiving},
		}},
		{"unknown side", []Participant{
			{UserID: "u1", Side: Side("left")},
			{UserID: "u2", Side: SideReceiving},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateParticipants(FormatMensSingles, tc.participants)
			if !errors.Is(err, ErrInvalidParticipants) {
				t.Fatalf("expected ErrInvalidParticipants, got %v", err)
			}
		})
	}
}

func TestValidateParticipants_DoublesPartnerLinkage(t *testing.T) {
	t.Parallel()

	ok := []Participant{
		{UserID: "u1", Side: SideRequesting, PartnerID: "u2"},
		{UserID: "u2", Side: SideRequesting, PartnerID: "u1"},
		{UserID: "u3", Side: SideReceiving, PartnerID: "u4"},
		{UserID: "u4", Side: SideReceiving, PartnerID: "u3"},
	}
	if err := ValidateParticipants(FormatMixedDoubles, ok); err != nil {
		t.Fatalf("expected valid doubles roster, got %v", err)
	}

	broken := []Participant{
		{UserID: "u1", Side: SideRequesting, PartnerID: "u3"},
		{UserID: "u2", Side: SideRequesting, PartnerID: "u1"},
		{UserID: "u3", Side: SideReceiving, PartnerID: "u4"},
		{UserID: "u4", Side: SideReceiving, PartnerID: "u3"},
	}
	if err := ValidateParticipants(FormatMixedDoubles, broken); !errors.Is(err, ErrInvalidParticipants) {
		t.Fatalf("expected ErrInvalidParticipants for broken partner linkage, got %v", err)
	}
}
