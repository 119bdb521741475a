package match

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAlreadyCompleted signals an idempotent re-completion attempt.
	// Callers should treat it as a benign no-op, not a failure.
	ErrAlreadyCompleted = errors.New("match already completed")
	// ErrInvalidState signals an operation on a match outside the
	// expected status (e.g. completing a cancelled match).
	ErrInvalidState = errors.New("match is not in a valid state for this operation")
	// ErrMissingResult signals completion requested without a result.
	ErrMissingResult = errors.New("match result is required for completion")
	// ErrInvalidParticipants signals a participant set that does not
	// fit the game format.
	ErrInvalidParticipants = errors.New("invalid participant set for game format")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Open reports whether the match can still transition to a terminal state.
func (s Status) Open() bool {
	return s == StatusPending || s == StatusAccepted
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRejected
}

type Format string

const (
	FormatMensSingles   Format = "mens_singles"
	FormatWomensSingles Format = "womens_singles"
	FormatMensDoubles   Format = "mens_doubles"
	FormatWomensDoubles Format = "womens_doubles"
	FormatMixedDoubles  Format = "mixed_doubles"
)

func ParseFormat(raw string) (Format, error) {
	switch Format(raw) {
	case FormatMensSingles, FormatWomensSingles, FormatMensDoubles, FormatWomensDoubles, FormatMixedDoubles:
		return Format(raw), nil
	default:
		return "", fmt.Errorf("unknown game format: %q", raw)
	}
}

func (f Format) Doubles() bool {
	switch f {
	case FormatMensDoubles, FormatWomensDoubles, FormatMixedDoubles:
		return true
	default:
		return false
	}
}

// PlayersPerSide is 1 for singles formats and 2 for doubles formats.
func (f Format) PlayersPerSide() int {
	if f.Doubles() {
		return 2
	}
	return 1
}

type Result string

const (
	ResultRequestingWon Result = "requesting_won"
	ResultReceivingWon  Result = "receiving_won"
	ResultDraw          Result = "draw"
)

func ParseResult(raw string) (Result, error) {
	switch Result(raw) {
	case ResultRequestingWon, ResultReceivingWon, ResultDraw:
		return Result(raw), nil
	default:
		return "", fmt.Errorf("unknown match result: %q", raw)
	}
}

type Side string

const (
	SideRequesting Side = "requesting"
	SideReceiving  Side = "receiving"
)

// Participant is one player entry on a match. PartnerID is set only for
// doubles formats and points at the other player on the same side.
type Participant struct {
	UserID    string
	Side      Side
	PartnerID string
}

// Match is one inter-club match. Result is set iff Status is completed.
// CPChange is the club-power delta applied to the requesting club on
// completion (the receiving club gets the negation).
type Match struct {
	ID               string
	RequestingClubID string
	ReceivingClubID  string
	GameFormat       Format
	Status           Status
	Participants     []Participant
	Result           Result
	RequestingScore  int
	ReceivingScore   int
	CPChange         int
	MatchDate        *time.Time
	Location         string
	Notes            string
	CompletedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SideParticipants returns the participants on one side, in input order.
func (m Match) SideParticipants(side Side) []Participant {
	out := make([]Participant, 0, 2)
	for _, p := range m.Participants {
		if p.Side == side {
			out = append(out, p)
		}
	}
	return out
}

// ParticipantDelta is the immutable per-player audit row written once at
// match completion. Delta is RatingAfter-RatingBefore after flooring, so
// the two sides of a match may not sum to zero when a floor applied.
type ParticipantDelta struct {
	MatchID      string
	UserID       string
	Side         Side
	PartnerID    string
	RatingBefore int
	RatingAfter  int
	Delta        int
	CreatedAt    time.Time
}

// ValidateParticipants checks count, side balance, duplicates and doubles
// partner linkage for the given format.
func ValidateParticipants(format Format, participants []Participant) error {
	perSide := format.PlayersPerSide()
	if len(participants) != perSide*2 {
		return fmt.Errorf("%w: expected %d participants, got %d", ErrInvalidParticipants, perSide*2, len(participants))
	}

	seen := make(map[string]struct{}, len(participants))
	bySide := make(map[Side][]Participant, 2)
	for _, p := range participants {
		if p.UserID == "" {
			return fmt.Errorf("%w: participant user id is required", ErrInvalidParticipants)
		}
		if p.Side != SideRequesting && p.Side != SideReceiving {
			return fmt.Errorf("%w: unknown side %q", ErrInvalidParticipants, p.Side)
		}
		if _, dup := seen[p.UserID]; dup {
			return fmt.Errorf("%w: duplicate participant %s", ErrInvalidParticipants, p.UserID)
		}
		seen[p.UserID] = struct{}{}
		bySide[p.Side] = append(bySide[p.Side], p)
	}

	for _, side := range []Side{SideRequesting, SideReceiving} {
		players := bySide[side]
		if len(players) != perSide {
			return fmt.Errorf("%w: side %s needs %d players, got %d", ErrInvalidParticipants, side, perSide, len(players))
		}
		if !format.Doubles() {
			if players[0].PartnerID != "" {
				return fmt.Errorf("%w: partner id is not allowed for singles", ErrInvalidParticipants)
			}
			continue
		}
		if players[0].PartnerID != players[1].UserID || players[1].PartnerID != players[0].UserID {
			return fmt.Errorf("%w: doubles partners on side %s must reference each other", ErrInvalidParticipants, side)
		}
	}

	return nil
}
