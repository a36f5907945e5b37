package game

// Move is a player's selection for a round. Empty string means undecided.
type Move string

const (
	MoveRock     Move = "rock"
	MovePaper    Move = "paper"
	MoveScissors Move = "scissors"
)

var allMoves = [...]Move{MoveRock, MovePaper, MoveScissors}

func ValidMove(m Move) bool {
	switch m {
	case MoveRock, MovePaper, MoveScissors:
		return true
	}
	return false
}

// Outcome of a single round in slot order (p1 vs p2).
type Outcome int

const (
	OutcomeTie Outcome = iota
	OutcomeP1
	OutcomeP2
)

var beats = map[Move]Move{
	MoveRock:     MoveScissors,
	MoveScissors: MovePaper,
	MovePaper:    MoveRock,
}

// Resolve maps two valid moves to a round outcome. Identical moves tie.
func Resolve(a, b Move) Outcome {
	if a == b {
		return OutcomeTie
	}
	if beats[a] == b {
		return OutcomeP1
	}
	return OutcomeP2
}
