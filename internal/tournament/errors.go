package tournament

import "errors"

// Tournament errors for the fixed 4-player single-elimination bracket.
var (
	ErrTournamentNotFound   = errors.New("tournament not found")
	ErrNotTournamentCreator = errors.New("only the tournament creator can perform this action")
	ErrDuplicatePlayers     = errors.New("a tournament needs four distinct players")
	ErrTournamentStarted    = errors.New("tournament has already started")
	ErrTournamentFinished   = errors.New("tournament has already finished")
	ErrPlayerBlocked        = errors.New("one of the invited players has a block in effect")
	ErrPlayerOffline        = errors.New("an invited player is not online")
)
