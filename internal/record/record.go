package record

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/roach88/scrabbledb/internal/keycodec"
	"github.com/roach88/scrabbledb/internal/queryir"
	"github.com/roach88/scrabbledb/internal/store"
)

// DefaultTable is the name of the games table.
const DefaultTable = "Games"

// Column families.
const (
	FamilyInfo   = "d"
	FamilyWinner = "w"
	FamilyLoser  = "l"
)

// Qualifiers of the info family.
const (
	GameID    = "gid"
	TourneyID = "tid"
	Tie       = "tie"
	Round     = "rnd"
	Division  = "div"
	Date      = "date"
	Lexicon   = "lex"
)

// Qualifiers shared by the winner and loser families.
const (
	PlayerID  = "id"
	Name      = "name"
	Score     = "score"
	OldRating = "or"
	NewRating = "nr"
	Position  = "pos"
)

// Stored forms of the tie flag.
const (
	TieTrue  = "True"
	TieFalse = "False"
)

// Families lists the column families of the games table in storage order.
var Families = []string{FamilyInfo, FamilyLoser, FamilyWinner}

// ErrIncompleteRow is returned by FromRow when a required cell is missing.
var ErrIncompleteRow = errors.New("incomplete game row")

// Player is one side of a game.
type Player struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Score     string `json:"score,omitempty" yaml:"score,omitempty"`
	OldRating string `json:"old_rating,omitempty" yaml:"old_rating,omitempty"`
	NewRating string `json:"new_rating,omitempty" yaml:"new_rating,omitempty"`
	Position  string `json:"position,omitempty" yaml:"position,omitempty"`
}

// GameRecord is a single game between a winner and a loser.
type GameRecord struct {
	GameID    string `json:"game_id" yaml:"game_id"`
	TourneyID string `json:"tourney_id" yaml:"tourney_id"`
	Tie       bool   `json:"tie" yaml:"tie"`
	Round     string `json:"round,omitempty" yaml:"round,omitempty"`
	Division  string `json:"division,omitempty" yaml:"division,omitempty"`
	Date      string `json:"date,omitempty" yaml:"date,omitempty"`
	Lexicon   string `json:"lexicon,omitempty" yaml:"lexicon,omitempty"`
	Winner    Player `json:"winner" yaml:"winner"`
	Loser     Player `json:"loser" yaml:"loser"`
}

// Key returns the row key of the game.
func (g GameRecord) Key() ([]byte, error) {
	k, err := keycodec.GameKey(g.TourneyID, g.GameID)
	if err != nil {
		return nil, fmt.Errorf("game %s of tourney %s: %w", g.GameID, g.TourneyID, err)
	}
	return []byte(k), nil
}

// Mutation returns the write that stores g. Empty optional fields are
// still written so a reload overwrites every cell.
func (g GameRecord) Mutation() (store.Mutation, error) {
	key, err := g.Key()
	if err != nil {
		return store.Mutation{}, err
	}
	m := store.NewMutation(key).
		AddString(FamilyInfo, GameID, g.GameID).
		AddString(FamilyInfo, TourneyID, g.TourneyID).
		AddString(FamilyInfo, Tie, FormatTie(g.Tie)).
		AddString(FamilyInfo, Round, g.Round).
		AddString(FamilyInfo, Division, g.Division).
		AddString(FamilyInfo, Date, g.Date).
		AddString(FamilyInfo, Lexicon, g.Lexicon)
	addPlayer(m, FamilyWinner, g.Winner)
	addPlayer(m, FamilyLoser, g.Loser)
	return *m, nil
}

func addPlayer(m *store.Mutation, family string, p Player) {
	m.AddString(family, PlayerID, p.ID).
		AddString(family, Name, p.Name).
		AddString(family, Score, p.Score).
		AddString(family, OldRating, p.OldRating).
		AddString(family, NewRating, p.NewRating).
		AddString(family, Position, p.Position)
}

// FromRow rebuilds a GameRecord from the cells of a row. The game and
// tourney ids are required; other missing cells are left empty.
func FromRow(row queryir.CellReader) (GameRecord, error) {
	get := func(family, qualifier string) string {
		v, _ := row.Value(family, qualifier)
		return string(v)
	}

	g := GameRecord{
		GameID:    get(FamilyInfo, GameID),
		TourneyID: get(FamilyInfo, TourneyID),
		Tie:       get(FamilyInfo, Tie) == TieTrue,
		Round:     get(FamilyInfo, Round),
		Division:  get(FamilyInfo, Division),
		Date:      get(FamilyInfo, Date),
		Lexicon:   get(FamilyInfo, Lexicon),
		Winner:    playerFrom(get, FamilyWinner),
		Loser:     playerFrom(get, FamilyLoser),
	}
	if g.GameID == "" || g.TourneyID == "" {
		return GameRecord{}, fmt.Errorf("missing %s:%s or %s:%s: %w",
			FamilyInfo, GameID, FamilyInfo, TourneyID, ErrIncompleteRow)
	}
	return g, nil
}

func playerFrom(get func(string, string) string, family string) Player {
	return Player{
		ID:        get(family, PlayerID),
		Name:      get(family, Name),
		Score:     get(family, Score),
		OldRating: get(family, OldRating),
		NewRating: get(family, NewRating),
		Position:  get(family, Position),
	}
}

// FormatTie returns the stored form of a tie flag.
func FormatTie(tie bool) string {
	if tie {
		return TieTrue
	}
	return TieFalse
}

// ParseTie accepts any spelling strconv.ParseBool does ("True", "false",
// "1", ...) and returns the flag.
func ParseTie(s string) (bool, error) {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("tie flag %q: %w", s, err)
	}
	return b, nil
}

// TieGame identifies a tied game by its game id and both player ids.
type TieGame struct {
	GameID   string `json:"game_id" yaml:"game_id"`
	WinnerID string `json:"winner_id" yaml:"winner_id"`
	LoserID  string `json:"loser_id" yaml:"loser_id"`
}

// String formats the game as "gameId;winnerId;loserId".
func (t TieGame) String() string {
	return t.GameID + ";" + t.WinnerID + ";" + t.LoserID
}
