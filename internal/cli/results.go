package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/roach88/scrabbledb/internal/record"
)

// TableResult reports a created table.
type TableResult struct {
	Table    string   `json:"table" yaml:"table"`
	Families []string `json:"families" yaml:"families"`
}

func (r TableResult) Text() string {
	return fmt.Sprintf("Table %s created with column families %s.", r.Table, bracketList(r.Families))
}

// LoadResult reports a finished load.
type LoadResult struct {
	Table string `json:"table" yaml:"table"`
	RunID string `json:"run_id" yaml:"run_id"`
	Files int    `json:"files" yaml:"files"`
	Rows  int    `json:"rows" yaml:"rows"`
}

func (r LoadResult) Text() string {
	return fmt.Sprintf("Loaded %d games from %d files into table %s (run %s).", r.Rows, r.Files, r.Table, r.RunID)
}

// OpponentsResult is the answer to query1.
type OpponentsResult struct {
	Tourney   string   `json:"tourney" yaml:"tourney"`
	Winner    string   `json:"winner" yaml:"winner"`
	Count     int      `json:"count" yaml:"count"`
	Opponents []string `json:"opponents" yaml:"opponents"`
}

func (r OpponentsResult) Text() string {
	return fmt.Sprintf("There are %d opponents of winner %s that play in tourney %s.\nThe list of opponents is: %s",
		r.Count, r.Winner, r.Tourney, bracketList(r.Opponents))
}

// RepeatResult is the answer to query2.
type RepeatResult struct {
	First    string   `json:"first" yaml:"first"`
	Last     string   `json:"last" yaml:"last"`
	HalfOpen bool     `json:"half_open" yaml:"half_open"`
	Count    int      `json:"count" yaml:"count"`
	Players  []string `json:"players" yaml:"players"`
}

func (r RepeatResult) Text() string {
	return fmt.Sprintf("There are %d players that participate more than once in every tourney between tourneyid %s and tourneyid %s.\nThe list of players is: %s",
		r.Count, r.First, r.Last, bracketList(r.Players))
}

// TiesResult is the answer to query3.
type TiesResult struct {
	Tourney string           `json:"tourney" yaml:"tourney"`
	Count   int              `json:"count" yaml:"count"`
	Games   []record.TieGame `json:"games" yaml:"games"`
}

func (r TiesResult) Text() string {
	games := make([]string, len(r.Games))
	for i, g := range r.Games {
		games[i] = g.String()
	}
	return fmt.Sprintf("There are %d games that end in tie in tourneyid %s.\nThe list of games is: %s",
		r.Count, r.Tourney, bracketList(games))
}

// GamesResult lists every game of a tournament.
type GamesResult struct {
	Tourney string              `json:"tourney" yaml:"tourney"`
	Count   int                 `json:"count" yaml:"count"`
	Games   []record.GameRecord `json:"games" yaml:"games"`
}

func (r GamesResult) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tourney %s has %d games.\n", r.Tourney, r.Count)

	w := tablewriter.NewWriter(&b)
	w.SetBorder(false)
	w.SetAutoWrapText(false)
	w.SetHeader([]string{"Game", "Round", "Winner", "Score", "Loser", "Score", "Tie"})
	w.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
	})
	for _, g := range r.Games {
		w.Append([]string{
			g.GameID, g.Round,
			fmt.Sprintf("%s (%s)", g.Winner.Name, g.Winner.ID), g.Winner.Score,
			fmt.Sprintf("%s (%s)", g.Loser.Name, g.Loser.ID), g.Loser.Score,
			strconv.FormatBool(g.Tie),
		})
	}
	w.Render()
	return strings.TrimRight(b.String(), "\n")
}
