package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/scrabbledb/internal/record"
	"github.com/roach88/scrabbledb/internal/store"
)

// Game builds a game between two players whose ids are also their names.
// Optional fields get fixed placeholder values.
func Game(tourney, game int, winner, loser string) record.GameRecord {
	return record.GameRecord{
		GameID:    fmt.Sprint(game),
		TourneyID: fmt.Sprint(tourney),
		Round:     "1",
		Division:  "A",
		Date:      "2019-05-04",
		Lexicon:   "CSW19",
		Winner:    record.Player{ID: winner, Name: winner, Score: "400", OldRating: "1500", NewRating: "1510", Position: "1"},
		Loser:     record.Player{ID: loser, Name: loser, Score: "350", OldRating: "1490", NewRating: "1480", Position: "2"},
	}
}

// TieGame is Game with the tie flag set.
func TieGame(tourney, game int, winner, loser string) record.GameRecord {
	g := Game(tourney, game, winner, loser)
	g.Tie = true
	return g
}

// Seed creates the games table on tbl's store and writes games to it.
func Seed(t testing.TB, tbl *store.Table, games ...record.GameRecord) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, tbl.Create(ctx, record.Families))

	muts := make([]store.Mutation, 0, len(games))
	for _, g := range games {
		m, err := g.Mutation()
		require.NoError(t, err)
		muts = append(muts, m)
	}
	if len(muts) > 0 {
		require.NoError(t, tbl.Put(ctx, muts...))
	}
}

// CSVHeader is the header line of a game CSV file.
const CSVHeader = "gameid,tourneyid,tie,winnerid,winnername,winnerscore,winneroldrating,winnernewrating,winnerpos," +
	"loserid,losername,loserscore,loseroldrating,losernewrating,loserpos,round,division,date,lexicon"

// CSVLine renders g as one CSV record in load column order.
func CSVLine(g record.GameRecord) string {
	return strings.Join([]string{
		g.GameID, g.TourneyID, record.FormatTie(g.Tie),
		g.Winner.ID, g.Winner.Name, g.Winner.Score, g.Winner.OldRating, g.Winner.NewRating, g.Winner.Position,
		g.Loser.ID, g.Loser.Name, g.Loser.Score, g.Loser.OldRating, g.Loser.NewRating, g.Loser.Position,
		g.Round, g.Division, g.Date, g.Lexicon,
	}, ",")
}

// WriteCSV writes games to dir/name with a header line and returns the path.
func WriteCSV(t testing.TB, dir, name string, games ...record.GameRecord) string {
	t.Helper()
	var b strings.Builder
	b.WriteString(CSVHeader + "\n")
	for _, g := range games {
		b.WriteString(CSVLine(g) + "\n")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}
