// Package record defines the game record stored in the games table and the
// mapping between it and the table's cells.
//
// A game occupies one row keyed by keycodec.GameKey(tourney, game). Its
// cells are grouped in three column families:
//
//	d  game info     gid tid tie rnd div date lex
//	w  winner        id name score or nr pos
//	l  loser         id name score or nr pos
//
// All values are stored as UTF-8 text. The tie flag is stored as "True" or
// "False".
package record
