// Package engine answers the tournament queries over the games table.
//
// Every query is one forward scan over a key range of the table, folded
// into its result as rows arrive. Nothing is materialized beyond the
// result itself and, for RepeatPlayers, the player sets of two
// tournaments.
//
// QUERIES:
//
//	Opponents      prefix scan of one tournament, filtered on the winner's
//	               name; returns loser ids in game order.
//	Ties           prefix scan of one tournament, filtered on the tie flag;
//	               returns "gameId;winnerId;loserId" in game order.
//	RepeatPlayers  range scan over consecutive tournaments; returns the
//	               players that appeared at least twice in every one of them
//	               (see RepeatTracker).
//	Games          prefix scan of one tournament; yields every game.
//
// Filters are handed to the store as queryir predicates. Whether the
// backend evaluates them in its query engine or the store package applies
// them client-side, results are identical.
//
// The Engine holds no state between calls and is safe for concurrent use
// if its store is.
package engine
