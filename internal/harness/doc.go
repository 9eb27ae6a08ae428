// Package harness runs query scenarios against a games table.
//
// A scenario seeds a table with games, runs a sequence of queries through
// the engine and checks each answer. Every run also produces a trace that
// is compared against a golden file, so the same scenario can be run on
// every store backend and must answer identically.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: streak_range
//	description: "Players drop out of the streak after one game"
//	csv: ../csv/streak           # optional, relative to the scenario file
//	games:
//	  - {tourney: 1, game: 1, winner: A, loser: B}
//	  - {tourney: 7, game: 3, winner: W1, loser: L1, tie: true}
//	steps:
//	  - query: query2
//	    args: ["1", "2"]
//	    expect:
//	      results: [B]
//	  - query: query2
//	    args: ["1", "2"]
//	    half_open: true
//	    expect:
//	      count: 2
//	  - query: query3
//	    args: ["seven"]
//	    expect:
//	      error: invalid_argument
//
// # Queries
//
//   - query1 <tourney> <winner>: opponents beaten by winner
//   - query2 <first> <last>: players repeating in every tourney of the range
//   - query3 <tourney>: tie games, rendered as gameId;winnerId;loserId
//   - games <tourney>: every game, rendered like query3
//
// # Expectations
//
//   - results: the exact answer, in order
//   - contains: values that must appear in the answer
//   - count: the answer length
//   - error: the error class (invalid_argument, table_not_found)
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/streak.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario, memstore.New())
package harness
