package engine

import (
	"sort"
	"strings"
)

// RepeatTracker folds a stream of games, ordered by tournament, into the
// set of players that repeat in every tournament of the stream.
//
// It keeps two generations of player sets. Within the active tournament a
// player is counted only if it is eligible: every player is eligible in
// the first tournament, and in later tournaments only players that
// repeated in the previous one are. An eligible player seen once goes to
// firstSeen, seen again goes to repeat. When the tournament changes,
// repeat becomes previous and the current sets start empty.
//
// A player that misses one tournament, or plays it only once, can never
// come back. A tournament with no games at all does not break the chain,
// because the tracker only sees tournaments that have rows.
type RepeatTracker struct {
	first     string
	active    string
	previous  map[string]struct{}
	firstSeen map[string]struct{}
	repeat    map[string]struct{}
}

// NewRepeatTracker starts a tracker whose first tournament is first.
// Tourney ids are compared as given, so callers must use one spelling.
func NewRepeatTracker(first string) *RepeatTracker {
	return &RepeatTracker{
		first:     first,
		active:    first,
		previous:  map[string]struct{}{},
		firstSeen: map[string]struct{}{},
		repeat:    map[string]struct{}{},
	}
}

// Observe records one game of tourney. Players are counted in argument
// order; empty ids are ignored.
func (r *RepeatTracker) Observe(tourney string, players ...string) {
	if tourney != r.active {
		r.previous = r.repeat
		r.firstSeen = map[string]struct{}{}
		r.repeat = map[string]struct{}{}
		r.active = tourney
	}

	for _, id := range players {
		if id == "" || !r.eligible(id) {
			continue
		}
		if _, seen := r.firstSeen[id]; seen {
			r.repeat[id] = struct{}{}
		} else {
			r.firstSeen[id] = struct{}{}
		}
	}
}

func (r *RepeatTracker) eligible(id string) bool {
	if r.active == r.first {
		return true
	}
	_, ok := r.previous[id]
	return ok
}

// Result returns the repeat set of the active tournament, sorted.
func (r *RepeatTracker) Result() []string {
	out := make([]string, 0, len(r.repeat))
	for id := range r.repeat {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[i], out[j]) })
	return out
}

// lessID orders decimal ids numerically and everything else bytewise.
// Numeric ids sort before non-numeric ones.
func lessID(a, b string) bool {
	na, nb := isDigits(a), isDigits(b)
	switch {
	case na && nb:
		a, b = strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	case na != nb:
		return na
	default:
		return a < b
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
