// Package schema defines the accepted shape of a raw match record and
// the fallible parse step that turns decoded JSON into a fully-typed
// Record or a structured rejection.
package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is a validated match record: the info section plus every
// innings that survived validation. Skipped carries diagnostics for
// innings that were dropped, so callers can log them.
type Record struct {
	Info    Info
	Innings []Innings
	Skipped []FieldError
}

// Info is the match-info section of a record.
type Info struct {
	BallsPerOver  int                 `json:"balls_per_over"`
	City          *string             `json:"city"`
	Dates         []string            `json:"dates"`
	Event         *Event              `json:"event"`
	Gender        string              `json:"gender"`
	MatchType     string              `json:"match_type"`
	Officials     *Officials          `json:"officials"`
	Outcome       *Outcome            `json:"outcome"`
	Overs         *int                `json:"overs"`
	PlayerOfMatch []string            `json:"player_of_match"`
	Players       map[string][]string `json:"players"`
	Registry      Registry            `json:"registry"`
	Season        Season              `json:"season"`
	TeamType      string              `json:"team_type"`
	Teams         []string            `json:"teams"`
	Toss          *Toss               `json:"toss"`
	Venue         *string             `json:"venue"`
}

// Season is a free-text season label. Source data carries it as either
// a string ("2020/21") or a bare year integer; both coerce to string.
type Season string

func (s *Season) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = Season(str)
		return nil
	}
	var num int
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("season must be a string or integer")
	}
	*s = Season(strconv.Itoa(num))
	return nil
}

// Event describes the tournament or series a match belongs to.
type Event struct {
	Name        string  `json:"name"`
	MatchNumber *int    `json:"match_number"`
	Group       *string `json:"group"`
	Stage       *string `json:"stage"`
}

// Outcome describes the result of a match. All fields are optional;
// abandoned matches carry only Result, super overs carry Eliminator.
type Outcome struct {
	Winner     *string        `json:"winner"`
	By         map[string]int `json:"by"`
	Method     *string        `json:"method"`
	Result     *string        `json:"result"`
	Eliminator *string        `json:"eliminator"`
}

// Toss records who won the toss and what they chose.
type Toss struct {
	Winner      string `json:"winner"`
	Decision    string `json:"decision"`
	Uncontested *bool  `json:"uncontested"`
}

// Officials lists match officials by category.
type Officials struct {
	MatchReferees  []string `json:"match_referees"`
	ReserveUmpires []string `json:"reserve_umpires"`
	TVUmpires      []string `json:"tv_umpires"`
	Umpires        []string `json:"umpires"`
}

// Registry maps player names to stable external identifiers.
type Registry struct {
	People map[string]string `json:"people"`
}

// Innings is one team's turn at batting.
type Innings struct {
	Team      string `json:"team"`
	Overs     []Over `json:"overs"`
	Declared  *bool  `json:"declared"`
	Forfeited *bool  `json:"forfeited"`
	SuperOver *bool  `json:"super_over"`
}

// Over is a labeled group of deliveries.
type Over struct {
	Over       int        `json:"over"`
	Deliveries []Delivery `json:"deliveries"`
}

// Delivery is one bowled ball, the atomic event unit.
type Delivery struct {
	Batter     string   `json:"batter"`
	Bowler     string   `json:"bowler"`
	NonStriker string   `json:"non_striker"`
	Runs       Runs     `json:"runs"`
	Extras     *Extras  `json:"extras"`
	Wickets    []Wicket `json:"wickets"`
}

// Runs is the runs breakdown for a delivery. Absent fields decode to
// zero; the total is advisory and never re-derived.
type Runs struct {
	Batter      int   `json:"batter"`
	Extras      int   `json:"extras"`
	Total       int   `json:"total"`
	NonBoundary *bool `json:"non_boundary"`
}

// Extras breaks down runs not credited off the bat. Nil sub-fields
// mean "not applicable", which is distinct from zero.
type Extras struct {
	Byes    *int `json:"byes"`
	Legbyes *int `json:"legbyes"`
	Noballs *int `json:"noballs"`
	Penalty *int `json:"penalty"`
	Wides   *int `json:"wides"`
}

// Wicket is a dismissal attached to a delivery.
type Wicket struct {
	Kind      string    `json:"kind"`
	PlayerOut string    `json:"player_out"`
	Fielders  []Fielder `json:"fielders"`
}

// Fielder is a fielder involved in a dismissal.
type Fielder struct {
	Name       string `json:"name"`
	Substitute *bool  `json:"substitute"`
}
