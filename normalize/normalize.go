// Package normalize flattens a validated match record into ordered row
// sets for each destination relation. It mints no identifiers; the
// loader captures the store-generated match id and threads it through
// the child rows at insert time.
package normalize

import (
	"encoding/json"
	"sort"

	"github.com/jeffekeanyanwu/z-odi/schema"
)

// Sentinel used when toss data is absent upstream. Toss columns are
// semantically required downstream even when the source omits them.
const unknownToss = "unknown"

// MatchRow holds every matches-table column except the surrogate id.
// List-shaped columns (dates, player_of_match, outcome_by, fielders)
// are carried as JSON text.
type MatchRow struct {
	BallsPerOver      int
	City              *string
	Dates             string
	EventName         *string
	EventMatchNumber  *int
	EventGroup        *string
	EventStage        *string
	Gender            string
	MatchType         string
	OutcomeWinner     *string
	OutcomeBy         *string
	OutcomeMethod     *string
	OutcomeResult     *string
	OutcomeEliminator *string
	Overs             *int
	PlayerOfMatch     *string
	Season            string
	TeamType          string
	Team1             string
	Team2             string
	TossWinner        string
	TossDecision      string
	TossUncontested   bool
	Venue             *string
}

// PlayerRow is one distinct player identity. ID is the registry id
// when the registry knows the player, else the raw name.
type PlayerRow struct {
	ID         string
	Name       string
	RegistryID *string
}

// MatchPlayerRow links a player to the team they played for in one match.
type MatchPlayerRow struct {
	PlayerID string
	Team     string
}

// OfficialRow links an official's name to a role in one match.
type OfficialRow struct {
	Name string
	Role string
}

// DeliveryRow is one ball bowled: one row in the innings table.
type DeliveryRow struct {
	InningsNumber   int
	Team            string
	Over            int
	Ball            int
	Batter          string
	Bowler          string
	NonStriker      string
	RunsBatter      int
	RunsExtras      int
	RunsTotal       int
	RunsNonBoundary bool
	ExtrasByes      *int
	ExtrasLegbyes   *int
	ExtrasNoballs   *int
	ExtrasPenalty   *int
	ExtrasWides     *int
	WicketKind      *string
	PlayerOut       *string
	Fielders        *string
	Declared        bool
	Forfeited       bool
	SuperOver       bool
}

// Rows is the full normalized output for one record, ready for
// insertion in dependency order: match first, then players,
// match_players, officials, deliveries.
type Rows struct {
	Match        MatchRow
	Players      []PlayerRow
	MatchPlayers []MatchPlayerRow
	Officials    []OfficialRow
	Deliveries   []DeliveryRow
	SourceFile   string
}

// Flatten produces the row sets for one validated record. Structural
// gaps tolerated here (an innings with no overs, an over with no
// deliveries) contribute nothing rather than failing the record;
// anything that should reject a record was already caught by
// schema.Parse.
func Flatten(rec *schema.Record) *Rows {
	rows := &Rows{Match: matchRow(&rec.Info)}
	flattenPlayers(&rec.Info, rows)
	flattenOfficials(rec.Info.Officials, rows)
	for i, inn := range rec.Innings {
		flattenInnings(i+1, &inn, rows)
	}
	return rows
}

func matchRow(info *schema.Info) MatchRow {
	row := MatchRow{
		BallsPerOver: info.BallsPerOver,
		City:         info.City,
		Dates:        jsonList(info.Dates),
		Gender:       info.Gender,
		MatchType:    info.MatchType,
		Overs:        info.Overs,
		Season:       string(info.Season),
		TeamType:     info.TeamType,
		Team1:        info.Teams[0],
		Team2:        info.Teams[1],
		TossWinner:   unknownToss,
		TossDecision: unknownToss,
		Venue:        info.Venue,
	}
	if len(info.PlayerOfMatch) > 0 {
		s := jsonList(info.PlayerOfMatch)
		row.PlayerOfMatch = &s
	}
	if ev := info.Event; ev != nil {
		row.EventName = &ev.Name
		row.EventMatchNumber = ev.MatchNumber
		row.EventGroup = ev.Group
		row.EventStage = ev.Stage
	}
	if out := info.Outcome; out != nil {
		row.OutcomeWinner = out.Winner
		row.OutcomeMethod = out.Method
		row.OutcomeResult = out.Result
		row.OutcomeEliminator = out.Eliminator
		if len(out.By) > 0 {
			by, _ := json.Marshal(out.By)
			s := string(by)
			row.OutcomeBy = &s
		}
	}
	if toss := info.Toss; toss != nil {
		row.TossWinner = toss.Winner
		row.TossDecision = toss.Decision
		row.TossUncontested = toss.Uncontested != nil && *toss.Uncontested
	}
	return row
}

// flattenPlayers walks the team -> player-list mapping. Teams are
// visited in the order of info.teams; any extra mapping keys follow in
// sorted order so the output is deterministic. Identity resolution
// prefers the registry id for the exact name, falling back to the raw
// name. A player listed twice in one match contributes one row pair.
func flattenPlayers(info *schema.Info, rows *Rows) {
	teams := make([]string, 0, len(info.Players))
	seenTeam := make(map[string]bool)
	for _, t := range info.Teams {
		if _, ok := info.Players[t]; ok {
			teams = append(teams, t)
			seenTeam[t] = true
		}
	}
	extra := make([]string, 0)
	for t := range info.Players {
		if !seenTeam[t] {
			extra = append(extra, t)
		}
	}
	sort.Strings(extra)
	teams = append(teams, extra...)

	seen := make(map[string]bool)
	for _, team := range teams {
		for _, name := range info.Players[team] {
			id := name
			var registryID *string
			if rid, ok := info.Registry.People[name]; ok && rid != "" {
				id = rid
				r := rid
				registryID = &r
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			rows.Players = append(rows.Players, PlayerRow{ID: id, Name: name, RegistryID: registryID})
			rows.MatchPlayers = append(rows.MatchPlayers, MatchPlayerRow{PlayerID: id, Team: team})
		}
	}
}

// Official role categories, visited in fixed order.
var officialRoles = []struct {
	role string
	list func(*schema.Officials) []string
}{
	{"match_referee", func(o *schema.Officials) []string { return o.MatchReferees }},
	{"reserve_umpire", func(o *schema.Officials) []string { return o.ReserveUmpires }},
	{"tv_umpire", func(o *schema.Officials) []string { return o.TVUmpires }},
	{"umpire", func(o *schema.Officials) []string { return o.Umpires }},
}

func flattenOfficials(officials *schema.Officials, rows *Rows) {
	if officials == nil {
		return
	}
	for _, cat := range officialRoles {
		for _, name := range cat.list(officials) {
			rows.Officials = append(rows.Officials, OfficialRow{Name: name, Role: cat.role})
		}
	}
}

func flattenInnings(number int, inn *schema.Innings, rows *Rows) {
	declared := inn.Declared != nil && *inn.Declared
	forfeited := inn.Forfeited != nil && *inn.Forfeited
	superOver := inn.SuperOver != nil && *inn.SuperOver

	for _, over := range inn.Overs {
		for i, d := range over.Deliveries {
			row := DeliveryRow{
				InningsNumber:   number,
				Team:            inn.Team,
				Over:            over.Over,
				Ball:            i + 1, // resets every over, independent of the over label
				Batter:          d.Batter,
				Bowler:          d.Bowler,
				NonStriker:      d.NonStriker,
				RunsBatter:      d.Runs.Batter,
				RunsExtras:      d.Runs.Extras,
				RunsTotal:       d.Runs.Total,
				RunsNonBoundary: d.Runs.NonBoundary != nil && *d.Runs.NonBoundary,
				Declared:        declared,
				Forfeited:       forfeited,
				SuperOver:       superOver,
			}
			if ex := d.Extras; ex != nil {
				row.ExtrasByes = ex.Byes
				row.ExtrasLegbyes = ex.Legbyes
				row.ExtrasNoballs = ex.Noballs
				row.ExtrasPenalty = ex.Penalty
				row.ExtrasWides = ex.Wides
			}
			// Only the first recorded wicket per delivery is kept.
			if len(d.Wickets) > 0 {
				w := d.Wickets[0]
				row.WicketKind = &w.Kind
				row.PlayerOut = &w.PlayerOut
				if len(w.Fielders) > 0 {
					names := make([]string, len(w.Fielders))
					for fi, f := range w.Fielders {
						names[fi] = f.Name
					}
					s := jsonList(names)
					row.Fielders = &s
				}
			}
			rows.Deliveries = append(rows.Deliveries, row)
		}
	}
}

func jsonList(values []string) string {
	b, _ := json.Marshal(values)
	return string(b)
}
