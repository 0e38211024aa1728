package engine

import (
	"github.com/XapioBroke/aichessbot/position"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ThreatRecord is one enemy piece and the defending pieces it could capture
// on its next move.
type ThreatRecord struct {
	From     position.Square   `json:"from"`
	Attacker position.Piece    `json:"attacker"`
	Targets  []position.Square `json:"targets"`
}

// DetectThreats lists every piece of the side opposing defending that could
// capture a defending piece on its next move, ordered by attacker square.
// The position is rescanned from scratch on every call.
func DetectThreats(p *position.Position, defending position.Color) []ThreatRecord {
	threats := []ThreatRecord{}
	defended := p.Occupied(defending)
	if defended == 0 {
		return threats
	}
	// Move generation is turn-gated, so ask the question in a copy where the
	// attacker is on move.
	hypo, err := p.WithSideToMove(defending.Other())
	if err != nil {
		return threats
	}

	byAttacker := make(map[position.Square][]position.Square)
	for _, m := range hypo.GenerateMoves(nil) {
		if defended&(uint64(1)<<m.To) != 0 {
			byAttacker[m.From] = append(byAttacker[m.From], m.To)
		}
	}

	attackers := maps.Keys(byAttacker)
	slices.Sort(attackers)
	for _, sq := range attackers {
		targets := byAttacker[sq]
		slices.Sort(targets)
		threats = append(threats, ThreatRecord{
			From:     sq,
			Attacker: hypo.PieceAt(sq),
			Targets:  slices.Compact(targets),
		})
	}
	return threats
}

// ThreatenedSquares flattens threats into the set of attacked defender squares.
func ThreatenedSquares(threats []ThreatRecord) []position.Square {
	var out []position.Square
	for _, t := range threats {
		out = append(out, t.Targets...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
