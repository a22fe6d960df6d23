package services

import (
	"github.com/betesebbet/bingo-backend/game"
)

// CardView is one gallery entry: a card id with its full grid, recomputed on
// demand since grids are pure functions of (id, mode).
type CardView struct {
	CardID int     `json:"card_id"`
	Grid   [][]int `json:"grid"`
}

// ListCards renders the whole addressable deck for the mode.
func ListCards(mode game.Mode) ([]CardView, error) {
	out := make([]CardView, 0, game.TotalCardsAvailable)
	for id := 1; id <= game.TotalCardsAvailable; id++ {
		grid, err := game.Generate(id, mode)
		if err != nil {
			return nil, err
		}
		out = append(out, CardView{CardID: id, Grid: grid})
	}
	return out, nil
}

// CardByID renders a single card.
func CardByID(id int, mode game.Mode) (CardView, error) {
	grid, err := game.Generate(id, mode)
	if err != nil {
		return CardView{}, err
	}
	return CardView{CardID: id, Grid: grid}, nil
}
