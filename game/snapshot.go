package game

// Snapshot is a point-in-time, read-only view of a round, safe to serialize
// and hand to subscribers. Nothing in it aliases round-owned state.
type Snapshot struct {
	Key            RoundKey                   `json:"key"`
	State          State                      `json:"state"`
	SecondsToStart int                        `json:"seconds_to_start"`
	Participants   int                        `json:"participants"`
	Pot            int                        `json:"pot"`
	Drawn          []int                      `json:"numbers_drawn"`
	LastCall       int                        `json:"last_call,omitempty"`
	Winner         string                     `json:"winner,omitempty"`
	Entrants       map[string]EntrantSnapshot `json:"entrants"`
}

// EntrantSnapshot is one player's view inside a Snapshot.
type EntrantSnapshot struct {
	Cards     map[int][][]int `json:"cards"`
	Marks     map[int][]int   `json:"marks"`
	Progress  map[int][2]int  `json:"progress"` // cardID -> {best line, line length}
	Winning   []int           `json:"winning_card_ids,omitempty"`
	Potential int             `json:"potential_payout"`
	Autoplay  bool            `json:"autoplay"`
	Settled   bool            `json:"settled"`
	Result    *Result         `json:"result,omitempty"`
}

// Snapshot captures the current round state under the round mutex.
func (r *Round) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	participants := len(r.entrants)
	if r.state != StateMatchmaking {
		participants = r.frozen
	}

	snap := Snapshot{
		Key:            r.key,
		State:          r.state,
		SecondsToStart: SecondsRemaining(r.start, r.cfg.now()),
		Participants:   participants,
		Drawn:          append([]int(nil), r.drawn...),
		Winner:         r.winner,
		Entrants:       make(map[string]EntrantSnapshot, len(r.entrants)),
	}
	if len(r.drawn) > 0 {
		snap.LastCall = r.drawn[len(r.drawn)-1]
	}

	for id, e := range r.entrants {
		es := EntrantSnapshot{
			Cards:     make(map[int][][]int, len(e.cards)),
			Marks:     make(map[int][]int, len(e.marks)),
			Progress:  make(map[int][2]int, len(e.cards)),
			Potential: Pot(r.key.Stake, len(e.cardIDs), participants, r.cfg.HouseFee),
			Autoplay:  e.autoplay,
			Settled:   e.settled,
		}
		for cardID, grid := range e.cards {
			rows := make([][]int, len(grid))
			for i, row := range grid {
				rows[i] = append([]int(nil), row...)
			}
			es.Cards[cardID] = rows

			marks := e.marks[cardID]
			nums := make([]int, 0, len(marks))
			for n := range marks {
				nums = append(nums, n)
			}
			es.Marks[cardID] = nums

			cur, total := LineProgress(grid, marks, r.key.Mode)
			es.Progress[cardID] = [2]int{cur, total}
			if IsWinning(grid, marks, r.key.Mode) {
				es.Winning = append(es.Winning, cardID)
			}
		}
		if e.settled {
			res := e.result
			es.Result = &res
		}
		snap.Entrants[id] = es
	}

	// the headline number is the single-card pot; what a given entrant would
	// actually take is their Potential above, scaled by the cards they hold
	snap.Pot = Pot(r.key.Stake, 1, participants, r.cfg.HouseFee)
	return snap
}

// StateNow returns just the lifecycle state.
func (r *Round) StateNow() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}
