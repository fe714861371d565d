// internal/game/table.go
package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmcmillan1999/sluff-project-sub002/engine"
	"github.com/mmcmillan1999/sluff-project-sub002/internal/cache"
	"github.com/mmcmillan1999/sluff-project-sub002/internal/database"
	"github.com/mmcmillan1999/sluff-project-sub002/internal/models"
	"github.com/sirupsen/logrus"
)

// Seat limits. With four seated the dealer sits the round out.
const (
	MinSeats = engine.NumPlayers
	MaxSeats = engine.NumPlayers + 1
)

// DefaultBotTimeout bounds a bot decision when TableOptions leaves it unset.
const DefaultBotTimeout = 3 * time.Second

// Round outcomes reported in results and analytics.
const (
	OutcomeSettled  = "settled"
	OutcomeThrownIn = "thrown_in"
	OutcomeAborted  = "aborted"
)

// OnRoundEndFunc is called with the table lock held after every round,
// settled or not. It must not call back into the table.
type OnRoundEndFunc func(tableID uuid.UUID, result ResultView, scores map[uuid.UUID]int)

// Recorder receives every accepted table action. *cache.Historian implements it.
type Recorder interface {
	PublishAction(ctx context.Context, rec cache.ActionRecord) error
}

// AnalyticsSink receives round results and insurance decisions without
// blocking. *database.Store implements it.
type AnalyticsSink interface {
	RecordRound(rec database.RoundRecord)
	RecordInsuranceDecisions(recs []database.InsuranceDecision)
}

// TableOptions configures a table.
type TableOptions struct {
	Rules        engine.HouseRules
	BotTimeout   time.Duration // bounded wait for a bot decision
	TurnDuration time.Duration // human decision timer; 0 disables it
	Seed         uint64        // 0 seeds each round from the clock
}

// DefaultTableOptions returns the standard rules with a 3 s bot timeout and
// no human turn timer.
func DefaultTableOptions() TableOptions {
	return TableOptions{
		Rules:      engine.DefaultHouseRules(),
		BotTimeout: DefaultBotTimeout,
	}
}

// Table is one Sluff table: its seated players and the round in progress.
// Exported methods lock Mu themselves.
type Table struct {
	ID      uuid.UUID
	Options TableOptions

	roster   Roster
	players  map[uuid.UUID]*models.Player
	deciders map[uuid.UUID]Decider // bot seats

	// Round state. The engine is authoritative.
	Engine         engine.GameState
	RoundID        uuid.UUID
	RoundNumber    int
	InRound        bool
	TurnOrder      []uuid.UUID                 // all seated ids, seat after the dealer first
	PlayerToEngine map[uuid.UUID]uint8         // active player -> engine index
	EngineToPlayer [engine.NumPlayers]uuid.UUID // engine index -> player
	Dealer         uuid.UUID
	SittingOut     uuid.UUID // dealer at a four-seat table, uuid.Nil otherwise

	// Decision points.
	DecisionID     int
	decisionTimer  *time.Timer
	cancelDecision context.CancelFunc
	insuranceGen   int // bumps whenever outstanding bot insurance answers go stale

	insuranceLog []database.InsuranceDecision
	lastResult   *ResultView
	actionIndex  int
	closed       bool

	Mu sync.Mutex

	// Communication callbacks.
	BroadcastFn         func(ev GameEvent)
	BroadcastToPlayerFn func(playerID uuid.UUID, ev GameEvent)
	OnRoundEnd          OnRoundEndFunc

	Recorder  Recorder
	Analytics AnalyticsSink

	baseLog *logrus.Entry
	log     *logrus.Entry
}

// NewTable creates an empty table. A nil logger uses the logrus standard logger.
func NewTable(opts TableOptions, logger logrus.FieldLogger) (*Table, error) {
	if err := opts.Rules.Validate(); err != nil {
		return nil, err
	}
	if opts.BotTimeout <= 0 {
		opts.BotTimeout = DefaultBotTimeout
	}
	if opts.TurnDuration < 0 {
		opts.TurnDuration = 0
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	id := uuid.New()
	base := logger.WithField("table", id)
	return &Table{
		ID:             id,
		Options:        opts,
		players:        make(map[uuid.UUID]*models.Player),
		deciders:       make(map[uuid.UUID]Decider),
		PlayerToEngine: make(map[uuid.UUID]uint8),
		baseLog:        base,
		log:            base,
	}, nil
}

// SetBroadcasters installs the event callbacks.
func (t *Table) SetBroadcasters(all func(ev GameEvent), one func(playerID uuid.UUID, ev GameEvent)) {
	t.Mu.Lock()
	defer t.Mu.Unlock()
	t.BroadcastFn = all
	t.BroadcastToPlayerFn = one
}

// ---------------------------------------------------------------------------
// Seating
// ---------------------------------------------------------------------------

// Seat adds p to the table. Bot seats need a Decider. Seating an id that is
// already seated only refreshes its connection, name and decider. A player
// seated mid-round waits for the next round.
func (t *Table) Seat(p *models.Player, d Decider) error {
	if p == nil || p.ID == uuid.Nil {
		return fmt.Errorf("%w: player id required", engine.ErrInvalidValue)
	}
	t.Mu.Lock()
	defer t.Mu.Unlock()

	if t.closed {
		return fmt.Errorf("%w: table closed", engine.ErrIllegalAction)
	}
	if existing, ok := t.players[p.ID]; ok {
		existing.Connected = true
		if p.Name != "" {
			existing.Name = p.Name
		}
		if d != nil {
			t.deciders[p.ID] = d
		}
		return nil
	}
	if t.roster.Len() >= MaxSeats {
		return fmt.Errorf("%w: table full (%d seats)", engine.ErrIllegalAction, MaxSeats)
	}
	if p.IsBot && d == nil {
		return fmt.Errorf("%w: bot seat %s has no decider", engine.ErrInvalidValue, p.ID)
	}

	cp := *p
	cp.Connected = true
	t.roster.Add(p.ID)
	t.players[p.ID] = &cp
	if d != nil {
		t.deciders[p.ID] = d
	}
	if t.Dealer == uuid.Nil {
		t.Dealer = p.ID
	}

	t.log.WithFields(logrus.Fields{"player": p.ID, "name": p.Name, "bot": p.IsBot}).Info("player seated")
	t.fireEvent(GameEvent{
		Type:    EventPlayerSeated,
		User:    &EventUser{ID: p.ID},
		Payload: map[string]interface{}{"name": cp.Name, "isBot": cp.IsBot, "seats": t.roster.Len()},
	})
	t.logAction(p.ID, string(EventPlayerSeated), map[string]interface{}{"name": cp.Name, "isBot": cp.IsBot})
	return nil
}

// Unseat removes id. Removing an absent id is a no-op. Unseating a player of
// the round in progress aborts the round without settlement.
func (t *Table) Unseat(id uuid.UUID) error {
	t.Mu.Lock()
	defer t.Mu.Unlock()

	if !t.roster.Contains(id) {
		return nil
	}
	if _, active := t.PlayerToEngine[id]; active && t.InRound {
		t.abortRound("player_unseated")
	}

	seated := t.roster.IDs()
	if id == t.Dealer {
		order, _ := TurnOrder(seated, id)
		t.Dealer = uuid.Nil
		switch {
		case len(order) < 2:
		case t.InRound:
			// The sitting-out dealer left a round that goes on. Hand the
			// button back one seat so endRound lands on the seat after it.
			t.Dealer = order[len(order)-2]
		default:
			// Between rounds t.Dealer already names the next dealer.
			t.Dealer = order[0]
		}
	}
	t.roster.Remove(id)
	t.TurnOrder = removeID(t.TurnOrder, id)
	delete(t.players, id)
	delete(t.deciders, id)

	t.log.WithField("player", id).Info("player unseated")
	t.fireEvent(GameEvent{
		Type:    EventPlayerUnseated,
		User:    &EventUser{ID: id},
		Payload: map[string]interface{}{"seats": t.roster.Len()},
	})
	t.logAction(id, string(EventPlayerUnseated), nil)
	return nil
}

// SetConnected marks a seated player's connection state. A reconnecting
// player receives a private state sync.
func (t *Table) SetConnected(id uuid.UUID, connected bool) error {
	t.Mu.Lock()
	defer t.Mu.Unlock()

	p, ok := t.players[id]
	if !ok {
		return fmt.Errorf("%w: player %s", engine.ErrNotFound, id)
	}
	if p.Connected == connected {
		return nil
	}
	p.Connected = connected
	t.log.WithFields(logrus.Fields{"player": id, "connected": connected}).Debug("connection changed")
	if connected {
		t.sendSyncState(id)
	}
	return nil
}

// Players returns copies of the seated players in seat order.
func (t *Table) Players() []models.Player {
	t.Mu.Lock()
	defer t.Mu.Unlock()
	out := make([]models.Player, 0, t.roster.Len())
	for _, id := range t.roster.IDs() {
		out = append(out, *t.players[id])
	}
	return out
}

// Scores returns the running balance of every seated player.
func (t *Table) Scores() map[uuid.UUID]int {
	t.Mu.Lock()
	defer t.Mu.Unlock()
	return t.scores()
}

// scores assumes lock is held by caller.
func (t *Table) scores() map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(t.players))
	for id, p := range t.players {
		out[id] = p.Score
	}
	return out
}

// Close stops timers and refuses further rounds. A round in progress is aborted.
func (t *Table) Close() {
	t.Mu.Lock()
	defer t.Mu.Unlock()
	if t.closed {
		return
	}
	if t.InRound {
		t.abortRound("table_closed")
	}
	t.stopDecisionTimer()
	t.closed = true
}

// ---------------------------------------------------------------------------
// Round lifecycle
// ---------------------------------------------------------------------------

// StartRound deals a new round. It needs at least three seated players and no
// round in progress.
func (t *Table) StartRound() error {
	t.Mu.Lock()
	defer t.Mu.Unlock()

	if t.closed {
		return fmt.Errorf("%w: table closed", engine.ErrIllegalAction)
	}
	if t.InRound {
		return fmt.Errorf("%w: round %d in progress", engine.ErrIllegalAction, t.RoundNumber)
	}
	seated := t.roster.IDs()
	if len(seated) < MinSeats {
		return fmt.Errorf("%w: need %d seated players, have %d", engine.ErrIllegalAction, MinSeats, len(seated))
	}

	order, found := TurnOrder(seated, t.Dealer)
	if !found {
		t.log.WithField("dealer", t.Dealer).Warn("dealer not seated, first seat deals")
	}
	t.Dealer = order[len(order)-1]
	t.TurnOrder = order
	t.SittingOut = uuid.Nil
	if len(order) > engine.NumPlayers {
		t.SittingOut = order[engine.NumPlayers]
	}

	seed := t.Options.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	} else {
		seed += uint64(t.RoundNumber)
	}
	g := engine.NewGame(seed, t.Options.Rules)
	before := g
	if err := g.Deal(); err != nil {
		return err
	}

	t.Engine = g
	t.RoundID = uuid.New()
	t.RoundNumber++
	t.InRound = true
	t.lastResult = nil
	t.insuranceLog = nil
	t.PlayerToEngine = make(map[uuid.UUID]uint8, engine.NumPlayers)
	for i := 0; i < engine.NumPlayers; i++ {
		t.PlayerToEngine[order[i]] = uint8(i)
		t.EngineToPlayer[i] = order[i]
	}
	t.log = t.baseLog.WithField("round", t.RoundID)
	t.log.WithFields(logrus.Fields{"number": t.RoundNumber, "dealer": t.Dealer}).Info("round started")

	orderStrs := make([]string, len(order))
	for i, id := range order {
		orderStrs[i] = id.String()
	}
	payload := map[string]interface{}{
		"roundId":     t.RoundID.String(),
		"roundNumber": t.RoundNumber,
		"dealer":      t.Dealer.String(),
		"order":       orderStrs,
	}
	if t.SittingOut != uuid.Nil {
		payload["sittingOut"] = t.SittingOut.String()
	}
	t.fireEvent(GameEvent{Type: EventRoundStarted, Payload: payload})
	t.logAction(uuid.Nil, string(EventRoundStarted), payload)

	for i := uint8(0); i < engine.NumPlayers; i++ {
		t.fireEventToPlayer(t.EngineToPlayer[i], GameEvent{
			Type:    EventPrivateHandDealt,
			User:    &EventUser{ID: t.EngineToPlayer[i]},
			Payload: map[string]interface{}{"hand": cardStrings(t.Engine.Hand(i)), "order": int(i)},
		})
	}

	t.advance(before)
	return nil
}

// advance reacts to an engine transition from before to the current state:
// announces phase changes, ends the round on a terminal phase and otherwise
// opens the next decision point. Assumes lock is held by caller.
func (t *Table) advance(before engine.GameState) {
	g := &t.Engine
	if before.Phase != g.Phase {
		t.log.WithFields(logrus.Fields{"from": before.Phase.String(), "to": g.Phase.String()}).Info("phase changed")
		t.fireEvent(GameEvent{
			Type:    EventPhaseChanged,
			Payload: map[string]interface{}{"from": before.Phase.String(), "phase": g.Phase.String()},
		})
	}
	if before.Bidder() == engine.NoPlayer && g.Bidder() != engine.NoPlayer {
		t.onAuctionResolved(before)
	}

	switch g.Phase {
	case engine.PhaseSettled:
		t.finishRound()
		return
	case engine.PhaseThrownIn:
		t.throwIn()
		return
	case engine.PhaseAborted:
		t.abortRound("inconsistent_state")
		return
	}

	t.openDecision()
	if g.Phase == engine.PhaseTrickPlay && (before.Phase != engine.PhaseTrickPlay || before.TricksPlayed != g.TricksPlayed) {
		t.pollBotInsurance()
	}
}

// onAuctionResolved announces the bid winner. The Frog winner privately sees
// the widow that just joined their hand. Assumes lock is held by caller.
func (t *Table) onAuctionResolved(before engine.GameState) {
	g := &t.Engine
	bidder := t.EngineToPlayer[g.Bidder()]
	t.log.WithFields(logrus.Fields{"bidder": bidder, "bid": g.Winner.Bid.String()}).Info("auction won")

	if g.Winner.Bid == engine.BidFrog {
		t.fireEventToPlayer(bidder, GameEvent{
			Type:    EventPrivateWidowRevealed,
			User:    &EventUser{ID: bidder},
			Payload: map[string]interface{}{"widow": cardStrings(before.Widow[:]), "hand": cardStrings(g.Hand(g.Bidder()))},
		})
	}
	if g.Winner.TrumpChosen {
		t.fireEvent(GameEvent{
			Type:    EventTrumpChosen,
			User:    &EventUser{ID: bidder},
			Payload: map[string]interface{}{"suit": engine.SuitString(g.Winner.Trump), "automatic": true},
		})
	}
}

// finishRound applies a settled round's deltas. Assumes lock is held by caller.
func (t *Table) finishRound() {
	g := &t.Engine
	res := g.Result
	alt := res.Alternative()

	deltas := make(map[uuid.UUID]int, engine.NumPlayers+1)
	altDeltas := make(map[uuid.UUID]int, engine.NumPlayers+1)
	for i := 0; i < engine.NumPlayers; i++ {
		id := t.EngineToPlayer[i]
		deltas[id] = res.Deltas[i]
		altDeltas[id] = alt[i]
		if p := t.players[id]; p != nil {
			p.Score += res.Deltas[i]
		}
	}
	if t.SittingOut != uuid.Nil {
		deltas[t.SittingOut] = 0
		altDeltas[t.SittingOut] = 0
	}

	bidder := t.EngineToPlayer[res.Bidder]
	view := &ResultView{
		Outcome:           OutcomeSettled,
		Bidder:            bidder,
		Bid:               res.Bid.String(),
		BidderPoints:      res.BidderPoints,
		Target:            res.Target,
		Success:           res.Success,
		InsuranceExecuted: res.InsuranceExecuted,
		Deltas:            deltas,
		Alternative:       altDeltas,
	}
	scores := t.scores()

	t.log.WithFields(logrus.Fields{
		"bidder":    bidder,
		"bid":       res.Bid.String(),
		"points":    res.BidderPoints,
		"success":   res.Success,
		"insurance": res.InsuranceExecuted,
	}).Info("round settled")

	payload := map[string]interface{}{
		"bidder":            bidder.String(),
		"bid":               res.Bid.String(),
		"bidderPoints":      res.BidderPoints,
		"target":            res.Target,
		"success":           res.Success,
		"insuranceExecuted": res.InsuranceExecuted,
		"executedTrick":     int(res.ExecutedTrick),
		"deltas":            idMap(deltas),
		"scores":            idMap(scores),
		"widow":             cardStrings(g.Widow[:]),
	}
	t.fireEvent(GameEvent{Type: EventRoundSettled, Payload: payload})
	t.logAction(uuid.Nil, string(EventRoundSettled), payload)

	t.recordInsuranceOutcomes(res)
	t.recordRound(OutcomeSettled, deltas)
	t.endRound(view, scores)
}

// throwIn ends a round in which every player passed. Assumes lock is held by caller.
func (t *Table) throwIn() {
	t.log.Info("round thrown in")
	deltas := t.zeroDeltas()
	t.fireEvent(GameEvent{Type: EventRoundThrownIn, Payload: map[string]interface{}{"roundNumber": t.RoundNumber}})
	t.logAction(uuid.Nil, string(EventRoundThrownIn), nil)
	t.recordRound(OutcomeThrownIn, deltas)
	t.endRound(&ResultView{Outcome: OutcomeThrownIn, Deltas: deltas}, t.scores())
}

// abortRound ends the round without settlement. Assumes lock is held by caller.
func (t *Table) abortRound(reason string) {
	if !t.InRound {
		return
	}
	if t.Engine.Phase != engine.PhaseAborted {
		t.Engine.Abort()
	}
	t.log.WithField("reason", reason).Error("round aborted")
	deltas := t.zeroDeltas()
	t.fireEvent(GameEvent{Type: EventRoundAborted, Payload: map[string]interface{}{"reason": reason}})
	t.logAction(uuid.Nil, string(EventRoundAborted), map[string]interface{}{"reason": reason})
	t.recordRound(OutcomeAborted, deltas)
	t.endRound(&ResultView{Outcome: OutcomeAborted, Deltas: deltas}, t.scores())
}

// endRound returns the table to waiting and moves the dealer one seat along.
// Assumes lock is held by caller.
func (t *Table) endRound(view *ResultView, scores map[uuid.UUID]int) {
	t.stopDecisionTimer()
	t.insuranceGen++
	t.InRound = false
	t.lastResult = view
	t.insuranceLog = nil
	t.PlayerToEngine = make(map[uuid.UUID]uint8)
	t.SittingOut = uuid.Nil

	if order, _ := TurnOrder(t.roster.IDs(), t.Dealer); len(order) > 0 {
		t.Dealer = order[0]
	}
	t.log = t.baseLog

	if t.OnRoundEnd != nil {
		t.OnRoundEnd(t.ID, *view, scores)
	}
}

// zeroDeltas assumes lock is held by caller.
func (t *Table) zeroDeltas() map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, engine.NumPlayers+1)
	for id := range t.PlayerToEngine {
		out[id] = 0
	}
	if t.SittingOut != uuid.Nil {
		out[t.SittingOut] = 0
	}
	return out
}

// ---------------------------------------------------------------------------
// Submissions
// ---------------------------------------------------------------------------

// SubmitBid places a bid or a frog-upgrade answer.
func (t *Table) SubmitBid(playerID uuid.UUID, bid engine.Bid) error {
	return t.SubmitDecision(playerID, BidDecision{Bid: bid})
}

// SubmitWidowExchange returns three cards to the widow.
func (t *Table) SubmitWidowExchange(playerID uuid.UUID, discards [engine.WidowSize]engine.Card) error {
	return t.SubmitDecision(playerID, WidowDecision{Discards: discards})
}

// SubmitTrump names the trump suit.
func (t *Table) SubmitTrump(playerID uuid.UUID, suit uint8) error {
	return t.SubmitDecision(playerID, TrumpDecision{Suit: suit})
}

// SubmitCard plays a card.
func (t *Table) SubmitCard(playerID uuid.UUID, card engine.Card) error {
	return t.SubmitDecision(playerID, CardDecision{Card: card})
}

// SubmitInsurance sets the player's role-scoped insurance field. applied is
// false once the deal has executed.
func (t *Table) SubmitInsurance(playerID uuid.UUID, setting engine.InsuranceSetting, value int) (applied bool, err error) {
	t.Mu.Lock()
	defer t.Mu.Unlock()
	d := InsuranceDecision{Setting: setting, Value: value}
	applied, err = t.submitInsurance(playerID, d)
	if err != nil {
		t.reject(playerID, KindInsurance, err)
	}
	return applied, err
}

// SubmitDecision applies any decision for playerID. Rejected decisions leave
// the table unchanged and are reported privately to the player.
func (t *Table) SubmitDecision(playerID uuid.UUID, d Decision) error {
	t.Mu.Lock()
	defer t.Mu.Unlock()
	err := t.submit(playerID, d)
	if err != nil {
		kind := DecisionKind("")
		if d != nil {
			kind = d.Kind()
		}
		t.reject(playerID, kind, err)
	}
	return err
}

// lookup resolves an active player of the current round. Assumes lock is held by caller.
func (t *Table) lookup(playerID uuid.UUID) (uint8, error) {
	if !t.roster.Contains(playerID) {
		return 0, fmt.Errorf("%w: player %s", engine.ErrNotFound, playerID)
	}
	if !t.InRound {
		return 0, fmt.Errorf("%w: no round in progress", engine.ErrIllegalAction)
	}
	idx, ok := t.PlayerToEngine[playerID]
	if !ok {
		return 0, fmt.Errorf("%w: player %s sits this round out", engine.ErrIllegalAction, playerID)
	}
	return idx, nil
}

// submit validates and applies d. Assumes lock is held by caller.
func (t *Table) submit(playerID uuid.UUID, d Decision) error {
	if d == nil {
		return fmt.Errorf("%w: empty decision", engine.ErrInvalidValue)
	}
	if ins, ok := d.(InsuranceDecision); ok {
		_, err := t.submitInsurance(playerID, ins)
		return err
	}
	idx, err := t.lookup(playerID)
	if err != nil {
		return err
	}
	g := &t.Engine
	if g.ActingPlayer() != idx {
		return fmt.Errorf("%w: not your turn", engine.ErrIllegalAction)
	}

	before := t.Engine
	switch d := d.(type) {
	case BidDecision:
		err = g.PlaceBid(idx, d.Bid)
	case WidowDecision:
		err = g.ExchangeWidow(idx, d.Discards)
	case TrumpDecision:
		err = g.ChooseTrump(idx, d.Suit)
	case CardDecision:
		err = g.PlayCard(idx, d.Card)
	default:
		return fmt.Errorf("%w: unsupported decision %T", engine.ErrInvalidValue, d)
	}
	if err != nil && !errors.Is(err, engine.ErrInconsistentState) {
		return err
	}
	if err != nil {
		// The engine aborted the round itself; advance reports it.
		t.log.WithError(err).Error("integrity check failed")
	}

	if r := d.Reason(); r != "" {
		t.log.WithFields(logrus.Fields{"player": playerID, "kind": d.Kind(), "rationale": r}).Debug("decision rationale")
	}
	t.announce(playerID, before, d)
	t.advance(before)
	return nil
}

// submitInsurance applies an insurance setting. Assumes lock is held by caller.
func (t *Table) submitInsurance(playerID uuid.UUID, d InsuranceDecision) (bool, error) {
	idx, err := t.lookup(playerID)
	if err != nil {
		return false, err
	}
	g := &t.Engine
	applied, err := g.UpdateInsurance(idx, d.Setting, d.Value)
	if err != nil {
		return false, err
	}
	if !applied {
		t.log.WithField("player", playerID).Debug("insurance setting after execution ignored")
		return false, nil
	}

	t.insuranceLog = append(t.insuranceLog, database.InsuranceDecision{
		TableID:       t.ID,
		RoundID:       t.RoundID,
		PlayerID:      playerID,
		Role:          t.roleOf(idx),
		Setting:       d.Setting.String(),
		Value:         d.Value,
		BidMultiplier: g.Rules.Multiplier(g.Winner.Bid),
		TrickNumber:   int(g.TricksPlayed),
		Rationale:     d.Rationale,
		CreatedAt:     time.Now(),
	})

	payload := map[string]interface{}{
		"setting":     d.Setting.String(),
		"value":       d.Value,
		"requirement": g.Insurance.Requirement,
		"sumOffers":   g.Insurance.SumOffers(),
	}
	t.fireEvent(GameEvent{Type: EventInsuranceUpdated, User: &EventUser{ID: playerID}, Payload: payload})
	t.logAction(playerID, string(EventInsuranceUpdated), payload)
	return true, nil
}

// announce broadcasts an accepted turn decision. Assumes lock is held by caller.
func (t *Table) announce(playerID uuid.UUID, before engine.GameState, d Decision) {
	g := &t.Engine
	user := &EventUser{ID: playerID}

	switch d := d.(type) {
	case BidDecision:
		payload := map[string]interface{}{
			"bid":     d.Bid.String(),
			"upgrade": before.Phase == engine.PhaseAwaitingFrogUpgrade,
		}
		if g.Auction.HighBidder != engine.NoPlayer {
			payload["highBid"] = g.Auction.HighBid.String()
			payload["highBidder"] = t.EngineToPlayer[g.Auction.HighBidder].String()
		}
		t.fireEvent(GameEvent{Type: EventBidPlaced, User: user, Payload: payload})
		t.logAction(playerID, string(EventBidPlaced), payload)

	case WidowDecision:
		t.fireEvent(GameEvent{Type: EventWidowExchanged, User: user})
		t.logAction(playerID, string(EventWidowExchanged), map[string]interface{}{"discards": cardStrings(d.Discards[:])})

	case TrumpDecision:
		payload := map[string]interface{}{"suit": engine.SuitString(d.Suit)}
		t.fireEvent(GameEvent{Type: EventTrumpChosen, User: user, Payload: payload})
		t.logAction(playerID, string(EventTrumpChosen), payload)

	case CardDecision:
		payload := map[string]interface{}{"card": d.Card.String(), "trick": int(before.TricksPlayed) + 1}
		t.fireEvent(GameEvent{Type: EventCardPlayed, User: user, Payload: payload})
		t.logAction(playerID, string(EventCardPlayed), payload)

		if g.TricksPlayed > before.TricksPlayed {
			last, _ := g.LastTrick()
			winner := t.EngineToPlayer[last.Winner]
			tp := map[string]interface{}{
				"trick":  int(g.TricksPlayed),
				"winner": winner.String(),
				"points": last.Points,
				"cards":  cardStrings(last.Cards[:last.Count]),
			}
			t.fireEvent(GameEvent{Type: EventTrickResolved, User: &EventUser{ID: winner}, Payload: tp})
			t.logAction(uuid.Nil, string(EventTrickResolved), tp)
		}
		if !before.Insurance.Executed && g.Insurance.Executed {
			ins := g.Insurance
			ip := map[string]interface{}{
				"trick":       int(ins.ExecutedTrick),
				"requirement": ins.Requirement,
				"sumOffers":   ins.SumOffers(),
			}
			t.log.WithFields(logrus.Fields(ip)).Info("insurance executed")
			t.fireEvent(GameEvent{Type: EventInsuranceExecuted, Payload: ip})
			t.logAction(uuid.Nil, string(EventInsuranceExecuted), ip)
		}
	}
}

// roleOf assumes lock is held by caller.
func (t *Table) roleOf(idx uint8) string {
	b := t.Engine.Bidder()
	switch {
	case b == engine.NoPlayer:
		return ""
	case b == idx:
		return "bidder"
	default:
		return "defender"
	}
}

// reject reports a refused submission to its sender. Assumes lock is held by caller.
func (t *Table) reject(playerID uuid.UUID, kind DecisionKind, err error) {
	t.log.WithError(err).WithFields(logrus.Fields{"player": playerID, "kind": kind}).Debug("submission rejected")
	t.fireEventToPlayer(playerID, GameEvent{
		Type: EventPrivateActionRejected,
		User: &EventUser{ID: playerID},
		Payload: map[string]interface{}{
			"kind":    string(kind),
			"code":    ErrorCode(err),
			"message": err.Error(),
		},
	})
}

// ---------------------------------------------------------------------------
// Broadcasting and history
// ---------------------------------------------------------------------------

// fireEvent assumes lock is held by caller.
func (t *Table) fireEvent(ev GameEvent) {
	if t.BroadcastFn != nil {
		t.BroadcastFn(ev)
	}
}

// fireEventToPlayer sends ev to a connected player. Assumes lock is held by caller.
func (t *Table) fireEventToPlayer(playerID uuid.UUID, ev GameEvent) {
	if t.BroadcastToPlayerFn == nil {
		return
	}
	if p := t.players[playerID]; p != nil && p.Connected {
		t.BroadcastToPlayerFn(playerID, ev)
	}
}

// sendSyncState assumes lock is held by caller.
func (t *Table) sendSyncState(playerID uuid.UUID) {
	state := t.snapshotLocked(playerID)
	t.fireEventToPlayer(playerID, GameEvent{Type: EventPrivateSyncState, User: &EventUser{ID: playerID}, State: &state})
}

// logAction hands an action record to the recorder without waiting.
// Assumes lock is held by caller.
func (t *Table) logAction(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	t.actionIndex++
	if t.Recorder == nil {
		return
	}
	cp := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		cp[k] = v
	}
	rec := cache.ActionRecord{
		TableID:     t.ID,
		RoundID:     t.RoundID,
		ActionIndex: t.actionIndex,
		ActorID:     actorID,
		ActionType:  actionType,
		Payload:     cp,
		Timestamp:   time.Now().UnixMilli(),
	}
	recorder, log := t.Recorder, t.log
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := recorder.PublishAction(ctx, rec); err != nil {
			log.WithError(err).WithField("action", rec.ActionType).Warn("publishing action failed")
		}
	}()
}

// idMap renders uuid keys for event payloads.
func idMap(m map[uuid.UUID]int) map[string]int {
	out := make(map[string]int, len(m))
	for id, v := range m {
		out[id.String()] = v
	}
	return out
}
