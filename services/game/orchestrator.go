package game

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	models "github.com/inukaki/dorokei-app-back/models/postgres"
	"github.com/inukaki/dorokei-app-back/services/store"

	"gorm.io/datatypes"
)

const (
	DefaultDurationSeconds    = 600
	DefaultGracePeriodSeconds = 30
	DefaultMaxPlayers         = 15
)

// Actor identifies the player issuing a command, as bound by their
// credential.
type Actor struct {
	PlayerID string `json:"playerId"`
	RoomID   string `json:"roomId"`
	IsHost   bool   `json:"isHost"`
}

// CredentialIssuer issues the signed token that binds a player to a
// room and the host flag.
type CredentialIssuer interface {
	Issue(playerID, roomID string, isHost bool) (string, error)
}

// Orchestrator is the single writer of room lifecycle state. Every
// command resolves the room, authorizes the actor, applies the state
// transition and persistence write under the room's session lock, and
// only then broadcasts the committed state.
type Orchestrator struct {
	store    store.RoomStore
	issuer   CredentialIssuer
	bc       Broadcaster
	cache    SnapshotCache // optional, may be nil
	sessions *sessionArena

	// overridable for tests
	now          func() time.Time
	tickInterval time.Duration
}

func NewOrchestrator(st store.RoomStore, issuer CredentialIssuer, bc Broadcaster, cache SnapshotCache) *Orchestrator {
	return &Orchestrator{
		store:        st,
		issuer:       issuer,
		bc:           bc,
		cache:        cache,
		sessions:     newSessionArena(),
		now:          time.Now,
		tickInterval: time.Second,
	}
}

// HashPasscode derives the deterministic lookup digest for a room
// passcode. The digest doubles as the uniqueness key in the store.
func HashPasscode(passcode string) string {
	sum := sha256.Sum256([]byte(passcode))
	return hex.EncodeToString(sum[:])
}

// withSession runs fn under the room's serialization point. When fn
// resolves the room row itself as gone, the lazily recreated arena
// entry is retired again so late commands against a disbanded room do
// not repopulate it.
func (o *Orchestrator) withSession(roomID string, fn func(sess *roomSession) error) error {
	sess := o.sessions.get(roomID)
	sess.mu.Lock()
	err := fn(sess)
	sess.mu.Unlock()
	var gone roomGoneError
	if errors.As(err, &gone) {
		o.sessions.drop(roomID)
	}
	return err
}

type CreateRoomResult struct {
	PlayerToken string `json:"playerToken"`
	Passcode    string `json:"passcode"`
	PlayerID    string `json:"playerId"`
	RoomID      string `json:"roomId"`
}

// CreateRoom creates a WAITING room and its host player (POLICE) in
// one logical step. If any later step fails, the room row is rolled
// back so no orphaned room survives.
func (o *Orchestrator) CreateRoom(playerName, passcode string) (*CreateRoomResult, error) {
	room := &models.Room{
		PasscodeHash:       HashPasscode(passcode),
		Status:             models.RoomStatusWaiting,
		DurationSeconds:    DefaultDurationSeconds,
		GracePeriodSeconds: DefaultGracePeriodSeconds,
		MaxPlayers:         DefaultMaxPlayers,
	}
	if err := o.store.CreateRoom(room); err != nil {
		if errors.Is(err, store.ErrDuplicatePasscode) {
			return nil, fmt.Errorf("%w: passcode already in use", ErrConflict)
		}
		return nil, err
	}

	host := &models.Player{
		PlayerName:  playerName,
		Role:        models.RolePolice,
		RoomID:      room.ID,
		IsConnected: true,
	}
	if err := o.store.CreatePlayer(host); err != nil {
		o.rollbackRoom(room.ID)
		return nil, err
	}
	if err := o.store.UpdateRoom(room.ID, map[string]interface{}{"host_player_id": host.ID}); err != nil {
		o.rollbackRoom(room.ID)
		return nil, err
	}

	token, err := o.issuer.Issue(host.ID, room.ID, true)
	if err != nil {
		o.rollbackRoom(room.ID)
		return nil, err
	}

	log.Printf("[ROOM-CREATE] Room %s created, host %s (%s)", room.ID, host.ID, playerName)
	return &CreateRoomResult{
		PlayerToken: token,
		Passcode:    passcode,
		PlayerID:    host.ID,
		RoomID:      room.ID,
	}, nil
}

func (o *Orchestrator) rollbackRoom(roomID string) {
	if err := o.store.DeleteRoom(roomID); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("[ROOM-CREATE-ERROR] Rollback of room %s failed: %v", roomID, err)
	}
}

// rollbackPlayer removes a player row whose credential was never
// issued, so no orphan survives a failed join.
func (o *Orchestrator) rollbackPlayer(playerID string) {
	if err := o.store.DeletePlayer(playerID); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("[ROOM-JOIN-ERROR] Rollback of player %s failed: %v", playerID, err)
	}
}

type JoinRoomResult struct {
	PlayerToken string `json:"playerToken"`
	PlayerID    string `json:"playerId"`
	RoomID      string `json:"roomId"`
}

// JoinRoom adds a THIEF to the room matching the passcode. Only
// allowed while the room is WAITING and below its player cap. The
// status and cap checks run under the room lock so concurrent joins
// cannot overshoot maxPlayers.
func (o *Orchestrator) JoinRoom(playerName, passcode string) (*JoinRoomResult, error) {
	room, err := o.store.FindRoomByPasscodeHash(HashPasscode(passcode))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: no room for that passcode", ErrNotFound)
		}
		return nil, err
	}

	player := &models.Player{
		PlayerName:  playerName,
		Role:        models.RoleThief,
		RoomID:      room.ID,
		IsConnected: true,
	}
	err = o.withSession(room.ID, func(sess *roomSession) error {
		current, err := o.findRoom(room.ID)
		if err != nil {
			return err
		}
		if current.Status != models.RoomStatusWaiting {
			return fmt.Errorf("%w: room is not accepting players", ErrInvalidState)
		}
		count, err := o.store.CountPlayersInRoom(room.ID)
		if err != nil {
			return err
		}
		if count >= int64(current.MaxPlayers) {
			return ErrRoomFull
		}
		return o.store.CreatePlayer(player)
	})
	if err != nil {
		return nil, err
	}

	token, err := o.issuer.Issue(player.ID, room.ID, false)
	if err != nil {
		o.rollbackPlayer(player.ID)
		return nil, err
	}

	log.Printf("[ROOM-JOIN] Player %s (%s) joined room %s", player.ID, playerName, room.ID)
	o.PushStatus(room.ID)
	return &JoinRoomResult{PlayerToken: token, PlayerID: player.ID, RoomID: room.ID}, nil
}

type StatusResult struct {
	StatusSnapshot
	CurrentPlayer Actor `json:"currentPlayer"`
}

func (o *Orchestrator) GetStatus(actor Actor) (*StatusResult, error) {
	snapshot, err := o.buildSnapshot(actor.RoomID)
	if err != nil {
		return nil, err
	}
	return &StatusResult{StatusSnapshot: *snapshot, CurrentPlayer: actor}, nil
}

// GetResult returns the stored record of the most recent finished
// game. It survives a reset back to the lobby and is replaced when the
// next game starts. Before any game has finished it falls back to the
// live roster with no termination reason.
func (o *Orchestrator) GetResult(actor Actor) (*GameResult, error) {
	room, err := o.findRoom(actor.RoomID)
	if err != nil {
		return nil, err
	}
	if len(room.LastResult) > 0 {
		var result GameResult
		if err := json.Unmarshal(room.LastResult, &result); err == nil {
			return &result, nil
		}
		log.Printf("[RESULT] Corrupt stored result for room %s, serving live roster", room.ID)
	}
	players, err := o.store.FindPlayersByRoom(room.ID)
	if err != nil {
		return nil, err
	}
	return &GameResult{Players: toPlayerStates(players)}, nil
}

// UpdateSettings applies the host's partial settings change and
// broadcasts the new state.
type SettingsUpdate struct {
	DurationSeconds    *int `json:"durationSeconds"`
	GracePeriodSeconds *int `json:"gracePeriodSeconds"`
	MaxPlayers         *int `json:"maxPlayers"`
}

func (o *Orchestrator) UpdateSettings(actor Actor, update SettingsUpdate) error {
	if !actor.IsHost {
		return fmt.Errorf("%w: only the host can change settings", ErrForbidden)
	}
	fields := map[string]interface{}{}
	if update.DurationSeconds != nil {
		fields["duration_seconds"] = *update.DurationSeconds
	}
	if update.GracePeriodSeconds != nil {
		fields["grace_period_seconds"] = *update.GracePeriodSeconds
	}
	if update.MaxPlayers != nil {
		fields["max_players"] = *update.MaxPlayers
	}
	if len(fields) == 0 {
		return nil
	}
	err := o.withSession(actor.RoomID, func(sess *roomSession) error {
		if _, err := o.findRoom(actor.RoomID); err != nil {
			return err
		}
		return o.store.UpdateRoom(actor.RoomID, fields)
	})
	if err != nil {
		return err
	}
	log.Printf("[SETTINGS] Room %s settings updated by host %s", actor.RoomID, actor.PlayerID)
	o.PushStatus(actor.RoomID)
	return nil
}

// StartGame moves the room into IN_GAME, stamps startedAt and starts
// the countdown. Valid from WAITING or CLOSED.
func (o *Orchestrator) StartGame(actor Actor) error {
	if !actor.IsHost {
		return fmt.Errorf("%w: only the host can start the game", ErrForbidden)
	}
	err := o.withSession(actor.RoomID, func(sess *roomSession) error {
		room, err := o.findRoom(actor.RoomID)
		if err != nil {
			return err
		}
		if room.Status != models.RoomStatusWaiting && room.Status != models.RoomStatusClosed {
			return fmt.Errorf("%w: game cannot start from %s", ErrInvalidState, room.Status)
		}
		startedAt := o.now()
		if err := o.store.UpdateRoom(room.ID, map[string]interface{}{
			"status":      models.RoomStatusInGame,
			"started_at":  startedAt,
			"last_result": nil,
		}); err != nil {
			return err
		}
		// Each callback carries its own timer so a late event from a
		// replaced timer can be told apart from the current one.
		var timer *GameTimer
		timer = newGameTimer(room.ID, startedAt,
			room.GracePeriodSeconds, room.DurationSeconds,
			o.tickInterval, o.now,
			func(id string, tick TickPayload) { o.handleTick(id, timer, tick) },
			func(id string) { o.handleTimeUp(id, timer) })
		sess.startTimer(timer)
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("[GAME-START] Room %s started by host %s", actor.RoomID, actor.PlayerID)
	o.PushStatus(actor.RoomID)
	return nil
}

// TerminateGame is the host's forced termination.
func (o *Orchestrator) TerminateGame(actor Actor) error {
	if !actor.IsHost {
		return fmt.Errorf("%w: only the host can terminate the game", ErrForbidden)
	}
	err := o.withSession(actor.RoomID, func(sess *roomSession) error {
		room, err := o.findRoom(actor.RoomID)
		if err != nil {
			return err
		}
		if room.Status == models.RoomStatusFinished {
			return fmt.Errorf("%w: game is already finished", ErrInvalidState)
		}
		fields, err := o.finishFields(room.ID, ReasonTerminatedByHost)
		if err != nil {
			return err
		}
		if err := o.store.UpdateRoom(room.ID, fields); err != nil {
			return err
		}
		sess.stopTimer()
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("[GAME-TERMINATE] Room %s terminated by host %s", actor.RoomID, actor.PlayerID)
	o.bc.GameTerminated(actor.RoomID, ReasonTerminatedByHost)
	o.PushStatus(actor.RoomID)
	return nil
}

// CloseEntry stops accepting new joins: WAITING -> CLOSED.
func (o *Orchestrator) CloseEntry(actor Actor) error {
	if !actor.IsHost {
		return fmt.Errorf("%w: only the host can close entry", ErrForbidden)
	}
	err := o.withSession(actor.RoomID, func(sess *roomSession) error {
		room, err := o.findRoom(actor.RoomID)
		if err != nil {
			return err
		}
		if room.Status != models.RoomStatusWaiting {
			return fmt.Errorf("%w: entry can only be closed while waiting", ErrInvalidState)
		}
		return o.store.UpdateRoom(room.ID, map[string]interface{}{
			"status": models.RoomStatusClosed,
		})
	})
	if err != nil {
		return err
	}
	log.Printf("[ROOM-CLOSE] Entry closed for room %s", actor.RoomID)
	o.PushStatus(actor.RoomID)
	return nil
}

// ResetToLobby returns a FINISHED room to WAITING: clears startedAt
// and every thief's captured flag.
func (o *Orchestrator) ResetToLobby(actor Actor) error {
	if !actor.IsHost {
		return fmt.Errorf("%w: only the host can reset the room", ErrForbidden)
	}
	err := o.withSession(actor.RoomID, func(sess *roomSession) error {
		room, err := o.findRoom(actor.RoomID)
		if err != nil {
			return err
		}
		if room.Status != models.RoomStatusFinished {
			return fmt.Errorf("%w: reset is only allowed after the game finished", ErrInvalidState)
		}
		sess.stopTimer()
		if err := o.store.ResetCaptures(room.ID); err != nil {
			return err
		}
		return o.store.UpdateRoom(room.ID, map[string]interface{}{
			"status":     models.RoomStatusWaiting,
			"started_at": nil,
		})
	})
	if err != nil {
		return err
	}
	log.Printf("[ROOM-RESET] Room %s reset to lobby", actor.RoomID)
	o.PushStatus(actor.RoomID)
	return nil
}

// DisbandRoom deletes the room and, via cascade, every player record.
func (o *Orchestrator) DisbandRoom(actor Actor) error {
	if !actor.IsHost {
		return fmt.Errorf("%w: only the host can disband the room", ErrForbidden)
	}
	return o.disband(actor.RoomID)
}

func (o *Orchestrator) disband(roomID string) error {
	err := o.withSession(roomID, func(sess *roomSession) error {
		sess.stopTimer()
		if err := o.store.DeleteRoom(roomID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return roomGoneError{roomID}
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	o.sessions.drop(roomID)
	if o.cache != nil {
		if err := o.cache.DeleteRoomSnapshot(roomID); err != nil {
			log.Printf("[CACHE-ERROR] Failed to drop snapshot for room %s: %v", roomID, err)
		}
	}
	log.Printf("[ROOM-DISBAND] Room %s disbanded", roomID)
	o.bc.RoomDisbanded(roomID)
	return nil
}

type LeaveResult struct {
	RoomDisbanded bool `json:"isRoomDisbanded"`
}

// LeaveRoom removes the actor from the roster. A leaving host disbands
// the whole room.
func (o *Orchestrator) LeaveRoom(actor Actor) (*LeaveResult, error) {
	if actor.IsHost {
		if err := o.disband(actor.RoomID); err != nil {
			return nil, err
		}
		return &LeaveResult{RoomDisbanded: true}, nil
	}

	var playerName string
	err := o.withSession(actor.RoomID, func(sess *roomSession) error {
		player, err := o.findPlayerInRoom(actor.PlayerID, actor.RoomID)
		if err != nil {
			return err
		}
		playerName = player.PlayerName
		return o.translateRoomErr(o.store.DeletePlayer(player.ID))
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[ROOM-LEAVE] Player %s left room %s", actor.PlayerID, actor.RoomID)
	o.bc.PlayerLeft(actor.RoomID, actor.PlayerID, playerName)
	o.PushStatus(actor.RoomID)
	return &LeaveResult{RoomDisbanded: false}, nil
}

// CapturePlayer marks a thief as captured. Only police capture; a
// capture of an already-captured thief is a conflict, never a double
// apply. When the last free thief is captured the game terminates with
// ALL_CAPTURED.
func (o *Orchestrator) CapturePlayer(actor Actor, targetID string) error {
	var targetName string
	allCaptured := false
	err := o.withSession(actor.RoomID, func(sess *roomSession) error {
		executor, err := o.findPlayerInRoom(actor.PlayerID, actor.RoomID)
		if err != nil {
			return err
		}
		if executor.Role != models.RolePolice {
			return fmt.Errorf("%w: only police can capture", ErrForbidden)
		}
		target, err := o.findPlayerInRoom(targetID, actor.RoomID)
		if err != nil {
			return err
		}
		if target.Role != models.RoleThief {
			return fmt.Errorf("%w: only thieves can be captured", ErrForbidden)
		}
		if target.IsCaptured {
			return fmt.Errorf("%w: player is already captured", ErrConflict)
		}
		if err := o.store.UpdatePlayer(target.ID, map[string]interface{}{"is_captured": true}); err != nil {
			return err
		}
		targetName = target.PlayerName

		room, err := o.findRoom(actor.RoomID)
		if err != nil {
			return err
		}
		if room.Status != models.RoomStatusInGame {
			return nil
		}
		done, err := o.allThievesCaptured(room.ID)
		if err != nil || !done {
			return err
		}
		fields, err := o.finishFields(room.ID, ReasonAllCaptured)
		if err != nil {
			return err
		}
		if err := o.store.UpdateRoom(room.ID, fields); err != nil {
			return err
		}
		sess.stopTimer()
		allCaptured = true
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("[CAPTURE] Player %s captured in room %s by %s", targetID, actor.RoomID, actor.PlayerID)
	o.bc.PlayerCaptured(actor.RoomID, targetID, targetName)
	if allCaptured {
		log.Printf("[GAME-TERMINATE] Room %s finished, every thief captured", actor.RoomID)
		o.bc.GameTerminated(actor.RoomID, ReasonAllCaptured)
	}
	o.PushStatus(actor.RoomID)
	return nil
}

// ReleasePlayer clears a captured thief's flag. Only thieves release.
func (o *Orchestrator) ReleasePlayer(actor Actor, targetID string) error {
	var targetName string
	err := o.withSession(actor.RoomID, func(sess *roomSession) error {
		executor, err := o.findPlayerInRoom(actor.PlayerID, actor.RoomID)
		if err != nil {
			return err
		}
		if executor.Role != models.RoleThief {
			return fmt.Errorf("%w: only thieves can release", ErrForbidden)
		}
		target, err := o.findPlayerInRoom(targetID, actor.RoomID)
		if err != nil {
			return err
		}
		if target.Role != models.RoleThief {
			return fmt.Errorf("%w: only thieves can be released", ErrForbidden)
		}
		if !target.IsCaptured {
			return fmt.Errorf("%w: player is not captured", ErrInvalidState)
		}
		targetName = target.PlayerName
		return o.store.UpdatePlayer(target.ID, map[string]interface{}{"is_captured": false})
	})
	if err != nil {
		return err
	}
	log.Printf("[RELEASE] Player %s released in room %s by %s", targetID, actor.RoomID, actor.PlayerID)
	o.bc.PlayerReleased(actor.RoomID, targetID, targetName)
	o.PushStatus(actor.RoomID)
	return nil
}

// Reconnect re-marks the player as connected and returns the snapshot
// the transport should push to the reconnecting client before the
// general room broadcast (triggered by the caller via PushStatus).
// The snapshot is rebuilt from the store so it reflects the connected
// flag just written; the cache is refreshed along the way.
func (o *Orchestrator) Reconnect(actor Actor) (*StatusSnapshot, error) {
	err := o.withSession(actor.RoomID, func(sess *roomSession) error {
		if _, err := o.findRoom(actor.RoomID); err != nil {
			return err
		}
		if _, err := o.findPlayerInRoom(actor.PlayerID, actor.RoomID); err != nil {
			return err
		}
		return o.store.UpdatePlayer(actor.PlayerID, map[string]interface{}{"is_connected": true})
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[RECONNECT] Player %s reconnected to room %s", actor.PlayerID, actor.RoomID)
	snapshot, err := o.buildSnapshot(actor.RoomID)
	if err != nil {
		return nil, err
	}
	if o.cache != nil {
		if err := o.cache.SaveRoomSnapshot(actor.RoomID, *snapshot); err != nil {
			log.Printf("[CACHE-ERROR] Failed to cache snapshot for room %s: %v", actor.RoomID, err)
		}
	}
	return snapshot, nil
}

// HandleDisconnect records a transport-level disconnect. The player
// row survives; only the connected flag flips, and the room is told
// the player dropped.
func (o *Orchestrator) HandleDisconnect(playerID, roomID string) {
	var playerName string
	err := o.withSession(roomID, func(sess *roomSession) error {
		if _, err := o.findRoom(roomID); err != nil {
			return err
		}
		player, err := o.findPlayerInRoom(playerID, roomID)
		if err != nil {
			return err
		}
		playerName = player.PlayerName
		return o.store.UpdatePlayer(playerID, map[string]interface{}{"is_connected": false})
	})
	if err != nil {
		// Room may already be disbanded; nothing to notify.
		log.Printf("[DISCONNECT] Player %s in room %s: %v", playerID, roomID, err)
		return
	}
	log.Printf("[DISCONNECT] Player %s disconnected from room %s", playerID, roomID)
	o.bc.PlayerLeft(roomID, playerID, playerName)
}

type RoomSummary struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	PlayerCount int       `json:"playerCount"`
	MaxPlayers  int       `json:"maxPlayers"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ListRooms returns a summary of every room. Player counts come from
// the snapshot cache when present, the store otherwise.
func (o *Orchestrator) ListRooms() ([]RoomSummary, error) {
	rooms, err := o.store.ListRooms()
	if err != nil {
		return nil, err
	}
	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summary := RoomSummary{
			ID:         room.ID,
			Status:     string(room.Status),
			MaxPlayers: room.MaxPlayers,
			CreatedAt:  room.CreatedAt,
		}
		if cached := o.cachedSnapshot(room.ID); cached != nil {
			summary.PlayerCount = len(cached.Players)
		} else {
			count, err := o.store.CountPlayersInRoom(room.ID)
			if err != nil {
				return nil, err
			}
			summary.PlayerCount = int(count)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// PushStatus broadcasts the freshly committed snapshot to the room and
// refreshes the cache. Failures are logged, never propagated: the
// triggering command already succeeded.
func (o *Orchestrator) PushStatus(roomID string) {
	snapshot, err := o.buildSnapshot(roomID)
	if err != nil {
		log.Printf("[BROADCAST-ERROR] Failed to build snapshot for room %s: %v", roomID, err)
		return
	}
	if o.cache != nil {
		if err := o.cache.SaveRoomSnapshot(roomID, *snapshot); err != nil {
			log.Printf("[CACHE-ERROR] Failed to cache snapshot for room %s: %v", roomID, err)
		}
	}
	o.bc.StatusUpdated(roomID, *snapshot)
}

// handleTick relays timer ticks. A tick from a timer that is no longer
// the room's current one (stopped, replaced by a restart, or the room
// disbanded) is dropped.
func (o *Orchestrator) handleTick(roomID string, timer *GameTimer, tick TickPayload) {
	sess, ok := o.sessions.peek(roomID)
	if !ok {
		return
	}
	sess.mu.Lock()
	current := sess.timer == timer
	sess.mu.Unlock()
	if !current {
		return
	}
	o.bc.TimerTick(roomID, tick)
}

// handleTimeUp finishes the game when the total window elapses. The
// timeout only applies if its timer is still the room's current one:
// a timeout that raced a terminate/reset/restart sequence would
// otherwise observe the new game's IN_GAME status and kill it.
func (o *Orchestrator) handleTimeUp(roomID string, timer *GameTimer) {
	err := o.withSession(roomID, func(sess *roomSession) error {
		room, err := o.findRoom(roomID)
		if err != nil {
			return err
		}
		if sess.timer != timer {
			return fmt.Errorf("%w: timer superseded", ErrInvalidState)
		}
		if room.Status != models.RoomStatusInGame {
			return fmt.Errorf("%w: room is %s", ErrInvalidState, room.Status)
		}
		fields, err := o.finishFields(roomID, ReasonTimeUp)
		if err != nil {
			return err
		}
		if err := o.store.UpdateRoom(roomID, fields); err != nil {
			return err
		}
		sess.stopTimer()
		return nil
	})
	if err != nil {
		log.Printf("[TIMER] Stale or failed timeout for room %s: %v", roomID, err)
		return
	}
	log.Printf("[TIMER] Time up for room %s", roomID)
	o.bc.GameTerminated(roomID, ReasonTimeUp)
	o.PushStatus(roomID)
}

// finishFields builds the column set that moves a room to FINISHED,
// including the frozen result record served by GetResult afterwards.
func (o *Orchestrator) finishFields(roomID string, reason TerminationReason) (map[string]interface{}, error) {
	players, err := o.store.FindPlayersByRoom(roomID)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(GameResult{
		Reason:     reason,
		FinishedAt: o.now(),
		Players:    toPlayerStates(players),
	})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"status":      models.RoomStatusFinished,
		"last_result": datatypes.JSON(raw),
	}, nil
}

func (o *Orchestrator) buildSnapshot(roomID string) (*StatusSnapshot, error) {
	room, err := o.findRoom(roomID)
	if err != nil {
		return nil, err
	}
	players, err := o.store.FindPlayersByRoom(roomID)
	if err != nil {
		return nil, err
	}
	snapshot := newStatusSnapshot(room, players)
	return &snapshot, nil
}

func (o *Orchestrator) cachedSnapshot(roomID string) *StatusSnapshot {
	if o.cache == nil {
		return nil
	}
	snapshot, err := o.cache.GetRoomSnapshot(roomID)
	if err != nil || snapshot == nil {
		return nil
	}
	return snapshot
}

// roomGoneError marks a NotFound whose room row itself is missing, so
// withSession can retire the room's arena entry.
type roomGoneError struct{ roomID string }

func (e roomGoneError) Error() string { return fmt.Sprintf("%v: room %s", ErrNotFound, e.roomID) }

func (roomGoneError) Unwrap() error { return ErrNotFound }

func (o *Orchestrator) findRoom(roomID string) (*models.Room, error) {
	room, err := o.store.FindRoomByID(roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, roomGoneError{roomID}
		}
		return nil, err
	}
	return room, nil
}

func (o *Orchestrator) findPlayerInRoom(playerID, roomID string) (*models.Player, error) {
	player, err := o.store.FindPlayerByID(playerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: player %s", ErrNotFound, playerID)
		}
		return nil, err
	}
	if player.RoomID != roomID {
		return nil, fmt.Errorf("%w: player %s is not in room %s", ErrNotFound, playerID, roomID)
	}
	return player, nil
}

func (o *Orchestrator) allThievesCaptured(roomID string) (bool, error) {
	players, err := o.store.FindPlayersByRoom(roomID)
	if err != nil {
		return false, err
	}
	thieves := 0
	for _, p := range players {
		if p.Role != models.RoleThief {
			continue
		}
		thieves++
		if !p.IsCaptured {
			return false, nil
		}
	}
	return thieves > 0, nil
}

func (o *Orchestrator) translateRoomErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: room or player missing", ErrNotFound)
	}
	return err
}
