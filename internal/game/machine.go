package game

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"quizlive-client/internal/domain"
)

// Phase is the machine's position in the session lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseJoining
	PhaseLobby
	PhaseQuestion
	PhaseReveal
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseJoining:
		return "joining"
	case PhaseLobby:
		return "lobby"
	case PhaseQuestion:
		return "question"
	case PhaseReveal:
		return "reveal"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// EventChannel is the slice of the session channel the machine needs:
// outbound emits plus ordered, detachable subscriptions.
type EventChannel interface {
	Emit(event string, payload any) error
	On(event string, fn func(payload json.RawMessage)) (off func())
}

// Socket event names, client perspective.
const (
	evCreateGame      = "createGame"
	evGameCreated     = "gameCreated"
	evJoinGame        = "joinGame"
	evPlayerJoined    = "playerJoined"
	evStartGame       = "startGame"
	evGameStarted     = "gameStarted"
	evRequestQuestion = "requestQuestion"
	evNewQuestion     = "newQuestion"
	evSubmitAnswer    = "submitAnswer"
	evAnswerResult    = "answerResult"
	evGameFinished    = "gameFinished"
	evError           = "error"
)

type joinGamePayload struct {
	GameID      string `json:"gameId"`
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
}

type playerJoinedPayload struct {
	Players []domain.Player `json:"players"`
}

type gameStartedPayload struct {
	QuestionsCount int `json:"questionsCount"`
}

type gameRefPayload struct {
	GameID string `json:"gameId"`
}

type newQuestionPayload struct {
	Question domain.Question `json:"question"`
	Index    int             `json:"index"`
}

type submitAnswerPayload struct {
	GameID      string  `json:"gameId"`
	UID         string  `json:"uid"`
	AnswerIndex *int    `json:"answerIndex"`
	AnswerValue *string `json:"answerValue"`
}

type answerResultPayload struct {
	CorrectAnswerIndex int             `json:"correctAnswerIndex"`
	Explanation        string          `json:"explanation"`
	Players            []domain.Player `json:"players"`
}

type gameFinishedPayload struct {
	Players []domain.Player `json:"players"`
}

type errorPayload struct {
	Error string `json:"error"`
}

// CreateGameParams starts a new session with a pre-supplied question set.
type CreateGameParams struct {
	HostID      string                    `json:"hostId"`
	DisplayName string                    `json:"displayName"`
	IsPublic    bool                      `json:"isPublic"`
	Token       string                    `json:"token"`
	Topic       string                    `json:"topic"`
	Questions   []domain.AuthoredQuestion `json:"questions"`
	Count       int                       `json:"count"`
}

type gameCreatedPayload struct {
	GameID    string                    `json:"gameId"`
	Questions []domain.AuthoredQuestion `json:"questions"`
}

// Snapshot is an immutable view of the machine for the presentation
// layer. CorrectIndex and Explanation are meaningful only while Reveal
// is true.
type Snapshot struct {
	Phase          Phase
	GameID         string
	UID            string
	HostID         string
	Players        []domain.Player
	TotalQuestions int
	QuestionIndex  int
	Question       *domain.Question
	SelectedIndex  *int
	Reveal         bool
	CorrectIndex   int
	Explanation    string
	SecondsLeft    int
	NoContent      bool
	LastError      string
}

// IsHost reports whether the local player is the session host. Host
// identity is implicit: the server sends no host flag, so by convention
// the first roster entry is the host. Keep every host check behind this
// accessor so the policy can change in one place if the server ever
// grows an explicit field.
func (s Snapshot) IsHost() bool {
	return s.HostID != "" && s.HostID == s.UID
}

// Config tunes a Machine. Zero values fall back to the game's defaults.
type Config struct {
	// QuestionSeconds is the per-question countdown duration.
	QuestionSeconds int
	// QuestionWait bounds how long RequestQuestion waits for a
	// newQuestion before flipping into the no-content state.
	QuestionWait time.Duration
	// Clock drives the countdown and the no-content wait.
	Clock clockwork.Clock
}

const (
	defaultQuestionSeconds = 10
	defaultQuestionWait    = 5 * time.Second
)

// Machine drives one quiz session from the client side: it is the only
// component that talks to the session channel and the countdown, and it
// exposes state to everything else via Snapshot and Updates.
type Machine struct {
	ch        EventChannel
	clock     clockwork.Clock
	countdown *Countdown

	questionSeconds int
	questionWait    time.Duration

	mu             sync.Mutex
	phase          Phase
	gameID         string
	uid            string
	displayName    string
	roster         []domain.Player
	totalQuestions int
	questionIndex  int
	question       *domain.Question
	selected       *int
	answered       bool
	revealed       bool
	correctIndex   int
	explanation    string
	secondsLeft    int
	noContent      bool
	lastErr        string

	// round increments on every newQuestion so countdown callbacks and
	// no-content waits from a previous round are recognizably stale.
	round uint64

	offs       []func()
	createOffs []func()

	updates chan Snapshot
}

func NewMachine(ch EventChannel, cfg Config) *Machine {
	if cfg.QuestionSeconds <= 0 {
		cfg.QuestionSeconds = defaultQuestionSeconds
	}
	if cfg.QuestionWait <= 0 {
		cfg.QuestionWait = defaultQuestionWait
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Machine{
		ch:              ch,
		clock:           cfg.Clock,
		countdown:       NewCountdown(cfg.Clock),
		questionSeconds: cfg.QuestionSeconds,
		questionWait:    cfg.QuestionWait,
		phase:           PhaseIdle,
		updates:         make(chan Snapshot, 8),
	}
}

// Updates delivers a snapshot after every state change. Slow consumers
// lose intermediate snapshots, never the latest one.
func (m *Machine) Updates() <-chan Snapshot {
	return m.updates
}

// Snapshot returns the current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// CreateGame asks the server for a new session built from the given
// question set. The resulting game id arrives via gameCreated and shows
// up in snapshots; the caller then joins it like any other player.
func (m *Machine) CreateGame(params CreateGameParams) error {
	m.mu.Lock()
	if len(m.createOffs) == 0 {
		m.createOffs = append(m.createOffs,
			m.ch.On(evGameCreated, m.onGameCreated),
			m.ch.On(evError, m.onError),
		)
	}
	m.mu.Unlock()

	log.Info().Str("topic", params.Topic).Int("count", params.Count).Msg("creating game")
	return m.ch.Emit(evCreateGame, params)
}

// Join enters a session by code. The machine moves to Joining until the
// server confirms with a playerJoined roster; an error event while
// Joining fails the attempt and returns the machine to Idle.
func (m *Machine) Join(gameID, uid, displayName string) error {
	m.mu.Lock()
	m.detachLocked()
	m.gameID = gameID
	m.uid = uid
	m.displayName = displayName
	m.phase = PhaseJoining
	m.lastErr = ""
	m.offs = append(m.offs,
		m.ch.On(evPlayerJoined, m.onPlayerJoined),
		m.ch.On(evGameStarted, m.onGameStarted),
		m.ch.On(evNewQuestion, m.onNewQuestion),
		m.ch.On(evAnswerResult, m.onAnswerResult),
		m.ch.On(evGameFinished, m.onGameFinished),
		m.ch.On(evError, m.onError),
	)
	m.notifyLocked()
	m.mu.Unlock()

	log.Info().Str("game_id", gameID).Str("uid", uid).Msg("joining game")
	return m.ch.Emit(evJoinGame, joinGamePayload{GameID: gameID, UID: uid, DisplayName: displayName})
}

// StartGame emits the host's start request. Non-hosts get ErrNotHost
// and nothing is sent.
func (m *Machine) StartGame() error {
	m.mu.Lock()
	host := m.hostIDLocked() != "" && m.hostIDLocked() == m.uid
	gameID := m.gameID
	m.mu.Unlock()

	if !host {
		return domain.ErrNotHost
	}
	log.Info().Str("game_id", gameID).Msg("starting game")
	return m.ch.Emit(evStartGame, gameRefPayload{GameID: gameID})
}

// RequestQuestion asks the server to (re)send the current question,
// e.g. right after entering the game screen or after a reconnect. If no
// newQuestion arrives within the configured wait, the machine flips
// into a distinct no-content state; that usually means the generated
// questions' topic does not match the requested one, so it is surfaced
// as an observable state rather than an error.
func (m *Machine) RequestQuestion() error {
	m.mu.Lock()
	gameID := m.gameID
	round := m.round
	m.mu.Unlock()

	m.clock.AfterFunc(m.questionWait, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.round != round || m.question != nil || m.phase == PhaseFinished {
			return
		}
		m.noContent = true
		m.notifyLocked()
	})

	return m.ch.Emit(evRequestQuestion, gameRefPayload{GameID: gameID})
}

// SubmitAnswer records the local selection and emits it. Only the first
// call per question round sends anything: repeats (double clicks, races
// with the countdown) are silent no-ops, not errors.
func (m *Machine) SubmitAnswer(index int) error {
	m.mu.Lock()
	if m.phase != PhaseQuestion || m.answered || m.revealed {
		m.mu.Unlock()
		return nil
	}
	if m.question == nil || index < 0 || index >= len(m.question.Options) {
		m.mu.Unlock()
		return domain.ErrInvalidIndex
	}
	idx := index
	value := m.question.Options[index]
	qIndex := m.questionIndex
	m.selected = &idx
	m.answered = true
	payload := submitAnswerPayload{
		GameID:      m.gameID,
		UID:         m.uid,
		AnswerIndex: &idx,
		AnswerValue: &value,
	}
	m.notifyLocked()
	m.mu.Unlock()

	log.Debug().Int("answer_index", index).Int("question_index", qIndex).Msg("submitting answer")
	return m.ch.Emit(evSubmitAnswer, payload)
}

// Leave tears the machine down: the countdown is cancelled and every
// handler this machine registered is detached, so no stale callback can
// touch a session that is gone. The channel connection itself is left
// alone; it belongs to whoever opened it and may have other consumers.
func (m *Machine) Leave() {
	m.countdown.Stop()
	m.mu.Lock()
	m.detachLocked()
	m.round++
	m.phase = PhaseIdle
	m.question = nil
	m.mu.Unlock()
	log.Info().Msg("left session")
}

// hostIDLocked is the one place the "first roster entry is the host"
// convention lives. The server sends no explicit host flag; revalidate
// on every roster snapshot and swap the policy here if that changes.
func (m *Machine) hostIDLocked() string {
	if len(m.roster) == 0 {
		return ""
	}
	return m.roster[0].UID
}

func (m *Machine) detachLocked() {
	for _, off := range m.offs {
		off()
	}
	m.offs = nil
	for _, off := range m.createOffs {
		off()
	}
	m.createOffs = nil
}

func (m *Machine) onGameCreated(payload json.RawMessage) {
	var p gameCreatedPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		log.Warn().Err(err).Msg("bad gameCreated payload")
		return
	}
	m.mu.Lock()
	m.gameID = p.GameID
	m.notifyLocked()
	m.mu.Unlock()
	log.Info().Str("game_id", p.GameID).Int("questions", len(p.Questions)).Msg("game created")
}

func (m *Machine) onPlayerJoined(payload json.RawMessage) {
	var p playerJoinedPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		log.Warn().Err(err).Msg("bad playerJoined payload")
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Full roster snapshot, not a delta.
	m.roster = p.Players
	if m.phase == PhaseJoining {
		m.phase = PhaseLobby
	}
	m.notifyLocked()
}

func (m *Machine) onGameStarted(payload json.RawMessage) {
	var p gameStartedPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		log.Warn().Err(err).Msg("bad gameStarted payload")
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalQuestions = p.QuestionsCount
	m.notifyLocked()
}

func (m *Machine) onNewQuestion(payload json.RawMessage) {
	var p newQuestionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		log.Warn().Err(err).Msg("bad newQuestion payload")
		return
	}

	m.mu.Lock()
	m.round++
	round := m.round
	// Store the question verbatim. The authoritative correct index in
	// the upcoming answerResult refers to this exact option order, so
	// no reshuffling or mutation happens here, ever.
	q := p.Question
	q.Options = append([]string(nil), p.Question.Options...)
	m.question = &q
	m.questionIndex = p.Index
	m.selected = nil
	m.answered = false
	m.revealed = false
	m.noContent = false
	m.secondsLeft = m.questionSeconds
	m.phase = PhaseQuestion
	m.notifyLocked()
	m.mu.Unlock()

	// Outside the state lock: Start cancels the prior run, which may be
	// mid-callback and waiting for that same lock.
	if _, err := m.countdown.Start(m.questionSeconds,
		func(remaining int) { m.onCountdownTick(round, remaining) },
		func() { m.onCountdownEnd(round) },
	); err != nil {
		log.Error().Err(err).Msg("countdown start failed")
	}
}

func (m *Machine) onCountdownTick(round uint64, remaining int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.round != round || m.revealed || m.phase != PhaseQuestion {
		return
	}
	m.secondsLeft = remaining
	m.notifyLocked()
}

// onCountdownEnd implements timeout-as-abstention: if the countdown
// expires with nothing selected, exactly one null submission goes out.
// A reveal that already arrived wins; the server's view is
// authoritative over any local timer state.
func (m *Machine) onCountdownEnd(round uint64) {
	m.mu.Lock()
	if m.round != round || m.phase != PhaseQuestion || m.revealed || m.answered {
		m.mu.Unlock()
		return
	}
	m.answered = true
	qIndex := m.questionIndex
	payload := submitAnswerPayload{GameID: m.gameID, UID: m.uid}
	m.notifyLocked()
	m.mu.Unlock()

	log.Debug().Int("question_index", qIndex).Msg("countdown expired, submitting abstention")
	if err := m.ch.Emit(evSubmitAnswer, payload); err != nil {
		log.Warn().Err(err).Msg("abstention submit failed")
	}
}

func (m *Machine) onAnswerResult(payload json.RawMessage) {
	var p answerResultPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		log.Warn().Err(err).Msg("bad answerResult payload")
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseQuestion && m.phase != PhaseReveal {
		return
	}
	m.revealed = true
	m.correctIndex = p.CorrectAnswerIndex
	m.explanation = p.Explanation
	// Authoritative scores replace the roster wholesale.
	m.roster = p.Players
	m.phase = PhaseReveal
	m.notifyLocked()
	// The countdown may keep running in the background; the revealed
	// flag makes its remaining ticks and expiry no-ops.
}

func (m *Machine) onGameFinished(payload json.RawMessage) {
	var p gameFinishedPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		log.Warn().Err(err).Msg("bad gameFinished payload")
		return
	}
	m.mu.Lock()
	m.roster = p.Players
	m.phase = PhaseFinished
	m.round++
	m.notifyLocked()
	m.mu.Unlock()

	m.countdown.Stop()
	log.Info().Int("players", len(p.Players)).Msg("game finished")
}

func (m *Machine) onError(payload json.RawMessage) {
	var p errorPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		log.Warn().Err(err).Msg("bad error payload")
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = p.Error
	// Only a failed join forces a transition; everywhere else the
	// message is surfaced without disturbing the session.
	if m.phase == PhaseJoining {
		m.phase = PhaseIdle
	}
	m.notifyLocked()
	log.Warn().Str("error", p.Error).Str("phase", m.phase.String()).Msg("server error event")
}

func (m *Machine) snapshotLocked() Snapshot {
	snap := Snapshot{
		Phase:          m.phase,
		GameID:         m.gameID,
		UID:            m.uid,
		HostID:         m.hostIDLocked(),
		Players:        append([]domain.Player(nil), m.roster...),
		TotalQuestions: m.totalQuestions,
		QuestionIndex:  m.questionIndex,
		Reveal:         m.revealed,
		CorrectIndex:   m.correctIndex,
		Explanation:    m.explanation,
		SecondsLeft:    m.secondsLeft,
		NoContent:      m.noContent,
		LastError:      m.lastErr,
	}
	if m.question != nil {
		q := *m.question
		q.Options = append([]string(nil), m.question.Options...)
		snap.Question = &q
	}
	if m.selected != nil {
		idx := *m.selected
		snap.SelectedIndex = &idx
	}
	return snap
}

// notifyLocked pushes the latest snapshot, dropping a stale buffered
// one if the consumer is behind.
func (m *Machine) notifyLocked() {
	snap := m.snapshotLocked()
	select {
	case m.updates <- snap:
	default:
		select {
		case <-m.updates:
		default:
		}
		select {
		case m.updates <- snap:
		default:
		}
	}
}
