// Package conversation routes user events through the bot's dialogue flows.
//
// The Dispatcher is a pure state machine over session.Session: it receives one
// event plus the user's current session and returns the replies to send and the
// session to store. Routing is an ordered list of rules; the first rule whose
// predicate matches handles the event.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sismos-scu/sismobot/internal/config"
	"github.com/sismos-scu/sismobot/internal/database"
	"github.com/sismos-scu/sismobot/internal/session"
)

// ErrUnroutable marks an event no rule could act on. It is logged, and the
// user gets the main menu.
var ErrUnroutable = errors.New("event cannot be routed")

// Rule names, in evaluation order.
const (
	RuleEscape      = "escape"
	RuleFlowEntry   = "flow-entry"
	RuleTips        = "tips"
	RuleFlowInput   = "flow-input"
	RuleStrayInFlow = "stray-in-flow"
	RuleIdleMedia   = "idle-media"
	RuleIdleText    = "idle-text"
	RuleFallback    = "fallback"
)

// Result is the outcome of one event. Session is idle when no flow is in progress.
type Result struct {
	Rule    string
	Replies []Reply
	Session session.Session
}

// turn is the resolved input of a rule.
type turn struct {
	userID  int64
	event   Event
	session session.Session
	flow    *Flow // nil when idle
	step    int
}

func (t *turn) currentStep() Step { return t.flow.Steps[t.step] }

type rule struct {
	name    string
	matches func(t *turn) bool
	apply   func(ctx context.Context, t *turn) Result
}

// Dispatcher is safe for concurrent use; it keeps no per-user state.
type Dispatcher struct {
	flows     map[FlowID]*Flow
	byTrigger map[string]*Flow
	rules     []rule
	gen       Generator
	store     Persistence
	msgs      config.MessagesConfig
	log       *slog.Logger
}

// NewDispatcher wires the three flows to their collaborators.
func NewDispatcher(gen Generator, store Persistence, msgs config.MessagesConfig, logger *slog.Logger) (*Dispatcher, error) {
	if gen == nil || store == nil {
		return nil, fmt.Errorf("dispatcher needs a generator and a persistence store")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	d := &Dispatcher{
		flows:     make(map[FlowID]*Flow),
		byTrigger: make(map[string]*Flow),
		gen:       gen,
		store:     store,
		msgs:      msgs,
		log:       logger.With("component", "dispatcher"),
	}

	for _, f := range []*Flow{d.registrationFlow(), d.questionFlow(), d.riskFlow()} {
		if err := f.validate(); err != nil {
			return nil, err
		}
		d.flows[f.ID] = f
		d.byTrigger[f.Trigger] = f
	}

	d.rules = []rule{
		{RuleEscape, isEscape, d.escape},
		{RuleFlowEntry, d.isFlowEntry, d.enterFlow},
		{RuleTips, isTips, d.tips},
		{RuleFlowInput, isFlowInput, d.flowInput},
		{RuleStrayInFlow, inFlow, d.strayInFlow},
		{RuleIdleMedia, isMedia, d.idleMedia},
		{RuleIdleText, isText, d.idleText},
		{RuleFallback, func(*turn) bool { return true }, d.fallback},
	}
	return d, nil
}

// Rules returns the rule names in evaluation order.
func (d *Dispatcher) Rules() []string {
	names := make([]string, len(d.rules))
	for i, r := range d.rules {
		names[i] = r.name
	}
	return names
}

// Flow returns the definition of a flow, or nil.
func (d *Dispatcher) Flow(id FlowID) *Flow {
	return d.flows[id]
}

// Handle routes one event. It never returns a session in the middle of an
// unknown step: unresolvable sessions are treated as idle.
func (d *Dispatcher) Handle(ctx context.Context, userID int64, ev Event, s session.Session) Result {
	t := d.resolve(ctx, userID, ev, s.Clone())

	for _, r := range d.rules {
		if !r.matches(t) {
			continue
		}
		res := r.apply(ctx, t)
		res.Rule = r.name
		d.log.DebugContext(ctx, "Event routed",
			"user_id", userID, "event", EventKind(ev), "rule", r.name,
			"flow", res.Session.Flow, "state", res.Session.State, "replies", len(res.Replies))
		return res
	}

	// Unreachable while the fallback rule is last.
	return d.fallback(ctx, t)
}

func (d *Dispatcher) resolve(ctx context.Context, userID int64, ev Event, s session.Session) *turn {
	t := &turn{userID: userID, event: ev, session: s}
	if s.Flow == "" && s.State == "" {
		return t
	}

	if f, ok := d.flows[FlowID(s.Flow)]; ok {
		if idx := f.stepIndex(s.State); idx >= 0 {
			t.flow = f
			t.step = idx
			if t.session.Fields == nil {
				t.session.Fields = make(map[string]string)
			}
			return t
		}
	}

	d.log.WarnContext(ctx, "Session state does not belong to any flow, treating as idle",
		"user_id", userID, "flow", s.Flow, "state", s.State)
	t.session = session.Session{}
	return t
}

// Predicates.

func isEscape(t *turn) bool {
	switch ev := t.event.(type) {
	case CommandEvent:
		return ev.Name == CommandStart || ev.Name == CommandMenu || ev.Name == CommandCancel
	case ButtonEvent:
		return ev.Tag == TagMenu
	}
	return false
}

func (d *Dispatcher) isFlowEntry(t *turn) bool {
	ev, ok := t.event.(ButtonEvent)
	if !ok || t.flow != nil {
		return false
	}
	_, known := d.byTrigger[ev.Tag]
	return known
}

func isTips(t *turn) bool {
	ev, ok := t.event.(ButtonEvent)
	return ok && t.flow == nil && ev.Tag == TagTips
}

func isFlowInput(t *turn) bool {
	_, ok := t.event.(TextEvent)
	return ok && t.flow != nil
}

func inFlow(t *turn) bool { return t.flow != nil }

func isMedia(t *turn) bool {
	_, ok := t.event.(MediaEvent)
	return ok
}

func isText(t *turn) bool {
	_, ok := t.event.(TextEvent)
	return ok
}

// Actions.

func (d *Dispatcher) mainMenu() Reply {
	return Reply{Text: d.msgs.Welcome, Buttons: mainMenuButtons}
}

func (d *Dispatcher) escape(ctx context.Context, t *turn) Result {
	var replies []Reply
	if ev, ok := t.event.(CommandEvent); ok && ev.Name == CommandCancel {
		replies = append(replies, Reply{Text: d.msgs.Cancelled, RemoveKeyboard: true})
	}
	if t.flow != nil {
		d.log.InfoContext(ctx, "Flow abandoned", "user_id", t.userID, "flow", t.flow.ID, "state", t.session.State)
	}
	return Result{Replies: append(replies, d.mainMenu()), Session: session.Session{}}
}

func (d *Dispatcher) enterFlow(ctx context.Context, t *turn) Result {
	f := d.byTrigger[t.event.(ButtonEvent).Tag]
	first := f.Steps[0]
	d.log.InfoContext(ctx, "Flow started", "user_id", t.userID, "flow", f.ID)
	return Result{
		Replies: []Reply{first.Prompt},
		Session: session.Session{Flow: string(f.ID), State: first.State.String(), Fields: map[string]string{}},
	}
}

func (d *Dispatcher) tips(_ context.Context, t *turn) Result {
	return Result{
		Replies: []Reply{{Text: safetyTips, Markdown: true, Buttons: [][]Button{{buttonMenu}}}},
		Session: t.session,
	}
}

func (d *Dispatcher) flowInput(ctx context.Context, t *turn) Result {
	step := t.currentStep()
	input := t.event.(TextEvent).Body

	value, keep, err := step.Validate(input)
	if err != nil {
		var vErr *ValidationError
		msg := msgRequired
		if errors.As(err, &vErr) {
			msg = vErr.Message
		}
		return Result{Replies: []Reply{{Text: msg}, step.Prompt}, Session: t.session}
	}

	s := t.session
	if keep {
		s.Fields[step.Field] = value
	} else {
		delete(s.Fields, step.Field)
	}

	if next := t.step + 1; next < len(t.flow.Steps) {
		s.State = t.flow.Steps[next].State.String()
		return Result{Replies: []Reply{t.flow.Steps[next].Prompt}, Session: s}
	}

	return d.terminal(ctx, t, s.Fields)
}

// terminal runs the flow's completion. The session is idle afterwards regardless
// of what the collaborators returned.
func (d *Dispatcher) terminal(ctx context.Context, t *turn, fields map[string]string) (res Result) {
	res.Session = session.Session{}
	defer func() {
		if r := recover(); r != nil {
			d.log.ErrorContext(ctx, "Terminal action panicked", "user_id", t.userID, "flow", t.flow.ID, "panic", r)
			res = Result{Replies: []Reply{{Text: d.msgs.QueryError}, d.mainMenu()}, Session: session.Session{}}
		}
	}()

	res.Replies = t.flow.Complete(ctx, t.userID, fields)
	d.log.InfoContext(ctx, "Flow completed", "user_id", t.userID, "flow", t.flow.ID)
	return res
}

func (d *Dispatcher) strayInFlow(_ context.Context, t *turn) Result {
	return Result{
		Replies: []Reply{{Text: d.msgs.StrayInFlow}, t.currentStep().Prompt},
		Session: t.session,
	}
}

func (d *Dispatcher) idleMedia(ctx context.Context, t *turn) Result {
	ev := t.event.(MediaEvent)

	record := &database.MediaRecord{UserID: t.userID, FileID: ev.Ref}
	ack := d.msgs.PhotoReceived
	switch ev.Kind {
	case MediaPhoto:
		record.Kind = database.MediaKindPhoto
	case MediaVoice:
		record.Kind = database.MediaKindVoice
		ack = d.msgs.VoiceReceived
	default:
		return d.fallback(ctx, t)
	}

	if err := d.store.AppendMedia(ctx, record); err != nil {
		d.log.ErrorContext(ctx, "Failed to save media", "user_id", t.userID, "kind", record.Kind, "error", err)
	}
	return Result{Replies: []Reply{{Text: ack}}, Session: t.session}
}

func (d *Dispatcher) idleText(_ context.Context, t *turn) Result {
	return Result{
		Replies: []Reply{{Text: d.msgs.UseMenuHint, Buttons: [][]Button{{buttonOpenMenu}}}},
		Session: t.session,
	}
}

func (d *Dispatcher) fallback(ctx context.Context, t *turn) Result {
	err := fmt.Errorf("%w: %s %s", ErrUnroutable, EventKind(t.event), describe(t.event))
	d.log.DebugContext(ctx, "Unroutable event, showing menu", "user_id", t.userID, "error", err)
	return Result{Replies: []Reply{d.mainMenu()}, Session: session.Session{}}
}

func describe(ev Event) string {
	switch ev := ev.(type) {
	case CommandEvent:
		return "/" + ev.Name
	case ButtonEvent:
		return strings.TrimSpace(ev.Tag)
	case MediaEvent:
		return string(ev.Kind)
	}
	return ""
}
