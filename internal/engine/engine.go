// Package engine implements the per-session conversation state machine:
// turn-by-turn order construction, clarifying questions, confirmation,
// checkout, and the out-of-band order utilities (quantity changes, tax and
// status questions).
//
// A turn mutates a deep copy of the session and persists it only after the
// whole turn succeeds, so a storage fault mid-turn leaves the session at its
// last committed state. Unresolvable input never surfaces as an error to the
// customer; it always becomes a clarification reply. Only storage faults
// cross the transport boundary as Go errors.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/orderline/orderline/internal/catalog"
	"github.com/orderline/orderline/internal/match"
	"github.com/orderline/orderline/internal/notify"
	"github.com/orderline/orderline/internal/pricing"
	"github.com/orderline/orderline/internal/schedule"
	"github.com/orderline/orderline/internal/store"
	"github.com/orderline/orderline/pkg/models"
)

const storageTimeout = 5 * time.Second

// OrderArchiver records finished orders in a durable sink.
type OrderArchiver interface {
	ArchiveOrder(ctx context.Context, order *models.OrderTask) (string, error)
}

// Engine processes conversation turns. Safe for concurrent use across
// sessions; the transport layer serializes turns within one session.
type Engine struct {
	catalog  *catalog.Service
	sessions store.SessionStore
	notifier notify.Sender
	archive  OrderArchiver
}

// New creates an engine.
func New(cat *catalog.Service, sessions store.SessionStore, notifier notify.Sender) *Engine {
	if notifier == nil {
		notifier = notify.LogSender{}
	}
	return &Engine{catalog: cat, sessions: sessions, notifier: notifier}
}

// SetArchiver installs a sink for finished orders. Optional; archive
// failures never fail a turn.
func (e *Engine) SetArchiver(a OrderArchiver) { e.archive = a }

// ProcessTurn resolves one utterance for one session and returns the reply
// plus the current order state. The only error paths are storage faults.
func (e *Engine) ProcessTurn(ctx context.Context, sessionID, utterance string) (*models.TurnResult, error) {
	snap := e.catalog.Snapshot()
	if snap == nil {
		return nil, fmt.Errorf("catalog snapshot unavailable")
	}

	sess, err := e.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	work := sess.Clone()
	if work.Order == nil || work.Order.Phase == models.PhaseDone {
		work.Order = newOrderTask()
	}

	m := match.New(snap)
	norm := m.Normalize(utterance)
	reply := e.dispatch(ctx, snap, m, work.Order, norm, utterance)

	now := time.Now().UTC()
	work.History = append(work.History,
		models.HistoryEntry{Role: "customer", Text: utterance, At: now},
		models.HistoryEntry{Role: "assistant", Text: reply, At: now},
	)
	work.Order.UpdatedAt = now

	if err := e.saveSession(ctx, work); err != nil {
		return nil, err
	}

	return &models.TurnResult{Reply: reply, Order: buildState(snap, work.Order)}, nil
}

// OrderState returns the current order for a session without processing a
// turn.
func (e *Engine) OrderState(ctx context.Context, sessionID string) (*models.OrderState, error) {
	snap := e.catalog.Snapshot()
	if snap == nil {
		return nil, fmt.Errorf("catalog snapshot unavailable")
	}
	sess, err := e.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Order == nil {
		sess.Order = newOrderTask()
	}
	state := buildState(snap, sess.Order)
	return &state, nil
}

func newOrderTask() *models.OrderTask {
	now := time.Now().UTC()
	return &models.OrderTask{
		ID:        uuid.NewString(),
		Phase:     models.PhaseCollecting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// loadSession fetches the session with a timeout and a single bounded
// retry. A missing session starts fresh; any other fault is fatal for the
// turn.
func (e *Engine) loadSession(ctx context.Context, id string) (*models.Session, error) {
	var sess *models.Session
	err := withRetry(ctx, func(c context.Context) error {
		got, err := e.sessions.GetSession(c, id)
		if err != nil {
			return err
		}
		sess = got
		return nil
	})
	if err != nil {
		var nf *store.ErrNotFound
		if asNotFound(err, &nf) {
			now := time.Now().UTC()
			return &models.Session{ID: id, CreatedAt: now, UpdatedAt: now}, nil
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return sess, nil
}

func (e *Engine) saveSession(ctx context.Context, sess *models.Session) error {
	err := withRetry(ctx, func(c context.Context) error {
		return e.sessions.PutSession(c, sess)
	})
	if err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}

func withRetry(ctx context.Context, op func(context.Context) error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 1), ctx)
	return backoff.Retry(func() error {
		c, cancel := context.WithTimeout(ctx, storageTimeout)
		defer cancel()
		err := op(c)
		var nf *store.ErrNotFound
		if asNotFound(err, &nf) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

// ── Turn dispatch ───────────────────────────────────────────

func (e *Engine) dispatch(ctx context.Context, snap *catalog.Snapshot, m *match.Matcher, ord *models.OrderTask, norm, raw string) string {
	if norm == "" {
		return "Sorry, I didn't catch that. What can I get you?"
	}

	// Side intents run before slot-filling, in any state.
	if reply, handled := e.utilities(snap, m, ord, norm); handled {
		return reply
	}

	if intent, ok := m.Intent(norm); ok && intent == models.IntentCancel {
		ord.Cancelled = true
		ord.Phase = models.PhaseDone
		ord.Pending = models.Pending{}
		return "No problem — I've cancelled your order."
	}

	switch ord.Phase {
	case models.PhaseAsking:
		return e.handleAnswer(snap, m, ord, norm, raw)
	case models.PhaseConfirming:
		return e.handleConfirm(snap, m, ord, norm)
	case models.PhaseCheckout:
		return e.handleCheckout(ctx, snap, m, ord, norm, raw)
	default:
		return e.handleCollect(snap, m, ord, norm)
	}
}

// ── COLLECTING_ITEM ─────────────────────────────────────────

func (e *Engine) handleCollect(snap *catalog.Snapshot, m *match.Matcher, ord *models.OrderTask, norm string) string {
	if intent, ok := m.Intent(norm); ok {
		switch intent {
		case models.IntentDone, models.IntentNegative:
			return e.toConfirm(snap, ord)
		case models.IntentAffirmative:
			return "What else can I get you?"
		}
	}

	// Every match gets handled: unambiguous items are created even when an
	// earlier match needs disambiguation, so nothing the customer named is
	// dropped. The first queued question is asked after the pass.
	matches := m.ScanEntities(norm)
	created := 0
	var question string
	var pending models.Pending
	var notice string
	for _, em := range matches {
		switch em.Ref.Kind {
		case models.EntityMenuItem:
			e.createFromMenuItem(snap, m, ord, snap.MenuItem(em.Ref.Target), em.Count, norm)
			created++
		case models.EntityItemType:
			r, ok := e.createFromItemType(snap, m, ord, em.Ref.Target, em.Count, norm)
			if ok {
				created++
				continue
			}
			if len(ord.Pending.Candidates) > 0 && question == "" {
				question = r
				pending = ord.Pending
			} else if notice == "" {
				notice = r
			}
			ord.Phase = models.PhaseCollecting
			ord.Pending = models.Pending{}
		}
	}
	if question != "" {
		ord.Phase = models.PhaseAsking
		ord.Pending = pending
		return question
	}
	if created == 0 {
		if notice != "" {
			return notice
		}
		return "I'm not sure I caught that — could you tell me what you'd like to order?"
	}
	return e.advance(snap, ord)
}

// toConfirm moves to CONFIRMING when the order has items.
func (e *Engine) toConfirm(snap *catalog.Snapshot, ord *models.OrderTask) string {
	if len(ord.ActiveItems()) == 0 {
		return "You don't have anything in your order yet. What can I get you?"
	}
	ord.Phase = models.PhaseConfirming
	ord.Pending = models.Pending{}
	return "Here's what I have:\n" + orderSummary(snap, ord) + "\nDoes that look right?"
}

// createFromMenuItem adds a named menu item with its default configuration,
// then absorbs any values volunteered in the same utterance.
func (e *Engine) createFromMenuItem(snap *catalog.Snapshot, m *match.Matcher, ord *models.OrderTask, mi *models.MenuItem, count int, norm string) *models.OrderItem {
	if mi == nil {
		return nil
	}
	it := snap.ItemType(mi.ItemType)
	item := &models.OrderItem{
		ID:          uuid.NewString(),
		Kind:        kindOf(it),
		ItemType:    mi.ItemType,
		MenuItemID:  mi.ID,
		DisplayName: mi.Name,
		BasePrice:   mi.BasePrice,
		Quantity:    count,
		Selections:  make(map[string]*models.Selection),
	}
	for attrSlug, optSlug := range mi.DefaultConfig {
		attr := snap.Attribute(mi.ItemType, attrSlug)
		if attr == nil {
			continue
		}
		for _, opt := range attr.ResolvedOptions {
			if opt.Slug == optSlug {
				item.Selections[attrSlug] = &models.Selection{
					Options: []models.SelectedOption{{
						Slug:          opt.Slug,
						DisplayName:   opt.DisplayName,
						PriceModifier: opt.PriceModifier,
						Count:         1,
					}},
				}
				break
			}
		}
	}
	e.absorbVolunteered(snap, m, item, norm)
	pricing.Reprice(snap, item)
	ord.Items = append(ord.Items, item)
	return item
}

// createFromItemType adds an item for a directly orderable type. Virtual
// categories and multi-item types without attributes turn into a
// disambiguation question instead (ok=false).
func (e *Engine) createFromItemType(snap *catalog.Snapshot, m *match.Matcher, ord *models.OrderTask, slug string, count int, norm string) (string, bool) {
	concrete := snap.ExpandType(slug)
	if len(concrete) > 1 {
		names := make([]string, 0, len(concrete))
		for _, c := range concrete {
			if it := snap.ItemType(c); it != nil {
				names = append(names, it.DisplayName)
			}
		}
		ord.Phase = models.PhaseAsking
		ord.Pending = models.Pending{Candidates: concrete}
		return "Sure — which kind: " + listNames(names) + "?", false
	}
	if len(concrete) == 0 {
		return "I'm not sure I caught that — could you tell me what you'd like to order?", false
	}

	typeSlug := concrete[0]
	it := snap.ItemType(typeSlug)

	// Types with no attributes aren't configurable; the customer means one
	// of the type's named menu items.
	if len(snap.Attributes(typeSlug)) == 0 {
		items := availableMenuItems(snap, typeSlug)
		switch len(items) {
		case 0:
			return "Sorry, we don't have any " + it.DisplayName + " right now.", false
		case 1:
			e.createFromMenuItem(snap, m, ord, items[0], count, norm)
			return "", true
		default:
			ids := make([]string, 0, len(items))
			names := make([]string, 0, len(items))
			for _, cand := range items {
				ids = append(ids, cand.ID)
				names = append(names, cand.Name)
			}
			ord.Phase = models.PhaseAsking
			ord.Pending = models.Pending{Candidates: ids}
			return "We have " + listNames(names) + " — which would you like?", false
		}
	}

	item := &models.OrderItem{
		ID:          uuid.NewString(),
		Kind:        kindOf(it),
		ItemType:    typeSlug,
		DisplayName: it.DisplayName,
		BasePrice:   it.BasePrice,
		Quantity:    count,
		Selections:  make(map[string]*models.Selection),
	}
	e.absorbVolunteered(snap, m, item, norm)
	pricing.Reprice(snap, item)
	ord.Items = append(ord.Items, item)
	return "", true
}

func availableMenuItems(snap *catalog.Snapshot, typeSlug string) []*models.MenuItem {
	var out []*models.MenuItem
	for _, mi := range snap.MenuItemsOf(typeSlug) {
		if mi.Available {
			out = append(out, mi)
		}
	}
	return out
}

func kindOf(it *models.ItemType) models.ItemKind {
	if it == nil || it.Kind == "" {
		return models.KindStandard
	}
	return it.Kind
}

// absorbVolunteered records attribute values the customer stated in the
// same utterance that created the item, so they are never asked again.
// Ambiguous fragments are left alone; the scheduler will ask properly.
func (e *Engine) absorbVolunteered(snap *catalog.Snapshot, m *match.Matcher, item *models.OrderItem, norm string) {
	for _, attr := range snap.Attributes(item.ItemType) {
		switch attr.InputKind {
		case models.InputBoolean:
			if b := m.MatchBoolean(attr, norm); b != nil {
				item.Selections[attr.Slug] = &models.Selection{Bool: b, Explicit: true}
			}
		case models.InputSingleSelect, models.InputMultiSelect:
			out := m.MatchOptions(attr, norm)
			if len(out.Selected) == 0 {
				continue
			}
			if attr.InputKind == models.InputSingleSelect && len(out.Selected) > 1 {
				continue
			}
			item.Selections[attr.Slug] = selectionFrom(out.Selected)
		}
	}
}

func selectionFrom(matches []match.OptionMatch) *models.Selection {
	sel := &models.Selection{Explicit: true}
	for _, om := range matches {
		count := om.Count
		if count < 1 {
			count = 1
		}
		sel.Options = append(sel.Options, models.SelectedOption{
			Slug:          om.Option.Slug,
			DisplayName:   om.Option.DisplayName,
			PriceModifier: om.Option.PriceModifier,
			Count:         count,
			Qualifiers:    om.Qualifiers,
		})
	}
	return sel
}

// ── Scheduling / advancing ──────────────────────────────────

// advance drives the next step: ask the next unresolved question on the
// first incomplete item, or finish items and return to collecting.
func (e *Engine) advance(snap *catalog.Snapshot, ord *models.OrderTask) string {
	var finished *models.OrderItem
	for _, item := range ord.ActiveItems() {
		if item.Complete {
			continue
		}
		if next := schedule.Next(snap, item); next != nil {
			ord.Phase = models.PhaseAsking
			ord.Pending = models.Pending{ItemID: item.ID, Attribute: next.Slug}
			return questionFor(next, item)
		}
		schedule.FillDefaults(snap, item)
		// A required slot the normal walk skipped (non-conversational, no
		// default) still has to be answered before the item can complete.
		if attr := schedule.Blocking(snap, item); attr != nil {
			log.Warn().
				Str("item_type", item.ItemType).
				Str("attribute", attr.Slug).
				Msg("Required attribute has no default, asking despite ask_in_conversation=false")
			ord.Phase = models.PhaseAsking
			ord.Pending = models.Pending{ItemID: item.ID, Attribute: attr.Slug}
			return questionFor(attr, item)
		}
		item.Complete = true
		pricing.Reprice(snap, item)
		finished = item
	}

	ord.Phase = models.PhaseCollecting
	ord.Pending = models.Pending{}
	if finished != nil {
		return "Got it — " + itemLabel(snap, finished) + ". Anything else?"
	}
	return "Anything else?"
}

func questionFor(attr *catalog.AttributeView, item *models.OrderItem) string {
	if attr.QuestionText != "" {
		return attr.QuestionText
	}
	switch attr.InputKind {
	case models.InputBoolean:
		return "Would you like your " + item.DisplayName + " " + attr.DisplayName + "?"
	default:
		names := optionNames(attr.ResolvedOptions)
		if len(names) > 0 {
			return "What " + attr.DisplayName + " would you like? We have " + listNames(names) + "."
		}
		return "What " + attr.DisplayName + " would you like?"
	}
}

// ── ASKING_ATTRIBUTE ────────────────────────────────────────

func (e *Engine) handleAnswer(snap *catalog.Snapshot, m *match.Matcher, ord *models.OrderTask, norm, raw string) string {
	p := ord.Pending

	// Item-level disambiguation ("which kind of juice?").
	if p.ItemID == "" && len(p.Candidates) > 0 {
		return e.resolveItemChoice(snap, m, ord, norm)
	}

	item := ord.ItemByID(p.ItemID)
	if item == nil || item.Removed {
		ord.Phase = models.PhaseCollecting
		ord.Pending = models.Pending{}
		return e.handleCollect(snap, m, ord, norm)
	}
	attr := snap.Attribute(item.ItemType, p.Attribute)
	if attr == nil {
		ord.Pending = models.Pending{}
		return e.advance(snap, ord)
	}

	intent, hasIntent := m.Intent(norm)

	switch attr.InputKind {
	case models.InputBoolean:
		if hasIntent && intent == models.IntentAffirmative {
			return e.applyBool(snap, ord, item, attr, true)
		}
		if hasIntent && intent == models.IntentNegative {
			return e.applyBool(snap, ord, item, attr, false)
		}
		if b := m.MatchBoolean(attr, norm); b != nil {
			return e.applyBool(snap, ord, item, attr, *b)
		}

	case models.InputFreeText:
		item.Selections[attr.Slug] = &models.Selection{Text: raw, Explicit: true}
		return e.advance(snap, ord)

	default:
		if hasIntent && intent == models.IntentNegative {
			if attr.AllowNone {
				item.Selections[attr.Slug] = &models.Selection{Declined: true, Explicit: true}
				return e.advance(snap, ord)
			}
			return "We do need a " + attr.DisplayName + " for your " + item.DisplayName + ". " + questionFor(attr, item)
		}

		out := m.MatchOptions(attr, norm)
		out = restrictToCandidates(out, p.Candidates, attr)
		if len(out.Candidates) > 0 {
			slugs := make([]string, 0, len(out.Candidates))
			names := make([]string, 0, len(out.Candidates))
			for _, c := range out.Candidates {
				slugs = append(slugs, c.Slug)
				names = append(names, c.DisplayName)
			}
			ord.Pending.Candidates = slugs
			return "Which one — " + listNames(names) + "?"
		}
		if len(out.Selected) > 0 {
			if attr.InputKind == models.InputSingleSelect && len(out.Selected) > 1 {
				names := make([]string, 0, len(out.Selected))
				slugs := make([]string, 0, len(out.Selected))
				for _, om := range out.Selected {
					names = append(names, om.Option.DisplayName)
					slugs = append(slugs, om.Option.Slug)
				}
				ord.Pending.Candidates = slugs
				return "Just one " + attr.DisplayName + " — " + listNames(names) + "?"
			}
			sel := selectionFrom(out.Selected)
			if attr.MaxSelect > 0 && len(sel.Options) > attr.MaxSelect {
				sel.Options = sel.Options[:attr.MaxSelect]
			}
			item.Selections[attr.Slug] = sel
			ord.Pending.Candidates = nil
			return e.advance(snap, ord)
		}
	}

	// The utterance was not an answer. Never drop it: try the other
	// recognized branches before reprompting.
	if hasIntent && intent == models.IntentDone {
		return e.toConfirm(snap, ord)
	}
	if ems := m.ScanEntities(norm); len(ems) > 0 {
		for _, em := range ems {
			if em.Ref.Kind == models.EntityMenuItem || em.Ref.Kind == models.EntityItemType {
				// New item mid-question: park the current one and come
				// back to it through the normal advance walk.
				reply := e.handleCollect(snap, m, ord, norm)
				return reply
			}
		}
	}
	return "Sorry, I didn't catch that. " + questionFor(attr, item)
}

func (e *Engine) applyBool(snap *catalog.Snapshot, ord *models.OrderTask, item *models.OrderItem, attr *catalog.AttributeView, v bool) string {
	item.Selections[attr.Slug] = &models.Selection{Bool: &v, Explicit: true}
	return e.advance(snap, ord)
}

// restrictToCandidates narrows an outcome to a pending disambiguation set.
func restrictToCandidates(out match.OptionOutcome, candidates []string, attr *catalog.AttributeView) match.OptionOutcome {
	if len(candidates) == 0 {
		return out
	}
	allowed := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		allowed[c] = true
	}
	var kept []match.OptionMatch
	for _, om := range out.Selected {
		if allowed[om.Option.Slug] {
			kept = append(kept, om)
		}
	}
	var keptCands []catalog.Option
	for _, c := range out.Candidates {
		if allowed[c.Slug] {
			keptCands = append(keptCands, c)
		}
	}
	if len(keptCands) == 1 {
		kept = append(kept, match.OptionMatch{Option: keptCands[0], Count: 1})
		keptCands = nil
	}
	return match.OptionOutcome{Selected: kept, Candidates: keptCands}
}

// resolveItemChoice answers an item-level disambiguation: candidates are
// menu item IDs or item type slugs.
func (e *Engine) resolveItemChoice(snap *catalog.Snapshot, m *match.Matcher, ord *models.OrderTask, norm string) string {
	candidates := ord.Pending.Candidates

	var chosenMenu *models.MenuItem
	var chosenType string
	matched := 0
	for _, id := range candidates {
		if mi := snap.MenuItem(id); mi != nil {
			if nameMatches(m, norm, mi.Name) {
				chosenMenu = mi
				matched++
			}
			continue
		}
		if it := snap.ItemType(id); it != nil {
			if nameMatches(m, norm, it.DisplayName) {
				chosenType = it.Slug
				matched++
			}
		}
	}

	if matched != 1 {
		names := make([]string, 0, len(candidates))
		for _, id := range candidates {
			if mi := snap.MenuItem(id); mi != nil {
				names = append(names, mi.Name)
			} else if it := snap.ItemType(id); it != nil {
				names = append(names, it.DisplayName)
			}
		}
		return "Sorry — which one: " + listNames(names) + "?"
	}

	ord.Pending = models.Pending{}
	ord.Phase = models.PhaseCollecting
	if chosenMenu != nil {
		e.createFromMenuItem(snap, m, ord, chosenMenu, 1, norm)
		return e.advance(snap, ord)
	}
	reply, ok := e.createFromItemType(snap, m, ord, chosenType, 1, norm)
	if !ok {
		return reply
	}
	return e.advance(snap, ord)
}

// nameMatches is a loose containment check both ways so "the lox one"
// answers "Lox Deluxe".
func nameMatches(m *match.Matcher, norm, name string) bool {
	n := m.Normalize(name)
	return match.ContainsWholePhrase(norm, n) || overlap(norm, n)
}

// overlap reports whether any non-filler word of the answer appears in the
// candidate name.
func overlap(norm, name string) bool {
	for _, w := range splitWords(norm) {
		if match.IsArticle(w) {
			continue
		}
		if match.ContainsWholePhrase(name, w) {
			return true
		}
	}
	return false
}

func splitWords(s string) []string {
	var out []string
	start := -1
	for i, r := range s {
		if r == ' ' {
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

// ── CONFIRMING ──────────────────────────────────────────────

func (e *Engine) handleConfirm(snap *catalog.Snapshot, m *match.Matcher, ord *models.OrderTask, norm string) string {
	intent, ok := m.Intent(norm)
	if !ok {
		return "Sorry, I need a yes or no.\n" + orderSummary(snap, ord) + "\nDoes that look right?"
	}
	switch intent {
	case models.IntentAffirmative, models.IntentDone:
		ord.Phase = models.PhaseCheckout
		ord.CheckoutStage = models.StageOrderType
		return "Great. Will that be pickup or delivery?"
	case models.IntentNegative:
		ord.Phase = models.PhaseCollecting
		return "Okay — what would you like to change or add?"
	default:
		return "Sorry, I need a yes or no.\n" + orderSummary(snap, ord) + "\nDoes that look right?"
	}
}

func asNotFound(err error, target **store.ErrNotFound) bool {
	return err != nil && errors.As(err, target)
}
