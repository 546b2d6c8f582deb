package pls

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/conversation"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

var errNotFound = errors.New("not found")

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages map[uuid.UUID]*conversation.InboundMessage
	clusters []conversation.SignatureCluster
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[uuid.UUID]*conversation.InboundMessage)}
}

func (r *fakeMessageRepo) Save(_ context.Context, m *conversation.InboundMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[m.GetID()] = m
	return nil
}

func (r *fakeMessageRepo) Update(ctx context.Context, m *conversation.InboundMessage) error {
	return r.Save(ctx, m)
}

func (r *fakeMessageRepo) FindByID(_ context.Context, id uuid.UUID) (*conversation.InboundMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.messages[id]; ok {
		return m, nil
	}
	return nil, errNotFound
}

func (r *fakeMessageRepo) FindAll(_ context.Context, filter shared.Filter) (shared.Paginated[*conversation.InboundMessage], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]*conversation.InboundMessage, 0, len(r.messages))
	for _, m := range r.messages {
		items = append(items, m)
	}
	return shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize), nil
}

func (r *fakeMessageRepo) FindBySender(_ context.Context, sender string, filter shared.Filter) (shared.Paginated[*conversation.InboundMessage], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*conversation.InboundMessage
	for _, m := range r.messages {
		if m.Sender() == sender {
			items = append(items, m)
		}
	}
	return shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize), nil
}

func (r *fakeMessageRepo) CountByStatus(_ context.Context, _, _ time.Time) (map[conversation.MessageStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[conversation.MessageStatus]int64)
	for _, m := range r.messages {
		counts[m.Status()]++
	}
	return counts, nil
}

func (r *fakeMessageRepo) FindRecentBySignature(_ context.Context, hash string, _ time.Time, _ int) ([]*conversation.InboundMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*conversation.InboundMessage
	for _, m := range r.messages {
		if m.SignatureHash() == hash {
			items = append(items, m)
		}
	}
	return items, nil
}

func (r *fakeMessageRepo) FindUnmatchedClusters(_ context.Context, _ time.Time, _ int, _ int) ([]conversation.SignatureCluster, error) {
	return r.clusters, nil
}

func (r *fakeMessageRepo) DeleteOlderThan(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, m := range r.messages {
		if m.CreatedAt.Before(before) {
			delete(r.messages, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeSuggestionRepo struct {
	mu          sync.Mutex
	suggestions map[uuid.UUID]*conversation.Suggestion
}

func newFakeSuggestionRepo() *fakeSuggestionRepo {
	return &fakeSuggestionRepo{suggestions: make(map[uuid.UUID]*conversation.Suggestion)}
}

func (r *fakeSuggestionRepo) Save(_ context.Context, s *conversation.Suggestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suggestions[s.GetID()] = s
	return nil
}

func (r *fakeSuggestionRepo) Update(ctx context.Context, s *conversation.Suggestion) error {
	return r.Save(ctx, s)
}

func (r *fakeSuggestionRepo) FindByID(_ context.Context, id uuid.UUID) (*conversation.Suggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.suggestions[id]; ok {
		return s, nil
	}
	return nil, errNotFound
}

func (r *fakeSuggestionRepo) FindByMessageID(_ context.Context, messageID uuid.UUID) (*conversation.Suggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.suggestions {
		if s.MessageID() == messageID {
			return s, nil
		}
	}
	return nil, errNotFound
}

func (r *fakeSuggestionRepo) FindOpen(_ context.Context, filter shared.Filter) (shared.Paginated[*conversation.Suggestion], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*conversation.Suggestion
	for _, s := range r.suggestions {
		if s.IsOpen() {
			items = append(items, s)
		}
	}
	return shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize), nil
}

func (r *fakeSuggestionRepo) FindExpirable(_ context.Context, now time.Time, _ int) ([]*conversation.Suggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*conversation.Suggestion
	for _, s := range r.suggestions {
		if s.IsExpired(now) {
			items = append(items, s)
		}
	}
	return items, nil
}

func (r *fakeSuggestionRepo) FindResolvedOlderThan(_ context.Context, before time.Time, limit int) ([]*conversation.Suggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*conversation.Suggestion
	for _, s := range r.suggestions {
		if s.Status() != conversation.SuggestionPending && s.CreatedAt.Before(before) && len(items) < limit {
			items = append(items, s)
		}
	}
	return items, nil
}

func (r *fakeSuggestionRepo) DeleteResolvedOlderThan(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, s := range r.suggestions {
		if s.Status() != conversation.SuggestionPending && s.CreatedAt.Before(before) {
			delete(r.suggestions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeSuggestionRepo) CountByStatus(_ context.Context, _, _ time.Time) (map[conversation.SuggestionStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[conversation.SuggestionStatus]int64)
	for _, s := range r.suggestions {
		counts[s.Status()]++
	}
	return counts, nil
}

type fakeShadowRepo struct {
	mu      sync.Mutex
	entries []*conversation.ShadowLogEntry
}

func (r *fakeShadowRepo) Save(_ context.Context, entry *conversation.ShadowLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeShadowRepo) FindByMessageID(_ context.Context, messageID uuid.UUID) ([]*conversation.ShadowLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*conversation.ShadowLogEntry
	for _, e := range r.entries {
		if e.MessageID == messageID {
			items = append(items, e)
		}
	}
	return items, nil
}

func (r *fakeShadowRepo) FindRecent(_ context.Context, filter shared.Filter) (shared.Paginated[*conversation.ShadowLogEntry], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return shared.NewPaginated(r.entries, int64(len(r.entries)), filter.Page, filter.PageSize), nil
}

func (r *fakeShadowRepo) FindOlderThan(_ context.Context, before time.Time, limit int) ([]*conversation.ShadowLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*conversation.ShadowLogEntry
	for _, e := range r.entries {
		if e.CreatedAt.Before(before) && len(items) < limit {
			items = append(items, e)
		}
	}
	return items, nil
}

func (r *fakeShadowRepo) Stats(_ context.Context, from, to time.Time) (*conversation.ShadowStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &conversation.ShadowStats{
		ByWouldBeAction: make(map[pattern.GateAction]int64),
		From:            from,
		To:              to,
	}
	var scoreSum float64
	for _, e := range r.entries {
		stats.Total++
		stats.ByWouldBeAction[e.WouldBeAction]++
		scoreSum += e.Score
		if e.WouldBeAction == pattern.ActionAutoExecute {
			stats.WouldAutoExecute++
		}
	}
	if stats.Total > 0 {
		stats.AvgScore = scoreSum / float64(stats.Total)
	}
	return stats, nil
}

func (r *fakeShadowRepo) DeleteOlderThan(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*conversation.ShadowLogEntry
	var deleted int64
	for _, e := range r.entries {
		if e.CreatedAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return deleted, nil
}

type fakePatternRepo struct {
	mu       sync.Mutex
	patterns map[uuid.UUID]*pattern.Pattern
}

func newFakePatternRepo() *fakePatternRepo {
	return &fakePatternRepo{patterns: make(map[uuid.UUID]*pattern.Pattern)}
}

func (r *fakePatternRepo) Save(_ context.Context, p *pattern.Pattern) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns[p.GetID()] = p
	return nil
}

func (r *fakePatternRepo) Update(ctx context.Context, p *pattern.Pattern) error {
	return r.Save(ctx, p)
}

func (r *fakePatternRepo) FindByID(_ context.Context, id uuid.UUID) (*pattern.Pattern, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.patterns[id]; ok {
		return p, nil
	}
	return nil, errNotFound
}

func (r *fakePatternRepo) FindBySignature(_ context.Context, hash string) (*pattern.Pattern, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.patterns {
		if p.Signature().Hash == hash && p.Status() != pattern.StatusDeleted {
			return p, nil
		}
	}
	return nil, errNotFound
}

func (r *fakePatternRepo) FindCandidates(_ context.Context, msgType pattern.PatternType, includeInactive bool) ([]*pattern.Pattern, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*pattern.Pattern
	for _, p := range r.patterns {
		switch p.Status() {
		case pattern.StatusActive:
		case pattern.StatusInactive:
			if !includeInactive {
				continue
			}
		default:
			continue
		}
		if msgType != "" && msgType != pattern.TypeGeneral &&
			p.Type() != msgType && p.Type() != pattern.TypeGeneral {
			continue
		}
		items = append(items, p)
	}
	return items, nil
}

func (r *fakePatternRepo) FindAll(_ context.Context, filter shared.Filter) (shared.Paginated[*pattern.Pattern], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]*pattern.Pattern, 0, len(r.patterns))
	for _, p := range r.patterns {
		items = append(items, p)
	}
	return shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize), nil
}

func (r *fakePatternRepo) FindDecayable(_ context.Context, idleSince time.Time, limit int) ([]*pattern.Pattern, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*pattern.Pattern
	for _, p := range r.patterns {
		if p.Status() != pattern.StatusActive {
			continue
		}
		last := p.CreatedAt
		if p.LastMatchedAt() != nil && p.LastMatchedAt().After(last) {
			last = *p.LastMatchedAt()
		}
		if p.LastFeedbackAt() != nil && p.LastFeedbackAt().After(last) {
			last = *p.LastFeedbackAt()
		}
		if last.Before(idleSince) {
			items = append(items, p)
		}
		if len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (r *fakePatternRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.patterns, id)
	return nil
}

func (r *fakePatternRepo) CountByStatus(_ context.Context) (map[pattern.PatternStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[pattern.PatternStatus]int64)
	for _, p := range r.patterns {
		counts[p.Status()]++
	}
	return counts, nil
}

func (r *fakePatternRepo) CountByType(_ context.Context) (map[pattern.PatternType]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[pattern.PatternType]int64)
	for _, p := range r.patterns {
		counts[p.Type()]++
	}
	return counts, nil
}

type fakeConfigRepo struct {
	mu  sync.Mutex
	cfg *pattern.EngineConfig
}

func (r *fakeConfigRepo) Get(_ context.Context) (*pattern.EngineConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg == nil {
		r.cfg = pattern.NewEngineConfig()
	}
	return r.cfg, nil
}

func (r *fakeConfigRepo) Update(_ context.Context, c *pattern.EngineConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = c
	return nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*pattern.ConfigAuditLog
}

func (r *fakeAuditRepo) Save(_ context.Context, entry *pattern.ConfigAuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) FindRecent(_ context.Context, limit int) ([]*pattern.ConfigAuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit > len(r.entries) {
		limit = len(r.entries)
	}
	return r.entries[len(r.entries)-limit:], nil
}

func (r *fakeAuditRepo) FindByAction(_ context.Context, action pattern.AuditAction, filter shared.Filter) (shared.Paginated[*pattern.ConfigAuditLog], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*pattern.ConfigAuditLog
	for _, e := range r.entries {
		if e.Action == action {
			items = append(items, e)
		}
	}
	return shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize), nil
}

type fakeIdempotencyStore struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{seen: make(map[string]bool)}
}

func (s *fakeIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *fakeIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[key], nil
}

func (s *fakeIdempotencyStore) Close() error { return nil }

type fakePublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *fakePublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *fakePublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}

type fakeLearner struct {
	draft *LearnedDraft
	err   error
	calls int
}

func (l *fakeLearner) Synthesize(_ context.Context, _ LearnCandidate) (*LearnedDraft, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return l.draft, nil
}
