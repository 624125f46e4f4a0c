// Package index keeps postings searchable by exact keywords and by vector
// similarity. An Index is owned by its caller; any number may coexist.
package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-indexer/internal/embedding"
	"github.com/spigell/hh-indexer/internal/logger"
	"github.com/spigell/hh-indexer/internal/posting"
	"github.com/spigell/hh-indexer/internal/tokenize"
)

const (
	DefaultK = 10

	// embedDescriptionRunes caps how much of the description goes into the
	// embedding text.
	embedDescriptionRunes = 512
)

// ErrInconsistent reports an id referenced by the token or vector maps that
// has no posting record.
var ErrInconsistent = errors.New("index invariant violated")

type state struct {
	byID     map[string]*posting.Posting
	postings map[string]map[string]struct{}
	vectors  map[string][]float32
}

func newState(capacity int) *state {
	return &state{
		byID:     make(map[string]*posting.Posting, capacity),
		postings: make(map[string]map[string]struct{}),
		vectors:  make(map[string][]float32),
	}
}

type Index struct {
	mu sync.RWMutex
	st *state

	provider embedding.Provider
	timeout  time.Duration
	logger   *zap.Logger
}

type Option func(*Index)

// WithTimeout bounds the embedding request made by Rebuild.
func WithTimeout(d time.Duration) Option {
	return func(i *Index) {
		i.timeout = d
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(i *Index) {
		i.logger = l
	}
}

// New returns an empty index. A nil provider is allowed: the index then only
// serves keyword search.
func New(provider embedding.Provider, opts ...Option) *Index {
	idx := &Index{
		st:       newState(0),
		provider: provider,
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.logger = logger.WithFields(idx.logger)
	return idx
}

// BuildReport summarizes a Rebuild. EmbeddingErr is set when the index was
// built without vectors.
type BuildReport struct {
	Postings     int
	Tokens       int
	Vectors      int
	EmbeddingErr error
}

// Rebuild replaces the whole index with postings. The new state is prepared
// aside and swapped in at once, so readers see either the old index or the
// new one. A failed embedding request leaves every posting without a vector;
// keyword search is unaffected.
func (i *Index) Rebuild(ctx context.Context, postings []posting.Posting) BuildReport {
	next := newState(len(postings))
	order := make([]*posting.Posting, 0, len(postings))

	for k := range postings {
		p := postings[k]
		if _, dup := next.byID[p.ID]; dup {
			next.removeTokens(p.ID)
		} else {
			order = append(order, &p)
		}
		next.byID[p.ID] = &p
		next.addTokens(&p)
	}
	// keep the final record for repeated ids
	for k, p := range order {
		order[k] = next.byID[p.ID]
	}

	texts := make([]string, len(order))
	for k, p := range order {
		texts[k] = EmbeddingText(p)
	}

	report := BuildReport{Postings: len(next.byID), Tokens: len(next.postings)}

	if len(texts) > 0 {
		res := embedding.Request(ctx, i.provider, texts, i.timeout)
		if res.OK() {
			for k, p := range order {
				next.vectors[p.ID] = res.Vectors[k]
			}
		} else {
			report.EmbeddingErr = res.Err
			i.logger.Warn("building index without vectors", zap.Error(res.Err))
		}
	}
	report.Vectors = len(next.vectors)

	i.mu.Lock()
	i.st = next
	i.mu.Unlock()

	i.logger.Info("index rebuilt", logger.IndexFields(report.Postings, report.Tokens, report.Vectors)...)

	return report
}

// Add indexes a single posting without touching embeddings. Re-adding an id
// replaces its tokens; a vector it already has is kept.
func (i *Index) Add(p posting.Posting) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.st.byID[p.ID]; ok {
		i.st.removeTokens(p.ID)
	}
	i.st.byID[p.ID] = &p
	i.st.addTokens(&p)
}

// Search returns the ids of postings that contain every token of query,
// sorted. An empty query matches nothing.
func (i *Index) Search(query string) []string {
	tokens := tokenize.Unique(query)
	if len(tokens) == 0 {
		return []string{}
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	sets := make([]map[string]struct{}, 0, len(tokens))
	for _, tok := range tokens {
		set, ok := i.st.postings[tok]
		if !ok {
			return []string{}
		}
		sets = append(sets, set)
	}

	sort.Slice(sets, func(a, b int) bool { return len(sets[a]) < len(sets[b]) })

	result := make([]string, 0, len(sets[0]))
	for id := range sets[0] {
		if inAll(id, sets[1:]) {
			result = append(result, id)
		}
	}
	sort.Strings(result)

	return result
}

func inAll(id string, sets []map[string]struct{}) bool {
	for _, set := range sets {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

// KNN returns up to k ids most similar to id by cosine similarity, most
// similar first, id itself excluded. An id without a vector yields an empty
// result. k <= 0 means DefaultK.
func (i *Index) KNN(id string, k int) []string {
	if k <= 0 {
		k = DefaultK
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	query, ok := i.st.vectors[id]
	if !ok {
		return []string{}
	}

	type scored struct {
		id    string
		score float64
	}
	candidates := make([]scored, 0, len(i.st.vectors))
	for other, vec := range i.st.vectors {
		if other == id {
			continue
		}
		candidates = append(candidates, scored{id: other, score: Cosine(query, vec)})
	}

	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].score != candidates[b].score {
			return candidates[a].score > candidates[b].score
		}
		return candidates[a].id < candidates[b].id
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.id)
	}
	return out
}

// Get returns a copy of the indexed posting.
func (i *Index) Get(id string) (posting.Posting, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	p, ok := i.st.byID[id]
	if !ok {
		return posting.Posting{}, false
	}
	return *p, true
}

func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.st.byID)
}

func (i *Index) HasVector(id string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.st.vectors[id]
	return ok
}

// Validate checks that every id referenced by the token and vector maps has
// a posting record.
func (i *Index) Validate() error {
	i.mu.RLock()
	defer i.mu.RUnlock()

	for tok, ids := range i.st.postings {
		for id := range ids {
			if _, ok := i.st.byID[id]; !ok {
				return fmt.Errorf("%w: token %q references unknown id %q", ErrInconsistent, tok, id)
			}
		}
	}
	for id := range i.st.vectors {
		if _, ok := i.st.byID[id]; !ok {
			return fmt.Errorf("%w: vector for unknown id %q", ErrInconsistent, id)
		}
	}
	return nil
}

// IndexText is the text a posting is searchable by.
func IndexText(p *posting.Posting) string {
	return p.Title + " " + p.Company + " " + p.Location + " " + p.DescriptionText
}

// EmbeddingText is the text sent to the embedding provider for a posting.
func EmbeddingText(p *posting.Posting) string {
	desc := []rune(p.DescriptionText)
	if len(desc) > embedDescriptionRunes {
		desc = desc[:embedDescriptionRunes]
	}
	return p.Title + " " + p.Company + " " + string(desc)
}

func (s *state) addTokens(p *posting.Posting) {
	for _, tok := range tokenize.Unique(IndexText(p)) {
		set, ok := s.postings[tok]
		if !ok {
			set = make(map[string]struct{})
			s.postings[tok] = set
		}
		set[p.ID] = struct{}{}
	}
}

func (s *state) removeTokens(id string) {
	p, ok := s.byID[id]
	if !ok {
		return
	}
	for _, tok := range tokenize.Unique(IndexText(p)) {
		set := s.postings[tok]
		delete(set, id)
		if len(set) == 0 {
			delete(s.postings, tok)
		}
	}
}
