package viewstate

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/notekeeper/internal/live"
	"github.com/nhle/notekeeper/internal/model"
	"github.com/nhle/notekeeper/internal/repository"
)

// DefaultDebounce is the quiet period after typing before a query runs.
const DefaultDebounce = 300 * time.Millisecond

// SearchState is what the search screen renders.
type SearchState struct {
	// Query is the text as typed.
	Query string

	// Results are the matches for ResultsFor, the last settled query.
	Results    []model.Note
	ResultsFor string

	// Searching is true while Query is not blank.
	Searching bool
	Err       error
}

// SearchStateMsg is the tea.Msg produced by Search.WaitForState.
type SearchStateMsg struct {
	State SearchState
}

// Search runs debounced, reactive searches over notes and tasks. Only the
// most recently settled query stays subscribed.
type Search struct {
	repo     *repository.Repository
	debounce time.Duration
	pub      *publisher[SearchState]

	qmu     sync.Mutex
	queries chan string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSearch starts the search loop. A non-positive debounce uses
// DefaultDebounce.
func NewSearch(ctx context.Context, repo *repository.Repository, debounce time.Duration) *Search {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Search{
		repo:     repo,
		debounce: debounce,
		pub:      newPublisher(SearchState{}),
		queries:  make(chan string, 1),
		cancel:   cancel,
	}

	s.wg.Add(1)
	go s.run(ctx)
	return s
}

// SetQuery records the typed text. The search runs once typing pauses.
func (s *Search) SetQuery(q string) {
	s.pub.update(func(st *SearchState) {
		st.Query = q
		st.Searching = strings.TrimSpace(q) != ""
	})

	// Keep only the newest pending query.
	s.qmu.Lock()
	defer s.qmu.Unlock()
	select {
	case <-s.queries:
	default:
	}
	s.queries <- q
}

func (s *Search) run(ctx context.Context) {
	defer s.wg.Done()

	timer := time.NewTimer(s.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	var (
		pending   string
		active    string
		results   <-chan live.Result[[]model.Note]
		subCancel context.CancelFunc = func() {}
	)
	defer func() { subCancel() }()

	for {
		select {
		case q := <-s.queries:
			pending = q
			timer.Reset(s.debounce)

		case <-timer.C:
			subCancel()
			subCancel = func() {}
			results = nil
			active = pending

			if strings.TrimSpace(active) == "" {
				s.pub.update(func(st *SearchState) {
					st.Results = nil
					st.ResultsFor = active
					st.Err = nil
				})
				continue
			}

			query, err := s.repo.SearchNotesAndTasks(active)
			if err != nil {
				s.pub.update(func(st *SearchState) { st.Err = err })
				continue
			}
			slog.Debug("viewstate: search settled", "query", active)

			var subCtx context.Context
			subCtx, subCancel = context.WithCancel(ctx)
			results = query.Subscribe(subCtx)

		case r, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			s.pub.update(func(st *SearchState) {
				st.Err = r.Err
				if r.Err == nil {
					st.Results = r.Value
					st.ResultsFor = active
				}
			})

		case <-ctx.Done():
			return
		}
	}
}

// State returns the current state.
func (s *Search) State() SearchState { return s.pub.get() }

// Updates delivers new states. Only the latest unread state is kept.
func (s *Search) Updates() <-chan SearchState { return s.pub.updates }

// WaitForState returns a tea.Cmd that yields the next SearchStateMsg.
func (s *Search) WaitForState() tea.Cmd {
	return wait(s.pub, func(st SearchState) tea.Msg { return SearchStateMsg{State: st} })
}

// Close stops the search loop and closes Updates.
func (s *Search) Close() {
	s.cancel()
	s.wg.Wait()
	s.pub.close()
}
