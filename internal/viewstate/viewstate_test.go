package viewstate

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/notekeeper/internal/live"
	"github.com/nhle/notekeeper/internal/model"
	"github.com/nhle/notekeeper/internal/repository"
	"github.com/nhle/notekeeper/internal/store"
	"github.com/nhle/notekeeper/tests/testutil"
)

const timeout = 2 * time.Second

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, timeout, 10*time.Millisecond, msg)
}

// --- Publisher tests ---

func TestPublisher_LatestWins(t *testing.T) {
	p := newPublisher(0)
	p.update(func(s *int) { *s = 1 })
	p.update(func(s *int) { *s = 2 })

	assert.Equal(t, 2, <-p.updates)
	select {
	case v := <-p.updates:
		t.Fatalf("stale state %d delivered", v)
	default:
	}

	p.close()
	p.update(func(s *int) { *s = 3 })
	assert.Equal(t, 3, p.get())
	_, ok := <-p.updates
	assert.False(t, ok)
}

func TestWait_WrapsStateAndStopsAfterClose(t *testing.T) {
	p := newPublisher("a")
	cmd := wait(p, func(s string) tea.Msg { return teaMsg(s) })

	assert.Equal(t, teaMsg("a"), cmd())
	p.close()
	assert.Nil(t, cmd())
}

type teaMsg string

// --- Home tests ---

func TestHome_CombinesStreamsWithTab(t *testing.T) {
	repo, _ := testutil.NewTestRepository(t)
	ctx := context.Background()

	_, err := repo.SaveNote(ctx, model.Note{Title: "a note"})
	require.NoError(t, err)
	_, err = repo.SaveNote(ctx, model.Note{Title: "a task", IsTask: true})
	require.NoError(t, err)

	h, err := NewHome(ctx, repo)
	require.NoError(t, err)
	defer h.Close()

	eventually(t, func() bool { return !h.State().Loading }, "home never finished loading")

	st := h.State()
	assert.Equal(t, TabNotes, st.Tab)
	require.Len(t, st.Items, 1)
	assert.Equal(t, "a note", st.Items[0].Title)

	h.SelectTab(TabTasks)
	st = h.State()
	require.Len(t, st.Items, 1)
	assert.Equal(t, "a task", st.Items[0].Title)

	_, err = repo.SaveNote(ctx, model.Note{Title: "another task", IsTask: true})
	require.NoError(t, err)
	eventually(t, func() bool { return len(h.State().Items) == 2 }, "new task not shown")
}

func TestHome_ToggleAndDelete(t *testing.T) {
	repo, s := testutil.NewTestRepository(t)
	ctx := context.Background()

	id, err := repo.SaveNote(ctx, model.Note{Title: "task", IsTask: true})
	require.NoError(t, err)

	h, err := NewHome(ctx, repo)
	require.NoError(t, err)
	defer h.Close()
	h.SelectTab(TabTasks)

	eventually(t, func() bool { return len(h.State().Items) == 1 }, "task not loaded")
	task := h.State().Items[0]

	require.NoError(t, h.ToggleTaskCompletion(ctx, task))
	eventually(t, func() bool {
		items := h.State().Items
		return len(items) == 1 && items[0].IsCompleted
	}, "completion not reflected")

	require.NoError(t, h.DeleteNote(ctx, task))
	eventually(t, func() bool { return len(h.State().Items) == 0 }, "deleted task still listed")

	err = h.DeleteNote(ctx, task)
	require.Error(t, err)
	assert.True(t, store.IsNotFound(h.State().Err))

	_, err = s.GetNote(ctx, id)
	assert.True(t, store.IsNotFound(err))
}

func TestHome_WaitForState(t *testing.T) {
	repo, _ := testutil.NewTestRepository(t)

	h, err := NewHome(context.Background(), repo)
	require.NoError(t, err)

	msg := h.WaitForState()()
	_, ok := msg.(HomeStateMsg)
	assert.True(t, ok, "got %T", msg)

	h.Close()
	assert.Eventually(t, func() bool { return h.WaitForState()() == nil }, timeout, 10*time.Millisecond)
}

// --- Search tests ---

// searchLog is a store that records every search query opened on it.
type searchLog struct {
	*store.SQLiteStore

	mu      sync.Mutex
	queries []string
}

func (s *searchLog) ObserveSearch(query string) *live.Query[[]model.Note] {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	return s.SQLiteStore.ObserveSearch(query)
}

func (s *searchLog) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.queries)
}

func newSearchRepository(t *testing.T) (*repository.Repository, *searchLog) {
	t.Helper()
	log := &searchLog{SQLiteStore: testutil.NewTestStore(t)}
	return repository.New(log), log
}

func TestSearch_DebouncesBurst(t *testing.T) {
	repo, log := newSearchRepository(t)
	ctx := context.Background()

	_, err := repo.SaveNote(ctx, model.Note{Title: "Food shopping"})
	require.NoError(t, err)
	_, err = repo.SaveNote(ctx, model.Note{Title: "Fog lights", IsTask: true})
	require.NoError(t, err)

	s := NewSearch(ctx, repo, 50*time.Millisecond)
	defer s.Close()

	for _, q := range []string{"f", "fo", "foo"} {
		s.SetQuery(q)
	}
	assert.Equal(t, "foo", s.State().Query)
	assert.True(t, s.State().Searching)

	eventually(t, func() bool { return s.State().ResultsFor == "foo" }, "query never settled")
	st := s.State()
	require.Len(t, st.Results, 1)
	assert.Equal(t, "Food shopping", st.Results[0].Title)
	assert.Equal(t, []string{"foo"}, log.seen())
}

func TestSearch_BlankQueryDoesNotHitStore(t *testing.T) {
	repo, log := newSearchRepository(t)
	ctx := context.Background()

	_, err := repo.SaveNote(ctx, model.Note{Title: "anything"})
	require.NoError(t, err)

	s := NewSearch(ctx, repo, 10*time.Millisecond)
	defer s.Close()

	s.SetQuery("any")
	eventually(t, func() bool { return len(s.State().Results) == 1 }, "results missing")

	s.SetQuery("   ")
	eventually(t, func() bool { return s.State().ResultsFor == "   " }, "blank query never settled")

	assert.Empty(t, s.State().Results)
	assert.False(t, s.State().Searching)
	assert.Equal(t, []string{"any"}, log.seen())
	eventually(t, func() bool { return log.Feed().Listeners() == 0 }, "previous search still subscribed")
}

func TestSearch_ResultsFollowWrites(t *testing.T) {
	repo, _ := testutil.NewTestRepository(t)
	ctx := context.Background()

	s := NewSearch(ctx, repo, 10*time.Millisecond)
	defer s.Close()

	s.SetQuery("milk")
	eventually(t, func() bool { return s.State().ResultsFor == "milk" }, "query never settled")
	assert.Empty(t, s.State().Results)

	_, err := repo.SaveNote(ctx, model.Note{Title: "Buy MILK", IsTask: true})
	require.NoError(t, err)
	eventually(t, func() bool { return len(s.State().Results) == 1 }, "new match not shown")
}

// --- Editor tests ---

func TestEditor_SaveNewNoteWithAttachments(t *testing.T) {
	repo, st := testutil.NewTestRepository(t)
	ctx := context.Background()

	e := NewEditor(repo)
	defer e.Close()

	e.SetTitle("Trip")
	e.SetDescription("packing list")
	e.SetIsTask(true)
	e.AttachMedia("/pics/beach.jpg", model.MediaImage, "beach")
	e.AddReminder(testutil.Millis(9_000_000))

	require.NoError(t, e.Save(ctx))

	state := e.State()
	assert.True(t, state.Saved)
	require.NotZero(t, state.NoteID)
	require.Len(t, state.Media, 1)
	assert.NotZero(t, state.Media[0].ID)
	require.Len(t, state.Reminders, 1)
	assert.NotZero(t, state.Reminders[0].ID)

	details, err := st.GetNoteWithDetails(ctx, state.NoteID)
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, "Trip", details.Note.Title)
	assert.True(t, details.Note.IsTask)
	assert.Len(t, details.Media, 1)
	assert.Len(t, details.Reminders, 1)

	// Saving again stores nothing new and keeps the registration date.
	e.SetTitle("Trip to the coast")
	require.NoError(t, e.Save(ctx))

	media, err := st.ListMedia(ctx)
	require.NoError(t, err)
	assert.Len(t, media, 1)
	reminders, err := st.ListReminders(ctx)
	require.NoError(t, err)
	assert.Len(t, reminders, 1)

	again, err := st.GetNote(ctx, state.NoteID)
	require.NoError(t, err)
	assert.Equal(t, "Trip to the coast", again.Title)
	assert.True(t, details.Note.RegistrationDate.Equal(again.RegistrationDate))
}

func TestEditor_BlankTitle(t *testing.T) {
	repo, st := testutil.NewTestRepository(t)
	ctx := context.Background()

	e := NewEditor(repo)
	defer e.Close()

	e.SetTitle("  ")
	err := e.Save(ctx)

	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "invalid title: title must not be empty", e.State().Err.Error())
	assert.False(t, e.State().Saved)

	notes, err := st.ListNotes(ctx)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestEditor_LoadRemoveAndDelete(t *testing.T) {
	repo, st := testutil.NewTestRepository(t)
	ctx := context.Background()

	id, err := repo.SaveNote(ctx, model.Note{Title: "stored", IsTask: true})
	require.NoError(t, err)
	_, err = repo.AddMedia(ctx, model.Media{NoteID: id, FilePath: "/a.mp3", Type: model.MediaAudio})
	require.NoError(t, err)
	_, err = repo.AddReminder(ctx, model.Reminder{NoteID: id, At: testutil.Millis(1000)})
	require.NoError(t, err)

	e := NewEditor(repo)
	defer e.Close()

	require.NoError(t, e.Load(ctx, id))
	state := e.State()
	assert.Equal(t, "stored", state.Title)
	require.Len(t, state.Media, 1)
	require.Len(t, state.Reminders, 1)

	// An unsaved attachment is removed locally only.
	e.AttachMedia("/b.jpg", model.MediaImage, "")
	require.NoError(t, e.RemoveMedia(ctx, 1))
	assert.Len(t, e.State().Media, 1)

	require.NoError(t, e.RemoveMedia(ctx, 0))
	require.NoError(t, e.RemoveReminder(ctx, 0))
	assert.Error(t, e.RemoveReminder(ctx, 0))

	media, err := st.ListMediaForNote(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, media)
	reminders, err := st.ListRemindersForNote(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, reminders)

	require.NoError(t, e.Delete(ctx))
	assert.True(t, e.State().Deleted)
	assert.Zero(t, e.State().NoteID)

	_, err = st.GetNote(ctx, id)
	assert.True(t, store.IsNotFound(err))
}

func TestEditor_LoadMissing(t *testing.T) {
	repo, _ := testutil.NewTestRepository(t)

	e := NewEditor(repo)
	defer e.Close()

	require.Error(t, e.Load(context.Background(), 77))
	assert.Error(t, e.State().Err)
}
