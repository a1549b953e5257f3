package exports

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"coverletter-backend/coverletter/model"
	"coverletter-backend/coverletter/render"
	"coverletter-backend/internal/letters"
	"coverletter-backend/internal/queue"
	"coverletter-backend/internal/shared/storage/object/local"
)

type countingNotifier struct {
	mu  sync.Mutex
	got []render.Notification
}

func (n *countingNotifier) Notify(_ context.Context, note render.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, note)
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.got)
}

type recordingQueue struct {
	sent []queue.Message
	err  error
}

func (q *recordingQueue) Send(_ context.Context, msg queue.Message) error {
	if q.err != nil {
		return q.err
	}
	q.sent = append(q.sent, msg)
	return nil
}

// flakyRepo fails the next failures[status] Update calls that move an
// export to status.
type flakyRepo struct {
	Repo
	failures map[Status]int
}

func (r *flakyRepo) Update(ctx context.Context, exp Export) error {
	if r.failures[exp.Status] > 0 {
		r.failures[exp.Status]--
		return errors.New("db down")
	}
	return r.Repo.Update(ctx, exp)
}

type brokenStrategy struct{ path render.Path }

func (s brokenStrategy) Path() render.Path { return s.path }

func (s brokenStrategy) Render(context.Context, render.Document) render.Result {
	if s.path == render.PathPrimary {
		return render.Retry(errors.New("browser crashed"))
	}
	return render.Err(errors.New("drawing failed"))
}

type fixture struct {
	svc      *Service
	letters  *letters.Service
	notifier *countingNotifier
	letter   letters.Letter
}

// newFixture wires a service whose primary engine is absent, so every
// export goes through the fallback renderer.
func newFixture(t *testing.T, primary, fallback render.Strategy) *fixture {
	t.Helper()
	if primary == nil {
		primary = render.PrimaryStrategy{Geometry: render.LetterGeometry}
	}
	if fallback == nil {
		fallback = render.FallbackStrategy{Geometry: render.LetterGeometry}
	}
	store := local.New(t.TempDir())
	letterSvc := letters.NewService(letters.NewMemoryRepo(), nil, store)
	notifier := &countingNotifier{}
	renderer := render.NewRenderer(primary, fallback, notifier).
		WithClock(func() time.Time { return time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC) })

	letter, err := letterSvc.Create(context.Background(), "u1", model.Profile{}, letters.Input{
		Name: "Acme Widgets",
		Content: model.LetterContent{
			Header: model.LetterHeader{FullName: "Robin Park", Email: "robin@example.com"},
			Body:   "I would love to build widgets at Acme.",
		},
	})
	require.NoError(t, err)

	return &fixture{
		svc: &Service{
			Letters:  letterSvc,
			Repo:     NewMemoryRepo(),
			Store:    store,
			Renderer: renderer,
		},
		letters:  letterSvc,
		notifier: notifier,
		letter:   letter,
	}
}

func TestDownloadFallsBackWithoutEngine(t *testing.T) {
	f := newFixture(t, nil, nil)

	artifact, err := f.svc.Download(context.Background(), "u1", f.letter.ID, model.Profile{})
	require.NoError(t, err)
	require.Equal(t, render.PathFallback, artifact.Path)
	require.Equal(t, "Acme_Widgets_2024-03-05.pdf", artifact.FileName)
	require.True(t, bytes.HasPrefix(artifact.Data, []byte("%PDF")))
	require.Equal(t, 1, f.notifier.count())
}

func TestDownloadUnknownLetter(t *testing.T) {
	f := newFixture(t, nil, nil)

	_, err := f.svc.Download(context.Background(), "u2", f.letter.ID, model.Profile{})
	require.ErrorIs(t, err, letters.ErrNotFound)
	require.Equal(t, 0, f.notifier.count())
}

func TestRequestWithoutQueueProcessesInline(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	exp, err := f.svc.Request(ctx, "u1", f.letter.ID, "req-1")
	require.NoError(t, err)
	require.Equal(t, StatusSaved, exp.Status)
	require.Equal(t, string(render.PathFallback), exp.RenderPath)
	require.Positive(t, exp.SizeBytes)

	_, rc, err := f.svc.Open(ctx, "u1", exp.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestQueuedExportIsProcessedOnce(t *testing.T) {
	f := newFixture(t, nil, nil)
	q := &recordingQueue{}
	f.svc.Queue = q
	ctx := context.Background()

	exp, err := f.svc.Request(ctx, "u1", f.letter.ID, "req-1")
	require.NoError(t, err)
	require.Equal(t, StatusQueued, exp.Status)
	require.Len(t, q.sent, 1)
	require.Equal(t, exp.ID, q.sent[0].ExportID)
	require.Equal(t, "req-1", q.sent[0].RequestID)

	_, _, err = f.svc.Open(ctx, "u1", exp.ID)
	require.ErrorIs(t, err, ErrNotReady)

	done, err := f.svc.Process(ctx, exp.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSaved, done.Status)

	again, err := f.svc.Process(ctx, exp.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSaved, again.Status)
	require.Equal(t, 1, f.notifier.count())
}

func TestRequestMarksErrorWhenQueueFails(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.svc.Queue = &recordingQueue{err: errors.New("sqs down")}

	_, err := f.svc.Request(context.Background(), "u1", f.letter.ID, "")
	require.Error(t, err)
	require.Equal(t, 0, f.notifier.count())
}

func TestProcessRecordsTerminalFailure(t *testing.T) {
	f := newFixture(t, brokenStrategy{path: render.PathPrimary}, brokenStrategy{path: render.PathFallback})
	f.svc.Queue = &recordingQueue{}
	ctx := context.Background()

	exp, err := f.svc.Request(ctx, "u1", f.letter.ID, "")
	require.NoError(t, err)

	done, err := f.svc.Process(ctx, exp.ID)
	require.NoError(t, err)
	require.Equal(t, StatusError, done.Status)
	require.NotEmpty(t, done.ErrorMessage)
	require.Empty(t, done.StorageKey)
	require.Equal(t, 1, f.notifier.count())
	require.Equal(t, render.TitleFailed, f.notifier.got[0].Title)
}

func TestProcessSaveFailureNotifiesOnce(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.svc.Queue = &recordingQueue{}
	f.svc.Repo = &flakyRepo{Repo: NewMemoryRepo(), failures: map[Status]int{StatusSaved: 1}}
	ctx := context.Background()

	exp, err := f.svc.Request(ctx, "u1", f.letter.ID, "")
	require.NoError(t, err)

	first, err := f.svc.Process(ctx, exp.ID)
	require.NoError(t, err)
	require.Equal(t, StatusError, first.Status)
	require.Empty(t, first.StorageKey)

	second, err := f.svc.Process(ctx, exp.ID)
	require.NoError(t, err)
	require.Equal(t, StatusError, second.Status)

	require.Equal(t, 1, f.notifier.count())
	require.Equal(t, render.TitleFailed, f.notifier.got[0].Title)
}

func TestProcessUnrecordedFailureIsNotRetried(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.svc.Queue = &recordingQueue{}
	f.svc.Repo = &flakyRepo{Repo: NewMemoryRepo(), failures: map[Status]int{StatusSaved: 1, StatusError: 1}}
	ctx := context.Background()

	exp, err := f.svc.Request(ctx, "u1", f.letter.ID, "")
	require.NoError(t, err)

	done, err := f.svc.Process(ctx, exp.ID)
	require.NoError(t, err)
	require.Equal(t, StatusError, done.Status)
	require.Equal(t, 1, f.notifier.count())
}

func TestProcessDeletedLetter(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.svc.Queue = &recordingQueue{}
	ctx := context.Background()

	exp, err := f.svc.Request(ctx, "u1", f.letter.ID, "")
	require.NoError(t, err)
	require.NoError(t, f.letters.Delete(ctx, "u1", f.letter.ID))

	done, err := f.svc.Process(ctx, exp.ID)
	require.NoError(t, err)
	require.Equal(t, StatusError, done.Status)
	require.Equal(t, 0, f.notifier.count())
}

func TestPreviewIsPNG(t *testing.T) {
	f := newFixture(t, nil, nil)

	png, err := f.svc.Preview(context.Background(), "u1", f.letter.ID, model.Profile{})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}
