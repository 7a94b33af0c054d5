package widget

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedSender blocks every Send until release is closed.
type gatedSender struct {
	calls   atomic.Int32
	release chan struct{}
	reply   string
	err     error
}

func newGatedSender(reply string, err error) *gatedSender {
	return &gatedSender{release: make(chan struct{}), reply: reply, err: err}
}

func (g *gatedSender) Send(ctx context.Context, _ string) (string, error) {
	g.calls.Add(1)
	select {
	case <-g.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return g.reply, g.err
}

func waitDone(t *testing.T, p *Pending) Message {
	t.Helper()
	select {
	case <-p.Done():
		return p.Wait()
	case <-time.After(2 * time.Second):
		t.Fatal("reply was never appended")
		return Message{}
	}
}

func TestNewSeedsWelcomeAndOpeningLine(t *testing.T) {
	w := New(newGatedSender("", nil))

	msgs := w.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleWelcome, msgs[0].Role)
	assert.Equal(t, 1, msgs[0].ID)
	assert.Equal(t, RoleBot, msgs[1].Role)
	assert.Equal(t, OpeningLine, msgs[1].Text)
	assert.Equal(t, StateIdle, w.State())
}

func TestSubmitAppendsUserThenBot(t *testing.T) {
	sender := newGatedSender("Hello from the relay", nil)
	w := New(sender)

	p, err := w.Submit(context.Background(), "Hi there")
	require.NoError(t, err)

	// The user message is visible before the reply arrives.
	msgs := w.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, RoleUser, msgs[2].Role)
	assert.Equal(t, "Hi there", msgs[2].Text)
	assert.Equal(t, p.User(), msgs[2])
	assert.Equal(t, StateAwaitingResponse, w.State())

	close(sender.release)
	reply := waitDone(t, p)

	assert.Equal(t, RoleBot, reply.Role)
	assert.Equal(t, "Hello from the relay", reply.Text)
	assert.Equal(t, StateIdle, w.State())
	assert.Len(t, w.Messages(), 4)
}

func TestSubmitBlankInputIsIgnored(t *testing.T) {
	sender := newGatedSender("", nil)
	w := New(sender)

	for _, input := range []string{"", "   ", "\t\n"} {
		p, err := w.Submit(context.Background(), input)
		assert.ErrorIs(t, err, ErrEmptyInput)
		assert.Nil(t, p)
	}

	assert.Len(t, w.Messages(), 2)
	assert.Equal(t, StateIdle, w.State())
	assert.Zero(t, sender.calls.Load())
}

func TestSubmitWhileAwaitingIsIgnored(t *testing.T) {
	sender := newGatedSender("ok", nil)
	w := New(sender)

	first, err := w.Submit(context.Background(), "first")
	require.NoError(t, err)

	second, err := w.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Nil(t, second)
	assert.Len(t, w.Messages(), 3)

	close(sender.release)
	waitDone(t, first)
	assert.EqualValues(t, 1, sender.calls.Load())

	third, err := w.Submit(context.Background(), "third")
	require.NoError(t, err)
	waitDone(t, third)
	assert.EqualValues(t, 2, sender.calls.Load())
}

func TestConcurrentSubmitsIssueOneCall(t *testing.T) {
	sender := newGatedSender("ok", nil)
	w := New(sender)

	var (
		wg       sync.WaitGroup
		accepted atomic.Int32
		pending  atomic.Pointer[Pending]
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p, err := w.Submit(context.Background(), "rapid"); err == nil {
				accepted.Add(1)
				pending.Store(p)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, accepted.Load())
	close(sender.release)
	waitDone(t, pending.Load())
	assert.EqualValues(t, 1, sender.calls.Load())
}

func TestSubmitFailureAppendsFallback(t *testing.T) {
	sender := newGatedSender("", errors.New("connection refused"))
	close(sender.release)
	w := New(sender)

	p, err := w.Submit(context.Background(), "hello")
	require.NoError(t, err)

	reply := waitDone(t, p)
	assert.Equal(t, FallbackText, reply.Text)
	assert.Equal(t, StateIdle, w.State())
}

func TestIDsStrictlyIncrease(t *testing.T) {
	sender := newGatedSender("ok", nil)
	close(sender.release)

	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	w := New(sender, WithClock(func() time.Time { return clock }))

	p, err := w.Submit(context.Background(), "one")
	require.NoError(t, err)
	waitDone(t, p)
	w.SelectCategory("Water Tech")
	_, err = w.Attach("notes.txt", []byte("plain text"))
	require.NoError(t, err)

	msgs := w.Messages()
	for i, m := range msgs {
		assert.Equal(t, i+1, m.ID)
		assert.Equal(t, clock, m.Timestamp)
	}
}

func TestSelectCategoryAnswersLocally(t *testing.T) {
	sender := newGatedSender("", nil)
	w := New(sender)

	added := w.SelectCategory(Categories[0].Label)
	require.Len(t, added, 2)
	assert.Equal(t, RoleUser, added[0].Role)
	assert.Equal(t, "Solar Solutions", added[0].Text)
	assert.Equal(t, `You selected "Solar Solutions". (This is a placeholder response.)`, added[1].Text)
	assert.Zero(t, sender.calls.Load())
}

func TestAttach(t *testing.T) {
	w := New(newGatedSender("", nil))

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	img, err := w.Attach("panel.png", png)
	require.NoError(t, err)
	require.NotNil(t, img.Attachment)
	assert.True(t, strings.HasPrefix(img.Attachment.ImageDataURI, "data:image/png;base64,"))
	assert.Empty(t, img.Attachment.FileName)

	doc, err := w.Attach("report.pdf", []byte("%PDF-1.7"))
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", doc.Attachment.FileName)
	assert.Empty(t, doc.Attachment.ImageDataURI)

	_, err = w.Attach("", nil)
	assert.ErrorIs(t, err, ErrEmptyAttachment)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "awaiting-response", StateAwaitingResponse.String())
}
