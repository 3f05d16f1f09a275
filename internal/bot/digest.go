package bot

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/susu3304/pokerledger/internal/commands"
	"github.com/susu3304/pokerledger/internal/ledger"
)

// digestWorker periodically posts the current settlement to a channel
// whenever it differs from the last one posted.
type digestWorker struct {
	svc       *ledger.Service
	session   digestSession
	channelID string
	interval  time.Duration
	log       zerolog.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	ticker   *time.Ticker

	last string
	// pending is the digest being posted and sent counts its chunks already
	// delivered, so a partial failure resumes at the first unsent chunk.
	pending string
	sent    int
}

// Minimal session interface for sending channel messages.
type digestSession interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

func newDigestWorker(session digestSession, svc *ledger.Service, channelID string, interval time.Duration, log zerolog.Logger) *digestWorker {
	return &digestWorker{
		svc:       svc,
		session:   session,
		channelID: channelID,
		interval:  interval,
		log:       log.With().Str("worker", "digest").Logger(),
		stopChan:  make(chan struct{}),
	}
}

func (w *digestWorker) start() {
	if w == nil {
		return
	}
	w.ticker = time.NewTicker(w.interval)
	go w.loop()
}

func (w *digestWorker) stop() {
	if w == nil {
		return
	}
	w.stopOnce.Do(func() {
		close(w.stopChan)
		if w.ticker != nil {
			w.ticker.Stop()
		}
	})
}

func (w *digestWorker) loop() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-w.stopChan
		cancel()
	}()

	for {
		select {
		case <-w.ticker.C:
			w.tick(ctx)
		case <-w.stopChan:
			return
		}
	}
}

func (w *digestWorker) tick(ctx context.Context) {
	content, err := w.render(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to build settlement digest")
		return
	}
	if content == w.last {
		return
	}

	if err := w.post(ctx, content); err != nil {
		w.log.Warn().Err(err).Str("channel_id", w.channelID).Int("chunks_sent", w.sent).Msg("failed to post settlement digest")
		return
	}
	w.log.Info().Str("channel_id", w.channelID).Msg("posted settlement digest")
}

// post delivers content chunk by chunk. A new content restarts from the first
// chunk; a retry of the same content skips chunks that already went out.
func (w *digestWorker) post(ctx context.Context, content string) error {
	if content != w.pending {
		w.pending = content
		w.sent = 0
	}
	chunks := commands.SplitMessage(strings.Split(content, "\n"))
	for w.sent < len(chunks) {
		if err := w.sendWithRetry(ctx, chunks[w.sent]); err != nil {
			return err
		}
		w.sent++
	}
	w.last = content
	w.pending = ""
	w.sent = 0
	return nil
}

func (w *digestWorker) render(ctx context.Context) (string, error) {
	players, err := w.svc.ListPlayers(ctx)
	if err != nil {
		return "", err
	}
	settlement, err := w.svc.Settlement(ctx)
	if err != nil {
		return "", err
	}
	lines := commands.FormatSettlement(settlement, commands.NameIndex(players))
	return strings.Join(lines, "\n"), nil
}

func (w *digestWorker) sendWithRetry(ctx context.Context, content string) error {
	const attemptTimeout = 12 * time.Second
	const maxAttempts = 2

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		_, err := w.session.ChannelMessageSend(w.channelID, content, discordgo.WithContext(sendCtx))
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isTimeout(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(300+rand.Intn(500)) * time.Millisecond):
		}
	}
	return lastErr
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
