package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	domerrors "github.com/chiahsuan/eatwhat-linebot-go/internal/errors"
	"github.com/chiahsuan/eatwhat-linebot-go/internal/logger"
	"github.com/chiahsuan/eatwhat-linebot-go/internal/metrics"
	"github.com/chiahsuan/eatwhat-linebot-go/internal/storage"
	"github.com/chiahsuan/eatwhat-linebot-go/internal/stringutil"
)

// ShopStore is the persistence surface the dispatcher needs.
// *storage.DB satisfies it; tests substitute an in-memory fake.
type ShopStore interface {
	SaveShop(ctx context.Context, shop *storage.Shop) error
	ListShops(ctx context.Context, chatID string) ([]storage.Shop, error)
	UpdateShop(ctx context.Context, chatID, name string, closedDays []int, rate float64) (*storage.Shop, error)
	DeleteShop(ctx context.Context, chatID, name string) (bool, error)
	DeleteAllShops(ctx context.Context, chatID string) (int64, error)
}

// Config tunes dispatcher behavior. Zero values fall back to defaults.
type Config struct {
	// SamplerMaxAttempts bounds the accept/reject loop of a recommendation.
	SamplerMaxAttempts int
	// MaxShopNameLength is the rune limit on shop names.
	MaxShopNameLength int
	// NamePreviewLength is the rune count echoed back in the too-long
	// rejection message.
	NamePreviewLength int
	// Location resolves "today" for closed-day checks.
	Location *time.Location
}

const (
	defaultSamplerMaxAttempts = 100
	defaultMaxShopNameLength  = 30
	defaultNamePreviewLength  = 15
)

// handlerFunc executes one command line and returns the reply text.
// An empty reply with a nil error means the command intentionally stays
// silent.
type handlerFunc func(ctx context.Context, req *request) (string, error)

// request carries the per-line context a handler operates on.
type request struct {
	chatID string
	cmd    Command
}

// Dispatcher routes parsed command lines to their handlers.
type Dispatcher struct {
	store       ShopStore
	log         *logger.Logger
	metrics     *metrics.Metrics
	rand        RandSource
	now         func() time.Time
	loc         *time.Location
	maxAttempts int
	maxNameLen  int
	previewLen  int
	handlers    map[string]handlerFunc
}

// NewDispatcher wires a dispatcher over the given store.
func NewDispatcher(store ShopStore, log *logger.Logger, m *metrics.Metrics, rnd RandSource, cfg Config) *Dispatcher {
	if cfg.SamplerMaxAttempts <= 0 {
		cfg.SamplerMaxAttempts = defaultSamplerMaxAttempts
	}
	if cfg.MaxShopNameLength <= 0 {
		cfg.MaxShopNameLength = defaultMaxShopNameLength
	}
	if cfg.NamePreviewLength <= 0 {
		cfg.NamePreviewLength = defaultNamePreviewLength
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if rnd == nil {
		rnd = NewSystemRand()
	}

	d := &Dispatcher{
		store:       store,
		log:         log.WithModule("dispatcher"),
		metrics:     m,
		rand:        rnd,
		now:         time.Now,
		loc:         cfg.Location,
		maxAttempts: cfg.SamplerMaxAttempts,
		maxNameLen:  cfg.MaxShopNameLength,
		previewLen:  cfg.NamePreviewLength,
	}
	d.handlers = map[string]handlerFunc{
		KeywordPoke:      d.handlePoke,
		KeywordList:      d.handleList,
		KeywordListToday: d.handleListToday,
		KeywordAdd:       d.handleAdd,
		KeywordUpdate:    d.handleUpdate,
		KeywordRecommend: d.handleRecommend,
		KeywordRemove:    d.handleRemove,
		KeywordRemoveAll: d.handleRemoveAll,
		KeywordDump:      d.handleDump,
		KeywordPickFrom:  d.handlePickFrom,
		KeywordHow:       d.handleHow,
	}
	return d
}

// Dispatch processes a full message text for one conversation and returns
// the combined reply, empty when nothing replies.
//
// Lines run serially in order so a list right after an add in the same
// message sees the new record. A handler failure drops that line's reply
// and the remaining lines still run. Unknown keywords reply only in
// personal chats.
func (d *Dispatcher) Dispatch(ctx context.Context, chatID string, personal bool, text string) string {
	var replies []string
	for _, line := range SplitLines(text) {
		cmd, ok := ParseLine(line)
		if !ok {
			continue
		}

		handler, known := d.handlers[cmd.Keyword]
		if !known {
			// Free-text keywords would blow up label cardinality.
			d.metrics.RecordCommand("unknown", "unknown")
			if personal {
				replies = append(replies, msgUnknown)
			}
			continue
		}

		reply, err := handler(ctx, &request{chatID: chatID, cmd: cmd})
		if err != nil {
			d.metrics.RecordCommand(cmd.Keyword, "error")
			d.log.WithError(err).
				WithField("chat_id", chatID).
				WithField("command", cmd.Keyword).
				Error("command failed")
			continue
		}
		d.metrics.RecordCommand(cmd.Keyword, "success")
		if reply != "" {
			replies = append(replies, reply)
		}
	}
	return strings.Join(replies, "\n")
}

// PurgeConversation deletes every record of a conversation. Called for
// unfollow and leave events, which carry no reply token.
func (d *Dispatcher) PurgeConversation(ctx context.Context, chatID string) error {
	deleted, err := d.store.DeleteAllShops(ctx, chatID)
	if err != nil {
		d.metrics.RecordStoreError("delete_all")
		return err
	}
	if deleted > 0 {
		d.log.WithField("chat_id", chatID).
			WithField("deleted", deleted).
			Info("conversation records purged")
	}
	return nil
}

func (d *Dispatcher) handlePoke(context.Context, *request) (string, error) {
	return Greeting(), nil
}

func (d *Dispatcher) handleList(ctx context.Context, req *request) (string, error) {
	shops, err := d.store.ListShops(ctx, req.chatID)
	if err != nil {
		d.metrics.RecordStoreError("list")
		return "", err
	}
	if len(shops) == 0 {
		return msgNothing, nil
	}
	return RenderList(shops), nil
}

func (d *Dispatcher) handleListToday(ctx context.Context, req *request) (string, error) {
	shops, err := d.store.ListShops(ctx, req.chatID)
	if err != nil {
		d.metrics.RecordStoreError("list")
		return "", err
	}
	today := d.weekday()
	open := make([]storage.Shop, 0, len(shops))
	for _, shop := range shops {
		if !shop.ClosedOn(today) {
			open = append(open, shop)
		}
	}
	if len(open) == 0 {
		return msgNothing, nil
	}
	return RenderList(open), nil
}

func (d *Dispatcher) handleAdd(ctx context.Context, req *request) (string, error) {
	name := req.cmd.TargetName()
	if name == "" {
		return msgNameMissing, nil
	}
	if stringutil.RuneLength(name) > d.maxNameLen {
		return msgNameTooLong(stringutil.TruncateRunes(name, d.previewLen)), nil
	}

	opts := ParseOptions(req.cmd.Options())
	shop := &storage.Shop{
		ChatID:     req.chatID,
		Name:       name,
		ClosedDays: opts.ClosedDays,
		Rate:       opts.Rate,
	}
	if err := d.store.SaveShop(ctx, shop); err != nil {
		if errors.Is(err, domerrors.ErrDuplicateShop) {
			return msgDuplicate(name), nil
		}
		d.metrics.RecordStoreError("save")
		return "", err
	}
	return msgAdded(Render(shop)), nil
}

func (d *Dispatcher) handleUpdate(ctx context.Context, req *request) (string, error) {
	name := req.cmd.TargetName()
	if name == "" {
		return msgNameMissing, nil
	}

	opts := ParseOptions(req.cmd.Options())
	shop, err := d.store.UpdateShop(ctx, req.chatID, name, opts.ClosedDays, opts.Rate)
	if err != nil {
		if errors.Is(err, domerrors.ErrNotFound) {
			return msgUpdateMissing(name), nil
		}
		d.metrics.RecordStoreError("update")
		return "", err
	}
	return msgUpdated(Render(shop)), nil
}

func (d *Dispatcher) handleRecommend(ctx context.Context, req *request) (string, error) {
	shops, err := d.store.ListShops(ctx, req.chatID)
	if err != nil {
		d.metrics.RecordStoreError("list")
		return "", err
	}

	// "-" prefixed args exclude shops by name for this draw only.
	excluded := make(map[string]bool, len(req.cmd.Args))
	for _, arg := range req.cmd.Args {
		if name, ok := strings.CutPrefix(arg, "-"); ok && name != "" {
			excluded[name] = true
		}
	}

	today := d.weekday()
	candidates := make([]storage.Shop, 0, len(shops))
	for _, shop := range shops {
		if excluded[shop.Name] || shop.ClosedOn(today) {
			continue
		}
		candidates = append(candidates, shop)
	}

	picked, attempts := WeightedPick(d.rand, candidates, d.maxAttempts)
	if attempts > 0 {
		d.metrics.RecordSamplerAttempts(attempts)
	}
	if picked == nil {
		if len(candidates) > 0 {
			d.metrics.RecordSamplerExhausted()
		}
		return msgNothing, nil
	}
	return Render(picked), nil
}

func (d *Dispatcher) handleRemove(ctx context.Context, req *request) (string, error) {
	name := req.cmd.TargetName()
	if name == "" {
		return msgNameMissing, nil
	}

	deleted, err := d.store.DeleteShop(ctx, req.chatID, name)
	if err != nil {
		d.metrics.RecordStoreError("delete")
		return "", err
	}
	if !deleted {
		return msgRemoveMissing(name), nil
	}
	return msgRemoved(name), nil
}

func (d *Dispatcher) handleRemoveAll(ctx context.Context, req *request) (string, error) {
	if _, err := d.store.DeleteAllShops(ctx, req.chatID); err != nil {
		d.metrics.RecordStoreError("delete_all")
		return "", err
	}
	return msgRemoveAllDone, nil
}

func (d *Dispatcher) handleDump(ctx context.Context, req *request) (string, error) {
	shops, err := d.store.ListShops(ctx, req.chatID)
	if err != nil {
		d.metrics.RecordStoreError("list")
		return "", err
	}
	if len(shops) == 0 {
		return msgNothing, nil
	}
	lines := make([]string, len(shops))
	for i := range shops {
		lines[i] = DumpLine(&shops[i])
	}
	return strings.Join(lines, "\n"), nil
}

func (d *Dispatcher) handlePickFrom(_ context.Context, req *request) (string, error) {
	if len(req.cmd.Args) == 0 {
		return msgNothing, nil
	}
	return UniformPick(d.rand, req.cmd.Args), nil
}

func (d *Dispatcher) handleHow(context.Context, *request) (string, error) {
	return "", nil
}

func (d *Dispatcher) weekday() int {
	return int(d.now().In(d.loc).Weekday())
}
