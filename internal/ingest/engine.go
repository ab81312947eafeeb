package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Thashar/Stalker-sub001/internal/align"
	"github.com/Thashar/Stalker-sub001/internal/config"
	"github.com/Thashar/Stalker-sub001/internal/imageprep"
	"github.com/Thashar/Stalker-sub001/internal/isoweek"
	"github.com/Thashar/Stalker-sub001/internal/logging"
	"github.com/Thashar/Stalker-sub001/internal/notify"
	"github.com/Thashar/Stalker-sub001/internal/platform"
	"github.com/Thashar/Stalker-sub001/internal/punish"
	"github.com/Thashar/Stalker-sub001/internal/queue"
	"github.com/Thashar/Stalker-sub001/internal/results"
	"github.com/Thashar/Stalker-sub001/internal/roster"
	"github.com/Thashar/Stalker-sub001/internal/session"
)

// Recognizer extracts text from one preprocessed image. The production
// implementation is the ocr.Client wrapping the external engine binary.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// ErrNoSession is returned when a workflow call arrives for a user without a
// live session in the guild.
var ErrNoSession = errors.New("no active session")

// Deps are the collaborators an engine is built from. Adapter defaults to
// the disconnected gateway and Notifier may be nil, in which case lifecycle
// notifications are skipped.
type Deps struct {
	Config     *config.Config
	Adapter    platform.Adapter
	Recognizer Recognizer
	Store      *results.Store
	Ledger     *punish.Ledger
	Notifier   notify.Service
	Logger     *slog.Logger
}

// Engine drives ingestion sessions for every configured guild.
type Engine struct {
	cfg      *config.Config
	adapter  platform.Adapter
	rosters  *roster.Service
	recog    Recognizer
	prep     imageprep.Params
	sink     *imageprep.Sink
	sessions *session.Manager
	coord    *queue.Coordinator
	store    *results.Store
	ledger   *punish.Ledger
	enforcer *Enforcer
	notifier notify.Service
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures the engine.
type Option func(*Engine)

// WithNow injects the clock used for week derivation, scratch file names,
// and sweeps (primarily for tests).
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New builds an engine. Config, Recognizer, Store, and Ledger are required.
func New(deps Deps, opts ...Option) (*Engine, error) {
	if deps.Config == nil {
		return nil, errors.New("ingest: config required")
	}
	if deps.Recognizer == nil {
		return nil, errors.New("ingest: recognizer required")
	}
	if deps.Store == nil {
		return nil, errors.New("ingest: results store required")
	}
	if deps.Ledger == nil {
		return nil, errors.New("ingest: punishment ledger required")
	}
	adapter := deps.Adapter
	if adapter == nil {
		adapter = platform.Disconnected{}
	}

	e := &Engine{
		cfg:      deps.Config,
		adapter:  adapter,
		rosters:  roster.NewService(platform.NewRetryingFetcher(adapter), deps.Logger),
		recog:    deps.Recognizer,
		prep:     prepParams(deps.Config.Preprocess),
		sessions: session.NewManager(deps.Config.InactivityTimeout(), deps.Logger),
		store:    deps.Store,
		ledger:   deps.Ledger,
		enforcer: NewEnforcer(adapter, deps.Logger),
		notifier: deps.Notifier,
		logger:   logging.NewComponentLogger(deps.Logger, "ingest"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	// The coordinator shares the engine clock so reservation expiry and the
	// sweeps agree on what "now" means.
	e.coord = queue.NewCoordinator(deps.Config.ReservationTimeout(), deps.Logger, queue.WithNow(e.now))
	if deps.Config.Preprocess.SaveProcessed {
		e.sink = imageprep.NewSink(deps.Config.Paths.ProcessedDir, deps.Config.Preprocess.MaxProcessedFiles, deps.Logger)
	}
	return e, nil
}

func prepParams(p config.Preprocess) imageprep.Params {
	return imageprep.Params{
		UpscaleFactor: p.UpscaleFactor,
		Gamma:         p.Gamma,
		MedianSize:    p.MedianSize,
		BlurSigma:     p.BlurSigma,
		ContrastGain:  p.ContrastGain,
		WhiteCutoff:   p.WhiteCutoff,
	}
}

// Button IDs the gateway echoes back when a prompt choice is clicked.
const (
	ButtonDone        = "submit_done"
	ButtonCompleteYes = "complete_yes"
	ButtonCompleteNo  = "complete_no"
	ButtonSave        = "save"
	ButtonNextRound   = "next_round"
	ButtonCancel      = "cancel"
	ButtonOverwrite   = "overwrite_yes"
	ButtonKeep        = "overwrite_no"
)

// StartResult reports how an ingestion invocation was handled.
type StartResult struct {
	// Started is true when a session was created and the user may upload.
	Started bool
	// Queued is true when the slot was busy and the user joined the line.
	Queued bool
	// Position is the 1-based queue position when Queued.
	Position int
	// Session is the live session when Started.
	Session *session.Session
}

// StartIngestion handles a phase-1 or phase-2 invocation. The handle is the
// public reply the gateway created for the command; every later stage edits
// it. A busy slot queues the user; validation failures end the workflow with
// one explanatory prompt.
func (e *Engine) StartIngestion(ctx context.Context, guildID, channelID, userID, clan string, phase int, handle platform.InteractionHandle) (*StartResult, error) {
	guild, ok := e.cfg.GuildByID(guildID)
	if !ok {
		return nil, fmt.Errorf("guild %s not configured", guildID)
	}
	clan, ok = matchClan(guild, clan)
	if !ok {
		e.editPrompt(ctx, handle, platform.Prompt{
			Content: fmt.Sprintf("Unknown clan. Configured clans: %s.", strings.Join(guild.Clans, ", ")),
		})
		return &StartResult{}, nil
	}
	if phase != 1 && phase != 2 {
		return nil, fmt.Errorf("phase must be 1 or 2, got %d", phase)
	}

	adm := e.coord.TryAdmit(guildID, userID)
	if !adm.Admitted {
		e.editPrompt(ctx, handle, platform.Prompt{
			Content: fmt.Sprintf("Another ingestion is running in this guild. You are number %d in line; you will get a direct message when it is your turn.", adm.Position),
		})
		return &StartResult{Queued: true, Position: adm.Position}, nil
	}
	e.coord.RemoveFromQueue(guildID, userID)

	sess, err := e.sessions.Create(userID, guildID, channelID, clan, phase)
	if errors.Is(err, session.ErrSessionExists) {
		e.editPrompt(ctx, handle, platform.Prompt{
			Content: "You already have an ingestion running in this guild. Finish or cancel it first.",
		})
		return &StartResult{}, nil
	}
	if err != nil {
		e.releaseSlot(ctx, guildID)
		return nil, err
	}
	sess.SetInteraction(handle)

	members, err := e.rosters.Roster(ctx, guild, userID)
	if err != nil {
		e.failSession(ctx, sess, "Could not fetch the guild roster. Please try again later.")
		return nil, fmt.Errorf("resolve roster: %w", err)
	}
	if len(members) == 0 {
		e.failSession(ctx, sess, "You must hold exactly one of the configured target roles to run an ingestion.")
		return &StartResult{}, nil
	}

	snapPath := roster.SnapshotPath(e.cfg.SessionScratchDir(), sess.ID)
	if err := roster.SaveSnapshot(snapPath, roster.NewSnapshot(guildID, userID, members)); err != nil {
		e.failSession(ctx, sess, "Could not prepare the session. Please try again later.")
		return nil, fmt.Errorf("save roster snapshot: %w", err)
	}
	sess.SetRosterSnapshotPath(snapPath)

	if err := e.updatePrompt(ctx, sess, platform.Prompt{
		Content: fmt.Sprintf("Phase %d ingestion started for clan %s with %d roster members. Upload score screenshots, then press Done.", phase, clan, len(members)),
		Buttons: []platform.Button{{ID: ButtonDone, Label: "Done"}, {ID: ButtonCancel, Label: "Cancel"}},
	}); err != nil {
		return nil, err
	}

	e.notifySessionStarted(ctx, guild.Name, clan, phase, userID)
	e.logger.Info("ingestion started",
		logging.String(logging.FieldSessionID, sess.ID),
		logging.String(logging.FieldGuildID, guildID),
		logging.String(logging.FieldUserID, userID),
		logging.String(logging.FieldClan, clan),
		logging.Int(logging.FieldPhase, phase),
	)
	return &StartResult{Started: true, Session: sess}, nil
}

// matchClan resolves the user-typed clan against the guild's configured
// list, case-insensitively, returning the canonical spelling.
func matchClan(guild *config.Guild, clan string) (string, bool) {
	clan = strings.TrimSpace(clan)
	for _, known := range guild.Clans {
		if strings.EqualFold(known, clan) {
			return known, true
		}
	}
	return "", false
}

// SubmitResult reports one batch of uploaded screenshots.
type SubmitResult struct {
	Processed int
	Failed    int
	// Skipped counts attachments beyond the per-batch cap.
	Skipped int
}

// SubmitImages downloads, preprocesses, recognizes, and aligns a batch of
// uploaded screenshots into the user's session. Per-image failures are
// recorded on the image and never abort the batch.
func (e *Engine) SubmitImages(ctx context.Context, guildID, userID string, attachments []platform.Attachment) (*SubmitResult, error) {
	sess, ok := e.sessions.Get(guildID, userID)
	if !ok {
		return nil, ErrNoSession
	}

	result := &SubmitResult{}
	if limit := e.cfg.Session.MaxImagesPerBatch; limit > 0 && len(attachments) > limit {
		result.Skipped = len(attachments) - limit
		attachments = attachments[:limit]
	}

	names, err := e.rosterNames(ctx, sess)
	if err != nil {
		return nil, err
	}

	base := sess.ImageCount()
	for i, att := range attachments {
		res := e.processAttachment(ctx, sess, att, base+i, names)
		if res.Err != "" {
			result.Failed++
		} else {
			result.Processed++
		}
		if err := sess.AddImage(res); err != nil {
			return nil, err
		}
	}

	content := fmt.Sprintf("%d screenshot(s) processed this round.", sess.ImageCount())
	if result.Failed > 0 {
		content += fmt.Sprintf(" %d failed recognition and will not count.", result.Failed)
	}
	if result.Skipped > 0 {
		content += fmt.Sprintf(" %d over the batch limit were ignored.", result.Skipped)
	}
	content += " Upload more or press Done."
	if err := e.updatePrompt(ctx, sess, platform.Prompt{
		Content: content,
		Buttons: []platform.Button{{ID: ButtonDone, Label: "Done"}, {ID: ButtonCancel, Label: "Cancel"}},
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// processAttachment runs one screenshot through download, preprocess,
// recognition, and alignment. Failures land in the result's Err.
func (e *Engine) processAttachment(ctx context.Context, sess *session.Session, att platform.Attachment, index int, names []string) session.ImageResult {
	res := session.ImageResult{ImageID: att.ID}

	data, err := e.adapter.Download(ctx, att.URL)
	if err != nil {
		res.Err = fmt.Sprintf("download: %v", err)
		return res
	}

	scratch := e.cfg.SessionScratchDir()
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		res.Err = fmt.Sprintf("scratch dir: %v", err)
		return res
	}
	name := fmt.Sprintf("%s_%d_%d.png", sess.ID, index, e.now().UnixMilli())
	path := filepath.Join(scratch, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		res.Err = fmt.Sprintf("save image: %v", err)
		return res
	}
	sess.AddDownloadedFile(path)

	processed, err := imageprep.Process(data, e.prep)
	if err != nil {
		res.Err = fmt.Sprintf("preprocess: %v", err)
		return res
	}
	if saveErr := e.sink.Save(name, processed); saveErr != nil {
		e.logger.Warn("processed image not archived", logging.Error(saveErr))
	}

	text, err := e.recog.Recognize(ctx, processed)
	if err != nil {
		res.Err = fmt.Sprintf("recognize: %v", err)
		logging.WarnWithContext(e.logger, "screenshot recognition failed", "recognition_failed",
			logging.String(logging.FieldSessionID, sess.ID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "image recorded without readings"),
		)
		return res
	}

	res.Players = align.ExtractAllPlayersWithScores(text, names)
	return res
}

// rosterNames loads the session's frozen roster display names. A missing
// snapshot falls back to a live roster fetch.
func (e *Engine) rosterNames(ctx context.Context, sess *session.Session) ([]string, error) {
	snap, err := roster.LoadSnapshot(sess.RosterSnapshotPath())
	if err == nil {
		return snap.DisplayNames(), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load roster snapshot: %w", err)
	}

	guild, ok := e.cfg.GuildByID(sess.GuildID)
	if !ok {
		return nil, fmt.Errorf("guild %s not configured", sess.GuildID)
	}
	members, err := e.rosters.Roster(ctx, guild, sess.UserID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.DisplayName)
	}
	return names, nil
}

// BeginCompletionCheck moves the session to the completeness question after
// the user presses Done.
func (e *Engine) BeginCompletionCheck(ctx context.Context, guildID, userID string) error {
	sess, ok := e.sessions.Get(guildID, userID)
	if !ok {
		return ErrNoSession
	}
	if err := sess.BeginConfirmation(); err != nil {
		if errors.Is(err, session.ErrNoImages) {
			return e.updatePrompt(ctx, sess, platform.Prompt{
				Content: "No screenshots received yet. Upload at least one before finishing.",
				Buttons: []platform.Button{{ID: ButtonCancel, Label: "Cancel"}},
			})
		}
		return err
	}
	return e.updatePrompt(ctx, sess, platform.Prompt{
		Content: fmt.Sprintf("Received %d screenshot(s). Is the set complete?", sess.ImageCount()),
		Buttons: []platform.Button{{ID: ButtonCompleteYes, Label: "Yes, complete"}, {ID: ButtonCompleteNo, Label: "No, more to upload"}},
	})
}

// ResumeUploads steps back to collecting images after the user answers "not
// complete".
func (e *Engine) ResumeUploads(ctx context.Context, guildID, userID string) error {
	sess, ok := e.sessions.Get(guildID, userID)
	if !ok {
		return ErrNoSession
	}
	if err := sess.ResumeUploads(); err != nil {
		return err
	}
	return e.updatePrompt(ctx, sess, platform.Prompt{
		Content: "Keep uploading screenshots, then press Done.",
		Buttons: []platform.Button{{ID: ButtonDone, Label: "Done"}, {ID: ButtonCancel, Label: "Cancel"}},
	})
}

// RoundOutcome reports where a completed round landed.
type RoundOutcome struct {
	// Conflicts lists the readings needing a user decision, in presentation
	// order. Empty means the round went straight to final confirmation.
	Conflicts []session.Conflict
}

// CompleteRound classifies the aggregated readings after the user confirms
// the set is complete. Silent auto-accepts are applied; open conflicts are
// prompted one at a time.
func (e *Engine) CompleteRound(ctx context.Context, guildID, userID string) (*RoundOutcome, error) {
	sess, ok := e.sessions.Get(guildID, userID)
	if !ok {
		return nil, ErrNoSession
	}
	conflicts, err := sess.ConfirmComplete()
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		if err := e.promptConflict(ctx, sess, conflicts[0], len(conflicts)); err != nil {
			return nil, err
		}
		return &RoundOutcome{Conflicts: conflicts}, nil
	}
	if err := e.promptFinal(ctx, sess); err != nil {
		return nil, err
	}
	return &RoundOutcome{}, nil
}

// ResolveConflict records the user's choice for one conflicted nickname and
// advances to the next conflict or to final confirmation.
func (e *Engine) ResolveConflict(ctx context.Context, guildID, userID, nick string, value int) (int, error) {
	sess, ok := e.sessions.Get(guildID, userID)
	if !ok {
		return 0, ErrNoSession
	}
	remaining, err := sess.ResolveConflict(nick, value)
	if err != nil {
		return 0, err
	}
	if remaining > 0 {
		pending := sess.PendingConflicts()
		return remaining, e.promptConflict(ctx, sess, pending[0], remaining)
	}
	return 0, e.promptFinal(ctx, sess)
}

// promptConflict renders one conflict with a button per observed value.
func (e *Engine) promptConflict(ctx context.Context, sess *session.Session, c session.Conflict, open int) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Conflicting readings for %s (%d conflict(s) open). Pick the correct score:", c.Nick, open)
	buttons := make([]platform.Button, 0, len(c.Values))
	for _, v := range c.Values {
		fmt.Fprintf(&b, "\n- %d (seen %d time(s))", v.Value, v.Count)
		buttons = append(buttons, platform.Button{
			ID:    fmt.Sprintf("value_%d", v.Value),
			Label: fmt.Sprintf("%d", v.Value),
		})
	}
	return e.updatePrompt(ctx, sess, platform.Prompt{Content: b.String(), Buttons: buttons})
}

// promptFinal renders the final confirmation with statistics. Phase 2
// sessions mid-run offer the next round instead of a save.
func (e *Engine) promptFinal(ctx context.Context, sess *session.Session) error {
	stats := sess.Statistics()
	content := fmt.Sprintf("Round summary: %d players, %d above zero, %d at zero, top-30 sum %d.",
		stats.UniqueNicks, stats.AboveZero, stats.ZeroCount, stats.Top30Sum)

	if sess.Phase == 2 && sess.CurrentRound() < 3 {
		return e.updatePrompt(ctx, sess, platform.Prompt{
			Content: content + fmt.Sprintf(" Start round %d?", sess.CurrentRound()+1),
			Buttons: []platform.Button{{ID: ButtonNextRound, Label: "Next round"}, {ID: ButtonCancel, Label: "Cancel"}},
		})
	}
	return e.updatePrompt(ctx, sess, platform.Prompt{
		Content: content + " Save these results?",
		Buttons: []platform.Button{{ID: ButtonSave, Label: "Save"}, {ID: ButtonCancel, Label: "Cancel"}},
	})
}

// AdvanceRound freezes the finished phase-2 round and reopens uploads for
// the next one.
func (e *Engine) AdvanceRound(ctx context.Context, guildID, userID string) error {
	sess, ok := e.sessions.Get(guildID, userID)
	if !ok {
		return ErrNoSession
	}
	if err := sess.StartNextRound(); err != nil {
		return err
	}
	return e.updatePrompt(ctx, sess, platform.Prompt{
		Content: fmt.Sprintf("Round %d: upload score screenshots, then press Done.", sess.CurrentRound()),
		Buttons: []platform.Button{{ID: ButtonDone, Label: "Done"}, {ID: ButtonCancel, Label: "Cancel"}},
	})
}

// SaveOutcome reports a save attempt.
type SaveOutcome struct {
	// NeedsOverwrite is true when a record for the week already exists and
	// the user has not yet confirmed replacing it.
	NeedsOverwrite bool
	Saved          bool
	Year           int
	Week           int
	PlayerCount    int
	Top30Sum       int
	// Dropped lists nicknames whose conflicts stayed unresolved.
	Dropped []string
}

// Save writes the session's final results to the week record and ends the
// session. An existing record for the week prompts for overwrite unless
// confirmOverwrite is set; declining is the caller sending Cancel.
func (e *Engine) Save(ctx context.Context, guildID, userID string, confirmOverwrite bool) (*SaveOutcome, error) {
	sess, ok := e.sessions.Get(guildID, userID)
	if !ok {
		return nil, ErrNoSession
	}
	guild, guildOK := e.cfg.GuildByID(guildID)
	if !guildOK {
		return nil, fmt.Errorf("guild %s not configured", guildID)
	}

	year, week := isoweek.For(e.now())
	exists, err := e.store.Exists(sess.Phase, guildID, year, week, sess.Clan)
	if err != nil {
		return nil, err
	}
	if exists && !confirmOverwrite {
		if err := e.updatePrompt(ctx, sess, platform.Prompt{
			Content: fmt.Sprintf("Results for week %d/%d and clan %s already exist. Overwrite them?", week, year, sess.Clan),
			Buttons: []platform.Button{{ID: ButtonOverwrite, Label: "Overwrite"}, {ID: ButtonKeep, Label: "Keep existing"}},
		}); err != nil {
			return nil, err
		}
		return &SaveOutcome{NeedsOverwrite: true, Year: year, Week: week}, nil
	}

	ids := e.snapshotUserIDs(sess)
	outcome := &SaveOutcome{Year: year, Week: week}

	switch sess.Phase {
	case 1:
		finals, dropped := sess.FinalResults()
		outcome.Dropped = dropped
		if exists {
			if _, err := e.store.DeleteForWeek(1, guildID, year, week, sess.Clan); err != nil {
				return nil, err
			}
		}
		for _, p := range finals {
			entry := results.ScoreEntry{UserID: ids[p.Nick], DisplayName: p.Nick, Score: p.Score}
			if err := e.store.SavePhase1Player(guildID, year, week, sess.Clan, entry, userID); err != nil {
				return nil, err
			}
		}
		stats := sess.Statistics()
		outcome.PlayerCount = stats.UniqueNicks
		outcome.Top30Sum = stats.Top30Sum
	case 2:
		rounds, summary, err := sess.SumPhase2Results()
		if err != nil {
			return nil, err
		}
		converted := make([]results.Round, 0, len(rounds))
		for _, round := range rounds {
			converted = append(converted, results.Round{Players: toEntries(round, ids)})
		}
		summaryEntries := toEntries(summary, ids)
		if err := e.store.SavePhase2Results(guildID, year, week, sess.Clan, converted, summaryEntries, userID); err != nil {
			return nil, err
		}
		outcome.PlayerCount = len(summaryEntries)
		outcome.Top30Sum = top30(summaryEntries)
	default:
		return nil, fmt.Errorf("unknown phase %d", sess.Phase)
	}

	content := fmt.Sprintf("Saved %d players for week %d/%d, clan %s.", outcome.PlayerCount, week, year, sess.Clan)
	if len(outcome.Dropped) > 0 {
		content += fmt.Sprintf(" Dropped unresolved: %s.", strings.Join(outcome.Dropped, ", "))
	}
	e.editPromptOfSession(ctx, sess, platform.Prompt{Content: content})

	e.notifySessionCompleted(ctx, guild.Name, sess.Clan, sess.Phase, outcome.PlayerCount, outcome.Top30Sum)
	e.logger.Info("ingestion saved",
		logging.String(logging.FieldSessionID, sess.ID),
		logging.String(logging.FieldGuildID, guildID),
		logging.String(logging.FieldClan, sess.Clan),
		logging.Int(logging.FieldPhase, sess.Phase),
		logging.String(logging.FieldWeek, fmt.Sprintf("%d-W%d", year, week)),
		logging.Int("players", outcome.PlayerCount),
	)

	e.endSession(ctx, sess)
	outcome.Saved = true
	return outcome, nil
}

// Cancel ends the user's session without saving.
func (e *Engine) Cancel(ctx context.Context, guildID, userID string) error {
	sess, ok := e.sessions.Get(guildID, userID)
	if !ok {
		return ErrNoSession
	}
	e.editPromptOfSession(ctx, sess, platform.Prompt{Content: "Ingestion cancelled. Nothing was saved."})
	e.endSession(ctx, sess)
	return nil
}

// snapshotUserIDs maps roster display names to user IDs from the session's
// snapshot. Nicknames without a snapshot entry map to an empty ID.
func (e *Engine) snapshotUserIDs(sess *session.Session) map[string]string {
	ids := make(map[string]string)
	snap, err := roster.LoadSnapshot(sess.RosterSnapshotPath())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			e.logger.Warn("roster snapshot unreadable at save",
				logging.String(logging.FieldSessionID, sess.ID),
				logging.Error(err),
			)
		}
		return ids
	}
	for _, m := range snap.Members {
		ids[m.DisplayName] = m.UserID
	}
	return ids
}

func toEntries(scores []align.PlayerScore, ids map[string]string) []results.ScoreEntry {
	entries := make([]results.ScoreEntry, 0, len(scores))
	for _, p := range scores {
		entries = append(entries, results.ScoreEntry{UserID: ids[p.Nick], DisplayName: p.Nick, Score: p.Score})
	}
	return entries
}

func top30(entries []results.ScoreEntry) int {
	scores := make([]int, 0, len(entries))
	for _, p := range entries {
		scores = append(scores, p.Score)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(scores)))
	sum := 0
	for i, s := range scores {
		if i >= 30 {
			break
		}
		sum += s
	}
	return sum
}

// endSession detaches the session, removes its files, and releases the
// guild slot with the promotion cascade.
func (e *Engine) endSession(ctx context.Context, sess *session.Session) {
	e.sessions.Remove(sess.GuildID, sess.UserID)
	e.cleanupFiles(sess)
	sess.Clear()
	e.releaseSlot(ctx, sess.GuildID)
}

// failSession ends a just-created session with one explanatory prompt. The
// single message is the only signal the user gets for a failed workflow.
func (e *Engine) failSession(ctx context.Context, sess *session.Session, message string) {
	if handle, ok := sess.Interaction(); ok {
		e.editPrompt(ctx, handle, platform.Prompt{Content: message})
	} else if _, err := e.adapter.SendMessage(ctx, sess.ChannelID, message); err != nil {
		e.logger.Warn("failure message not delivered", logging.Error(err))
	}
	e.endSession(ctx, sess)
}

// cleanupFiles removes the session's downloaded images and roster snapshot.
func (e *Engine) cleanupFiles(sess *session.Session) {
	for _, path := range sess.DownloadedFiles() {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			e.logger.Warn("session file not removed",
				logging.String(logging.FieldSessionID, sess.ID),
				logging.String("path", path),
				logging.Error(err),
			)
		}
	}
	if path := sess.RosterSnapshotPath(); path != "" {
		if err := roster.DeleteSnapshot(path); err != nil {
			e.logger.Warn("roster snapshot not removed",
				logging.String(logging.FieldSessionID, sess.ID),
				logging.Error(err),
			)
		}
	}
}

// releaseSlot frees the guild slot and delivers the promotion and position
// notices by direct message.
func (e *Engine) releaseSlot(ctx context.Context, guildID string) {
	res := e.coord.Release(guildID)
	e.deliverQueueNotices(ctx, res.Promoted, res.Positions)
}

// deliverQueueNotices DMs a promoted waiter and everyone whose position
// moved. Delivery failures are logged, never fatal.
func (e *Engine) deliverQueueNotices(ctx context.Context, promoted *queue.Promotion, positions []queue.PositionUpdate) {
	if promoted != nil {
		msg := fmt.Sprintf("It is your turn. Your slot is reserved until %s; start your ingestion before then or it goes to the next person.",
			promoted.ExpiresAt.Format("15:04:05"))
		if err := e.adapter.SendDirectMessage(ctx, promoted.UserID, msg); err != nil {
			e.logger.Warn("promotion notice not delivered",
				logging.String(logging.FieldUserID, promoted.UserID),
				logging.Error(err),
			)
		}
	}
	for _, pos := range positions {
		msg := fmt.Sprintf("The queue moved: you are now number %d in line.", pos.Position)
		if err := e.adapter.SendDirectMessage(ctx, pos.UserID, msg); err != nil {
			e.logger.Warn("position notice not delivered",
				logging.String(logging.FieldUserID, pos.UserID),
				logging.Error(err),
			)
		}
	}
}

// updatePrompt edits the session's public reply. An expired interaction
// tears the session down softly and surfaces the expiry to the caller.
func (e *Engine) updatePrompt(ctx context.Context, sess *session.Session, prompt platform.Prompt) error {
	handle, ok := sess.Interaction()
	if !ok {
		return nil
	}
	err := e.adapter.UpdatePrompt(ctx, handle, prompt)
	if err == nil {
		return nil
	}
	if errors.Is(err, platform.ErrInteractionExpired) {
		logging.WarnWithContext(e.logger, "interaction expired", "interaction_expired",
			logging.String(logging.FieldSessionID, sess.ID),
			logging.String(logging.FieldGuildID, sess.GuildID),
			logging.String(logging.FieldImpact, "session torn down without saving"),
		)
		if _, sendErr := e.adapter.SendMessage(ctx, sess.ChannelID, "The session prompt expired, so the ingestion was ended. Please start again."); sendErr != nil {
			e.logger.Warn("expiry message not delivered", logging.Error(sendErr))
		}
		e.endSession(ctx, sess)
		return err
	}
	return fmt.Errorf("update prompt: %w", err)
}

// editPrompt edits a prompt outside any session lifecycle, logging failures.
func (e *Engine) editPrompt(ctx context.Context, handle platform.InteractionHandle, prompt platform.Prompt) {
	if err := e.adapter.UpdatePrompt(ctx, handle, prompt); err != nil {
		e.logger.Warn("prompt update failed", logging.Error(err))
	}
}

// editPromptOfSession is editPrompt against a session's stored handle.
func (e *Engine) editPromptOfSession(ctx context.Context, sess *session.Session, prompt platform.Prompt) {
	if handle, ok := sess.Interaction(); ok {
		e.editPrompt(ctx, handle, prompt)
	}
}

func (e *Engine) notifySessionStarted(ctx context.Context, guildName, clan string, phase int, userName string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.NotifySessionStarted(ctx, guildName, clan, phase, userName); err != nil {
		e.logger.Warn("start notification failed", logging.Error(err))
	}
}

func (e *Engine) notifySessionCompleted(ctx context.Context, guildName, clan string, phase, playerCount, top30Sum int) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.NotifySessionCompleted(ctx, guildName, clan, phase, playerCount, top30Sum); err != nil {
		e.logger.Warn("completion notification failed", logging.Error(err))
	}
}

// SessionInfos snapshots the live sessions for status reporting.
func (e *Engine) SessionInfos() []session.Info {
	return e.sessions.Infos()
}

// QueueStatus snapshots every guild queue for status reporting.
func (e *Engine) QueueStatus() []queue.GuildStatus {
	return e.coord.Status()
}
