package pipeline

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/major-yy/event-bot/internal/artbeat"
	"github.com/major-yy/event-bot/internal/config"
	"github.com/major-yy/event-bot/internal/digest"
	"github.com/major-yy/event-bot/internal/event"
	"github.com/major-yy/event-bot/internal/fetch"
	"github.com/major-yy/event-bot/internal/ledger"
	"github.com/major-yy/event-bot/internal/logger"
	"github.com/major-yy/event-bot/internal/notifier"
	"github.com/major-yy/event-bot/internal/region"
	"github.com/major-yy/event-bot/internal/walkerplus"
)

// Pipeline wires the collaborators for one run.
type Pipeline struct {
	cfg      *config.Config
	fetcher  fetch.Getter
	ledger   ledger.Ledger
	notifier notifier.Notifier
	counters *logger.Counters

	// Injectable for tests
	sleep func(time.Duration)
	now   func() time.Time
}

// Summary reports what a run did.
type Summary struct {
	RunID      string `json:"run_id"`
	Fetched    int64  `json:"fetched"`
	New        int64  `json:"new"`
	Duplicates int64  `json:"duplicates"`
	Chunks     int64  `json:"chunks"`
}

// New creates a Pipeline over the given collaborators.
func New(cfg *config.Config, fetcher fetch.Getter, led ledger.Ledger, notif notifier.Notifier) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		fetcher:  fetcher,
		ledger:   led,
		notifier: notif,
		counters: logger.NewCounters(),
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

// Run executes one delivery cycle and returns its summary.
func (p *Pipeline) Run() *Summary {
	runID := uuid.NewString()
	logger.Info("run started", logger.Fields{"run_id": runID})

	comp := digest.New(p.cfg.Limits.PerRegion, p.cfg.Limits.Total)
	p.runWalkerPlus(comp)
	p.runArtBeat(comp)
	p.dispatch(comp, runID)

	snap := p.counters.Snapshot()
	summary := &Summary{
		RunID:      runID,
		Fetched:    snap["events.fetched"],
		New:        snap["events.new"],
		Duplicates: snap["events.duplicate"],
		Chunks:     snap["chunks.dispatched"],
	}
	logger.Info("run finished", logger.Fields{
		"run_id":   runID,
		"counters": snap,
	})
	return summary
}

// runWalkerPlus drains the structured-data source. Each query is already
// regional, so its events carry the query's region directly.
func (p *Pipeline) runWalkerPlus(comp *digest.Composer) {
	src := p.cfg.Sources.WalkerPlus
	for _, q := range src.Queries {
		comp.StartPass()
		pinned := region.Parse(q.Region)

		for _, raw := range walkerplus.FetchEvents(p.fetcher, q.URL, src.MaxPages) {
			ev := event.Normalize(raw)
			ev.Region = pinned
			p.process(ev, comp)
		}
	}
}

// runArtBeat drains the heuristic source. Its single listing covers all
// regions, so every event goes through the classifier, with the
// configured default for events no rule can place.
func (p *Pipeline) runArtBeat(comp *digest.Composer) {
	src := p.cfg.Sources.ArtBeat
	comp.StartPass()
	def := p.cfg.Region.DefaultRegion()

	for _, raw := range artbeat.FetchEvents(p.fetcher, src.ListURL, src.MaxItems, p.detailPause) {
		ev := event.Normalize(raw)
		ev.Region = region.ClassifyOrDefault(ev.Venue, ev.OfficialURL, def)
		p.process(ev, comp)
	}
}

// process dedupes one normalized event and accumulates it. Ledger reads
// fail open (a read error never suppresses delivery) and ledger writes
// are logged and swallowed (a write error never aborts the run; the
// event may be re-delivered next run).
func (p *Pipeline) process(ev *event.Event, comp *digest.Composer) {
	p.counters.Incr("events.fetched")

	key := ev.DedupeKey()
	if key == "" {
		p.counters.Incr("events.unkeyed")
		return
	}

	dup, err := p.ledger.Exists(key)
	if err != nil {
		logger.Warn("ledger read failed, treating as new", logger.Fields{
			"key":   key,
			"error": err.Error(),
		})
		dup = false
	}
	if dup {
		p.counters.Incr("events.duplicate")
		return
	}

	if !comp.Add(ev) {
		// Capped out; not recorded, so it is eligible again next run
		p.counters.Incr("events.capped")
		return
	}

	rec := ledger.Record{
		SentDate: p.now().Format("2006-01-02"),
		Name:     ev.Name,
		Period:   ev.Period(),
		Key:      key,
		Venue:    ev.Venue,
	}
	if err := p.ledger.Append(rec); err != nil {
		logger.Warn("ledger write failed, event may be re-delivered", logger.Fields{
			"key":   key,
			"error": err.Error(),
		})
	}
	p.counters.Incr("events.new")
}

// dispatch flattens the buckets and broadcasts the chunks, paced.
func (p *Pipeline) dispatch(comp *digest.Composer, runID string) {
	combined := comp.Render()
	if combined == "" {
		logger.Info("no new events, nothing to dispatch", logger.Fields{
			"run_id": runID,
		})
		return
	}

	chunks := digest.Chunk(combined, p.cfg.Limits.ChunkSize)
	for i, chunk := range chunks {
		if err := p.notifier.Broadcast(chunk); err != nil {
			logger.Error("broadcast failed", logger.Fields{
				"run_id": runID,
				"chunk":  i + 1,
			}, err)
		} else {
			logger.Info("chunk dispatched", logger.Fields{
				"run_id": runID,
				"chunk":  i + 1,
				"total":  len(chunks),
				"length": len([]rune(chunk)),
			})
			p.counters.Incr("chunks.dispatched")
		}

		if i < len(chunks)-1 {
			p.sleep(p.cfg.Pacing.DispatchPause())
		}
	}
}

// detailPause sleeps for a random duration inside the configured
// politeness window. Called between successive detail-page fetches.
func (p *Pipeline) detailPause() {
	min, max := p.cfg.Pacing.DetailWindow()
	d := min
	if max > min {
		d = min + time.Duration(rand.Int63n(int64(max-min)))
	}
	if d > 0 {
		p.sleep(d)
	}
}
