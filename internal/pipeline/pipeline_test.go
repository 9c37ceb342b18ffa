package pipeline

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/major-yy/event-bot/internal/config"
	"github.com/major-yy/event-bot/internal/digest"
	"github.com/major-yy/event-bot/internal/ledger"
	"github.com/major-yy/event-bot/internal/region"
)

const (
	listingURL = "https://www.walkerplus.com/event_list/ar0313/"
	artListURL = "https://www.tokyoartbeat.com/events/condId/most_popular/filter/open"
)

// Two structured events pinned to the tokyo query. The first one's venue
// says 横浜 on purpose: the query region must win over classification.
const listingHTML = `<html><body>
<script type="application/ld+json">
[
  {"@type": "Event", "name": "上野の展示", "startDate": "2024-05-01", "endDate": "2024-05-10",
   "url": "https://example.com/ueno", "location": {"name": "横浜そごう物産展"}},
  {"@type": "Event", "name": "夏祭り", "startDate": "2024-07-01",
   "url": "https://example.com/natsu", "location": {"name": "会場B"}}
]
</script>
</body></html>`

const artListHTML = `<html><body>
<a href="/events/-abc">event</a>
</body></html>`

// One heuristic event whose venue classifies to Kanagawa.
const artDetailHTML = `<html><body>
<h1>横浜の写真展</h1>
<p>会期: 2024年5月1日 〜 2024年5月31日</p>
<p>会場: 横浜美術館</p>
<p>公式サイト</p>
<p><a href="https://yokobi.example.jp/">site</a></p>
</body></html>`

type fakeGetter struct {
	t     *testing.T
	pages map[string]string
}

func (f *fakeGetter) Get(url string) (*goquery.Document, error) {
	html, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("unexpected status code: 404")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		f.t.Fatalf("failed to parse fixture HTML: %v", err)
	}
	return doc, nil
}

func defaultPages() map[string]string {
	return map[string]string{
		listingURL: listingHTML,
		artListURL: artListHTML,
		"https://www.tokyoartbeat.com/events/-abc": artDetailHTML,
	}
}

type recordingNotifier struct {
	texts []string
	err   error
}

func (n *recordingNotifier) Broadcast(text string) error {
	if n.err != nil {
		return n.err
	}
	n.texts = append(n.texts, text)
	return nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Sources.WalkerPlus.Queries = []config.RegionQuery{
		{Region: string(region.Tokyo), URL: listingURL},
	}
	cfg.Sources.WalkerPlus.MaxPages = 1
	cfg.Sources.ArtBeat.ListURL = artListURL
	cfg.Sources.ArtBeat.MaxItems = 10
	cfg.Pacing.DetailMinMS = 0
	cfg.Pacing.DetailMaxMS = 0
	return cfg
}

// testPipeline builds a pipeline with the clock and sleeps stubbed out.
// The returned slice pointer collects every sleep duration requested.
func testPipeline(cfg *config.Config, getter *fakeGetter, led ledger.Ledger, notif *recordingNotifier) (*Pipeline, *[]time.Duration) {
	p := New(cfg, getter, led, notif)
	sleeps := &[]time.Duration{}
	p.sleep = func(d time.Duration) { *sleeps = append(*sleeps, d) }
	p.now = func() time.Time { return time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC) }
	return p, sleeps
}

func TestRunEndToEnd(t *testing.T) {
	getter := &fakeGetter{t: t, pages: defaultPages()}
	led := ledger.NewMemory()
	notif := &recordingNotifier{}
	p, _ := testPipeline(testConfig(), getter, led, notif)

	summary := p.Run()

	if summary.Fetched != 3 || summary.New != 3 || summary.Duplicates != 0 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if summary.Chunks != 1 || len(notif.texts) != 1 {
		t.Fatalf("expected 1 dispatched chunk, got %d (%d broadcast calls)",
			summary.Chunks, len(notif.texts))
	}

	out := notif.texts[0]

	// The pinned structured event lands in the query's region even though
	// its venue text says otherwise; the heuristic event is classified.
	tokyoAt := strings.Index(out, digest.Banner(region.Tokyo))
	kanagawaAt := strings.Index(out, digest.Banner(region.Kanagawa))
	uenoAt := strings.Index(out, "上野の展示")
	yokohamaAt := strings.Index(out, "横浜の写真展")
	if tokyoAt < 0 || kanagawaAt < 0 || uenoAt < 0 || yokohamaAt < 0 {
		t.Fatalf("missing sections or events in output:\n%s", out)
	}
	if !(tokyoAt < uenoAt && uenoAt < kanagawaAt && kanagawaAt < yokohamaAt) {
		t.Errorf("events in wrong sections:\n%s", out)
	}

	rows := led.Rows()
	if len(rows) != 3 {
		t.Fatalf("expected 3 ledger rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.SentDate != "2024-05-15" {
			t.Errorf("sent date = %q, expected the injected clock date", row.SentDate)
		}
	}
	// Keys prefer the official URL
	if rows[0].Key != "https://example.com/ueno" {
		t.Errorf("unexpected first ledger key: %q", rows[0].Key)
	}
}

func TestRunIdempotent(t *testing.T) {
	getter := &fakeGetter{t: t, pages: defaultPages()}
	led := ledger.NewMemory()
	cfg := testConfig()

	first, _ := testPipeline(cfg, getter, led, &recordingNotifier{})
	first.Run()

	notif := &recordingNotifier{}
	second, _ := testPipeline(cfg, getter, led, notif)
	summary := second.Run()

	if summary.New != 0 || summary.Duplicates != 3 {
		t.Errorf("second run over an unchanged source should find only duplicates: %+v", summary)
	}
	if summary.Chunks != 0 || len(notif.texts) != 0 {
		t.Errorf("second run should dispatch nothing, got %d broadcasts", len(notif.texts))
	}
}

// failingReadLedger breaks every existence check.
type failingReadLedger struct {
	*ledger.Memory
}

func (f *failingReadLedger) Exists(key string) (bool, error) {
	return false, fmt.Errorf("backend unavailable")
}

func TestRunFailsOpenOnLedgerReadError(t *testing.T) {
	getter := &fakeGetter{t: t, pages: defaultPages()}
	notif := &recordingNotifier{}
	led := &failingReadLedger{ledger.NewMemory()}
	p, _ := testPipeline(testConfig(), getter, led, notif)

	summary := p.Run()

	if summary.New != 3 {
		t.Errorf("a broken ledger read must not suppress delivery: %+v", summary)
	}
	if len(notif.texts) != 1 {
		t.Errorf("expected the digest to go out, got %d broadcasts", len(notif.texts))
	}
}

// failingWriteLedger accepts reads but rejects every append.
type failingWriteLedger struct {
	*ledger.Memory
}

func (f *failingWriteLedger) Append(rec ledger.Record) error {
	return fmt.Errorf("backend unavailable")
}

func TestRunSwallowsLedgerWriteError(t *testing.T) {
	getter := &fakeGetter{t: t, pages: defaultPages()}
	notif := &recordingNotifier{}
	p, _ := testPipeline(testConfig(), getter, &failingWriteLedger{ledger.NewMemory()}, notif)

	summary := p.Run()

	if summary.New != 3 || len(notif.texts) != 1 {
		t.Errorf("a broken ledger write must not abort the run: %+v, %d broadcasts",
			summary, len(notif.texts))
	}
}

func TestRunPacesChunkDispatch(t *testing.T) {
	cfg := testConfig()
	cfg.Limits.ChunkSize = 40
	cfg.Pacing.DispatchMS = 700

	getter := &fakeGetter{t: t, pages: defaultPages()}
	notif := &recordingNotifier{}
	p, sleeps := testPipeline(cfg, getter, ledger.NewMemory(), notif)

	summary := p.Run()

	if summary.Chunks < 2 {
		t.Fatalf("fixture should produce at least 2 chunks at size 40, got %d", summary.Chunks)
	}
	if len(notif.texts) != int(summary.Chunks) {
		t.Errorf("expected %d broadcasts, got %d", summary.Chunks, len(notif.texts))
	}

	// One pause between consecutive chunks, none after the last
	if len(*sleeps) != int(summary.Chunks)-1 {
		t.Fatalf("expected %d pauses, got %d", summary.Chunks-1, len(*sleeps))
	}
	for _, d := range *sleeps {
		if d != 700*time.Millisecond {
			t.Errorf("pause = %v, expected the configured dispatch pause", d)
		}
	}
}

func TestRunSkipsUnkeyedEvents(t *testing.T) {
	pages := defaultPages()
	pages[listingURL] = `<html><body>
<script type="application/ld+json">
[
  {"@type": "Event", "location": {"name": "名無しの会場"}},
  {"@type": "Event", "name": "名前あり", "startDate": "2024-06-01",
   "url": "https://example.com/ok", "location": {"name": "会場"}}
]
</script>
</body></html>`

	getter := &fakeGetter{t: t, pages: pages}
	notif := &recordingNotifier{}
	p, _ := testPipeline(testConfig(), getter, ledger.NewMemory(), notif)

	summary := p.Run()

	// 2 listing events (one unkeyed) + 1 heuristic event
	if summary.Fetched != 3 {
		t.Errorf("fetched = %d, expected 3", summary.Fetched)
	}
	if summary.New != 2 {
		t.Errorf("new = %d, expected the unkeyed event dropped", summary.New)
	}
}

func TestRunContinuesPastBroadcastError(t *testing.T) {
	getter := &fakeGetter{t: t, pages: defaultPages()}
	notif := &recordingNotifier{err: fmt.Errorf("unexpected status code: 500")}
	p, _ := testPipeline(testConfig(), getter, ledger.NewMemory(), notif)

	// A failed broadcast is logged; the run still completes and reports.
	summary := p.Run()
	if summary.New != 3 {
		t.Errorf("unexpected summary after broadcast failure: %+v", summary)
	}
	if summary.Chunks != 0 {
		t.Errorf("failed broadcasts must not count as dispatched, got %d", summary.Chunks)
	}
}
