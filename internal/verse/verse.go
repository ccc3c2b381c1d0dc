// Package verse provides the optional verse printed under an exported
// week and the persisted toggle and rotation state behind it.
package verse

import (
	"encoding/json"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	appLog "weekplan/internal/log"
	"weekplan/internal/render"
	"weekplan/internal/storage"
)

// RotateAfter is how long one verse stays current.
const RotateAfter = 7 * 24 * time.Hour

type Verse struct {
	Text      string `json:"text"`
	Reference string `json:"reference"`
}

var verses = []Verse{
	{"Denn ich weiß wohl, was ich für Gedanken über euch habe, spricht der HERR: Gedanken des Friedens und nicht des Leides, dass ich euch gebe Zukunft und Hoffnung.", "Jeremia 29,11"},
	{"Ich kann alles durch den, der mich stark macht.", "Philipper 4,13"},
	{"Der HERR ist mein Hirte, mir wird nichts mangeln.", "Psalm 23,1"},
	{"Fürchte dich nicht, denn ich bin mit dir und will dich segnen.", "1. Mose 26,24"},
	{"Alle eure Sorge werft auf ihn; denn er sorgt für euch.", "1. Petrus 5,7"},
	{"Der HERR segne dich und behüte dich; der HERR lasse sein Angesicht leuchten über dir und sei dir gnädig.", "4. Mose 6,24-25"},
	{"Vertraue auf den HERRN von ganzem Herzen, und verlass dich nicht auf deinen Verstand.", "Sprüche 3,5"},
	{"Jesus spricht: Ich bin bei euch alle Tage bis an der Welt Ende.", "Matthäus 28,20"},
	{"Gott ist Liebe; und wer in der Liebe bleibt, der bleibt in Gott und Gott in ihm.", "1. Johannes 4,16"},
	{"Sei getrost und unverzagt! Fürchte dich nicht und lass dich nicht erschrecken; denn der HERR, dein Gott, ist mit dir überall, wo du hingehst.", "Josua 1,9"},
	{"Kommt her zu mir, alle, die ihr mühselig und beladen seid; ich will euch erquicken.", "Matthäus 11,28"},
	{"Die Gnade unseres Herrn Jesus Christus und die Liebe Gottes und die Gemeinschaft des Heiligen Geistes sei mit euch allen!", "2. Korinther 13,13"},
	{"Der HERR wird für euch streiten, und ihr werdet stille sein.", "2. Mose 14,14"},
	{"Denn Gott hat uns nicht gegeben den Geist der Furcht, sondern der Kraft und der Liebe und der Besonnenheit.", "2. Timotheus 1,7"},
	{"Freut euch in dem Herrn allewege, und abermals sage ich: Freut euch!", "Philipper 4,4"},
	{"Jesus spricht: Ich bin der Weg und die Wahrheit und das Leben.", "Johannes 14,6"},
	{"Denn aus Gnade seid ihr selig geworden durch Glauben, und das nicht aus euch: Gottes Gabe ist es.", "Epheser 2,8"},
	{"Der HERR ist meine Stärke und mein Schild; auf ihn hofft mein Herz und mir ist geholfen.", "Psalm 28,7"},
	{"Bittet, so wird euch gegeben; suchet, so werdet ihr finden; klopfet an, so wird euch aufgetan.", "Matthäus 7,7"},
	{"Denn wo zwei oder drei versammelt sind in meinem Namen, da bin ich mitten unter ihnen.", "Matthäus 18,20"},
	{"Der HERR ist nahe denen, die zerbrochenen Herzens sind, und hilft denen, die ein zerschlagenes Gemüt haben.", "Psalm 34,19"},
	{"Lass dir an meiner Gnade genügen; denn meine Kraft ist in den Schwachen mächtig.", "2. Korinther 12,9"},
	{"Siehe, ich mache alles neu!", "Offenbarung 21,5"},
	{"Der HERR denkt an uns und segnet uns.", "Psalm 115,12"},
	{"Und wir wissen, dass denen, die Gott lieben, alle Dinge zum Besten dienen.", "Römer 8,28"},
	{"Denn meine Gedanken sind nicht eure Gedanken, und eure Wege sind nicht meine Wege, spricht der HERR.", "Jesaja 55,8"},
	{"Der HERR ist mein Licht und mein Heil; vor wem sollte ich mich fürchten?", "Psalm 27,1"},
	{"Lehre uns bedenken, dass wir sterben müssen, auf dass wir klug werden.", "Psalm 90,12"},
	{"Seid fröhlich in Hoffnung, geduldig in Trübsal, beharrlich im Gebet.", "Römer 12,12"},
	{"Der HERR behüte deinen Ausgang und Eingang von nun an bis in Ewigkeit!", "Psalm 121,8"},
}

// All returns a copy of the verse list.
func All() []Verse {
	return append([]Verse(nil), verses...)
}

// ByReference finds the first verse whose reference contains ref,
// ignoring case.
func ByReference(ref string) (Verse, bool) {
	needle := strings.ToLower(strings.TrimSpace(ref))
	if needle == "" {
		return Verse{}, false
	}
	for _, v := range verses {
		if strings.Contains(strings.ToLower(v.Reference), needle) {
			return v, true
		}
	}
	return Verse{}, false
}

// Settings is the persisted state.
type Settings struct {
	Enabled           bool      `json:"enabled"`
	LastChanged       time.Time `json:"lastChanged"`
	CurrentVerseIndex int       `json:"currentVerseIndex"`
}

// Service reads and rotates the current verse. Storage failures are
// logged and never returned.
type Service struct {
	kv   storage.KV
	now  func() time.Time
	intn func(n int) int

	mu sync.Mutex
}

func NewService(kv storage.KV) *Service {
	return &Service{kv: kv, now: time.Now, intn: rand.IntN}
}

// load returns the stored settings. When nothing usable is stored, freshly
// drawn defaults are saved so the verse stays put between calls. A stored
// document without an index gets an invalid one, which Current repairs.
// Callers hold s.mu.
func (s *Service) load() Settings {
	raw := storage.ReadOrEmpty[json.RawMessage](s.kv, storage.KeyVerseSettings)
	if len(raw) > 0 {
		out := Settings{LastChanged: s.now().UTC(), CurrentVerseIndex: -1}
		err := json.Unmarshal(raw, &out)
		if err == nil {
			return out
		}
		appLog.Warn("verse settings unreadable, using defaults", "err", err)
	}
	out := Settings{LastChanged: s.now().UTC(), CurrentVerseIndex: s.intn(len(verses))}
	s.save(out)
	return out
}

func (s *Service) save(st Settings) {
	storage.WriteOrDrop(s.kv, storage.KeyVerseSettings, st)
}

func validIndex(i int) bool { return i >= 0 && i < len(verses) }

// Settings returns the stored state merged over the defaults.
func (s *Service) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Service) Enabled() bool {
	return s.Settings().Enabled
}

// SetEnabled toggles the feature. Enabling repairs an invalid index.
func (s *Service) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.load()
	st.Enabled = enabled
	if enabled && !validIndex(st.CurrentVerseIndex) {
		st.CurrentVerseIndex = s.intn(len(verses))
		st.LastChanged = s.now().UTC()
	}
	s.save(st)
	appLog.Info("verse toggled", "enabled", enabled)
}

// Current returns the verse of the week, moving on to another one once
// RotateAfter has passed since the last change.
func (s *Service) Current() Verse {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.load()
	if s.now().Sub(st.LastChanged) >= RotateAfter {
		return s.refreshLocked(st)
	}
	if !validIndex(st.CurrentVerseIndex) {
		st.CurrentVerseIndex = s.intn(len(verses))
		st.LastChanged = s.now().UTC()
		s.save(st)
	}
	return verses[st.CurrentVerseIndex]
}

// Refresh switches to a verse different from the current one.
func (s *Service) Refresh() Verse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(s.load())
}

func (s *Service) refreshLocked(st Settings) Verse {
	next := 0
	if len(verses) > 1 {
		next = s.intn(len(verses))
		for next == st.CurrentVerseIndex {
			next = s.intn(len(verses))
		}
	}
	st.CurrentVerseIndex = next
	st.LastChanged = s.now().UTC()
	s.save(st)
	appLog.Debug("verse rotated", "reference", verses[next].Reference)
	return verses[next]
}

// ForExport returns the verse to print, or nil when the feature is off.
func (s *Service) ForExport() *render.Verse {
	if !s.Enabled() {
		return nil
	}
	v := s.Current()
	return &render.Verse{Text: v.Text, Reference: v.Reference}
}
