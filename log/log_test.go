package log

import (
	"strings"
	"testing"
)

// recordingHandler captures records for assertions.
func recordingHandler(out *[]*Record) Handler {
	return FuncHandler(func(r *Record) error {
		*out = append(*out, r)
		return nil
	})
}

func TestChildContext(t *testing.T) {
	var records []*Record
	l := New("module", "test")
	l.SetHandler(recordingHandler(&records))

	child := l.New("peer", "abc")
	child.Info("hello", "n", 1)

	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	r := records[0]
	if r.Msg != "hello" || r.Lvl != LvlInfo {
		t.Errorf("unexpected record %+v", r)
	}
	want := []interface{}{"module", "test", "peer", "abc", "n", 1}
	if len(r.Ctx) != len(want) {
		t.Fatalf("ctx %v, want %v", r.Ctx, want)
	}
	for i := range want {
		if r.Ctx[i] != want[i] {
			t.Errorf("ctx[%d] = %v, want %v", i, r.Ctx[i], want[i])
		}
	}
}

func TestLvlFilter(t *testing.T) {
	var records []*Record
	l := New()
	l.SetHandler(LvlFilterHandler(LvlWarn, recordingHandler(&records)))

	l.Debug("dropped")
	l.Info("dropped")
	l.Warn("kept")
	l.Error("kept")

	if len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}
}

func TestLvlFromString(t *testing.T) {
	for in, want := range map[string]Lvl{
		"trace": LvlTrace, "5": LvlTrace,
		"debug": LvlDebug, "4": LvlDebug,
		"info": LvlInfo, "3": LvlInfo,
		"warn": LvlWarn, "error": LvlError, "crit": LvlCrit,
	} {
		got, err := LvlFromString(in)
		if err != nil || got != want {
			t.Errorf("LvlFromString(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := LvlFromString("loud"); err == nil {
		t.Errorf("unknown level accepted")
	}
}

func TestOddContextNormalized(t *testing.T) {
	var records []*Record
	l := New()
	l.SetHandler(recordingHandler(&records))
	l.Info("odd", "key-without-value")
	if len(records) != 1 || len(records[0].Ctx)%2 != 0 {
		t.Errorf("odd context not normalized: %v", records[0].Ctx)
	}
}

func TestTerminalFormat(t *testing.T) {
	var records []*Record
	l := New()
	l.SetHandler(recordingHandler(&records))
	l.Info("Imported block", "index", 7, "err", nil, "note", "two words")

	out := string(TerminalFormat(false).Format(records[0]))
	for _, want := range []string{"INFO", "Imported block", "index=7", "err=nil", `note="two words"`} {
		if !strings.Contains(out, want) {
			t.Errorf("formatted output %q missing %q", out, want)
		}
	}
}
