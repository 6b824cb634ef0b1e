package logx

import "testing"

func TestGetScope_FollowsInit(t *testing.T) {
	l := GetScope("store")
	if l.Zap() == nil {
		t.Fatalf("scoped logger has no zap logger")
	}
	before := Global()
	Init("debug", "json")
	t.Cleanup(func() { globalLogger.Store(before) })

	if Global() == before {
		t.Fatalf("Init did not replace global logger")
	}
	if !l.Zap().Core().Enabled(-1) {
		t.Fatalf("scoped logger should follow debug level after Init")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{"debug": "debug", "WARNING": "warn", "error": "error", "": "info", "bogus": "info"}
	for in, want := range cases {
		if got := parseLevel(in).String(); got != want {
			t.Fatalf("parseLevel(%q)=%s want %s", in, got, want)
		}
	}
}
