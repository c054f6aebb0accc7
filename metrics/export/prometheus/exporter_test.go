package prometheus

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/halcyondev/authgate"
)

type fakeSource struct {
	snapshot authgate.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() authgate.MetricsSnapshot { return f.snapshot }
func (f *fakeSource) AuditDropped() uint64                      { return f.dropped }

func newFakeSource() *fakeSource {
	return &fakeSource{
		snapshot: authgate.MetricsSnapshot{
			Counters: map[authgate.MetricID]uint64{
				authgate.MetricLoginSuccess: 7,
				authgate.MetricLoginFailure: 3,
			},
		},
		dropped: 2,
	}
}

func TestRenderExposesAllCounters(t *testing.T) {
	out := NewExporterFromSource(newFakeSource()).Render()

	for _, def := range counterDefs {
		if !strings.Contains(out, "# HELP "+def.name+" ") {
			t.Errorf("missing HELP line for %s", def.name)
		}
		if !strings.Contains(out, "# TYPE "+def.name+" counter\n") {
			t.Errorf("missing TYPE line for %s", def.name)
		}
	}

	for _, want := range []string{
		"authgate_login_success_total 7\n",
		"authgate_login_failure_total 3\n",
		"authgate_audit_dropped_total 2\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestHandlerContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)

	NewExporterFromSource(newFakeSource()).Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); got != "text/plain; version=0.0.4; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if !strings.Contains(rec.Body.String(), "authgate_login_success_total 7") {
		t.Errorf("body missing counter line: %q", rec.Body.String())
	}
}

func TestRenderNilSafe(t *testing.T) {
	var p *Exporter
	if got := p.Render(); got != "" {
		t.Errorf("nil exporter rendered %q", got)
	}
	if got := NewExporterFromSource(nil).Render(); got != "" {
		t.Errorf("nil source rendered %q", got)
	}
}

func TestEscapeHelp(t *testing.T) {
	if got := escapeHelp("a\\b\nc"); got != "a\\\\b\\nc" {
		t.Errorf("escapeHelp = %q", got)
	}
}
