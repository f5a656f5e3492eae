package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	is := is.New(t)
	m := New()

	m.PropertiesEmitted("pc", 3)
	m.PropertiesEmitted("pc", 0)
	m.PropertiesEmitted("monster", 1)
	is.Equal(testutil.ToFloat64(m.propertiesEmitted.WithLabelValues("pc")), 3.0)
	is.Equal(testutil.ToFloat64(m.propertiesEmitted.WithLabelValues("monster")), 1.0)

	m.PacketSent("EntityProperties", 12)
	m.PacketSent("EntityProperties", 8)
	is.Equal(testutil.ToFloat64(m.packetsSent.WithLabelValues("EntityProperties")), 2.0)
	is.Equal(testutil.ToFloat64(m.bytesSent), 20.0)

	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	is.Equal(testutil.ToFloat64(m.sessions), 1.0)

	m.EntityAdded("monster")
	m.EntityAdded("monster")
	m.EntityRemoved("monster")
	is.Equal(testutil.ToFloat64(m.entities.WithLabelValues("monster")), 1.0)
}

func TestHandler(t *testing.T) {
	is := is.New(t)
	m := New()
	m.ObserveTick(2 * time.Millisecond)
	m.SyncError("pc")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	is.Equal(rec.Code, 200)

	body, err := io.ReadAll(rec.Body)
	is.NoErr(err)
	is.True(strings.Contains(string(body), "lumen_world_tick_duration_seconds_count 1"))
	is.True(strings.Contains(string(body), `lumen_sync_errors_total{type="pc"} 1`))
}
