package network

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"

	"lumen/pkg/shared/ecs"
	protocol "lumen/pkg/shared/network"
	"lumen/pkg/shared/properties"
	"lumen/pkg/shared/world"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func preloaded(t *testing.T) *properties.Registry {
	t.Helper()
	reg := properties.NewRegistry()
	if err := world.Preload(reg, discardLogger()); err != nil {
		t.Fatalf("preload: %v", err)
	}
	return reg
}

// scriptedHandler logs the client in, shows it its character, sends one
// delta and takes the character away again.
type scriptedHandler struct {
	t   *testing.T
	reg *properties.Registry
}

func (h *scriptedHandler) HandleSession(ctx context.Context, s *Session) {
	r, err := s.Read(ctx)
	if err != nil {
		h.t.Errorf("read login: %v", err)
		return
	}
	if op := r.ReadOpcode(); op != protocol.OpLogin {
		h.t.Errorf("got %s, want Login", op)
		return
	}
	name, err := protocol.DecodeLogin(r)
	if err != nil {
		h.t.Errorf("decode login: %v", err)
		return
	}

	c := world.NewCharacter(name)
	c.SetHandle(1)
	s.SendPacket(protocol.EncodeLoginResult(1))

	enter := protocol.NewEntityEnter(1, c.TypeName())
	protocol.AddSnapshot(enter, h.reg, c)
	s.SendPacket(enter)

	protocol.AddProperties(protocol.NewEntityProperties(1), h.reg, c)
	c.AdjustHp(-20)
	delta := protocol.NewEntityProperties(1)
	protocol.AddProperties(delta, h.reg, c)
	s.SendPacket(delta)

	s.SendPacket(protocol.EncodeEntityLeave(1))

	// wait for the client to hang up
	s.Read(ctx)
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestSessionAndClient(t *testing.T) {
	is := is.New(t)
	reg := preloaded(t)

	srv := httptest.NewServer(NewRouter(RouterOptions{
		Sessions: &scriptedHandler{t: t, reg: reg},
		Logger:   discardLogger(),
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Dial(ctx, wsURL(srv), reg, discardLogger())
	is.NoErr(err)
	defer client.Close()

	handle, err := client.Login(ctx, "Tin")
	is.NoErr(err)
	is.Equal(handle, ecs.Entity(1))
	is.Equal(client.PlayerEntityID, ecs.Entity(1))

	u, err := client.Next(ctx)
	is.NoErr(err)
	is.Equal(u.Op, protocol.OpEntityEnter)
	is.Equal(u.Type, world.TypeCharacter)
	is.Equal(len(u.Properties), 14)

	e, ok := client.Entity(1)
	is.True(ok)
	is.Equal(e.Properties[world.PCName].Text(), "Tin")
	is.Equal(e.Properties[world.PCHp].Int(), int32(100))
	is.Equal(e.Properties[world.PCStance].Int(), int32(10000))

	u, err = client.Next(ctx)
	is.NoErr(err)
	is.Equal(u.Op, protocol.OpEntityProperties)
	is.Equal(len(u.Properties), 1)

	e, _ = client.Entity(1)
	is.Equal(e.Properties[world.PCHp].Int(), int32(80))
	is.Equal(e.Properties[world.PCName].Text(), "Tin") // untouched by the delta

	u, err = client.Next(ctx)
	is.NoErr(err)
	is.Equal(u.Op, protocol.OpEntityLeave)
	is.Equal(client.Entities(), 0)
}

type fakeAdmin struct {
	hp map[ecs.Entity]int32
}

func (a *fakeAdmin) AdjustHp(_ context.Context, handle ecs.Entity, delta int32) (int32, error) {
	hp, ok := a.hp[handle]
	if !ok {
		return 0, ErrEntityNotFound
	}
	a.hp[handle] = hp + delta
	return hp + delta, nil
}

func TestAdminAdjustHp(t *testing.T) {
	admin := &fakeAdmin{hp: map[ecs.Entity]int32{5: 100}}
	router := NewRouter(RouterOptions{Admin: admin, Logger: discardLogger()})

	for _, tc := range []struct {
		name   string
		path   string
		body   string
		status int
		want   string
	}{
		{"Adjusts", "/admin/entities/5/hp", `{"delta": -10}`, http.StatusOK, `{"handle":5,"hp":90}`},
		{"UnknownEntity", "/admin/entities/6/hp", `{"delta": 1}`, http.StatusNotFound, ""},
		{"BadHandle", "/admin/entities/abc/hp", `{"delta": 1}`, http.StatusBadRequest, ""},
		{"BadBody", "/admin/entities/5/hp", `{"delta": "lots"}`, http.StatusBadRequest, ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, tc.path, strings.NewReader(tc.body)))
			is.Equal(rec.Code, tc.status)
			if tc.want != "" {
				is.Equal(strings.TrimSpace(rec.Body.String()), tc.want)
			}
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	is := is.New(t)
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("lumen_up 1"))
	})
	router := NewRouter(RouterOptions{Metrics: metrics, Logger: discardLogger()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	is.Equal(rec.Code, http.StatusOK)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	is.Equal(rec.Body.String(), "lumen_up 1")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	is.Equal(rec.Code, http.StatusNotFound) // no session handler configured
}
