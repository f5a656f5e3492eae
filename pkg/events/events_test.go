package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/matryer/is"
	natsserver "github.com/nats-io/nats-server/v2/server"
)

func startTestNATS(t *testing.T) string {
	t.Helper()
	opts := &natsserver.Options{Host: "127.0.0.1", Port: -1}
	srv, err := natsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

func TestNoopPublisher(t *testing.T) {
	is := is.New(t)
	var pub Publisher = &NoopPublisher{}
	is.NoErr(pub.Publish(context.Background(), TopicEntityLeft, EntityLeft{Handle: 1}))
	is.NoErr(pub.Close())
}

func TestNATSPublishSubscribe(t *testing.T) {
	is := is.New(t)
	url := startTestNATS(t)

	sub, err := NewNATSSubscriber(url)
	is.NoErr(err)
	defer sub.Close()

	ch, cancel, err := sub.Subscribe("lumen.entity.>")
	is.NoErr(err)
	defer cancel()

	pub, err := NewNATSPublisher(url)
	is.NoErr(err)

	event := PropertiesChanged{Handle: 7, Type: "pc", Tick: 3, Values: map[uint16]string{110: "80"}}
	is.NoErr(pub.Publish(context.Background(), TopicPropertiesChanged, event))
	is.NoErr(pub.Close())

	select {
	case msg := <-ch:
		is.Equal(msg.Topic, TopicPropertiesChanged)
		var got PropertiesChanged
		is.NoErr(json.Unmarshal(msg.Data, &got))
		is.Equal(got.Handle, uint32(7))
		is.Equal(got.Values[110], "80")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published message")
	}
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	is := is.New(t)
	url := startTestNATS(t)

	sub, err := NewNATSSubscriber(url)
	is.NoErr(err)
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(TopicEntityEntered)
	is.NoErr(err)
	cancel()
	cancel() // safe to call twice

	_, open := <-ch
	is.True(!open)
}
