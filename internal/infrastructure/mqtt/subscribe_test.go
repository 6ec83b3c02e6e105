package mqtt

import (
	"errors"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// fakeToken is a completed paho token carrying err.
type fakeToken struct {
	err      error
	finished bool
}

func (t *fakeToken) Wait() bool                     { return t.finished }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.finished }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if t.finished {
		close(ch)
	}
	return ch
}

// fakePaho is a connected paho client whose subscribes answer with token.
// Methods not overridden panic through the nil embedded interface.
type fakePaho struct {
	pahomqtt.Client
	token      *fakeToken
	subscribed []string
}

func (f *fakePaho) IsConnected() bool { return true }

func (f *fakePaho) Subscribe(topic string, _ byte, _ pahomqtt.MessageHandler) pahomqtt.Token {
	f.subscribed = append(f.subscribed, topic)
	return f.token
}

func newFakeConnected(token *fakeToken) (*Client, *fakePaho) {
	fake := &fakePaho{token: token}
	return &Client{client: fake, connected: true, watches: make(map[string]watch)}, fake
}

func TestSubscribe_RecordsWatch(t *testing.T) {
	client, fake := newFakeConnected(&fakeToken{finished: true})
	noop := func(string, []byte) error { return nil }

	if err := client.Subscribe("influxgw/#", 1, noop); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if len(fake.subscribed) != 1 || fake.subscribed[0] != "influxgw/#" {
		t.Errorf("broker subscribes = %v, want [influxgw/#]", fake.subscribed)
	}
	if w, ok := client.watches["influxgw/#"]; !ok || w.qos != 1 {
		t.Errorf("watches = %v, want influxgw/# at qos 1", client.watches)
	}
}

func TestSubscribe_FailureRollsBackWatch(t *testing.T) {
	noop := func(string, []byte) error { return nil }

	tests := []struct {
		name  string
		token *fakeToken
	}{
		{"broker error", &fakeToken{finished: true, err: errors.New("not authorised")}},
		{"timeout", &fakeToken{finished: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newFakeConnected(tt.token)

			err := client.Subscribe("influxgw/#", 1, noop)
			if !errors.Is(err, ErrSubscribeFailed) {
				t.Errorf("Subscribe() error = %v, want ErrSubscribeFailed", err)
			}
			if len(client.watches) != 0 {
				t.Errorf("watches = %v, want none after a failed subscribe", client.watches)
			}
		})
	}
}

func TestSubscribe_FailureRestoresPreviousWatch(t *testing.T) {
	client, fake := newFakeConnected(&fakeToken{finished: true})
	noop := func(string, []byte) error { return nil }

	if err := client.Subscribe("influxgw/#", 0, noop); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	fake.token = &fakeToken{finished: true, err: errors.New("not authorised")}
	if err := client.Subscribe("influxgw/#", 2, noop); !errors.Is(err, ErrSubscribeFailed) {
		t.Fatalf("Subscribe() error = %v, want ErrSubscribeFailed", err)
	}
	if w, ok := client.watches["influxgw/#"]; !ok || w.qos != 0 {
		t.Errorf("watches = %v, want the original qos 0 watch", client.watches)
	}
}
