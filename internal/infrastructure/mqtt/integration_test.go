//go:build integration

package mqtt

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

// Integration tests against a real broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

// TestIntegration_RetainedStatusForLateWatcher verifies a watcher that
// subscribes after a transition still sees the host's current state.
func TestIntegration_RetainedStatusForLateWatcher(t *testing.T) {
	publisher := connectOrSkip(t, "influxgw-int-retain-pub")

	topic := Topics{}.HostStatus("retained.test", 8086)
	since := time.Now().Add(-time.Minute)
	err := publisher.PublishHostStatus(HostStatusPayload{
		Host: "retained.test", Port: 8086, Status: "disabled", Previous: "available",
		Reason: "failure", Since: &since, Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("PublishHostStatus() error = %v", err)
	}
	t.Cleanup(func() { _ = publisher.Publish(topic, nil, 1, true) })

	watcher := observeOrSkip(t, "influxgw-int-retain-watch")
	got := make(chan HostStatusPayload, 1)
	if err := watcher.Subscribe(Topics{}.AllHostStatuses(), 1, func(tp string, payload []byte) error {
		if tp != topic || len(payload) == 0 {
			return nil
		}
		var p HostStatusPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		select {
		case got <- p:
		default:
		}
		return nil
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	select {
	case p := <-got:
		if p.Status != "disabled" || p.Since == nil {
			t.Errorf("retained payload = %+v, want disabled with since", p)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("retained host status not delivered")
	}
}

// TestIntegration_ConcurrentPublish verifies concurrent status publishes.
func TestIntegration_ConcurrentPublish(t *testing.T) {
	client := connectOrSkip(t, "influxgw-int-concurrent")

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(port int) {
			defer wg.Done()
			errs <- client.PublishHostStatus(HostStatusPayload{
				Host: "concurrent.test", Port: port, Status: "available", Timestamp: time.Now(),
			})
		}(9000 + i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("PublishHostStatus() error = %v", err)
		}
	}
	for i := 0; i < 20; i++ {
		_ = client.Publish(Topics{}.HostStatus("concurrent.test", 9000+i), nil, 1, true)
	}
}
