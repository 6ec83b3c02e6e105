package mqtt

import (
	"fmt"
)

// watch is a subscription restored after every reconnect.
type watch struct {
	topic   string
	qos     byte
	handler MessageHandler
}

// Subscribe registers handler for topic, which may contain wildcards:
//
//   - "influxgw/hosts/+/+/status" matches every host status
//   - "influxgw/#" matches everything the gateway publishes
//
// Retained host statuses are delivered immediately after subscribing, so a
// watcher sees the current state of every host before any change.
//
// Example:
//
//	err := client.Subscribe(mqtt.Topics{}.AllHostStatuses(), 1,
//	    func(topic string, payload []byte) error {
//	        fmt.Printf("%s %s\n", topic, payload)
//	        return nil
//	    })
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	// Record first so a reconnect during the subscribe restores it.
	c.mu.Lock()
	prev, hadPrev := c.watches[topic]
	c.watches[topic] = watch{topic: topic, qos: qos, handler: handler}
	c.mu.Unlock()

	token := c.client.Subscribe(topic, qos, c.wrapHandler(handler))
	if !token.WaitTimeout(defaultPublishTimeout) {
		c.rollbackWatch(topic, prev, hadPrev)
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		c.rollbackWatch(topic, prev, hadPrev)
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}
	return nil
}

// rollbackWatch undoes the watch recorded by a failed Subscribe.
func (c *Client) rollbackWatch(topic string, prev watch, hadPrev bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hadPrev {
		c.watches[topic] = prev
		return
	}
	delete(c.watches, topic)
}

// Unsubscribe stops delivery for a topic previously passed to Subscribe.
func (c *Client) Unsubscribe(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.mu.Lock()
	delete(c.watches, topic)
	c.mu.Unlock()

	token := c.client.Unsubscribe(topic)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrUnsubscribeFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnsubscribeFailed, err)
	}
	return nil
}
