package mqtt

import (
	"encoding/json"
	"time"
)

// HostStatusPayload is the retained message published on a host's status
// topic whenever the host changes state.
type HostStatusPayload struct {
	Host      string     `json:"host"`
	Port      int        `json:"port"`
	Index     int        `json:"index"`
	Status    string     `json:"status"`
	Previous  string     `json:"previous"`
	Reason    string     `json:"reason"`
	Since     *time.Time `json:"since,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// BuildHostStatusPayload encodes p as JSON. Timestamps are written in UTC.
func BuildHostStatusPayload(p HostStatusPayload) ([]byte, error) {
	p.Timestamp = p.Timestamp.UTC()
	if p.Since != nil {
		since := p.Since.UTC()
		p.Since = &since
	}
	return json.Marshal(p)
}

// PublishHostStatus publishes p as a retained message on the host's status
// topic using the configured QoS.
func (c *Client) PublishHostStatus(p HostStatusPayload) error {
	payload, err := BuildHostStatusPayload(p)
	if err != nil {
		return err
	}
	return c.PublishRetained(Topics{}.HostStatus(p.Host, p.Port), payload)
}
