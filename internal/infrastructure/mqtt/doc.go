// Package mqtt publishes influxgw status over an MQTT broker.
//
// Every host state change (disabled after a transport failure, available
// again after recovery or a successful request) is published as a retained
// JSON message on influxgw/hosts/{host}/{port}/status, so a subscriber sees
// the current state of every host the moment it connects. The gateway itself
// announces online/offline on influxgw/system/status and leaves a Last Will
// for unexpected disconnects.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishHostStatus(mqtt.HostStatusPayload{
//	    Host: "10.0.0.5", Port: 8086, Status: "disabled", Reason: "failure",
//	    Timestamp: time.Now(),
//	})
//
// Watchers subscribe to Topics{}.AllHostStatuses().
//
// This package does not import the host registry; callers map registry
// transitions onto HostStatusPayload.
package mqtt
