// Package mqtt connects the AV routing service to an MQTT broker.
//
// Switcher state is published retained under graylogic/av/switcher/...,
// routing events under graylogic/av/event/{kind}, and the service status
// (with a last-will "offline" message) on graylogic/av/status. Control
// software requests routes on graylogic/av/command/route.
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishRetained(mqtt.Topics{}.SwitcherRoute(12, 1, 3, "Video"), payload)
package mqtt
