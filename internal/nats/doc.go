// Package nats mirrors the device onto a NATS subject tree as a second,
// broker-optional remote channel next to MQTT.
//
// # Architecture
//
//   - Server: optional embedded NATS server so LAN dashboards can subscribe
//     without external infrastructure
//   - DeviceClient: publishes status messages and receives commands
//   - Bridge: forwards event bus events onto NATS subjects
//
// # Subject Hierarchy
//
//	climalight.{instance_id}.status            # status message (device → subscribers)
//	climalight.{instance_id}.command           # command text (subscribers → device)
//	climalight.{instance_id}.events.{kind}     # state, button, command, sensor events
//
// Messaging is fire-and-forget core NATS (no JetStream). The client
// degrades to no-ops while the server is unreachable and keeps retrying in
// the background.
//
// # Debugging with nats CLI
//
// Watch everything a device publishes:
//
//	nats sub "climalight.>"
//
// Send a command:
//
//	nats pub climalight.{instance_id}.command "mode:2"
package nats
