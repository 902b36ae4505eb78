// Package mqtt is the device's remote command/status link.
//
// The client uses Eclipse Paho v2's [autopaho] package for connection
// management with automatic reconnection. On every (re-)connect it
// publishes a retained "online" birth message to the availability topic
// and re-subscribes to every topic it has been asked to follow. A will
// message moves the availability topic to "offline" on unexpected
// disconnects.
//
// Inbound messages pass through a per-second rate limiter before they
// reach the registered [MessageHandler], which in the daemon is the
// command interpreter.
package mqtt
