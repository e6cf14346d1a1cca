// Package infra holds the adapters around the analytics core: the MQTT
// request server, metrics sinks, the compute log and Sentry reporting.
// They depend on the interfaces declared under core, never the reverse.
package infra
