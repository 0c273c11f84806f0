// Package timeouts defines shared timeout constants used across restobot
// processes so transport and storage limits stay discoverable in one place.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// Update caps the time allowed to handle one inbound chat update end to end.
const Update = 10 * time.Second

// StoreIO caps a single order store read or write.
const StoreIO = 3 * time.Second

// BrokerConnect caps the time spent dialing Redis or NATS at startup.
const BrokerConnect = 3 * time.Second
