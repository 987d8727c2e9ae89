package bus

import (
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// readyTimeout is how long an embedded broker gets to accept connections.
const readyTimeout = 10 * time.Second

// EmbeddedServer runs an in-process NATS broker so the all-in-one command
// needs no external infrastructure.
type EmbeddedServer struct {
	host   string
	port   int
	server *server.Server
}

// NewEmbeddedServer creates an embedded broker bound to host:port.
// Port 0 picks a random free port.
func NewEmbeddedServer(host string, port int) *EmbeddedServer {
	if host == "" {
		host = "127.0.0.1"
	}
	return &EmbeddedServer{host: host, port: port}
}

// Start launches the broker and blocks until it accepts connections.
func (e *EmbeddedServer) Start() error {
	opts := &server.Options{
		Host:   e.host,
		Port:   e.port,
		NoLog:  true,
		NoSigs: true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return fmt.Errorf("failed to create embedded broker: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(readyTimeout) {
		ns.Shutdown()
		return fmt.Errorf("embedded broker not ready within %s", readyTimeout)
	}

	e.server = ns
	return nil
}

// ClientURL returns the URL local clients should connect to.
func (e *EmbeddedServer) ClientURL() string {
	if e.server != nil {
		return e.server.ClientURL()
	}
	return fmt.Sprintf("nats://%s:%d", e.host, e.port)
}

// Shutdown stops the broker and waits for it to finish.
func (e *EmbeddedServer) Shutdown() {
	if e.server != nil {
		e.server.Shutdown()
		e.server.WaitForShutdown()
		e.server = nil
	}
}
