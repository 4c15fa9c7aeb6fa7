// bridgedemo wires two ends of an in-memory transport pair: a bridge manager
// playing the host process and a scripted peer playing the webview runtime.
// It exercises the handshake, pre-ready queuing, a request round-trip, and a
// timeout-hint-extended slow request.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jbell/webbridge/internal/bridge"
	"github.com/jbell/webbridge/internal/config"
	"github.com/jbell/webbridge/internal/logging"
	"github.com/jbell/webbridge/internal/protocol"
	"github.com/jbell/webbridge/internal/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bridgedemo: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "", "path to bridge TOML config")
	flag.Parse()

	logging.ConfigureRuntime()
	log := logging.New("bridgedemo")

	cfg, err := config.LoadBridgeConfig(*cfgPath)
	if err != nil {
		return err
	}

	host, webview := transport.Pair()
	defer host.Close()
	defer webview.Close()
	runWebviewPeer(webview)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	m := bridge.New(host, cfg.Options())
	defer m.Close()

	// Queued before the handshake; flushed once the peer is ready.
	if err := m.Send(ctx, "wizard.opened", map[string]any{"step": "welcome"}); err != nil {
		return err
	}

	if err := m.Initialize(ctx); err != nil {
		return err
	}
	log.Info().Uint64("state_version", m.StateVersion()).Msg("handshake complete")

	echo, err := m.Request(ctx, "echo", "hello from the host")
	if err != nil {
		return err
	}
	log.Info().Any("payload", echo).Msg("echo answered")

	// The peer answers this one slowly, extending our patience with a
	// timeout hint first.
	result, err := m.RequestTimeout(ctx, "provision", map[string]any{"env": "stage"}, 100*time.Millisecond)
	if err != nil {
		return err
	}
	log.Info().Any("payload", result).Msg("slow provisioning finished")

	m.IncrementStateVersion()
	log.Info().Uint64("state_version", m.StateVersion()).Msg("done")
	return nil
}

// runWebviewPeer scripts the far side: handshake reply, echo service, and a
// slow provisioning call guarded by a timeout hint.
func runWebviewPeer(ep *transport.Endpoint) {
	log := logging.New("webview-peer")
	ctx := context.Background()
	post := func(msg protocol.Message) {
		if err := ep.Post(ctx, msg); err != nil {
			log.Warn().Str("msg_type", msg.Type).Err(err).Msg("peer post failed")
		}
	}
	respond := func(to protocol.Message, payload any) {
		post(protocol.Message{
			ID:           "wv.resp." + to.ID,
			Type:         protocol.TypeResponse,
			Payload:      payload,
			Timestamp:    protocol.NowMillis(),
			IsResponse:   true,
			ResponseToID: to.ID,
		})
	}

	ep.Subscribe(func(msg protocol.Message) {
		switch msg.Type {
		case protocol.TypeExtensionReady:
			post(protocol.Message{ID: "wv.ready", Type: protocol.TypeWebviewReady, Timestamp: protocol.NowMillis()})
		case "echo":
			respond(msg, msg.Payload)
		case "provision":
			post(protocol.Message{
				ID:        "wv.hint." + msg.ID,
				Type:      protocol.TypeTimeoutHint,
				Payload:   protocol.TimeoutHint{RequestID: msg.ID, Timeout: 5000},
				Timestamp: protocol.NowMillis(),
			})
			go func() {
				time.Sleep(300 * time.Millisecond)
				respond(msg, map[string]any{"status": "deployed"})
			}()
		default:
			if !msg.IsResponse && !protocol.IsReserved(msg.Type) {
				log.Info().Str("msg_type", msg.Type).Msg("peer observed message")
			}
		}
	})
}
