package xmpp

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gosrc.io/xmpp"
	"gosrc.io/xmpp/stanza"

	"github.com/taskpilot-app/taskpilot/internal/assistant"
	"github.com/taskpilot-app/taskpilot/internal/metrics"
)

const applyTimeout = 5 * time.Second

// Handler bridges XMPP messages to the assistant pipeline. Each inbound
// message body is treated as a one-message conversation; the dispatcher's
// reply is sent straight back to the sender.
type Handler struct {
	classifier *assistant.Classifier
	dispatcher *assistant.Dispatcher
	store      assistant.Store
}

func NewHandler(classifier *assistant.Classifier, dispatcher *assistant.Dispatcher, store assistant.Store) *Handler {
	return &Handler{
		classifier: classifier,
		dispatcher: dispatcher,
		store:      store,
	}
}

// HandleMessage processes incoming <message> stanzas.
func (h *Handler) HandleMessage(s xmpp.Sender, p stanza.Packet) {
	msg, ok := p.(stanza.Message)
	if !ok {
		return
	}
	if msg.Body == "" {
		return
	}

	slog.Debug("XMPP message received", "from", BareJID(msg.From), "type", string(msg.Type))

	action := h.classifier.Classify([]assistant.Message{
		{Role: "user", Content: msg.Body},
	})
	metrics.IntentsClassifiedTotal.WithLabelValues(string(action.Intent)).Inc()

	ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
	defer cancel()

	result := h.dispatcher.Apply(ctx, action, h.store)

	reply := stanza.Message{
		Attrs: stanza.Attrs{
			From: msg.To,
			To:   msg.From,
			Type: "chat",
		},
		Body: result.Message,
	}
	if err := s.Send(reply); err != nil {
		slog.Error("sending XMPP reply", "error", err, "to", BareJID(msg.From))
	}
}

// HandlePresence auto-approves subscribe requests so any client on the
// server can talk to the assistant.
func (h *Handler) HandlePresence(s xmpp.Sender, p stanza.Packet) {
	pres, ok := p.(stanza.Presence)
	if !ok {
		return
	}

	if pres.Type == "subscribe" {
		reply := stanza.Presence{
			Attrs: stanza.Attrs{
				From: pres.To,
				To:   pres.From,
				Type: "subscribed",
			},
		}
		if err := s.Send(reply); err != nil {
			slog.Error("sending presence subscribed reply", "error", err)
		}
	}
}

// BareJID strips the resource part from a JID.
func BareJID(jid string) string {
	if idx := strings.Index(jid, "/"); idx >= 0 {
		return jid[:idx]
	}
	return jid
}
