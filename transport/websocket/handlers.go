package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/HyPolar/tic-tac-toe-backend/internal/entity"
	"github.com/HyPolar/tic-tac-toe-backend/internal/pkg"
	"github.com/HyPolar/tic-tac-toe-backend/internal/service"
)

var errQuit = errors.New("client quit")

func (that *Server) dispatch(ctx context.Context, client *client, message *Message) error {
	switch message.Action {
	case "join":
		return that.handleJoin(ctx, client, message)
	case "move":
		that.handleMove(client, message)
		return nil
	case "quit":
		return errQuit
	default:
		that.notifyError(client, fmt.Sprintf("unknown action %q", message.Action))
		return nil
	}
}

// handleJoin enters matchmaking. In production the payment webhook gates
// this message; the transport treats it as the post-payment signal. A
// connection whose previous match has finished may join again.
func (that *Server) handleJoin(ctx context.Context, client *client, message *Message) error {
	log := that.logger.With("method", "handleJoin")

	if client.inActiveMatch() {
		that.notifyError(client, "already in matchmaking")
		return nil
	}

	var payload JoinPayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		that.notifyError(client, "malformed join payload")
		return nil
	}

	participant := entity.NewParticipant(pkg.GenerateSessionID(), payload.Address)

	session, err := that.matchmaker.OnParticipantReady(ctx, participant, client, payload.Wager)
	if err != nil {
		log.Warn("failed to enter matchmaking", "error", err)
		that.notifyError(client, err.Error())

		return nil
	}

	client.participantID = participant.ID
	client.session = session

	return nil
}

// handleMove applies a placement; a rejection goes back to the acting
// participant only.
func (that *Server) handleMove(client *client, message *Message) {
	if client.session == nil {
		that.notifyError(client, "not in a match")
		return
	}

	var payload MovePayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		that.notifyError(client, "malformed move payload")
		return
	}

	if err := client.session.MakeMove(client.participantID, payload.Cell); err != nil {
		that.notifyError(client, err.Error())
	}
}

func (that *Server) notifyError(client *client, message string) {
	if err := client.Notify(service.EventMoveRejected, ErrorPayload{Message: message}); err != nil {
		that.logger.Warn("failed to notify error", "error", err)
	}
}
