package room

import (
	"context"

	"github.com/watchparty/server/internal/repository/connection"
)

type RelaySignalParams struct {
	TargetId string
}

type RelaySignalResponse struct {
	Target *connection.Conn
}

// RelaySignal resolves the connection a negotiation payload is addressed
// to. The payload itself is never inspected: offer/answer/candidate
// semantics, including collision handling, live entirely in the clients.
func (s *service) RelaySignal(ctx context.Context, params *RelaySignalParams) (RelaySignalResponse, error) {
	conn, err := s.connRepo.GetConn(params.TargetId)
	if err != nil {
		return RelaySignalResponse{}, ErrTargetNotFound
	}

	return RelaySignalResponse{Target: conn}, nil
}
