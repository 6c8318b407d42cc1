package game

import (
	"fmt"
)

// Join puts the connection into the room under code. A connection already in
// another room leaves it first.
func (d *Directory) Join(connID, code, name string) (*Session, Player, error) {
	s, err := d.Get(code)
	if err != nil {
		return nil, Player{}, err
	}
	if cur := d.ByConn(connID); cur != nil {
		if cur == s {
			return nil, Player{}, ErrAlreadyInRoom
		}
		if err := cur.Leave(connID); err != nil {
			d.log.Debug().Err(err).Str("conn", connID).Msg("leave before join")
		}
	}
	p, err := s.Join(connID, name)
	if err != nil {
		return nil, Player{}, err
	}
	return s, p, nil
}

// Leave removes the connection's player from its room.
func (d *Directory) Leave(connID string) error {
	s := d.ByConn(connID)
	if s == nil {
		return ErrNotInRoom
	}
	return s.Leave(connID)
}

// Disconnect starts the grace period for the connection's player, if any.
func (d *Directory) Disconnect(connID string) {
	if s := d.ByConn(connID); s != nil {
		s.Disconnect(connID)
	}
}

// Rejoin binds a new connection to a disconnected player of the room under
// code. The connection leaves any other room only once the rejoin succeeded.
func (d *Directory) Rejoin(connID, code, playerID, name string) (*Session, Player, error) {
	s, err := d.Get(code)
	if err != nil {
		return nil, Player{}, err
	}
	prev := d.ByConn(connID)
	p, err := s.Rejoin(connID, playerID, name)
	if err != nil {
		return nil, Player{}, err
	}
	if prev != nil && prev != s {
		if err := prev.Leave(connID); err != nil {
			d.log.Debug().Err(err).Str("conn", connID).Msg("leave after rejoin")
		}
	}
	return s, p, nil
}

// Session returns the room the connection is in.
func (d *Directory) Session(connID string) (*Session, error) {
	s := d.ByConn(connID)
	if s == nil {
		return nil, fmt.Errorf("%w: join a room first", ErrNotInRoom)
	}
	return s, nil
}
