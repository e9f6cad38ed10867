/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package transport

import (
	"context"
	"net"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/someip-go/someip/someiperr"
)

// MaxConsecutiveErrors bounds how many back-to-back receive errors a
// Serve loop tolerates before it gives up and reports NotReachable.
const MaxConsecutiveErrors = 10

// PacketConn is the minimal receive-loop contract transports in this
// package satisfy: a datagram arrives with a sender endpoint.
type PacketConn interface {
	ReadFrom(buf []byte) (int, net.Addr, error)
}

// Handler processes one received datagram.
type Handler func(data []byte, from net.Addr)

// Serve runs the receive loop on conn until ctx is canceled or the
// socket accumulates MaxConsecutiveErrors consecutive errors, at which
// point it returns a NotReachable error. Each datagram is handed to
// handler synchronously, in the order it was received off the socket.
func Serve(ctx context.Context, conn PacketConn, maxMessageSize int, handler Handler) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		buf := make([]byte, maxMessageSize)
		consecutiveErrors := 0
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			n, from, err := conn.ReadFrom(buf)
			if err != nil {
				consecutiveErrors++
				log.Warningf("transport: read error (%d/%d consecutive): %v", consecutiveErrors, MaxConsecutiveErrors, err)
				if consecutiveErrors >= MaxConsecutiveErrors {
					return someiperr.Wrap(someiperr.NotReachable, err)
				}
				continue
			}
			consecutiveErrors = 0

			received := make([]byte, n)
			copy(received, buf[:n])
			handler(received, from)
		}
	})
	return g.Wait()
}
