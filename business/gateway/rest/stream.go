package rest

import (
	"context"

	"github.com/gin-gonic/gin"
)

// handleStream upgrades the connection and parks it on the hub until the
// client leaves.
func (s *Server) handleStream(c *gin.Context) {
	if err := s.hub.Subscribe(c.Writer, c.Request); err != nil {
		s.log.Debug(c.Request.Context(), "stream subscriber left", "reason", err)
	}
}

// StreamUpdates pushes a frame per new head: the block summary plus the
// gas snapshot taken at that head. Runs until ctx is canceled or the
// subscription closes.
func (s *Server) StreamUpdates(ctx context.Context) error {
	heads, err := s.chain.SubscribeBlocks(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case block, ok := <-heads:
			if !ok {
				return nil
			}
			if s.hub.Count() == 0 {
				continue
			}

			update := streamUpdate{Type: "block", Block: newBlockView(block)}
			if gas, err := s.chain.GetGasPrice(ctx); err == nil {
				update.Gas = newGasData(gas)
			}

			if err := s.hub.PublishJSON(update); err != nil {
				s.log.Warn(ctx, "stream publish failed", "error", err)
			}
		}
	}
}
