package chat

// broadcastToRoom queues frame for every member of room except exclude.
// Membership is snapshotted before delivery; a member whose queue is full
// loses the frame without affecting the others.
func (r *Registry) broadcastToRoom(frame, room string, exclude *Client) int {
	delivered := 0
	for _, c := range r.dir.Members(room) {
		if c == exclude {
			continue
		}
		if r.send(c, frame) {
			delivered++
		}
	}
	return delivered
}

// send queues one frame for c. It never blocks the registry.
func (r *Registry) send(c *Client, frame string) bool {
	select {
	case c.Out <- frame:
		return true
	default:
		r.metrics.DroppedFrames.Inc()
		r.logger.Warn("outbound queue full, frame dropped", "conn", c.ID)
		return false
	}
}
