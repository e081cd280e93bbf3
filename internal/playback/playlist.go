package playback

// Item is one entry of an externally supplied playlist.
type Item struct {
	VideoID string
	Source  string
	Title   string
}

// SetPlaylist replaces the playlist. The current index follows the loaded
// video when it appears in items.
func (c *Controller) SetPlaylist(items []Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playlist = append([]Item(nil), items...)
	c.syncPlaylistLocked(c.sess.videoID)
}

func (c *Controller) syncPlaylistLocked(videoID string) {
	c.index = -1
	if videoID == "" {
		return
	}
	for i, item := range c.playlist {
		if item.VideoID == videoID {
			c.index = i
			return
		}
	}
}

// Next loads the following playlist item. It is a no-op at the end of the
// playlist or without one.
func (c *Controller) Next() bool { return c.step(1) }

// Previous loads the preceding playlist item. It is a no-op at the start of
// the playlist or without one.
func (c *Controller) Previous() bool { return c.step(-1) }

// Adjacent returns the playlist item delta positions from the loaded video
// without loading it.
func (c *Controller) Adjacent(delta int) (Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.adjacentLocked(delta)
}

func (c *Controller) adjacentLocked(delta int) (Item, bool) {
	if c.index < 0 {
		return Item{}, false
	}
	target := c.index + delta
	if target < 0 || target >= len(c.playlist) {
		return Item{}, false
	}
	return c.playlist[target], true
}

func (c *Controller) step(delta int) bool {
	c.mu.Lock()
	item, ok := c.adjacentLocked(delta)
	preview := c.sess.preview
	c.mu.Unlock()
	if !ok {
		return false
	}

	var opts []LoadOption
	if preview {
		opts = append(opts, WithPreview())
	}
	return c.Load(item.Source, item.VideoID, opts...) == nil
}
