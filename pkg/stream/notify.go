package stream

import "fmt"

// notification is one queued observer call.
type notification func()

// setStatusLocked records a transition and queues the status observer.
func (c *Controller) setStatusLocked(to Status) {
	if c.status == to {
		return
	}
	c.status = to
	if fn := c.observers.onStatus; fn != nil {
		c.queue = append(c.queue, func() { fn(to) })
	}
}

// drain delivers queued notifications in order, outside the lock. Only one
// goroutine drains at a time; a notification queued while another goroutine
// is draining (including from inside an observer) is delivered by that
// goroutine, so observers may call back into the Controller.
func (c *Controller) drain() {
	c.drainAs(false)
}

// drainReader is drain for the reader goroutine of a session.
func (c *Controller) drainReader() {
	c.drainAs(true)
}

func (c *Controller) drainAs(reader bool) {
	c.mu.Lock()
	if c.draining {
		c.mu.Unlock()
		return
	}
	c.draining = true
	c.readerDraining = reader

	for len(c.queue) > 0 {
		n := c.queue[0]
		c.queue[0] = nil
		c.queue = c.queue[1:]
		c.mu.Unlock()

		c.deliver(n)

		c.mu.Lock()
	}

	c.queue = nil
	c.draining = false
	c.readerDraining = false
	c.mu.Unlock()
}

func (c *Controller) deliver(n notification) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("observer panicked", "panic", fmt.Sprint(r))
		}
	}()
	n()
}
