package core

import "context"

// ImpulseTest arms the counter from zero and calls report whenever the
// count changes, until ctx is cancelled. Used to check sensor alignment
// without a track.
func ImpulseTest(ctx context.Context, c *ImpulseCounter, yield func(), report func(count uint32)) error {
	c.Reset()
	if err := c.Arm(); err != nil {
		return err
	}
	defer c.Release()

	var last uint32
	for ctx.Err() == nil {
		if n := c.Count(); n != last {
			last = n
			if report != nil {
				report(n)
			}
		}
		yield()
	}
	return nil
}
