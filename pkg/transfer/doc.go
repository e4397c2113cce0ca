/*
Package transfer implements the batch engine that copies or moves a tree of files between two backends.

	+-----------+     +-----------+     +-------------+
	|  Expand   | --> | Scheduler | --> |  transfer   |
	| (units)   |     | (slots)   | <-- | (goroutine) |
	+-----------+     +-----------+     +-------------+

🔄 Flow:
1. Expand lists every directory below the top-level entries and records one unit per file
   and directory, depth first, each directory ahead of its contents
2. Start hands ready units to transfer goroutines, never more than Concurrency at a time
3. A finished directory makes its children ready; a failed one skips them
4. The batch ends done, partial or error and returns a Report

⚡ Concurrency:
The scheduler loop owns the slot count and the completed count. Transfer goroutines only
report back over a channel, so the in-flight limit holds by construction. Byte progress is
an add-only atomic counter.

🏷️ Naming:
ResolveName never overwrites. Files that collide become name_1, name_2, ...; a directory
that collides with a file does the same, while a directory that collides with a directory
is merged into.

🔍 Example:

	b, err := transfer.New(transfer.Options{
		Source:          src,
		Destination:     dst,
		DestinationRoot: "/backup",
	})
	if err != nil {
		return err
	}
	if err := b.Expand(ctx, entries); err != nil {
		return err
	}
	report, err := b.Start(ctx)
*/
package transfer
