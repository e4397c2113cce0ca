/*
Package operation turns a job config into runnable steps.

	+-------------+
	|  Operation  |
	|  (Job step) |
	+------+------+
	       |
	+------+------+
	|    Batch    |
	|  (transfer) |
	+------+------+

🎯 Purpose:
- Resolves the configured entries against the source root
- Builds and expands a transfer batch from the config
- Runs it (CopyOperation) or only plans it (PlanOperation)

🔄 Flow:
1. entries: list the root, or stat each named entry
2. expand: the batch walks every directory below them
3. copy: a status tracker follows the batch events while it runs
4. the report is kept on the operation for the caller

🤝 Interfaces:
- Operation: anything with Execute(ctx)
- Runner: runs operations in order, or all at once on an errgroup

🔍 Example:

	op := operation.NewCopyOperation(operation.Options{
		Config:      cfg,
		Source:      src,
		Destination: dst,
		Console:     console,
	})
	if err := operation.NewRunner(cfg.Async).Run(ctx, op); err != nil {
		return err
	}
	fmt.Println(op.Report().Summary())
*/
package operation
