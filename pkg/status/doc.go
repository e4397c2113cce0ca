/*
Package status follows a running batch and reports it to the user.

	            +-------------+
	            |   Tracker   |
	            +------+------+
	                   |
	      +-----------+-----------+
	      |                       |
	+-----+-----+           +----+----+
	| Formatter |           |  Logs   |
	| (message) |           | (UI/UX) |
	+-----------+           +---------+

🎯 Purpose:
- Consumes the event stream a batch publishes
- Keeps the latest view of every unit, the byte counts and the batch status
- Prints one console line per finished unit through pkg/log
- Formats progress and unit messages for structured logs

🔄 Flow:
1. The caller subscribes to a batch and hands the channel to Tracker.Run
2. Each event updates the tracker
3. Units reaching done, error or skipped are printed once
4. Run returns when the batch closes the channel

🤝 Interfaces:
- Formatter: formats status messages (DefaultFormatter uses emoji and humanized sizes)
- FormatUnitLine: renders a unit as an indented tree line, used by the plan command

The tracker never drives the batch. Events can be dropped when a subscriber
falls behind, so a tracker is a view, and the batch Report is the record.
*/
package status
