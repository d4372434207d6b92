package store

// Trigger names the event that asked for pending changes to be committed.
type Trigger string

const (
	// TriggerOperationEnd follows every mutation made through the planner.
	TriggerOperationEnd Trigger = "operation-end"
	// TriggerForeground fires once the service is hydrated and ready.
	TriggerForeground Trigger = "foreground"
	// TriggerBackground fires when the process is told it went to the background (SIGHUP).
	TriggerBackground Trigger = "background"
	// TriggerInterval is fired by the autosave ticker.
	TriggerInterval Trigger = "interval"
	// TriggerExplicit is an on-demand commit (POST /api/persist).
	TriggerExplicit Trigger = "explicit"
	// TriggerShutdown is the final commit during graceful stop.
	TriggerShutdown Trigger = "shutdown"
)

// Triggers lists every commit trigger.
func Triggers() []Trigger {
	return []Trigger{
		TriggerOperationEnd,
		TriggerForeground,
		TriggerBackground,
		TriggerInterval,
		TriggerExplicit,
		TriggerShutdown,
	}
}
