// Package signal runs the operator's alarm command, for example a sound player
// or a desktop notifier, when the checker sees an alarm start.
package signal
